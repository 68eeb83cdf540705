package main

import (
	"log"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/smartshop/smartshop-api/config"
	"github.com/smartshop/smartshop-api/controllers"
	"github.com/smartshop/smartshop-api/middleware"
	"github.com/smartshop/smartshop-api/models"
	"github.com/smartshop/smartshop-api/services"
)

func main() {
	// Basic logging
	log.Println("Starting SmartShop API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Tax rate is configurable per deployment
	if taxRate, err := decimal.NewFromString(cfg.TaxRatePercent); err == nil {
		services.DefaultTaxRatePercent = taxRate
	} else {
		log.Printf("Invalid TAX_RATE_PERCENT %q, keeping default %s", cfg.TaxRatePercent, services.DefaultTaxRatePercent)
	}

	// Connect to database
	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate database models
	db := config.GetDB()
	if err := db.AutoMigrate(
		&models.User{},
		&models.Client{},
		&models.Product{},
		&models.PromoCode{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
	); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	// Initialize Gin router
	router := gin.Default()
	router.Use(cors.Default())

	auth := middleware.RequireAuth(cfg.JWTSecret)
	admin := middleware.RequireRole(models.RoleAdmin)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check endpoint
		v1.GET("/health", healthCheck)

		// Database status endpoint
		v1.GET("/database/status", databaseStatus)

		// Auth
		v1.POST("/auth/login", controllers.Login(cfg))
		v1.POST("/auth/logout", auth, controllers.Logout)
		v1.GET("/auth/me", auth, controllers.Me)

		// User accounts (admin only)
		v1.POST("/users", auth, admin, controllers.CreateUser)
		v1.GET("/users", auth, admin, controllers.ListUsers)
		v1.GET("/users/:id", auth, admin, controllers.GetUser)
		v1.PUT("/users/:id", auth, admin, controllers.UpdateUser)
		v1.DELETE("/users/:id", auth, admin, controllers.DeleteUser)

		// Clients
		v1.POST("/clients", auth, admin, controllers.CreateClient)
		v1.GET("/clients", auth, controllers.ListClients)
		v1.GET("/clients/:id", auth, controllers.GetClient)
		v1.PUT("/clients/:id", auth, admin, controllers.UpdateClient)
		v1.PATCH("/clients/:id/active", auth, admin, controllers.SetClientActive)

		// Products
		v1.POST("/products", auth, admin, controllers.CreateProduct)
		v1.GET("/products", auth, controllers.ListProducts)
		v1.GET("/products/:id", auth, controllers.GetProduct)
		v1.PUT("/products/:id", auth, admin, controllers.UpdateProduct)
		v1.DELETE("/products/:id", auth, admin, controllers.DeleteProduct)
		v1.PATCH("/products/:id/stock/add", auth, admin, controllers.AddStock)
		v1.PATCH("/products/:id/stock/remove", auth, admin, controllers.RemoveStock)

		// Promo codes
		v1.POST("/promo-codes", auth, admin, controllers.CreatePromoCode)
		v1.GET("/promo-codes", auth, admin, controllers.ListPromoCodes)
		v1.GET("/promo-codes/:id", auth, admin, controllers.GetPromoCode)
		v1.GET("/promo-codes/code/:code", auth, controllers.GetPromoCodeByCode)
		v1.PUT("/promo-codes/:id", auth, admin, controllers.UpdatePromoCode)
		v1.DELETE("/promo-codes/:id", auth, admin, controllers.DeletePromoCode)

		// Orders
		v1.POST("/orders", auth, controllers.CreateOrder)
		v1.GET("/orders", auth, controllers.ListOrders)
		v1.GET("/orders/:id", auth, controllers.GetOrder)
		v1.GET("/orders/reference/:reference", auth, controllers.GetOrderByReference)
		v1.POST("/orders/:id/confirm", auth, controllers.ConfirmOrder)
		v1.POST("/orders/:id/cancel", auth, controllers.CancelOrder)
		v1.POST("/orders/:id/reject", auth, admin, controllers.RejectOrder)

		// Payments
		v1.POST("/payments", auth, controllers.CreatePayment)
		v1.GET("/payments", auth, controllers.ListPayments)
		v1.GET("/payments/:id", auth, controllers.GetPayment)
		v1.POST("/payments/:id/settle", auth, admin, controllers.SettlePayment)
		v1.POST("/payments/:id/reject", auth, admin, controllers.RejectPayment)
	}

	// Start server
	port := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", port)
	if err := router.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "SmartShop API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(c *gin.Context) {
	db := config.GetDB()

	// Get the underlying SQL database to check connection
	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	// Ping the database to verify connection
	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	// Get list of tables
	var tables []string
	if err := db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public'").Scan(&tables).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_QUERY_ERROR",
				"message": "Failed to query tables",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"tables":  tables,
	})
}
