package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/smartshop/smartshop-api/config"
	"github.com/smartshop/smartshop-api/models"
	"github.com/smartshop/smartshop-api/services"
)

// RejectOrderRequest represents the request body for rejecting an order
type RejectOrderRequest struct {
	Reason string `json:"reason"`
}

// CreateOrder handles POST /api/v1/orders - validates and prices a cart
// into a PENDING order
func CreateOrder(c *gin.Context) {
	var req services.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	svc := services.NewOrderService(config.GetDB())
	order, err := svc.CreateOrder(req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    order,
	})
}

// GetOrder handles GET /api/v1/orders/:id
func GetOrder(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Order ID must be a number",
			},
		})
		return
	}

	svc := services.NewOrderService(config.GetDB())
	order, err := svc.GetOrderByID(uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// GetOrderByReference handles GET /api/v1/orders/reference/:reference
func GetOrderByReference(c *gin.Context) {
	svc := services.NewOrderService(config.GetDB())
	order, err := svc.GetOrderByReference(c.Param("reference"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// ListOrders handles GET /api/v1/orders - paginated, most recent first.
// Optional filters: ?status=PENDING, ?client_id=42.
func ListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	svc := services.NewOrderService(config.GetDB())

	var (
		orders []models.Order
		total  int64
		err    error
	)
	switch {
	case c.Query("client_id") != "":
		clientID, parseErr := strconv.ParseUint(c.Query("client_id"), 10, 32)
		if parseErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_ID",
					"message": "Client ID must be a number",
				},
			})
			return
		}
		orders, total, err = svc.ListOrdersByClient(uint(clientID), page, limit)
	case c.Query("status") != "":
		orders, total, err = svc.ListOrdersByStatus(models.OrderStatus(c.Query("status")), page, limit)
	default:
		orders, total, err = svc.ListOrders(page, limit)
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       orders,
		"pagination": paginationEnvelope(page, limit, total),
	})
}

// ConfirmOrder handles POST /api/v1/orders/:id/confirm - requires the order
// to be fully paid; decrements stock and updates client loyalty statistics
func ConfirmOrder(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Order ID must be a number",
			},
		})
		return
	}

	svc := services.NewOrderService(config.GetDB())
	order, err := svc.ConfirmOrder(uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// CancelOrder handles POST /api/v1/orders/:id/cancel
func CancelOrder(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Order ID must be a number",
			},
		})
		return
	}

	svc := services.NewOrderService(config.GetDB())
	order, err := svc.CancelOrder(uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// RejectOrder handles POST /api/v1/orders/:id/reject
func RejectOrder(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Order ID must be a number",
			},
		})
		return
	}

	var req RejectOrderRequest
	if c.Request.Body != nil {
		// Reason is optional; an empty body is fine
		_ = c.ShouldBindJSON(&req)
	}

	svc := services.NewOrderService(config.GetDB())
	order, err := svc.RejectOrder(uint(id), req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}
