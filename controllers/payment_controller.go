package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/smartshop/smartshop-api/config"
	"github.com/smartshop/smartshop-api/models"
	"github.com/smartshop/smartshop-api/services"
)

// RejectPaymentRequest represents the request body for rejecting a payment
type RejectPaymentRequest struct {
	Reason string `json:"reason"`
}

// CreatePayment handles POST /api/v1/payments - records a payment against
// a PENDING order
func CreatePayment(c *gin.Context) {
	var req services.CreatePaymentRequest
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

	svc := services.NewPaymentService(config.GetDB())
	payment, err := svc.CreatePayment(req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    payment,
	})
}

// GetPayment handles GET /api/v1/payments/:id
func GetPayment(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Payment ID must be a number",
			},
		})
		return
	}

	svc := services.NewPaymentService(config.GetDB())
	payment, err := svc.GetPaymentByID(uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    payment,
	})
}

// ListPayments handles GET /api/v1/payments - filtered by ?order_id=,
// ?status=, or ?overdue_cheques=true
func ListPayments(c *gin.Context) {
	svc := services.NewPaymentService(config.GetDB())

	var (
		payments []models.Payment
		err      error
	)
	switch {
	case c.Query("order_id") != "":
		orderID, parseErr := strconv.ParseUint(c.Query("order_id"), 10, 32)
		if parseErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_ID",
					"message": "Order ID must be a number",
				},
			})
			return
		}
		payments, err = svc.ListPaymentsByOrder(uint(orderID))
	case c.Query("overdue_cheques") == "true":
		payments, err = svc.ListOverdueCheques()
	case c.Query("status") != "":
		payments, err = svc.ListPaymentsByStatus(models.PaymentStatus(c.Query("status")))
	default:
		payments, err = svc.ListPaymentsByStatus(models.PaymentStatusPending)
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    payments,
	})
}

// SettlePayment handles POST /api/v1/payments/:id/settle - marks a pending
// cheque or transfer payment as collected
func SettlePayment(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Payment ID must be a number",
			},
		})
		return
	}

	svc := services.NewPaymentService(config.GetDB())
	payment, err := svc.SettlePayment(uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    payment,
	})
}

// RejectPayment handles POST /api/v1/payments/:id/reject
func RejectPayment(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Payment ID must be a number",
			},
		})
		return
	}

	var req RejectPaymentRequest
	if c.Request.Body != nil {
		// Reason is optional; an empty body is fine
		_ = c.ShouldBindJSON(&req)
	}

	svc := services.NewPaymentService(config.GetDB())
	payment, err := svc.RejectPayment(uint(id), req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    payment,
	})
}
