package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/smartshop/smartshop-api/config"
	"github.com/smartshop/smartshop-api/models"
)

// CreatePromoCodeRequest represents the request body for creating a promo code
type CreatePromoCodeRequest struct {
	Code               string     `json:"code" binding:"required,max=10"`
	DiscountPercentage int        `json:"discount_percentage" binding:"required,gte=1,lte=100"`
	ExpiresAt          *time.Time `json:"expires_at"`
	MaxUses            *int       `json:"max_uses" binding:"omitempty,gt=0"`
	Description        string     `json:"description"`
}

// UpdatePromoCodeRequest represents the request body for updating a promo code
type UpdatePromoCodeRequest struct {
	Active             *bool      `json:"active" binding:"required"`
	DiscountPercentage int        `json:"discount_percentage" binding:"required,gte=1,lte=100"`
	ExpiresAt          *time.Time `json:"expires_at"`
	MaxUses            *int       `json:"max_uses" binding:"omitempty,gt=0"`
	Description        string     `json:"description"`
}

// CreatePromoCode handles POST /api/v1/promo-codes (admin only)
func CreatePromoCode(c *gin.Context) {
	var req CreatePromoCodeRequest
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

	db := config.GetDB()

	var count int64
	db.Model(&models.PromoCode{}).Where("code = ?", req.Code).Count(&count)
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "PROMO_CODE_EXISTS",
				"message": "A promo code with this code already exists",
			},
		})
		return
	}

	promo := models.PromoCode{
		Code:               req.Code,
		Active:             true,
		DiscountPercentage: req.DiscountPercentage,
		ExpiresAt:          req.ExpiresAt,
		MaxUses:            req.MaxUses,
		Description:        req.Description,
	}

	if err := db.Create(&promo).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create promo code",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    promo,
	})
}

// ListPromoCodes handles GET /api/v1/promo-codes (admin only).
// ?active=true filters to active codes.
func ListPromoCodes(c *gin.Context) {
	db := config.GetDB()
	query := db.Model(&models.PromoCode{})
	if active := c.Query("active"); active != "" {
		query = query.Where("active = ?", active == "true")
	}

	var promos []models.PromoCode
	if err := query.Order("created_at DESC").Find(&promos).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to list promo codes",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    promos,
	})
}

// GetPromoCode handles GET /api/v1/promo-codes/:id (admin only)
func GetPromoCode(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Promo code ID must be a number",
			},
		})
		return
	}

	db := config.GetDB()
	var promo models.PromoCode
	if err := db.First(&promo, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "PROMO_NOT_FOUND",
				"message": "Promo code not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    promo,
	})
}

// GetPromoCodeByCode handles GET /api/v1/promo-codes/code/:code - lets a
// client check a code before submitting a cart. Responds with validity.
func GetPromoCodeByCode(c *gin.Context) {
	code := c.Param("code")

	db := config.GetDB()
	var promo models.PromoCode
	if err := db.Where("code = ?", code).First(&promo).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "PROMO_NOT_FOUND",
				"message": "Promo code not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"code":                promo.Code,
			"discount_percentage": promo.DiscountPercentage,
			"valid":               promo.IsValid(),
		},
	})
}

// UpdatePromoCode handles PUT /api/v1/promo-codes/:id (admin only).
// The code string itself is immutable once created.
func UpdatePromoCode(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Promo code ID must be a number",
			},
		})
		return
	}

	var req UpdatePromoCodeRequest
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

	db := config.GetDB()
	var promo models.PromoCode
	if err := db.First(&promo, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "PROMO_NOT_FOUND",
				"message": "Promo code not found",
			},
		})
		return
	}

	promo.Active = *req.Active
	promo.DiscountPercentage = req.DiscountPercentage
	promo.ExpiresAt = req.ExpiresAt
	promo.MaxUses = req.MaxUses
	promo.Description = req.Description

	if err := db.Save(&promo).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to update promo code",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    promo,
	})
}

// DeletePromoCode handles DELETE /api/v1/promo-codes/:id (admin only)
func DeletePromoCode(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Promo code ID must be a number",
			},
		})
		return
	}

	db := config.GetDB()
	var promo models.PromoCode
	if err := db.First(&promo, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "PROMO_NOT_FOUND",
				"message": "Promo code not found",
			},
		})
		return
	}

	if err := db.Delete(&promo).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to delete promo code",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Promo code deleted",
	})
}
