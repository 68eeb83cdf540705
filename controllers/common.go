package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smartshop/smartshop-api/services"
)

// respondServiceError maps a service error to the HTTP response envelope:
// not-found misses become 404, business rule violations 422, and conflicts
// detected at mutation time 409.
func respondServiceError(c *gin.Context, err error) {
	var notFoundErr *services.NotFoundError
	if errors.As(err, &notFoundErr) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    notFoundErr.Code,
				"message": notFoundErr.Message,
			},
		})
		return
	}

	var businessErr *services.BusinessError
	if errors.As(err, &businessErr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success": false,
			"error": gin.H{
				"code":    businessErr.Code,
				"message": businessErr.Message,
			},
		})
		return
	}

	var conflictErr *services.ConflictError
	if errors.As(err, &conflictErr) {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    conflictErr.Code,
				"message": conflictErr.Message,
			},
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "INTERNAL_ERROR",
			"message": "An unexpected error occurred",
		},
	})
}

// paginationEnvelope builds the pagination block returned by list endpoints
func paginationEnvelope(page, limit int, total int64) gin.H {
	totalPages := total / int64(limit)
	if total%int64(limit) != 0 {
		totalPages++
	}
	return gin.H{
		"page":       page,
		"limit":      limit,
		"total":      total,
		"totalPages": totalPages,
	}
}
