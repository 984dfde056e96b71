package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/queless/trinity-canteen-api/config"
	"github.com/queless/trinity-canteen-api/models"
	"github.com/queless/trinity-canteen-api/services"
)

// SetStatusRequest represents the request body for toggling the canteen
type SetStatusRequest struct {
	IsOpen *bool `json:"is_open" binding:"required"`
}

// GetStatus handles GET /api/v1/status - reports whether the canteen is open.
// A status row that was never written reads as closed.
func GetStatus(c *gin.Context) {
	db := config.GetDB()

	var status models.CanteenStatus
	if err := db.First(&status, models.CanteenStatusID).Error; err != nil {
		status = models.CanteenStatus{ID: models.CanteenStatusID, IsOpen: false}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"is_open": status.IsOpen},
	})
}

// SetStatus handles PUT /api/v1/status - opens or closes the canteen
// (admin only). The singleton row is overwritten wholesale; last write wins.
func SetStatus(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if user.Role != "admin" {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "Only the admin can change canteen status",
			},
		})
		return
	}

	var req SetStatusRequest
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
	status := models.CanteenStatus{
		ID:     models.CanteenStatusID,
		IsOpen: *req.IsOpen,
	}
	if err := db.Save(&status).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to update canteen status",
			},
		})
		return
	}

	services.GetEventHub().Publish(services.Event{
		Type: services.EventStatusChanged,
		Data: gin.H{"is_open": status.IsOpen},
	})

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"is_open": status.IsOpen},
	})
}
