package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/queless/trinity-canteen-api/config"
	"github.com/queless/trinity-canteen-api/models"
	"github.com/queless/trinity-canteen-api/services"
)

// OrderItemRequest is one line of an order submission
type OrderItemRequest struct {
	Name  string `json:"name" binding:"required"`
	Qty   int    `json:"qty" binding:"gte=0"`
	Price int    `json:"price" binding:"gte=0"`
}

// CreateOrderRequest represents the request body for placing an order
type CreateOrderRequest struct {
	Items []OrderItemRequest `json:"items" binding:"required"`
}

// CreateOrder handles POST /api/v1/orders - places an order (students only).
// The order is stamped with the next token number and the active session id
// from the counter.
func CreateOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if user.Role != "student" {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "Only students can place orders",
			},
		})
		return
	}

	var req CreateOrderRequest
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

	// Zero-quantity lines are dropped; an order needs at least one real line
	var items []models.OrderItem
	for _, item := range req.Items {
		if item.Qty <= 0 {
			continue
		}
		items = append(items, models.OrderItem{
			Name:  item.Name,
			Qty:   item.Qty,
			Price: item.Price,
		})
	}
	if len(items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Please select at least one item",
			},
		})
		return
	}

	db := config.GetDB()
	tokenNumber, sessionID, err := services.NewTokenService(db).IssueNext()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to issue a token number",
			},
		})
		return
	}

	order := models.Order{
		StudentID:   user.ID,
		TokenNumber: tokenNumber,
		SessionID:   sessionID,
		Status:      models.OrderStatusPending,
		Items:       items,
	}

	if err := db.Create(&order).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to place order",
			},
		})
		return
	}

	services.GetEventHub().Publish(services.Event{
		Type:      services.EventOrderCreated,
		StudentID: order.StudentID,
		Data:      order,
	})

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    order,
	})
}

// ListOrders handles GET /api/v1/orders. Students see their own orders,
// newest first. The admin sees the active session's orders by default; the
// full history (all sessions) with ?all=true. The session filter is purely
// read-side, resets never touch stored orders.
func ListOrders(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	db := config.GetDB()
	query := db.Preload("Items").Order("created_at desc")

	if user.Role == "admin" {
		if c.Query("all") != "true" {
			sessionID, err := services.NewTokenService(db).CurrentSession()
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"error": gin.H{
						"code":    "DATABASE_ERROR",
						"message": "Failed to load session counter",
					},
				})
				return
			}
			query = query.Where("session_id = ?", sessionID)
		}
		query = query.Preload("Student")
	} else {
		query = query.Where("student_id = ?", user.ID)
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load orders",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    orders,
	})
}

// ServeOrder handles POST /api/v1/orders/:id/serve - marks an order served
// (admin only). Serving is idempotent on the stored status, but the
// now-serving pointer is overwritten every time, regardless of how this
// token compares numerically to other pending ones.
func ServeOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if user.Role != "admin" {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "Only the admin can serve orders",
			},
		})
		return
	}

	db := config.GetDB()
	var order models.Order
	if err := db.Preload("Items").First(&order, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ORDER_NOT_FOUND",
				"message": "Order not found",
			},
		})
		return
	}

	if err := db.Model(&order).Update("status", models.OrderStatusServed).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to update order",
			},
		})
		return
	}
	order.Status = models.OrderStatusServed

	nowServing := models.NowServing{
		ID:                 models.NowServingID,
		CurrentTokenNumber: order.TokenNumber,
	}
	if err := db.Save(&nowServing).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to update now-serving pointer",
			},
		})
		return
	}

	hub := services.GetEventHub()
	hub.Publish(services.Event{
		Type:      services.EventOrderServed,
		StudentID: order.StudentID,
		Data:      order,
	})
	hub.Publish(services.Event{
		Type: services.EventNowServing,
		Data: gin.H{"current_token_number": nowServing.CurrentTokenNumber},
	})

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// GetNowServing handles GET /api/v1/now-serving - the token number most
// recently marked served
func GetNowServing(c *gin.Context) {
	db := config.GetDB()

	var nowServing models.NowServing
	if err := db.First(&nowServing, models.NowServingID).Error; err != nil {
		nowServing = models.NowServing{ID: models.NowServingID, CurrentTokenNumber: 0}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"current_token_number": nowServing.CurrentTokenNumber},
	})
}

// ResetTokens handles POST /api/v1/admin/reset-tokens - starts a fresh
// numbering session (admin only). Existing orders keep their old session id
// and drop out of the admin's default view.
func ResetTokens(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if user.Role != "admin" {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "Only the admin can reset the token counter",
			},
		})
		return
	}

	db := config.GetDB()
	sessionID, err := services.NewTokenService(db).Reset()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to reset token counter",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"session_id": sessionID},
	})
}
