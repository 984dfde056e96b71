package controllers

import (
	"io"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/queless/trinity-canteen-api/config"
	"github.com/queless/trinity-canteen-api/models"
	"github.com/queless/trinity-canteen-api/services"
)

// StreamEvents handles GET /api/v1/events - a Server-Sent Events stream of
// live changes. Students receive their own order events plus the broadcast
// canteen-status and now-serving updates; the admin stream carries
// everything. The subscription is torn down when the client disconnects.
func StreamEvents(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	hub := services.GetEventHub()
	ch, unsubscribe := hub.Subscribe(16)
	defer unsubscribe()

	// A student stream carries a projection for the lifetime of the client
	// session: it splits the student's orders into pending/served and holds
	// the notified-token set that keeps ready notifications to one per token.
	var proj *services.StudentProjection
	if user.Role != "admin" {
		proj = services.NewStudentProjection(user.ID)

		var orders []models.Order
		if err := config.GetDB().Preload("Items").Where("student_id = ?", user.ID).
			Find(&orders).Error; err != nil {
			log.Printf("Failed to seed projection for student %d: %v", user.ID, err)
		} else {
			proj.Seed(orders)
		}

		c.SSEvent("queue", gin.H{
			"pending": proj.Pending(),
			"served":  proj.Served(),
		})
		c.Writer.Flush()
	}

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case e, open := <-ch:
			if !open {
				return false
			}

			// Order events are owner-scoped for students
			if user.Role != "admin" && e.StudentID != 0 && e.StudentID != user.ID {
				return true
			}

			if proj != nil {
				if n := proj.Apply(e); n != nil {
					c.SSEvent("notification", n)
				}
			}

			c.SSEvent(e.Type, e.Data)
			return true
		}
	})
}
