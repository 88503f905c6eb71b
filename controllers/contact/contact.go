package contactControllers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lyrion-studio/lyrion-api/email"
)

type ContactForwarder interface {
	ForwardContact(ctx context.Context, m email.ContactMessage) error
}

type ContactRequest struct {
	Name    string `json:"name" binding:"required,max=200"`
	Email   string `json:"email" binding:"required,email"`
	Subject string `json:"subject" binding:"max=200"`
	Message string `json:"message" binding:"required,max=5000"`
}

// POST /contact
func SubmitContact(notifier ContactForwarder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ContactRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
			return
		}

		subject := strings.TrimSpace(req.Subject)
		if subject == "" {
			subject = "General enquiry"
		}
		err := notifier.ForwardContact(c.Request.Context(), email.ContactMessage{
			Name:      strings.TrimSpace(req.Name),
			Email:     strings.TrimSpace(req.Email),
			Subject:   subject,
			Message:   strings.TrimSpace(req.Message),
			Timestamp: time.Now().UTC(),
		})
		if err != nil {
			log.Printf("❌ Contact message from %s not delivered: %v", req.Email, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to send message"})
			return
		}

		log.Printf("📧 Contact message forwarded from %s", req.Email)
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Message sent"})
	}
}
