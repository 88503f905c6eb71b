package webhookControllers

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lyrion-studio/lyrion-api/broker"
	orderControllers "github.com/lyrion-studio/lyrion-api/controllers/order"
	"github.com/lyrion-studio/lyrion-api/fulfillment"
	"github.com/lyrion-studio/lyrion-api/middleware"
	"github.com/lyrion-studio/lyrion-api/models"
	"github.com/stripe/stripe-go/v80"
	"gorm.io/gorm"
)

const maxPrintfulBody = 1 << 20

type EventHandler interface {
	Handle(ctx context.Context, event stripe.Event) broker.Outcome
}

// POST /webhook (behind middleware.StripeWebhookAuth)
//
// Anything but a failed outcome is acknowledged with 200 so Stripe stops
// redelivering; degraded orders are followed up by email instead.
func StripeWebhookHandler(handler EventHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		event, ok := middleware.StripeEvent(c)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing verified event"})
			return
		}

		out := handler.Handle(c.Request.Context(), event)
		if !out.Acknowledge() {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "webhook processing failed", "outcome": out})
			return
		}
		c.JSON(http.StatusOK, gin.H{"received": true, "outcome": out})
	}
}

// POST /webhooks/printful
func PrintfulWebhookHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPrintfulBody))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
			return
		}
		ev, err := fulfillment.ParseStatusEvent(body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		status, ok := ev.FulfillmentStatus()
		ref := ev.Data.Order.ExternalID
		log.Printf("📦 Printful %s for order %s (printful #%s)", ev.Type, ref, ev.ProviderOrderID())
		if !ok || ref == "" {
			c.JSON(http.StatusOK, gin.H{"received": true})
			return
		}

		var order models.Order
		if err := db.Where("order_ref = ?", ref).First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				log.Printf("⚠️ Printful event for unknown order %s", ref)
				c.JSON(http.StatusOK, gin.H{"received": true})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		if err := db.Model(&order).Updates(map[string]any{
			"fulfillment_status": status,
			"notes":              orderControllers.AppendNote(order.Notes, ev.Note()),
		}).Error; err != nil {
			log.Printf("❌ Failed to record printful status for %s: %v", ref, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update order"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"received": true, "status": status})
	}
}
