package routes

import (
	"github.com/gin-gonic/gin"
	webhookControllers "github.com/lyrion-studio/lyrion-api/controllers/webhook"
	"github.com/lyrion-studio/lyrion-api/middleware"
)

func SetupWebhookRoutes(r *gin.Engine, deps Dependencies) {
	// Webhook endpoint: middleware verifies the Stripe-Signature header
	r.POST("/webhook",
		middleware.StripeWebhookAuth(deps.StripeWebhookSecret),
		webhookControllers.StripeWebhookHandler(deps.Dispatcher),
	)

	// Printful status updates: optional ?token= shared secret
	r.POST("/webhooks/printful",
		middleware.PrintfulWebhookAuth(deps.PrintfulWebhookToken),
		webhookControllers.PrintfulWebhookHandler(deps.DB),
	)
}
