package routes

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lyrion-studio/lyrion-api/accesscode"
	"github.com/lyrion-studio/lyrion-api/catalog"
	checkoutControllers "github.com/lyrion-studio/lyrion-api/controllers/checkout"
	contactControllers "github.com/lyrion-studio/lyrion-api/controllers/contact"
	discountControllers "github.com/lyrion-studio/lyrion-api/controllers/discount"
	orderControllers "github.com/lyrion-studio/lyrion-api/controllers/order"
	webhookControllers "github.com/lyrion-studio/lyrion-api/controllers/webhook"
	"github.com/lyrion-studio/lyrion-api/middleware"
	"github.com/lyrion-studio/lyrion-api/payment"
	"gorm.io/gorm"
)

// Dependencies is everything the handlers need, built once in main.
type Dependencies struct {
	DB         *gorm.DB
	Catalog    *catalog.Catalog
	Creator    *payment.Creator
	Codes      checkoutControllers.CodeValidator
	CodeReader accesscode.Reader
	CodeWriter discountControllers.CodeWriter // nil unless codes live in the database
	Dispatcher webhookControllers.EventHandler
	Contact    contactControllers.ContactForwarder
	Hub        *orderControllers.Hub
	Limiter    *middleware.RateLimiter

	JWTSecret            string
	AdminAPIKey          string
	StripeWebhookSecret  string
	PrintfulWebhookToken string // optional
	AllowedOrigins       []string
}

// NewRouter builds the gin engine with CORS and every route group.
func NewRouter(deps Dependencies) *gin.Engine {
	r := gin.Default()

	// Access-code spreadsheets only
	r.MaxMultipartMemory = 8 << 20

	// CORS settings
	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-KEY"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	if len(deps.AllowedOrigins) == 0 || slices.Contains(deps.AllowedOrigins, "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = deps.AllowedOrigins
		corsConfig.AllowCredentials = true
	}
	r.Use(cors.New(corsConfig))

	SetupRoutes(r, deps)
	return r
}

// SetupRoutes is the single entry‐point that wires up every route group.
func SetupRoutes(r *gin.Engine, deps Dependencies) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 1️⃣ Public Auth routes (rate-limited)
	SetupAuthRoutes(r, deps)

	// 2️⃣ Storefront routes (catalog public, cart + checkout JWT‐protected)
	SetupStorefrontRoutes(r, deps)

	// 3️⃣ Admin routes (API‐Key‐protected)
	SetupAdminRoutes(r, deps)

	// 4️⃣ Payment and fulfillment webhooks (signature‐verified)
	SetupWebhookRoutes(r, deps)
}

// limited returns the rate-limit middleware, or a pass-through without one.
func limited(deps Dependencies) gin.HandlerFunc {
	if deps.Limiter == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return deps.Limiter.Middleware()
}
