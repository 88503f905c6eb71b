package routes

import (
	"github.com/gin-gonic/gin"
	cartControllers "github.com/lyrion-studio/lyrion-api/controllers/cart"
	checkoutControllers "github.com/lyrion-studio/lyrion-api/controllers/checkout"
	contactControllers "github.com/lyrion-studio/lyrion-api/controllers/contact"
	discountControllers "github.com/lyrion-studio/lyrion-api/controllers/discount"
	productControllers "github.com/lyrion-studio/lyrion-api/controllers/product"
	"github.com/lyrion-studio/lyrion-api/middleware"
)

// SetupStorefrontRoutes registers the catalog, cart and checkout endpoints.
func SetupStorefrontRoutes(r *gin.Engine, deps Dependencies) {
	db := deps.DB

	// ──────────────── Browse Products ────────────────
	r.GET("/products", productControllers.GetProducts(deps.Catalog))          // GET /products
	r.GET("/products/:sku", productControllers.GetProductBySKU(deps.Catalog)) // GET /products/:sku
	r.GET("/oracle/tiers", productControllers.GetOracleTiers)                 // GET /oracle/tiers
	r.POST("/validate-discount", limited(deps), discountControllers.ValidateDiscount(deps.Codes))
	r.POST("/contact", limited(deps), contactControllers.SubmitContact(deps.Contact))

	guest := r.Group("/")
	guest.Use(middleware.ValidateToken(deps.JWTSecret))
	{
		// ──────────────── Shopping Cart ────────────────
		cartGroup := guest.Group("/cart")
		{
			cartGroup.GET("", cartControllers.GetCart(db))                          // GET /cart
			cartGroup.POST("/items", cartControllers.AddCartItem(db, deps.Catalog)) // POST /cart/items
			cartGroup.PUT("/items/:sku", cartControllers.UpdateCartItem(db))        // PUT /cart/items/:sku
			cartGroup.DELETE("/items/:sku", cartControllers.DeleteCartItem(db))     // DELETE /cart/items/:sku?variant=
			cartGroup.DELETE("", cartControllers.ClearCart(db))                     // DELETE /cart
			cartGroup.GET("/last-order", cartControllers.GetLastOrder(db))          // GET /cart/last-order
		}

		// ──────────────── Checkout ────────────────
		guest.POST("/checkout/quote", checkoutControllers.QuoteHandler(db, deps.Creator, deps.Codes))
		guest.GET("/checkout/success", checkoutControllers.CheckoutSuccess(db, deps.Creator))
		guest.POST("/create-checkout-session", limited(deps), checkoutControllers.CreateCheckoutSession(db, deps.Creator, deps.Codes))
		guest.POST("/create-oracle-session", limited(deps), checkoutControllers.CreateOracleSession(deps.Creator))
	}
}
