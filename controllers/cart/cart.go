package cartControllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lyrion-studio/lyrion-api/cart"
	"github.com/lyrion-studio/lyrion-api/catalog"
	"gorm.io/gorm"
)

type CartItemInput struct {
	SKU     string `json:"sku" binding:"required"`
	Variant string `json:"variant"`
}

type UpdateQuantityInput struct {
	Variant  string `json:"variant"`
	Quantity *int   `json:"quantity" binding:"required"`
}

func cartResponse(ct cart.Cart) gin.H {
	return gin.H{
		"items": ct.Items,
		"total": ct.Total.StringFixed(2),
		"count": ct.Count(),
	}
}

// GET /cart
func GetCart(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		manager, ok := loadCart(db, c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, cartResponse(manager.Cart()))
	}
}

// POST /cart/items
func AddCartItem(db *gorm.DB, products *catalog.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input CartItemInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		// Price and title always come from the catalog
		product, err := products.Lookup(input.SKU)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Product does not exist"})
			return
		}
		if !product.HasVariant(input.Variant) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid variant for " + product.SKU, "variants": product.Variants})
			return
		}

		manager, ok := loadCart(db, c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, cartResponse(manager.Add(product.CartItem(), input.Variant)))
	}
}

// PUT /cart/items/:sku
func UpdateCartItem(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input UpdateQuantityInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		manager, ok := loadCart(db, c)
		if !ok {
			return
		}
		updated, err := manager.SetQuantity(c.Param("sku"), input.Variant, *input.Quantity)
		if errors.Is(err, cart.ErrItemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Cart item not found"})
			return
		}
		c.JSON(http.StatusOK, cartResponse(updated))
	}
}

// DELETE /cart/items/:sku?variant=
func DeleteCartItem(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		manager, ok := loadCart(db, c)
		if !ok {
			return
		}
		updated, err := manager.Remove(c.Param("sku"), c.Query("variant"))
		if errors.Is(err, cart.ErrItemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Cart item not found"})
			return
		}
		c.JSON(http.StatusOK, cartResponse(updated))
	}
}

// DELETE /cart
func ClearCart(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		manager, ok := loadCart(db, c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, cartResponse(manager.Clear()))
	}
}
