package productcontroller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lyrion-studio/lyrion-api/catalog"
)

// GetProductBySKU returns a single catalog product.
// URL param: /products/:sku
func GetProductBySKU(products *catalog.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		sku := strings.TrimSpace(c.Param("sku"))
		if sku == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Product SKU is required"})
			return
		}

		product, err := products.Lookup(sku)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

// GET /oracle/tiers
func GetOracleTiers(c *gin.Context) {
	c.JSON(http.StatusOK, catalog.OracleTiers())
}
