package productcontroller

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lyrion-studio/lyrion-api/catalog"
	"github.com/shopspring/decimal"
)

// GET /products
func GetProducts(products *catalog.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1️⃣ Filtering & sorting params
		search := strings.ToLower(strings.TrimSpace(c.Query("search")))
		category := c.Query("category")
		sortBy := c.DefaultQuery("sort_by", "sku")
		sortOrder := strings.ToLower(c.DefaultQuery("order", "asc"))
		if sortOrder != "asc" && sortOrder != "desc" {
			sortOrder = "asc"
		}

		minPrice, ok := priceParam(c, "min_price")
		if !ok {
			return
		}
		maxPrice, ok := priceParam(c, "max_price")
		if !ok {
			return
		}

		// 2️⃣ Apply filters
		list := make([]catalog.Product, 0)
		for _, p := range products.All(category) {
			if search != "" &&
				!strings.Contains(strings.ToLower(p.Title), search) &&
				!strings.Contains(strings.ToLower(p.Description), search) {
				continue
			}
			if minPrice != nil && p.Price.LessThan(*minPrice) {
				continue
			}
			if maxPrice != nil && p.Price.GreaterThan(*maxPrice) {
				continue
			}
			list = append(list, p)
		}

		// 3️⃣ Sort
		less := func(i, j int) bool { return list[i].SKU < list[j].SKU }
		switch sortBy {
		case "price":
			less = func(i, j int) bool { return list[i].Price.LessThan(list[j].Price) }
		case "title":
			less = func(i, j int) bool { return list[i].Title < list[j].Title }
		}
		sort.SliceStable(list, func(i, j int) bool {
			if sortOrder == "desc" {
				return less(j, i)
			}
			return less(i, j)
		})

		c.JSON(http.StatusOK, gin.H{
			"products": list,
			"total":    len(list),
		})
	}
}

func priceParam(c *gin.Context, name string) (*decimal.Decimal, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return nil, false
	}
	return &d, true
}
