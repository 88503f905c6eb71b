package productcontroller

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lyrion-studio/lyrion-api/catalog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func router() *gin.Engine {
	gin.SetMode(gin.TestMode)
	products := catalog.New([]catalog.Product{
		{SKU: "LY-HOOD-01", Title: "Raglan Hoodie", Description: "Heavyweight cotton", Price: decimal.RequireFromString("45.00"), Category: "apparel"},
		{SKU: "LY-TEE-01", Title: "Constellation Tee", Price: decimal.RequireFromString("28.00"), Category: "apparel"},
		{SKU: "LY-CANDLE", Title: "Ritual Candle", Description: "Soy wax, cotton wick", Price: decimal.RequireFromString("10.00"), Category: "home"},
	})
	r := gin.New()
	r.GET("/products", GetProducts(products))
	r.GET("/products/:sku", GetProductBySKU(products))
	r.GET("/oracle/tiers", GetOracleTiers)
	return r
}

func list(t *testing.T, query string) []catalog.Product {
	t.Helper()
	w := httptest.NewRecorder()
	router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products"+query, nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body struct {
		Products []catalog.Product `json:"products"`
		Total    int               `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, len(body.Products), body.Total)
	return body.Products
}

func skus(products []catalog.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.SKU
	}
	return out
}

func TestGetProducts(t *testing.T) {
	assert.Equal(t, []string{"LY-CANDLE", "LY-HOOD-01", "LY-TEE-01"}, skus(list(t, "")))
	assert.Equal(t, []string{"LY-HOOD-01", "LY-TEE-01"}, skus(list(t, "?category=Apparel")))
	assert.Equal(t, []string{"LY-CANDLE", "LY-HOOD-01"}, skus(list(t, "?search=COTTON")))
	assert.Equal(t, []string{"LY-TEE-01", "LY-CANDLE"}, skus(list(t, "?max_price=30&sort_by=price&order=desc")))
	assert.Equal(t, []string{"LY-HOOD-01"}, skus(list(t, "?min_price=40")))
	assert.Empty(t, list(t, "?category=books"))
}

func TestGetProducts_BadPrice(t *testing.T) {
	w := httptest.NewRecorder()
	router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products?min_price=cheap", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetProductBySKU(t *testing.T) {
	w := httptest.NewRecorder()
	router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products/LY-CANDLE", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var p catalog.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, "Ritual Candle", p.Title)

	w = httptest.NewRecorder()
	router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products/NOPE", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetOracleTiers(t *testing.T) {
	w := httptest.NewRecorder()
	router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/oracle/tiers", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var tiers []catalog.Tier
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tiers))
	require.Len(t, tiers, 3)
	assert.Equal(t, "essence", tiers[0].ID)
	assert.True(t, tiers[2].Price.Equal(decimal.NewFromInt(125)))
}
