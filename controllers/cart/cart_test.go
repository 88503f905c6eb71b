package cartControllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lyrion-studio/lyrion-api/cart"
	"github.com/lyrion-studio/lyrion-api/catalog"
	"github.com/lyrion-studio/lyrion-api/database"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type cartBody struct {
	Items []cart.Item `json:"items"`
	Total string      `json:"total"`
	Count int         `json:"count"`
}

func testCatalog() *catalog.Catalog {
	return catalog.New([]catalog.Product{
		{SKU: "LY-HOOD-01", Title: "Raglan Hoodie", Price: decimal.RequireFromString("45.00"), Category: "apparel", Variants: []string{"S", "M", "L"}},
		{SKU: "LY-CANDLE", Title: "Ritual Candle", Price: decimal.RequireFromString("10.00"), Category: "home"},
	})
}

func newRouter(t *testing.T, guestID string) (*gin.Engine, *gorm.DB) {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if guestID != "" {
			c.Set("user_id", guestID)
		}
	})
	products := testCatalog()
	r.GET("/cart", GetCart(db))
	r.POST("/cart/items", AddCartItem(db, products))
	r.PUT("/cart/items/:sku", UpdateCartItem(db))
	r.DELETE("/cart/items/:sku", DeleteCartItem(db))
	r.DELETE("/cart", ClearCart(db))
	r.GET("/cart/last-order", GetLastOrder(db))
	return r, db
}

func do(t *testing.T, r http.Handler, method, path string, body any) (*httptest.ResponseRecorder, cartBody) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out cartBody
	if w.Code == http.StatusOK {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w, out
}

func TestAddCartItem_PricesFromCatalog(t *testing.T) {
	r, _ := newRouter(t, "guest_1")

	w, body := do(t, r, http.MethodPost, "/cart/items", gin.H{"sku": "LY-HOOD-01", "variant": "M", "price": "0.01"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, body.Items, 1)
	assert.True(t, body.Items[0].Price.Equal(decimal.RequireFromString("45.00")))
	assert.Equal(t, "45.00", body.Total)

	_, body = do(t, r, http.MethodPost, "/cart/items", gin.H{"sku": "LY-HOOD-01", "variant": "M"})
	require.Len(t, body.Items, 1)
	assert.Equal(t, 2, body.Items[0].Quantity)

	_, body = do(t, r, http.MethodPost, "/cart/items", gin.H{"sku": "LY-CANDLE"})
	assert.Len(t, body.Items, 2)
	assert.Equal(t, "100.00", body.Total)
	assert.Equal(t, 3, body.Count)
}

func TestAddCartItem_Rejections(t *testing.T) {
	r, _ := newRouter(t, "guest_1")

	w, _ := do(t, r, http.MethodPost, "/cart/items", gin.H{"sku": "NOPE"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, r, http.MethodPost, "/cart/items", gin.H{"sku": "LY-HOOD-01", "variant": "XXL"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, r, http.MethodPost, "/cart/items", gin.H{"variant": "M"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCart_PersistsPerGuest(t *testing.T) {
	r, db := newRouter(t, "guest_1")
	do(t, r, http.MethodPost, "/cart/items", gin.H{"sku": "LY-CANDLE"})

	stored := cart.Load(cart.NewDBStorage(db, "guest_1")).Cart()
	require.Len(t, stored.Items, 1)
	assert.Empty(t, cart.Load(cart.NewDBStorage(db, "guest_2")).Cart().Items)

	_, body := do(t, r, http.MethodGet, "/cart", nil)
	assert.Len(t, body.Items, 1)
}

func TestUpdateCartItem(t *testing.T) {
	r, _ := newRouter(t, "guest_1")
	do(t, r, http.MethodPost, "/cart/items", gin.H{"sku": "LY-HOOD-01", "variant": "S"})

	w, body := do(t, r, http.MethodPut, "/cart/items/LY-HOOD-01", gin.H{"variant": "S", "quantity": 3})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "135.00", body.Total)

	w, body = do(t, r, http.MethodPut, "/cart/items/LY-HOOD-01", gin.H{"variant": "S", "quantity": 0})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body.Items)
	assert.Equal(t, "0.00", body.Total)

	w, _ = do(t, r, http.MethodPut, "/cart/items/LY-HOOD-01", gin.H{"variant": "S", "quantity": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, r, http.MethodPut, "/cart/items/LY-HOOD-01", gin.H{"variant": "S"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteAndClear(t *testing.T) {
	r, _ := newRouter(t, "guest_1")
	do(t, r, http.MethodPost, "/cart/items", gin.H{"sku": "LY-HOOD-01", "variant": "L"})
	do(t, r, http.MethodPost, "/cart/items", gin.H{"sku": "LY-CANDLE"})

	w, _ := do(t, r, http.MethodDelete, "/cart/items/LY-HOOD-01?variant=M", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, body := do(t, r, http.MethodDelete, "/cart/items/LY-HOOD-01?variant=L", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "10.00", body.Total)

	_, body = do(t, r, http.MethodDelete, "/cart", nil)
	assert.Empty(t, body.Items)
}

func TestCart_RequiresGuest(t *testing.T) {
	r, _ := newRouter(t, "")
	w, _ := do(t, r, http.MethodGet, "/cart", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetLastOrder(t *testing.T) {
	r, db := newRouter(t, "guest_1")

	w, _ := do(t, r, http.MethodGet, "/cart/last-order", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.NoError(t, cart.SaveLastOrder(cart.NewDBStorage(db, "guest_1"), cart.LastOrder{
		ID:        "cs_test_1",
		Amount:    decimal.RequireFromString("71.94"),
		Currency:  "gbp",
		Email:     "ada@example.com",
		Timestamp: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
	}))

	w, _ = do(t, r, http.MethodGet, "/cart/last-order", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var order cart.LastOrder
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
	assert.Equal(t, "cs_test_1", order.ID)
	assert.True(t, order.Amount.Equal(decimal.RequireFromString("71.94")))
}
