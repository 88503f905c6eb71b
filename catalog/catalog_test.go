package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const productsJSON = `[
  {"sku": "LYR-HOODIE", "title": "Celestial Hoodie", "price": 55.00, "category": "apparel", "image_front": "hoodie.jpg", "variants": ["S", "M", "L"]},
  {"sku": "LYR-CANDLE", "title": "Ritual Candle", "price": "15.00", "category": "home", "image_front": "candle.jpg"}
]`

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, []byte(productsJSON), 0o644))

	c, err := Load(context.Background(), http.DefaultClient, path)
	require.NoError(t, err)

	p, err := c.Lookup("LYR-HOODIE")
	require.NoError(t, err)
	assert.Equal(t, "55.00", p.Price.StringFixed(2))
	assert.True(t, p.HasVariant("M"))
	assert.False(t, p.HasVariant(""))

	candle, err := c.Lookup("LYR-CANDLE")
	require.NoError(t, err)
	assert.Equal(t, "15.00", candle.Price.StringFixed(2))
	assert.True(t, candle.HasVariant(""))

	_, err = c.Lookup("LYR-NOPE")
	assert.ErrorIs(t, err, ErrUnknownProduct)
}

func TestLoad_URL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(productsJSON))
	}))
	defer srv.Close()

	c, err := Load(context.Background(), srv.Client(), srv.URL+"/data/products.json")
	require.NoError(t, err)
	assert.Len(t, c.All(""), 2)
	assert.Len(t, c.All("Apparel"), 1)
}

func TestLoad_BadDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"sku":`), 0o644))

	_, err := Load(context.Background(), http.DefaultClient, path)
	assert.Error(t, err)
}

func TestCartItem(t *testing.T) {
	c := New([]Product{{SKU: "A", Title: "Alpha", Category: "home"}})
	p, err := c.Lookup("A")
	require.NoError(t, err)

	item := p.CartItem()
	assert.Equal(t, "A", item.SKU)
	assert.Equal(t, "Alpha", item.Title)
	assert.Zero(t, item.Quantity)
}

func TestOracleTiers(t *testing.T) {
	tier, err := OracleTier("premium")
	require.NoError(t, err)
	assert.Equal(t, "125.00", tier.Price.StringFixed(2))
	assert.Len(t, OracleTiers(), 3)

	_, err = OracleTier("cosmic")
	assert.Error(t, err)
}
