package routing

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const routingJSON = `[
  {"sku": "LY-HOOD-01", "pod_provider": "printful", "pod_sku": 4012, "variant_map": {"S": 4011, "M": "4012", "L": 4013}},
  {"sku": "ly-candle", "pod_provider": "Manual"},
  {"sku": "LY-PRINT-A3", "pod_provider": "printful"}
]`

const routingYAML = `
- sku: LY-HOOD-01
  pod_provider: printful
  pod_sku: 4012
  variant_map:
    S: 4011
    M: 4012
- sku: LY-CANDLE
  pod_provider: manual
`

func TestLookup(t *testing.T) {
	table, err := Parse([]byte(routingJSON), "json")
	require.NoError(t, err)
	require.Equal(t, 3, table.Len())

	r, err := table.Lookup("LY-HOOD-01", "s")
	require.NoError(t, err)
	assert.Equal(t, ProviderPrintful, r.Provider)
	assert.Equal(t, VariantID("4011"), r.VariantID)
	assert.True(t, r.Automated())

	id, err := r.VariantID.Int()
	require.NoError(t, err)
	assert.Equal(t, int64(4011), id)

	r, err = table.Lookup("ly-hood-01", "")
	require.NoError(t, err)
	assert.Equal(t, VariantID("4012"), r.VariantID, "no size uses the default variant")

	r, err = table.Lookup("LY-CANDLE", "")
	require.NoError(t, err)
	assert.Equal(t, ProviderManual, r.Provider)
	assert.False(t, r.Automated())
}

func TestLookup_Errors(t *testing.T) {
	table, err := Parse([]byte(routingJSON), "json")
	require.NoError(t, err)

	_, err = table.Lookup("NOPE", "M")
	assert.ErrorIs(t, err, ErrUnknownSKU)

	_, err = table.Lookup("LY-PRINT-A3", "A3")
	assert.ErrorIs(t, err, ErrNoVariant)

	// A size missing from the variant map must not ship another size.
	_, err = table.Lookup("LY-HOOD-01", "XXL")
	assert.ErrorIs(t, err, ErrNoVariant)

	tee := NewTable([]Entry{{SKU: "TEE", Provider: ProviderPrintful, DefaultVariant: "100", Variants: map[string]VariantID{"S": "100", "M": "101"}}})
	r, err := tee.Lookup("TEE", "XL")
	assert.ErrorIs(t, err, ErrNoVariant)
	assert.Empty(t, r.VariantID)

	mugs := NewTable([]Entry{{SKU: "LY-MUG", Provider: "gelato", DefaultVariant: "mug-11oz"}})
	r, err = mugs.Lookup("LY-MUG", "11oz")
	require.NoError(t, err)
	assert.Equal(t, VariantID("mug-11oz"), r.VariantID, "entries without a variant map use the default")
}

func TestParse_YAML(t *testing.T) {
	table, err := Parse([]byte(routingYAML), "yaml")
	require.NoError(t, err)

	r, err := table.Lookup("LY-HOOD-01", "M")
	require.NoError(t, err)
	assert.Equal(t, VariantID("4012"), r.VariantID)
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]byte(`{"sku":`), "json")
	assert.Error(t, err)
}

func TestLoad_URLByContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(routingJSON))
	}))
	defer srv.Close()

	table, err := Load(context.Background(), srv.Client(), srv.URL+"/routing")
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())
}

func TestLoad_URLFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := Load(context.Background(), srv.Client(), srv.URL+"/routing.json")
	assert.Error(t, err)
}

func TestLoad_LocalYAML(t *testing.T) {
	p := filepath.Join(t.TempDir(), "routing.yml")
	require.NoError(t, os.WriteFile(p, []byte(routingYAML), 0o644))

	table, err := Load(context.Background(), http.DefaultClient, p)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
}

func TestEncode_RoundTrip(t *testing.T) {
	table, err := Parse([]byte(routingJSON), "json")
	require.NoError(t, err)

	for _, format := range []string{"json", "yaml"} {
		var buf bytes.Buffer
		require.NoError(t, table.Encode(&buf, format))

		again, err := Parse(buf.Bytes(), format)
		require.NoError(t, err, format)
		r, err := again.Lookup("LY-HOOD-01", "L")
		require.NoError(t, err, format)
		assert.Equal(t, VariantID("4013"), r.VariantID, format)
	}
}
