package fulfillment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/lyrion-studio/lyrion-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPrintful(t *testing.T, handler http.HandlerFunc, confirm bool) *PrintfulClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewPrintfulClient(srv.Client(), PrintfulConfig{BaseURL: srv.URL, APIKey: "pf-key", StoreID: "17401941", Confirm: confirm})
}

func TestCreateOrder(t *testing.T) {
	var got printfulOrder
	p := newPrintful(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("confirm"))
		assert.Equal(t, "Bearer pf-key", r.Header.Get("Authorization"))
		assert.Equal(t, "17401941", r.Header.Get("X-PF-Store-Id"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"code":200,"result":{"id":9001,"external_id":"abc","status":"pending"}}`))
	}, true)

	created, err := p.CreateOrder(context.Background(), Order{
		ExternalID: "abc",
		Recipient:  Recipient{Name: "Ada", Address1: "1 Star Lane", City: "London", CountryCode: "GB", Zip: "E1 6AN"},
		Items:      []OrderItem{{SKU: "LY-HOOD-01", VariantID: "4011", Quantity: 2, RetailPrice: "45.00"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "9001", created.ID)
	assert.Equal(t, "printful:9001", created.Ref())
	assert.Equal(t, "pending", created.Status)
	assert.Equal(t, "abc", got.ExternalID)
	require.Len(t, got.Items, 1)
	assert.Equal(t, int64(4011), got.Items[0].SyncVariantID)
	assert.Equal(t, "LY-HOOD-01", got.Items[0].ExternalID)
}

func TestCreateOrder_NonNumericVariant(t *testing.T) {
	calls := 0
	p := newPrintful(t, func(w http.ResponseWriter, r *http.Request) { calls++ }, false)

	_, err := p.CreateOrder(context.Background(), Order{ExternalID: "x", Items: []OrderItem{{SKU: "LY-MUG", VariantID: "mug-11oz", Quantity: 1}}})
	assert.ErrorIs(t, err, ErrProvider)
	assert.Zero(t, calls)
}

func TestCreateOrder_ProviderErrorCarriesMessage(t *testing.T) {
	p := newPrintful(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("confirm"))
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":400,"result":"Recipient: Invalid country code","error":{"reason":"BadRequest","message":"Recipient: Invalid country code"}}`))
	}, false)

	_, err := p.CreateOrder(context.Background(), Order{ExternalID: "x"})
	require.ErrorIs(t, err, ErrProvider)
	assert.Contains(t, err.Error(), "Invalid country code")
}

func TestCreateOrder_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	p := NewPrintfulClient(http.DefaultClient, PrintfulConfig{BaseURL: srv.URL})

	_, err := p.CreateOrder(context.Background(), Order{ExternalID: "x"})
	assert.ErrorIs(t, err, ErrProvider)
}

func TestStoreProducts(t *testing.T) {
	p := newPrintful(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/store/products":
			_, _ = w.Write([]byte(`{"code":200,"result":[{"id":7,"external_id":"LY-HOOD-01","name":"Raglan Hoodie","variants":2,"synced":2}]}`))
		case "/store/products/7":
			_, _ = w.Write([]byte(`{"code":200,"result":{"sync_product":{"id":7,"external_id":"LY-HOOD-01","name":"Raglan Hoodie"},"sync_variants":[{"id":4011,"variant_id":10779,"size":"S","color":"Black","retail_price":"45.00"},{"id":4012,"variant_id":10780,"size":"M","color":"Black","retail_price":"45.00"}]}}`))
		default:
			http.NotFound(w, r)
		}
	}, false)

	products, err := p.ListStoreProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "LY-HOOD-01", products[0].ExternalID)

	detail, err := p.GetStoreProduct(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, detail.SyncVariants, 2)
	assert.Equal(t, "M", detail.SyncVariants[1].Size)
	assert.Equal(t, int64(4012), detail.SyncVariants[1].ID)
}

func TestListStoreProducts_Pages(t *testing.T) {
	var offsets []string
	p := newPrintful(t, func(w http.ResponseWriter, r *http.Request) {
		offset := r.URL.Query().Get("offset")
		offsets = append(offsets, offset)
		assert.Equal(t, "100", r.URL.Query().Get("limit"))

		var items []string
		start, _ := strconv.Atoi(offset)
		for i := start; i < start+100 && i < 230; i++ {
			items = append(items, fmt.Sprintf(`{"id":%d,"external_id":"LY-%d"}`, i+1, i+1))
		}
		_, _ = fmt.Fprintf(w, `{"code":200,"result":[%s],"paging":{"total":230,"offset":%s,"limit":100}}`, strings.Join(items, ","), offset)
	}, false)

	products, err := p.ListStoreProducts(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 230)
	assert.Equal(t, []string{"0", "100", "200"}, offsets)
	assert.Equal(t, "LY-230", products[229].ExternalID)
}

func TestStatusEvent(t *testing.T) {
	ev, err := ParseStatusEvent([]byte(`{"type":"package_shipped","data":{"shipment":{"carrier":"Royal Mail","tracking_number":"RM123","tracking_url":"https://track/RM123"},"order":{"id":9001,"external_id":"abc","status":"fulfilled"}}}`))
	require.NoError(t, err)

	status, ok := ev.FulfillmentStatus()
	assert.True(t, ok)
	assert.Equal(t, models.FulfillmentShipped, status)
	assert.Equal(t, "9001", ev.ProviderOrderID())
	assert.Contains(t, ev.Note(), "RM123")

	ev, err = ParseStatusEvent([]byte(`{"type":"order_failed","data":{"reason":"Out of stock","order":{"id":9002,"external_id":"def"}}}`))
	require.NoError(t, err)
	status, ok = ev.FulfillmentStatus()
	assert.True(t, ok)
	assert.Equal(t, models.FulfillmentFailed, status)
	assert.Equal(t, "printful order_failed: Out of stock", ev.Note())

	ev, err = ParseStatusEvent([]byte(`{"type":"stock_updated","data":{}}`))
	require.NoError(t, err)
	_, ok = ev.FulfillmentStatus()
	assert.False(t, ok)

	_, err = ParseStatusEvent([]byte(`{}`))
	assert.Error(t, err)
}
