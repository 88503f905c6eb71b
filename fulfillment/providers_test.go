package fulfillment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRecipient = Recipient{
	Name:        "Ada King Lovelace",
	Address1:    "1 Star Lane",
	City:        "London",
	CountryCode: "GB",
	Zip:         "E1 6AN",
	Email:       "ada@example.com",
}

func TestGelatoCreateOrder(t *testing.T) {
	var got gelatoOrder
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v4/orders", r.URL.Path)
		assert.Equal(t, "gel-key", r.Header.Get("X-API-KEY"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"id":"a6a1f9ce-2bdd-4a9e-9f8d-0009df0e24d9","orderReferenceId":"abc","fulfillmentStatus":"draft"}`))
	}))
	defer srv.Close()

	g := NewGelatoClient(srv.Client(), GelatoConfig{BaseURL: srv.URL, APIKey: "gel-key"})
	created, err := g.CreateOrder(context.Background(), Order{
		ExternalID: "abc",
		Recipient:  testRecipient,
		Items:      []OrderItem{{SKU: "LY-MUG", VariantID: "mug-11oz", Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, "gelato:a6a1f9ce-2bdd-4a9e-9f8d-0009df0e24d9", created.Ref())

	assert.Equal(t, "draft", got.OrderType)
	assert.Equal(t, "abc", got.OrderReferenceID)
	assert.Equal(t, "GBP", got.Currency)
	assert.Equal(t, "Ada King", got.ShippingAddress.FirstName)
	assert.Equal(t, "Lovelace", got.ShippingAddress.LastName)
	assert.Equal(t, "E1 6AN", got.ShippingAddress.PostCode)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "mug-11oz", got.Items[0].ProductUID)
	assert.Equal(t, "LY-MUG-1", got.Items[0].ItemReferenceID)
	assert.Equal(t, 2, got.Items[0].Quantity)
}

func TestGelatoCreateOrder_Confirm(t *testing.T) {
	var got gelatoOrder
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"id":"g1"}`))
	}))
	defer srv.Close()

	g := NewGelatoClient(srv.Client(), GelatoConfig{BaseURL: srv.URL, Confirm: true})
	_, err := g.CreateOrder(context.Background(), Order{ExternalID: "abc", Items: []OrderItem{{SKU: "LY-MUG", VariantID: "mug-11oz", Quantity: 1}}})
	require.NoError(t, err)
	assert.Equal(t, "order", got.OrderType)
}

func TestGelatoCreateOrder_ErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"invalid_argument","message":"productUid mug-11oz not found"}`))
	}))
	defer srv.Close()

	g := NewGelatoClient(srv.Client(), GelatoConfig{BaseURL: srv.URL})
	_, err := g.CreateOrder(context.Background(), Order{ExternalID: "abc"})
	require.ErrorIs(t, err, ErrProvider)
	assert.Contains(t, err.Error(), "productUid mug-11oz not found")
}

func TestPrintifyCreateOrder(t *testing.T) {
	var got printifyOrder
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/shops/8804/orders.json", r.URL.Path)
		assert.Equal(t, "Bearer pfy-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"id":"5a96f649b2439217d070f507"}`))
	}))
	defer srv.Close()

	p := NewPrintifyClient(srv.Client(), PrintifyConfig{BaseURL: srv.URL, APIKey: "pfy-key", ShopID: "8804"})
	created, err := p.CreateOrder(context.Background(), Order{
		ExternalID: "abc",
		Recipient:  testRecipient,
		Items: []OrderItem{
			{SKU: "LY-TOTE", VariantID: "5d39b159e7c48c000728c89f:33719", Quantity: 1},
			{SKU: "LY-CAP", VariantID: "CAP-BLK", Quantity: 3},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "printify:5a96f649b2439217d070f507", created.Ref())

	assert.Equal(t, "abc", got.ExternalID)
	assert.Equal(t, "GB", got.AddressTo.Country)
	assert.Equal(t, "Lovelace", got.AddressTo.LastName)
	require.Len(t, got.LineItems, 2)
	assert.Equal(t, "5d39b159e7c48c000728c89f", got.LineItems[0].ProductID)
	assert.Equal(t, int64(33719), got.LineItems[0].VariantID)
	assert.Equal(t, "CAP-BLK", got.LineItems[1].SKU)
	assert.Equal(t, 3, got.LineItems[1].Quantity)
}

func TestPrintifyCreateOrder_BadVariant(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ }))
	defer srv.Close()

	p := NewPrintifyClient(srv.Client(), PrintifyConfig{BaseURL: srv.URL, ShopID: "8804"})
	_, err := p.CreateOrder(context.Background(), Order{ExternalID: "abc", Items: []OrderItem{{SKU: "LY-TOTE", VariantID: "prod:large", Quantity: 1}}})
	assert.ErrorIs(t, err, ErrProvider)
	assert.Zero(t, calls)
}

func TestSplitName(t *testing.T) {
	first, last := splitName("  Ada  ")
	assert.Equal(t, "Ada", first)
	assert.Empty(t, last)

	first, last = splitName("Grace Brewster Hopper")
	assert.Equal(t, "Grace Brewster", first)
	assert.Equal(t, "Hopper", last)
}
