package fulfillment

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/lyrion-studio/lyrion-api/routing"
)

type GelatoConfig struct {
	BaseURL        string
	APIKey         string
	Currency       string
	ShipmentMethod string // empty lets Gelato pick the cheapest
	Confirm        bool   // place real orders instead of drafts
}

type GelatoClient struct {
	client *http.Client
	cfg    GelatoConfig
}

type gelatoItem struct {
	ItemReferenceID string `json:"itemReferenceId"`
	ProductUID      string `json:"productUid"`
	Quantity        int    `json:"quantity"`
}

type gelatoAddress struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city"`
	PostCode     string `json:"postCode"`
	State        string `json:"state,omitempty"`
	Country      string `json:"country"`
	Email        string `json:"email"`
	Phone        string `json:"phone,omitempty"`
}

type gelatoOrder struct {
	OrderType           string        `json:"orderType"`
	OrderReferenceID    string        `json:"orderReferenceId"`
	CustomerReferenceID string        `json:"customerReferenceId"`
	Currency            string        `json:"currency"`
	Items               []gelatoItem  `json:"items"`
	ShipmentMethodUID   string        `json:"shipmentMethodUid,omitempty"`
	ShippingAddress     gelatoAddress `json:"shippingAddress"`
}

type gelatoCreated struct {
	ID                string `json:"id"`
	OrderReferenceID  string `json:"orderReferenceId"`
	FulfillmentStatus string `json:"fulfillmentStatus"`
}

func NewGelatoClient(client *http.Client, cfg GelatoConfig) *GelatoClient {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://order.gelatoapis.com"
	}
	if cfg.Currency == "" {
		cfg.Currency = "GBP"
	}
	return &GelatoClient{client: client, cfg: cfg}
}

// CreateOrder places the order. The routing table's variant id is the
// Gelato product UID.
func (g *GelatoClient) CreateOrder(ctx context.Context, order Order) (*CreatedOrder, error) {
	first, last := splitName(order.Recipient.Name)
	wire := gelatoOrder{
		OrderType:           "draft",
		OrderReferenceID:    order.ExternalID,
		CustomerReferenceID: order.Recipient.Email,
		Currency:            strings.ToUpper(g.cfg.Currency),
		ShipmentMethodUID:   g.cfg.ShipmentMethod,
		ShippingAddress: gelatoAddress{
			FirstName:    first,
			LastName:     last,
			AddressLine1: order.Recipient.Address1,
			AddressLine2: order.Recipient.Address2,
			City:         order.Recipient.City,
			PostCode:     order.Recipient.Zip,
			State:        order.Recipient.StateCode,
			Country:      order.Recipient.CountryCode,
			Email:        order.Recipient.Email,
			Phone:        order.Recipient.Phone,
		},
	}
	if g.cfg.Confirm {
		wire.OrderType = "order"
	}
	for i, item := range order.Items {
		wire.Items = append(wire.Items, gelatoItem{
			ItemReferenceID: fmt.Sprintf("%s-%d", item.SKU, i+1),
			ProductUID:      item.VariantID,
			Quantity:        item.Quantity,
		})
	}

	header := http.Header{}
	header.Set("X-API-KEY", g.cfg.APIKey)
	var created gelatoCreated
	if err := sendJSON(ctx, g.client, "Gelato", http.MethodPost, g.cfg.BaseURL+"/v4/orders", header, wire, &created); err != nil {
		return nil, err
	}
	log.Printf("📦 Gelato order %s created for %s (%s)", created.ID, order.ExternalID, created.FulfillmentStatus)
	return &CreatedOrder{
		Provider:   routing.ProviderGelato,
		ID:         created.ID,
		ExternalID: created.OrderReferenceID,
		Status:     created.FulfillmentStatus,
	}, nil
}
