package fulfillment

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/lyrion-studio/lyrion-api/routing"
)

type PrintifyConfig struct {
	BaseURL string
	APIKey  string
	ShopID  string
}

type PrintifyClient struct {
	client *http.Client
	cfg    PrintifyConfig
}

type printifyLine struct {
	ProductID string `json:"product_id,omitempty"`
	VariantID int64  `json:"variant_id,omitempty"`
	SKU       string `json:"sku,omitempty"`
	Quantity  int    `json:"quantity"`
}

type printifyAddress struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Country   string `json:"country"`
	Region    string `json:"region,omitempty"`
	Address1  string `json:"address1"`
	Address2  string `json:"address2,omitempty"`
	City      string `json:"city"`
	Zip       string `json:"zip"`
}

type printifyOrder struct {
	ExternalID               string          `json:"external_id"`
	Label                    string          `json:"label,omitempty"`
	LineItems                []printifyLine  `json:"line_items"`
	ShippingMethod           int             `json:"shipping_method"`
	SendShippingNotification bool            `json:"send_shipping_notification"`
	AddressTo                printifyAddress `json:"address_to"`
}

type printifyCreated struct {
	ID string `json:"id"`
}

func NewPrintifyClient(client *http.Client, cfg PrintifyConfig) *PrintifyClient {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.printify.com"
	}
	return &PrintifyClient{client: client, cfg: cfg}
}

// printifyLineFor reads a routing variant id. "productID:variantID" names a
// catalog product and variant; anything else is a Printify SKU.
func printifyLineFor(item OrderItem) (printifyLine, error) {
	line := printifyLine{Quantity: item.Quantity}
	product, variant, ok := strings.Cut(item.VariantID, ":")
	if !ok {
		line.SKU = item.VariantID
		return line, nil
	}
	id, err := strconv.ParseInt(variant, 10, 64)
	if err != nil || product == "" {
		return line, fmt.Errorf("%w: printify variant %q for %s is not product:variant", ErrProvider, item.VariantID, item.SKU)
	}
	line.ProductID = product
	line.VariantID = id
	return line, nil
}

func (p *PrintifyClient) CreateOrder(ctx context.Context, order Order) (*CreatedOrder, error) {
	first, last := splitName(order.Recipient.Name)
	wire := printifyOrder{
		ExternalID:     order.ExternalID,
		Label:          "LYRION " + order.ExternalID,
		ShippingMethod: 1,
		AddressTo: printifyAddress{
			FirstName: first,
			LastName:  last,
			Email:     order.Recipient.Email,
			Phone:     order.Recipient.Phone,
			Country:   order.Recipient.CountryCode,
			Region:    order.Recipient.StateCode,
			Address1:  order.Recipient.Address1,
			Address2:  order.Recipient.Address2,
			City:      order.Recipient.City,
			Zip:       order.Recipient.Zip,
		},
	}
	for _, item := range order.Items {
		line, err := printifyLineFor(item)
		if err != nil {
			return nil, err
		}
		wire.LineItems = append(wire.LineItems, line)
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	url := fmt.Sprintf("%s/v1/shops/%s/orders.json", p.cfg.BaseURL, p.cfg.ShopID)
	var created printifyCreated
	if err := sendJSON(ctx, p.client, "Printify", http.MethodPost, url, header, wire, &created); err != nil {
		return nil, err
	}
	log.Printf("📦 Printify order %s created for %s", created.ID, order.ExternalID)
	return &CreatedOrder{
		Provider:   routing.ProviderPrintify,
		ID:         created.ID,
		ExternalID: order.ExternalID,
		Status:     "pending",
	}, nil
}
