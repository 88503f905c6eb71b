package payment

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/lyrion-studio/lyrion-api/models"
	"github.com/shopspring/decimal"
)

// Session metadata keys shared with the webhook dispatcher.
const (
	MetaOrderType       = "order_type"
	MetaCartItems       = "cart_items"
	MetaCustomerName    = "customer_name"
	MetaCustomerEmail   = "customer_email"
	MetaCustomerPhone   = "customer_phone"
	MetaShipLine1       = "ship_line1"
	MetaShipLine2       = "ship_line2"
	MetaShipCity        = "ship_city"
	MetaShipRegion      = "ship_region"
	MetaShipPostalCode  = "ship_postal_code"
	MetaShipCountry     = "ship_country"
	MetaAccessCode      = "access_code"
	MetaDiscountPercent = "discount_percent"
	MetaTier            = "tier"
	MetaQuestion        = "question"
	MetaGuestID         = "guest_id"

	// Stripe caps metadata values at 500 characters.
	maxMetadataValue = 500
	maxQuestion      = 500
)

// LineItem is the compact cart line carried in session metadata.
type LineItem struct {
	SKU       string          `json:"s"`
	Variant   string          `json:"v,omitempty"`
	Quantity  int             `json:"q"`
	UnitPrice decimal.Decimal `json:"p"`
}

// OrderMetadata is everything the dispatcher needs from a paid session.
type OrderMetadata struct {
	OrderType       models.OrderType
	Customer        Customer
	Shipping        Address
	Items           []LineItem
	AccessCode      string
	DiscountPercent int
	Tier            string
	Question        string
	GuestID         string
}

// encodeCartItems spreads the JSON array over cart_items, cart_items_2, ...
// when it does not fit one metadata value.
func encodeCartItems(md map[string]string, items []LineItem) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	s := string(raw)
	for part := 1; len(s) > 0; part++ {
		n := len(s)
		if n > maxMetadataValue {
			n = maxMetadataValue
			for n > 0 && !utf8.RuneStart(s[n]) {
				n--
			}
		}
		md[cartItemsKey(part)] = s[:n]
		s = s[n:]
	}
	return nil
}

func decodeCartItems(md map[string]string) ([]LineItem, error) {
	var b strings.Builder
	for part := 1; ; part++ {
		chunk, ok := md[cartItemsKey(part)]
		if !ok {
			break
		}
		b.WriteString(chunk)
	}
	if b.Len() == 0 {
		return nil, nil
	}
	var items []LineItem
	if err := json.Unmarshal([]byte(b.String()), &items); err != nil {
		return nil, fmt.Errorf("parse %s: %w", MetaCartItems, err)
	}
	return items, nil
}

func cartItemsKey(part int) string {
	if part == 1 {
		return MetaCartItems
	}
	return MetaCartItems + "_" + strconv.Itoa(part)
}

func customerMetadata(md map[string]string, c Customer) {
	md[MetaCustomerName] = truncate(c.Name, maxMetadataValue)
	md[MetaCustomerEmail] = c.Email
	if c.Phone != "" {
		md[MetaCustomerPhone] = c.Phone
	}
}

func shippingMetadata(md map[string]string, a Address) {
	for k, v := range map[string]string{
		MetaShipLine1:      a.Line1,
		MetaShipLine2:      a.Line2,
		MetaShipCity:       a.City,
		MetaShipRegion:     a.Region,
		MetaShipPostalCode: a.PostalCode,
		MetaShipCountry:    strings.ToUpper(a.Country),
	} {
		if v != "" {
			md[k] = truncate(v, maxMetadataValue)
		}
	}
}

// ParseMetadata reads the order back from a completed session. Sessions
// without an order_type are treated as product orders.
func ParseMetadata(md map[string]string) (*OrderMetadata, error) {
	items, err := decodeCartItems(md)
	if err != nil {
		return nil, err
	}
	out := &OrderMetadata{
		OrderType: models.OrderType(md[MetaOrderType]),
		Customer: Customer{
			Name:  md[MetaCustomerName],
			Email: md[MetaCustomerEmail],
			Phone: md[MetaCustomerPhone],
		},
		Shipping: Address{
			Line1:      md[MetaShipLine1],
			Line2:      md[MetaShipLine2],
			City:       md[MetaShipCity],
			Region:     md[MetaShipRegion],
			PostalCode: md[MetaShipPostalCode],
			Country:    md[MetaShipCountry],
		},
		Items:      items,
		AccessCode: md[MetaAccessCode],
		Tier:       md[MetaTier],
		Question:   md[MetaQuestion],
		GuestID:    md[MetaGuestID],
	}
	if out.OrderType == "" {
		out.OrderType = models.OrderTypeProduct
	}
	if v := md[MetaDiscountPercent]; v != "" {
		pct, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", MetaDiscountPercent, err)
		}
		out.DiscountPercent = pct
	}
	return out, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
