package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderType string
type OrderOutcome string
type FulfillmentStatus string

const (
	OrderTypeProduct OrderType = "product"       // Physical goods routed to print-on-demand or the studio
	OrderTypeOracle  OrderType = "oracle_reading" // Digital astrology reading, no fulfillment call

	// Outcomes of handling a checkout.session.completed delivery
	OutcomeHandled  OrderOutcome = "handled"  // Every side effect succeeded
	OutcomeDegraded OrderOutcome = "degraded" // Payment recorded, something needs manual follow-up
	OutcomeFailed   OrderOutcome = "failed"   // Nothing could be done, processor should redeliver

	// Fulfillment statuses
	FulfillmentPending     FulfillmentStatus = "pending"      // Not yet sent anywhere
	FulfillmentSubmitted   FulfillmentStatus = "submitted"    // Accepted by the POD provider
	FulfillmentManual      FulfillmentStatus = "manual"       // Studio alerted to make/ship by hand
	FulfillmentShipped     FulfillmentStatus = "shipped"      // Provider reported a shipment
	FulfillmentFailed      FulfillmentStatus = "failed"       // Provider rejected or reported failure
	FulfillmentNotRequired FulfillmentStatus = "not_required" // Digital reading
)

// Address is the shipping address captured at checkout.
type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	Region     string `json:"region"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type Order struct {
	ID                uint              `gorm:"primaryKey" json:"id"`
	OrderRef          string            `gorm:"uniqueIndex;size:32;not null" json:"order_ref"`
	SessionID         string            `gorm:"uniqueIndex;not null" json:"session_id"`
	EventID           string            `gorm:"index" json:"event_id"`
	OrderType         OrderType         `gorm:"type:VARCHAR(20)" json:"order_type"`
	CustomerName      string            `json:"customer_name"`
	CustomerEmail     string            `json:"customer_email"`
	CustomerPhone     string            `json:"customer_phone"`
	Address           Address           `gorm:"embedded;embeddedPrefix:ship_" json:"address"`
	Items             []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Tier              string            `json:"tier,omitempty"`
	Question          string            `json:"question,omitempty"`
	AccessCode        string            `json:"access_code,omitempty"`
	Currency          string            `gorm:"size:3" json:"currency"`
	AmountTotal       decimal.Decimal   `gorm:"type:numeric(10,2)" json:"amount_total"`
	Outcome           OrderOutcome      `gorm:"type:VARCHAR(20)" json:"outcome"`
	FulfillmentStatus FulfillmentStatus `gorm:"type:VARCHAR(20);default:'pending'" json:"fulfillment_status"`
	ProviderOrderIDs  string            `json:"provider_order_ids"` // Comma-separated provider:id
	Notes             string            `json:"notes"`              // Newline-separated follow-up notes
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

type OrderItem struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	OrderID           uint            `gorm:"index" json:"order_id"`
	SKU               string          `json:"sku"`
	Title             string          `json:"title"`
	Variant           string          `json:"variant"`
	Category          string          `json:"category"`
	UnitPrice         decimal.Decimal `gorm:"type:numeric(10,2)" json:"unit_price"`
	Quantity          int             `json:"quantity"`
	Provider          string          `json:"provider"`
	ProviderVariantID string          `json:"provider_variant_id"`
}
