package fulfillment

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/lyrion-studio/lyrion-api/models"
)

// Printful webhook event types the service reacts to.
const (
	EventPackageShipped = "package_shipped"
	EventPackageReturn  = "package_returned"
	EventOrderFailed    = "order_failed"
	EventOrderCanceled  = "order_canceled"
	EventOrderCreated   = "order_created"
	EventOrderUpdated   = "order_updated"
	EventOrderPutHold   = "order_put_hold"
)

type Shipment struct {
	Carrier        string `json:"carrier"`
	Service        string `json:"service"`
	TrackingNumber string `json:"tracking_number"`
	TrackingURL    string `json:"tracking_url"`
}

// StatusEvent is the subset of a Printful webhook delivery that is stored.
type StatusEvent struct {
	Type string `json:"type"`
	Data struct {
		Reason   string    `json:"reason"`
		Shipment *Shipment `json:"shipment"`
		Order    struct {
			ID         int64  `json:"id"`
			ExternalID string `json:"external_id"`
			Status     string `json:"status"`
		} `json:"order"`
	} `json:"data"`
}

func ParseStatusEvent(body []byte) (*StatusEvent, error) {
	var ev StatusEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("parse printful webhook: %w", err)
	}
	if ev.Type == "" {
		return nil, fmt.Errorf("parse printful webhook: missing type")
	}
	return &ev, nil
}

// ProviderOrderID is the Printful order id as stored on the order.
func (e *StatusEvent) ProviderOrderID() string {
	if e.Data.Order.ID == 0 {
		return ""
	}
	return strconv.FormatInt(e.Data.Order.ID, 10)
}

// FulfillmentStatus maps the event onto an order status. ok is false for
// events that carry no status change.
func (e *StatusEvent) FulfillmentStatus() (status models.FulfillmentStatus, ok bool) {
	switch e.Type {
	case EventPackageShipped:
		return models.FulfillmentShipped, true
	case EventOrderFailed, EventOrderCanceled, EventPackageReturn:
		return models.FulfillmentFailed, true
	case EventOrderCreated, EventOrderUpdated:
		switch e.Data.Order.Status {
		case "fulfilled", "partial":
			return models.FulfillmentShipped, true
		case "failed", "canceled":
			return models.FulfillmentFailed, true
		case "pending", "draft", "inprocess", "onhold":
			return models.FulfillmentSubmitted, true
		}
	}
	return "", false
}

// Note is a one-line human summary appended to the order's notes.
func (e *StatusEvent) Note() string {
	switch {
	case e.Data.Shipment != nil && e.Data.Shipment.TrackingNumber != "":
		return fmt.Sprintf("printful %s: %s %s %s", e.Type, e.Data.Shipment.Carrier, e.Data.Shipment.TrackingNumber, e.Data.Shipment.TrackingURL)
	case e.Data.Reason != "":
		return fmt.Sprintf("printful %s: %s", e.Type, e.Data.Reason)
	}
	return "printful " + e.Type
}
