// Package broker turns paid checkout sessions into fulfillment orders,
// access-code redemptions and notification emails.
package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lyrion-studio/lyrion-api/accesscode"
	"github.com/lyrion-studio/lyrion-api/catalog"
	"github.com/lyrion-studio/lyrion-api/email"
	"github.com/lyrion-studio/lyrion-api/fulfillment"
	"github.com/lyrion-studio/lyrion-api/models"
	"github.com/lyrion-studio/lyrion-api/payment"
	"github.com/lyrion-studio/lyrion-api/pricing"
	"github.com/lyrion-studio/lyrion-api/routing"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v80"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const EventCheckoutCompleted = "checkout.session.completed"

type Fulfiller interface {
	CreateOrder(ctx context.Context, order fulfillment.Order) (*fulfillment.CreatedOrder, error)
}

type Notifier interface {
	NotifyAdmin(ctx context.Context, s email.OrderSummary) error
	SendReceipt(ctx context.Context, s email.OrderSummary) error
	AlertStudio(ctx context.Context, s email.OrderSummary) error
	AlertError(ctx context.Context, s email.OrderSummary) error
}

type Redeemer interface {
	Apply(ctx context.Context, code, sessionID string, amount decimal.Decimal) (*accesscode.Code, error)
}

// Publisher receives every outcome (the admin live feed).
type Publisher interface {
	Publish(v any)
}

// RoutingSource fetches the current routing table.
type RoutingSource func(ctx context.Context) (*routing.Table, error)

type Dispatcher struct {
	db         *gorm.DB
	routes     RoutingSource
	fulfillers map[string]Fulfiller
	notifier   Notifier
	redeemer   Redeemer
	catalog    *catalog.Catalog
	publisher  Publisher
	now        func() time.Time
}

type Options struct {
	Routes     RoutingSource
	Fulfillers map[string]Fulfiller // keyed by routing provider name
	Notifier   Notifier
	Redeemer   Redeemer         // optional
	Catalog    *catalog.Catalog // optional, for item titles
	Publisher  Publisher        // optional
}

func NewDispatcher(db *gorm.DB, opts Options) *Dispatcher {
	return &Dispatcher{
		db:         db,
		routes:     opts.Routes,
		fulfillers: opts.Fulfillers,
		notifier:   opts.Notifier,
		redeemer:   opts.Redeemer,
		catalog:    opts.Catalog,
		publisher:  opts.Publisher,
		now:        time.Now,
	}
}

// Handle processes one verified event. Each event id is handled at most
// once; a failed outcome releases the id so a redelivery can try again.
func (d *Dispatcher) Handle(ctx context.Context, event stripe.Event) Outcome {
	out := Outcome{EventID: event.ID, EventType: string(event.Type)}

	claimed, err := d.claim(ctx, event)
	if err != nil {
		log.Printf("❌ Could not record webhook event %s: %v", event.ID, err)
		out.Status = StatusFailed
		out.Notes = append(out.Notes, "idempotency record: "+err.Error())
		return out
	}
	if !claimed {
		log.Printf("⚠️ Webhook event %s already processed, skipping", event.ID)
		out.Status = StatusDuplicate
		return out
	}

	if event.Type != EventCheckoutCompleted {
		out.Status = StatusIgnored
		d.finish(ctx, out)
		return out
	}

	out = d.handleCheckout(ctx, event, out)
	if out.Status == StatusFailed {
		d.release(ctx, event.ID)
	} else {
		d.finish(ctx, out)
	}
	d.publish(out)
	return out
}

func (d *Dispatcher) handleCheckout(ctx context.Context, event stripe.Event, out Outcome) Outcome {
	var sess stripe.CheckoutSession
	if event.Data == nil || json.Unmarshal(event.Data.Raw, &sess) != nil || sess.ID == "" {
		out.Status = StatusFailed
		out.Notes = append(out.Notes, "event does not contain a checkout session")
		return out
	}
	out.SessionID = sess.ID

	md, err := payment.ParseMetadata(sess.Metadata)
	if err != nil {
		out.Status = StatusFailed
		out.Notes = append(out.Notes, "session metadata: "+err.Error())
		return out
	}
	if md.Customer.Email == "" && sess.CustomerDetails != nil {
		md.Customer.Email = sess.CustomerDetails.Email
	}
	if md.Customer.Name == "" && sess.CustomerDetails != nil {
		md.Customer.Name = sess.CustomerDetails.Name
	}

	order, err := d.createOrder(ctx, event.ID, &sess, md)
	if errors.Is(err, errOrderExists) {
		out.Status = StatusDuplicate
		return out
	}
	if err != nil {
		out.Status = StatusFailed
		out.Notes = append(out.Notes, "store order: "+err.Error())
		return out
	}
	out.OrderRef = order.OrderRef
	out.Status = StatusHandled
	log.Printf("📦 Processing %s order %s (session %s)", md.OrderType, order.OrderRef, sess.ID)

	if md.OrderType == models.OrderTypeOracle {
		order.FulfillmentStatus = models.FulfillmentNotRequired
	} else {
		d.fulfil(ctx, order, md, &out)
	}

	if md.AccessCode != "" {
		if d.redeemer == nil {
			out.degrade(fmt.Sprintf("access code %s used but redemption is not configured", md.AccessCode))
		} else if _, err := d.redeemer.Apply(ctx, md.AccessCode, sess.ID, order.AmountTotal); err != nil {
			out.degrade(fmt.Sprintf("access code %s not redeemed: %v", md.AccessCode, err))
		}
	}

	d.notify(ctx, order, md, &out)

	order.Outcome = models.OrderOutcome(out.Status)
	order.Notes = strings.Join(out.Notes, "\n")
	if err := d.db.WithContext(ctx).Model(order).Updates(map[string]any{
		"outcome":            order.Outcome,
		"notes":              order.Notes,
		"fulfillment_status": order.FulfillmentStatus,
		"provider_order_ids": order.ProviderOrderIDs,
	}).Error; err != nil {
		log.Printf("❌ Failed to update order %s: %v", order.OrderRef, err)
	}

	if out.Status == StatusDegraded {
		log.Printf("⚠️ Order %s degraded: %s", order.OrderRef, strings.Join(out.Notes, "; "))
	} else {
		log.Printf("✅ Order %s handled", order.OrderRef)
	}
	return out
}

var errOrderExists = errors.New("order already recorded for session")

func (d *Dispatcher) createOrder(ctx context.Context, eventID string, sess *stripe.CheckoutSession, md *payment.OrderMetadata) (*models.Order, error) {
	var count int64
	if err := d.db.WithContext(ctx).Model(&models.Order{}).Where("session_id = ?", sess.ID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errOrderExists
	}

	currency := strings.ToLower(string(sess.Currency))
	order := &models.Order{
		OrderRef:          strings.ReplaceAll(uuid.NewString(), "-", ""),
		SessionID:         sess.ID,
		EventID:           eventID,
		OrderType:         md.OrderType,
		CustomerName:      md.Customer.Name,
		CustomerEmail:     md.Customer.Email,
		CustomerPhone:     md.Customer.Phone,
		Address:           md.Shipping.Model(),
		Tier:              md.Tier,
		Question:          md.Question,
		AccessCode:        md.AccessCode,
		Currency:          currency,
		AmountTotal:       pricing.FromMinorUnits(sess.AmountTotal),
		Outcome:           models.OutcomeHandled,
		FulfillmentStatus: models.FulfillmentPending,
	}
	for _, li := range md.Items {
		order.Items = append(order.Items, models.OrderItem{
			SKU:       li.SKU,
			Title:     d.title(li.SKU),
			Variant:   li.Variant,
			UnitPrice: li.UnitPrice,
			Quantity:  li.Quantity,
		})
	}
	if err := d.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// fulfil routes every line: automated lines become one order per provider,
// manual lines become a studio alert. Anything that cannot be routed
// degrades the outcome and is left for manual handling.
func (d *Dispatcher) fulfil(ctx context.Context, order *models.Order, md *payment.OrderMetadata, out *Outcome) {
	if len(order.Items) == 0 {
		out.degrade("paid product order has no cart items")
		return
	}

	table, err := d.routes(ctx)
	if err != nil {
		out.degrade("routing table unavailable: " + err.Error())
		return
	}

	batches := make(map[string][]fulfillment.OrderItem)
	var manualLines []int
	for i := range order.Items {
		item := &order.Items[i]
		route, err := table.Lookup(item.SKU, item.Variant)
		if err != nil {
			out.degrade(err.Error())
			continue
		}
		item.Provider = route.Provider
		item.ProviderVariantID = string(route.VariantID)

		if !route.Automated() {
			manualLines = append(manualLines, i)
			continue
		}
		if d.fulfillers[route.Provider] == nil {
			out.degrade(fmt.Sprintf("sku %s: provider %q has no integration", item.SKU, route.Provider))
			continue
		}
		if route.Provider == routing.ProviderPrintful {
			if _, err := route.VariantID.Int(); err != nil {
				out.degrade(fmt.Sprintf("sku %s: printful variant %q is not numeric", item.SKU, route.VariantID))
				continue
			}
		}
		batches[route.Provider] = append(batches[route.Provider], fulfillment.OrderItem{
			SKU:         item.SKU,
			VariantID:   string(route.VariantID),
			Quantity:    item.Quantity,
			RetailPrice: item.UnitPrice.StringFixed(2),
			Name:        item.Title,
		})
	}
	d.saveRouting(ctx, order)

	providers := make([]string, 0, len(batches))
	for provider := range batches {
		providers = append(providers, provider)
	}
	sort.Strings(providers)

	var refs []string
	failed := false
	for _, provider := range providers {
		created, err := d.fulfillers[provider].CreateOrder(ctx, fulfillment.Order{
			ExternalID: order.OrderRef,
			Recipient:  recipient(order),
			Items:      batches[provider],
		})
		if err != nil {
			out.degrade(fmt.Sprintf("%s order failed: %v", provider, err))
			failed = true
			continue
		}
		refs = append(refs, created.Ref())
	}
	switch {
	case failed:
		order.FulfillmentStatus = models.FulfillmentFailed
	case len(refs) > 0:
		order.FulfillmentStatus = models.FulfillmentSubmitted
	}

	if len(manualLines) > 0 {
		summary := d.summary(order, md, "")
		summary.Items = nil
		for _, i := range manualLines {
			summary.Items = append(summary.Items, line(order.Items[i], order.Items[i].Provider))
		}
		if err := d.notifier.AlertStudio(ctx, summary); err != nil {
			out.degrade("studio alert not sent: " + err.Error())
		} else if order.FulfillmentStatus == models.FulfillmentPending {
			order.FulfillmentStatus = models.FulfillmentManual
		}
	}
	order.ProviderOrderIDs = strings.Join(refs, ",")
}

func recipient(order *models.Order) fulfillment.Recipient {
	return fulfillment.Recipient{
		Name:        order.CustomerName,
		Address1:    order.Address.Line1,
		Address2:    order.Address.Line2,
		City:        order.Address.City,
		StateCode:   order.Address.Region,
		CountryCode: order.Address.Country,
		Zip:         order.Address.PostalCode,
		Email:       order.CustomerEmail,
		Phone:       order.CustomerPhone,
	}
}

func (d *Dispatcher) saveRouting(ctx context.Context, order *models.Order) {
	for _, item := range order.Items {
		if item.Provider == "" {
			continue
		}
		if err := d.db.WithContext(ctx).Model(&models.OrderItem{}).Where("id = ?", item.ID).
			Updates(map[string]any{"provider": item.Provider, "provider_variant_id": item.ProviderVariantID}).Error; err != nil {
			log.Printf("⚠️ Failed to store routing for %s: %v", item.SKU, err)
		}
	}
}

func (d *Dispatcher) notify(ctx context.Context, order *models.Order, md *payment.OrderMetadata, out *Outcome) {
	summary := d.summary(order, md, out.Status)

	if err := d.notifier.NotifyAdmin(ctx, summary); err != nil {
		out.degrade("admin notification not sent: " + err.Error())
	}
	if order.CustomerEmail != "" {
		if err := d.notifier.SendReceipt(ctx, summary); err != nil {
			out.degrade("customer receipt not sent: " + err.Error())
		}
	}
	if out.Status == StatusDegraded {
		summary.Outcome = string(out.Status)
		summary.Notes = out.Notes
		if err := d.notifier.AlertError(ctx, summary); err != nil {
			log.Printf("❌ Error alert for %s not sent: %v", order.OrderRef, err)
		}
	}
}

func (d *Dispatcher) summary(order *models.Order, md *payment.OrderMetadata, status Status) email.OrderSummary {
	s := email.OrderSummary{
		OrderRef:      order.OrderRef,
		SessionID:     order.SessionID,
		Oracle:        order.OrderType == models.OrderTypeOracle,
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
		CustomerPhone: order.CustomerPhone,
		Address:       md.Shipping.Lines(),
		Currency:      order.Currency,
		Total:         order.AmountTotal.StringFixed(2),
		Tier:          order.Tier,
		Question:      order.Question,
		AccessCode:    order.AccessCode,
		Outcome:       string(status),
	}
	if tier, err := catalog.OracleTier(order.Tier); err == nil {
		s.Tier = tier.Name
	}
	for _, item := range order.Items {
		s.Items = append(s.Items, line(item, item.Provider))
	}
	return s
}

func line(item models.OrderItem, provider string) email.Line {
	return email.Line{
		SKU:       item.SKU,
		Title:     item.Title,
		Variant:   item.Variant,
		Quantity:  item.Quantity,
		UnitPrice: item.UnitPrice.StringFixed(2),
		Provider:  provider,
	}
}

func (d *Dispatcher) title(sku string) string {
	if d.catalog != nil {
		if p, err := d.catalog.Lookup(sku); err == nil {
			return p.Title
		}
	}
	return sku
}

// claim inserts the processed-event row; false means it already existed.
func (d *Dispatcher) claim(ctx context.Context, event stripe.Event) (bool, error) {
	res := d.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&models.ProcessedEvent{
		EventID:     event.ID,
		EventType:   string(event.Type),
		Outcome:     "processing",
		ProcessedAt: d.now(),
	})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (d *Dispatcher) finish(ctx context.Context, out Outcome) {
	if err := d.db.WithContext(ctx).Model(&models.ProcessedEvent{}).
		Where("event_id = ?", out.EventID).
		Update("outcome", string(out.Status)).Error; err != nil {
		log.Printf("⚠️ Failed to record outcome for %s: %v", out.EventID, err)
	}
}

func (d *Dispatcher) release(ctx context.Context, eventID string) {
	if err := d.db.WithContext(ctx).Delete(&models.ProcessedEvent{}, "event_id = ?", eventID).Error; err != nil {
		log.Printf("❌ Failed to release event %s for redelivery: %v", eventID, err)
	}
}

func (d *Dispatcher) publish(out Outcome) {
	if d.publisher != nil {
		d.publisher.Publish(out)
	}
}
