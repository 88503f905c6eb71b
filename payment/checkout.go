// Package payment builds hosted checkout sessions with the payment processor
// and reads their metadata back when the processor reports payment.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/lyrion-studio/lyrion-api/cart"
	"github.com/lyrion-studio/lyrion-api/catalog"
	"github.com/lyrion-studio/lyrion-api/models"
	"github.com/lyrion-studio/lyrion-api/pricing"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v80"
)

var (
	// ErrValidation means the request was rejected before calling the processor.
	ErrValidation = errors.New("invalid checkout request")
	// ErrProcessor carries the processor's own message.
	ErrProcessor = errors.New("payment processor error")
)

const defaultQuestion = "No specific question provided"

type Customer struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone"`
}

type Address struct {
	Line1      string `json:"line1" binding:"required"`
	Line2      string `json:"line2"`
	City       string `json:"city" binding:"required"`
	Region     string `json:"region"`
	PostalCode string `json:"postal_code" binding:"required"`
	Country    string `json:"country" binding:"required,iso3166_1_alpha2"`
}

// Lines returns the non-empty address lines for display.
func (a Address) Lines() []string {
	var out []string
	for _, s := range []string{a.Line1, a.Line2, a.City, a.Region, a.PostalCode, a.Country} {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Model converts the address to its stored form.
func (a Address) Model() models.Address {
	return models.Address{
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		Region:     a.Region,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

type ProductOrder struct {
	Customer        Customer
	Shipping        Address
	Items           []cart.Item `binding:"required,min=1"`
	AccessCode      string
	DiscountPercent int `binding:"min=0,max=100"`
	GuestID         string
}

type OracleOrder struct {
	Customer Customer
	Tier     string `binding:"required,oneof=essence detailed premium"`
	Question string
	GuestID  string
}

type Session struct {
	ID     string         `json:"sessionId"`
	URL    string         `json:"url"`
	Totals pricing.Totals `json:"totals"`
}

type Config struct {
	Currency   string
	SuccessURL string
	CancelURL  string
	Policy     pricing.Policy
}

type Creator struct {
	api API
	cfg Config
}

func NewCreator(api API, cfg Config) *Creator {
	if cfg.Currency == "" {
		cfg.Currency = "gbp"
	}
	return &Creator{api: api, cfg: cfg}
}

// Quote prices a cart without creating anything.
func (c *Creator) Quote(items []cart.Item, discountPercent int) pricing.Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	return c.cfg.Policy.Calculate(subtotal, discountPercent)
}

// CreateProductSession opens a hosted checkout for a cart. Each cart line is
// a line item; shipping and VAT are separate lines and the access-code
// discount is a single-use coupon on the session.
func (c *Creator) CreateProductSession(ctx context.Context, order ProductOrder) (*Session, error) {
	order.Shipping.Country = strings.ToUpper(strings.TrimSpace(order.Shipping.Country))
	order.Customer.Email = strings.TrimSpace(order.Customer.Email)
	if err := validate(order); err != nil {
		return nil, err
	}
	for _, item := range order.Items {
		if item.Quantity <= 0 || !item.Price.IsPositive() {
			return nil, fmt.Errorf("%w: cart line %s has no price or quantity", ErrValidation, item.SKU)
		}
	}

	totals := c.Quote(order.Items, order.DiscountPercent)

	params := c.baseParams(ctx, order.Customer, order.GuestID)
	lines := make([]LineItem, 0, len(order.Items))
	for _, item := range order.Items {
		name := item.Title
		if item.Variant != "" {
			name += " - " + item.Variant
		}
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name:     stripe.String(name),
			Metadata: map[string]string{"sku": item.SKU},
		}
		if strings.HasPrefix(item.Image, "https://") {
			product.Images = []*string{stripe.String(item.Image)}
		}
		params.LineItems = append(params.LineItems, c.lineItem(product, item.Price, int64(item.Quantity)))
		lines = append(lines, LineItem{SKU: item.SKU, Variant: item.Variant, Quantity: item.Quantity, UnitPrice: item.Price})
	}
	if totals.Shipping.IsPositive() {
		params.LineItems = append(params.LineItems, c.lineItem(
			&stripe.CheckoutSessionLineItemPriceDataProductDataParams{Name: stripe.String("Shipping")},
			totals.Shipping, 1))
	}
	if totals.Tax.IsPositive() {
		params.LineItems = append(params.LineItems, c.lineItem(
			&stripe.CheckoutSessionLineItemPriceDataProductDataParams{Name: stripe.String(taxLabel(c.cfg.Policy.TaxRate))},
			totals.Tax, 1))
	}

	if totals.DiscountAmount.IsPositive() {
		cp, err := c.api.NewCoupon(&stripe.CouponParams{
			Params:         stripe.Params{Context: ctx},
			AmountOff:      stripe.Int64(pricing.ToMinorUnits(totals.DiscountAmount)),
			Currency:       stripe.String(c.cfg.Currency),
			Duration:       stripe.String(string(stripe.CouponDurationOnce)),
			MaxRedemptions: stripe.Int64(1),
			Name:           stripe.String(fmt.Sprintf("Access code %s (%d%%)", order.AccessCode, totals.DiscountPercent)),
		})
		if err != nil {
			return nil, processorError("create discount coupon", err)
		}
		params.Discounts = []*stripe.CheckoutSessionDiscountParams{{Coupon: stripe.String(cp.ID)}}
	}

	params.Metadata[MetaOrderType] = string(models.OrderTypeProduct)
	if err := encodeCartItems(params.Metadata, lines); err != nil {
		return nil, err
	}
	shippingMetadata(params.Metadata, order.Shipping)
	if order.AccessCode != "" && totals.DiscountPercent > 0 {
		params.Metadata[MetaAccessCode] = order.AccessCode
		params.Metadata[MetaDiscountPercent] = fmt.Sprint(totals.DiscountPercent)
	}

	s, err := c.api.NewCheckoutSession(params)
	if err != nil {
		return nil, processorError("create checkout session", err)
	}
	log.Printf("✅ Checkout session %s created for %s: %s total", s.ID, order.Customer.Email, totals.Total.StringFixed(2))
	return &Session{ID: s.ID, URL: s.URL, Totals: totals}, nil
}

// CreateOracleSession opens a hosted checkout for a reading. Readings are
// digital: no shipping line and the tier price is charged as listed.
func (c *Creator) CreateOracleSession(ctx context.Context, order OracleOrder) (*Session, error) {
	order.Customer.Email = strings.TrimSpace(order.Customer.Email)
	if err := validate(order); err != nil {
		return nil, err
	}
	tier, err := catalog.OracleTier(order.Tier)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	question := strings.TrimSpace(order.Question)
	if question == "" {
		question = defaultQuestion
	}

	params := c.baseParams(ctx, order.Customer, order.GuestID)
	params.LineItems = append(params.LineItems, c.lineItem(
		&stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name:        stripe.String("Oracle Reading: " + tier.Name),
			Description: stripe.String(tier.Description),
		},
		tier.Price, 1))
	params.Metadata[MetaOrderType] = string(models.OrderTypeOracle)
	params.Metadata[MetaTier] = tier.ID
	params.Metadata[MetaQuestion] = truncate(question, maxQuestion)

	s, err := c.api.NewCheckoutSession(params)
	if err != nil {
		return nil, processorError("create oracle session", err)
	}
	log.Printf("✅ Oracle session %s created for %s (%s)", s.ID, order.Customer.Email, tier.ID)
	return &Session{ID: s.ID, URL: s.URL, Totals: pricing.Totals{Subtotal: tier.Price, Total: tier.Price}}, nil
}

// Retrieve fetches a session, used by the success page.
func (c *Creator) Retrieve(ctx context.Context, id string) (*stripe.CheckoutSession, error) {
	if !strings.HasPrefix(id, "cs_") {
		return nil, fmt.Errorf("%w: invalid session id", ErrValidation)
	}
	params := &stripe.CheckoutSessionParams{Params: stripe.Params{Context: ctx}}
	s, err := c.api.GetCheckoutSession(id, params)
	if err != nil {
		return nil, processorError("retrieve checkout session", err)
	}
	return s, nil
}

func (c *Creator) baseParams(ctx context.Context, customer Customer, guestID string) *stripe.CheckoutSessionParams {
	params := &stripe.CheckoutSessionParams{
		Params:        stripe.Params{Context: ctx},
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:    stripe.String(c.cfg.SuccessURL),
		CancelURL:     stripe.String(c.cfg.CancelURL),
		CustomerEmail: stripe.String(customer.Email),
		Metadata:      map[string]string{},
	}
	if guestID != "" {
		params.ClientReferenceID = stripe.String(guestID)
		params.Metadata[MetaGuestID] = guestID
	}
	customerMetadata(params.Metadata, customer)
	return params
}

func (c *Creator) lineItem(product *stripe.CheckoutSessionLineItemPriceDataProductDataParams, unit decimal.Decimal, qty int64) *stripe.CheckoutSessionLineItemParams {
	return &stripe.CheckoutSessionLineItemParams{
		PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency:    stripe.String(c.cfg.Currency),
			UnitAmount:  stripe.Int64(pricing.ToMinorUnits(unit)),
			ProductData: product,
		},
		Quantity: stripe.Int64(qty),
	}
}

func validate(v any) error {
	if err := binding.Validator.ValidateStruct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

func processorError(op string, err error) error {
	var se *stripe.Error
	if errors.As(err, &se) && se.Msg != "" {
		log.Printf("❌ Stripe rejected %s: %s", op, se.Msg)
		return fmt.Errorf("%w: %s", ErrProcessor, se.Msg)
	}
	log.Printf("❌ Failed to %s: %v", op, err)
	return fmt.Errorf("%w: %s: %v", ErrProcessor, op, err)
}

func taxLabel(rate decimal.Decimal) string {
	return fmt.Sprintf("VAT (%s%%)", rate.Mul(decimal.NewFromInt(100)).String())
}
