// Package pricing computes checkout totals.
//
// The order of operations matters and matches what the storefront displays:
// the discount comes off the subtotal, shipping is added, tax is charged on
// (discounted subtotal + shipping).
package pricing

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Policy holds the fixed shop constants. A zero FreeShippingThreshold means
// shipping is always charged.
type Policy struct {
	ShippingFee           decimal.Decimal
	TaxRate               decimal.Decimal
	FreeShippingThreshold decimal.Decimal
}

// DefaultPolicy is the UK policy: £4.95 flat shipping, 20% VAT.
func DefaultPolicy() Policy {
	return Policy{
		ShippingFee: decimal.RequireFromString("4.95"),
		TaxRate:     decimal.RequireFromString("0.20"),
	}
}

type Totals struct {
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountPercent int             `json:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	Shipping        decimal.Decimal `json:"shipping"`
	Tax             decimal.Decimal `json:"tax"`
	Total           decimal.Decimal `json:"total"`
}

// Discounted is the subtotal after the access-code discount.
func (t Totals) Discounted() decimal.Decimal {
	return t.Subtotal.Sub(t.DiscountAmount)
}

// Calculate produces the totals for a cart subtotal and an optional
// percentage discount (0 for none). Percentages are clamped to [0, 100].
func (p Policy) Calculate(subtotal decimal.Decimal, discountPercent int) Totals {
	if discountPercent < 0 {
		discountPercent = 0
	}
	if discountPercent > 100 {
		discountPercent = 100
	}
	subtotal = money(subtotal)

	discount := money(subtotal.Mul(decimal.NewFromInt(int64(discountPercent))).Div(hundred))
	discounted := subtotal.Sub(discount)

	shipping := money(p.ShippingFee)
	if p.FreeShippingThreshold.IsPositive() && subtotal.GreaterThanOrEqual(p.FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	tax := money(discounted.Add(shipping).Mul(p.TaxRate))

	return Totals{
		Subtotal:        subtotal,
		DiscountPercent: discountPercent,
		DiscountAmount:  discount,
		Shipping:        shipping,
		Tax:             tax,
		Total:           discounted.Add(shipping).Add(tax),
	}
}

// ToMinorUnits converts pounds to pence for the payment processor.
func ToMinorUnits(d decimal.Decimal) int64 {
	return money(d).Mul(hundred).IntPart()
}

// FromMinorUnits converts pence back to pounds.
func FromMinorUnits(n int64) decimal.Decimal {
	return decimal.New(n, -2)
}

// money rounds half away from zero to two decimal places.
func money(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
