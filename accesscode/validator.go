package accesscode

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Reasons a code is not accepted.
const (
	ReasonEmpty       = "empty"
	ReasonNotFound    = "not_found"
	ReasonInactive    = "inactive"
	ReasonExhausted   = "exhausted"
	ReasonExpired     = "expired"
	ReasonUnavailable = "unavailable"
)

type Result struct {
	Valid           bool   `json:"valid"`
	Code            string `json:"code,omitempty"`
	Owner           string `json:"owner,omitempty"`
	DiscountPercent int    `json:"discount_percent,omitempty"`
	Reason          string `json:"reason,omitempty"`
}

// RejectedError is returned by Apply when the code no longer qualifies.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	return "access code rejected: " + e.Reason
}

type Validator struct {
	reader Reader
	store  Store
	now    func() time.Time
}

// NewValidator validates against reader and redeems through store. Either may
// be the same value; store may be nil for validate-only deployments.
func NewValidator(reader Reader, store Store) *Validator {
	return &Validator{reader: reader, store: store, now: time.Now}
}

// WithClock overrides the time source.
func (v *Validator) WithClock(now func() time.Time) *Validator {
	v.now = now
	return v
}

// Validate never fails: lookup problems yield Valid=false with
// ReasonUnavailable so checkout continues at full price.
func (v *Validator) Validate(ctx context.Context, raw string) Result {
	code := Normalize(raw)
	if code == "" {
		return Result{Reason: ReasonEmpty}
	}

	c, err := v.reader.Get(ctx, code)
	if errors.Is(err, ErrNotFound) {
		return Result{Code: code, Reason: ReasonNotFound}
	}
	if err != nil {
		log.Printf("⚠️ Access code lookup failed for %s, continuing without discount: %v", code, err)
		return Result{Code: code, Reason: ReasonUnavailable}
	}

	if reason := rejection(c, v.now()); reason != "" {
		return Result{Code: code, Reason: reason}
	}
	return Result{
		Valid:           true,
		Code:            code,
		Owner:           c.Owner,
		DiscountPercent: c.DiscountPercent,
	}
}

// Apply redeems one use of the code for a paid checkout session: uses are
// decremented, a conversion is recorded, and the status flips to exhausted
// when the last use is spent.
func (v *Validator) Apply(ctx context.Context, raw, sessionID string, amount decimal.Decimal) (*Code, error) {
	if v.store == nil {
		return nil, errors.New("access code redemption is not configured")
	}
	code := Normalize(raw)
	now := v.now()

	updated, err := v.store.Modify(ctx, code, func(c *Code) error {
		if reason := rejection(c, now); reason != "" {
			return &RejectedError{Reason: reason}
		}
		c.UsesRemaining--
		c.Conversions = append(c.Conversions, Conversion{
			ID:         uuid.NewString(),
			SessionID:  sessionID,
			Amount:     amount.StringFixed(2),
			RedeemedAt: now.UTC(),
		})
		if c.UsesRemaining <= 0 {
			c.UsesRemaining = 0
			c.Status = StatusExhausted
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redeem %s: %w", code, err)
	}
	log.Printf("🎟️ Access code %s redeemed for %s (%d uses left)", code, sessionID, updated.UsesRemaining)
	return updated, nil
}

func rejection(c *Code, now time.Time) string {
	switch {
	case c.Status != StatusActive:
		if c.Status == StatusExhausted {
			return ReasonExhausted
		}
		if c.Status == StatusExpired {
			return ReasonExpired
		}
		return ReasonInactive
	case c.UsesRemaining <= 0:
		return ReasonExhausted
	case !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt):
		return ReasonExpired
	}
	return ""
}
