// Package accesscode validates and redeems shareable discount codes.
//
// Codes live in one shared document (or table). Validation only reads it and
// fails open: any problem reaching the document means "no discount", never an
// error. Redemption is a compare-and-swap against the stored version so two
// concurrent redemptions cannot both spend the last use.
package accesscode

import (
	"context"
	"errors"
	"strings"
	"time"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusExhausted Status = "exhausted"
	StatusExpired   Status = "expired"
)

var (
	ErrNotFound = errors.New("access code not found")
	// ErrConflict means the stored document changed between read and write.
	ErrConflict = errors.New("access code document changed concurrently")
)

type Conversion struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Amount     string    `json:"amount"`
	RedeemedAt time.Time `json:"redeemed_at"`
}

type Code struct {
	Code            string       `json:"code"`
	Owner           string       `json:"owner"`
	DiscountPercent int          `json:"discount_percent"`
	ExpiresAt       time.Time    `json:"expires_at"`
	UsesRemaining   int          `json:"uses_remaining"`
	Status          Status       `json:"status"`
	Conversions     []Conversion `json:"conversions,omitempty"`
}

// Document is the shared JSON document holding every code.
type Document struct {
	Codes []Code `json:"codes"`
}

// Find returns a pointer into d for code (already normalised), or nil.
func (d *Document) Find(code string) *Code {
	for i := range d.Codes {
		if Normalize(d.Codes[i].Code) == code {
			return &d.Codes[i]
		}
	}
	return nil
}

// Reader looks a code up. Implementations return ErrNotFound for unknown codes.
type Reader interface {
	Get(ctx context.Context, code string) (*Code, error)
}

// Store is a Reader that can atomically modify one code. Modify re-reads and
// retries when the underlying write reports ErrConflict; fn may therefore run
// more than once and must only touch the code it is given.
type Store interface {
	Reader
	Modify(ctx context.Context, code string, fn func(*Code) error) (*Code, error)
}

// Normalize trims and upper-cases a code as typed by a customer.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

const maxAttempts = 5
