package payment

import (
	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/checkout/session"
	"github.com/stripe/stripe-go/v80/coupon"
)

// API is the slice of Stripe the checkout flow uses.
type API interface {
	NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	GetCheckoutSession(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	NewCoupon(params *stripe.CouponParams) (*stripe.Coupon, error)
}

// StripeAPI calls Stripe with a per-client key instead of the global
// stripe.Key.
type StripeAPI struct {
	sessions *session.Client
	coupons  *coupon.Client
}

func NewStripeAPI(secretKey string) *StripeAPI {
	backend := stripe.GetBackend(stripe.APIBackend)
	return &StripeAPI{
		sessions: &session.Client{B: backend, Key: secretKey},
		coupons:  &coupon.Client{B: backend, Key: secretKey},
	}
}

func (s *StripeAPI) NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return s.sessions.New(params)
}

func (s *StripeAPI) GetCheckoutSession(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return s.sessions.Get(id, params)
}

func (s *StripeAPI) NewCoupon(params *stripe.CouponParams) (*stripe.Coupon, error) {
	return s.coupons.New(params)
}
