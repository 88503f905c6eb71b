package checkoutControllers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lyrion-studio/lyrion-api/accesscode"
	"github.com/lyrion-studio/lyrion-api/cart"
	cartControllers "github.com/lyrion-studio/lyrion-api/controllers/cart"
	"github.com/lyrion-studio/lyrion-api/payment"
	"github.com/lyrion-studio/lyrion-api/pricing"
	"github.com/stripe/stripe-go/v80"
	"gorm.io/gorm"
)

// CodeValidator checks an access code without redeeming it.
type CodeValidator interface {
	Validate(ctx context.Context, code string) accesscode.Result
}

type QuoteRequest struct {
	AccessCode string `json:"access_code"`
}

type CheckoutRequest struct {
	Customer   payment.Customer `json:"customer"`
	Shipping   payment.Address  `json:"shipping"`
	AccessCode string           `json:"access_code"`
}

type OracleRequest struct {
	Customer payment.Customer `json:"customer"`
	Tier     string           `json:"tier"`
	Question string           `json:"question"`
}

// decodeBody reads a JSON body without binding validation; the creator
// validates after normalising (trimmed email, upper-case country).
func decodeBody(c *gin.Context, v any) bool {
	raw, err := c.GetRawData()
	if err == nil && len(raw) > 0 {
		err = json.Unmarshal(raw, v)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return false
	}
	return true
}

// discountFor re-validates a code server-side; the client's claimed
// percentage is never trusted.
func discountFor(ctx context.Context, codes CodeValidator, code string) accesscode.Result {
	if strings.TrimSpace(code) == "" {
		return accesscode.Result{}
	}
	return codes.Validate(ctx, code)
}

func respondCheckoutError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, payment.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, payment.ErrProcessor):
		c.JSON(http.StatusBadGateway, gin.H{"error": strings.TrimPrefix(err.Error(), payment.ErrProcessor.Error()+": ")})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "checkout failed"})
	}
}

// POST /checkout/quote
func QuoteHandler(db *gorm.DB, creator *payment.Creator, codes CodeValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req QuoteRequest
		if !decodeBody(c, &req) {
			return
		}
		storage, ok := cartControllers.GuestStorage(db, c)
		if !ok {
			return
		}
		current := cart.Load(storage).Cart()
		if len(current.Items) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cart is empty"})
			return
		}

		discount := discountFor(c.Request.Context(), codes, req.AccessCode)
		totals := creator.Quote(current.Items, discount.DiscountPercent)
		c.JSON(http.StatusOK, gin.H{
			"items":    current.Items,
			"totals":   totals,
			"discount": discount,
		})
	}
}

// POST /create-checkout-session
func CreateCheckoutSession(db *gorm.DB, creator *payment.Creator, codes CodeValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CheckoutRequest
		if !decodeBody(c, &req) {
			return
		}
		storage, ok := cartControllers.GuestStorage(db, c)
		if !ok {
			return
		}
		current := cart.Load(storage).Cart()

		order := payment.ProductOrder{
			Customer: req.Customer,
			Shipping: req.Shipping,
			Items:    current.Items,
			GuestID:  c.GetString("user_id"),
		}
		if discount := discountFor(c.Request.Context(), codes, req.AccessCode); discount.Valid {
			order.AccessCode = discount.Code
			order.DiscountPercent = discount.DiscountPercent
		} else if req.AccessCode != "" {
			log.Printf("⚠️ Checkout continuing without discount, code %s: %s", accesscode.Normalize(req.AccessCode), discount.Reason)
		}

		session, err := creator.CreateProductSession(c.Request.Context(), order)
		if err != nil {
			respondCheckoutError(c, err)
			return
		}
		c.JSON(http.StatusOK, session)
	}
}

// POST /create-oracle-session
func CreateOracleSession(creator *payment.Creator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req OracleRequest
		if !decodeBody(c, &req) {
			return
		}
		session, err := creator.CreateOracleSession(c.Request.Context(), payment.OracleOrder{
			Customer: req.Customer,
			Tier:     strings.ToLower(strings.TrimSpace(req.Tier)),
			Question: req.Question,
			GuestID:  c.GetString("user_id"),
		})
		if err != nil {
			respondCheckoutError(c, err)
			return
		}
		c.JSON(http.StatusOK, session)
	}
}

// GET /checkout/success?session_id=
//
// Confirms a paid session for the guest who opened it, snapshots the order
// for the confirmation page and empties the cart.
func CheckoutSuccess(db *gorm.DB, creator *payment.Creator) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Query("session_id")
		if sessionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
			return
		}
		storage, ok := cartControllers.GuestStorage(db, c)
		if !ok {
			return
		}

		s, err := creator.Retrieve(c.Request.Context(), sessionID)
		if err != nil {
			respondCheckoutError(c, err)
			return
		}
		if s.ClientReferenceID != "" && s.ClientReferenceID != c.GetString("user_id") {
			c.JSON(http.StatusForbidden, gin.H{"error": "Checkout session belongs to another guest"})
			return
		}
		if s.Status != stripe.CheckoutSessionStatusComplete {
			c.JSON(http.StatusConflict, gin.H{"error": "Checkout session is not complete", "status": s.Status})
			return
		}

		manager := cart.Load(storage)
		last := cart.LastOrder{
			ID:        s.ID,
			Amount:    pricing.FromMinorUnits(s.AmountTotal),
			Currency:  string(s.Currency),
			Email:     s.CustomerEmail,
			Name:      s.Metadata[payment.MetaCustomerName],
			Items:     manager.Cart().Items,
			Timestamp: time.Now().UTC(),
		}
		if s.CustomerDetails != nil && s.CustomerDetails.Email != "" {
			last.Email = s.CustomerDetails.Email
		}
		if err := cart.SaveLastOrder(storage, last); err != nil {
			log.Printf("❌ Failed to save last order %s: %v", s.ID, err)
		}
		manager.Clear()

		c.JSON(http.StatusOK, last)
	}
}
