package webhookControllers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lyrion-studio/lyrion-api/broker"
	"github.com/lyrion-studio/lyrion-api/database"
	"github.com/lyrion-studio/lyrion-api/middleware"
	"github.com/lyrion-studio/lyrion-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/webhook"
)

const whsec = "whsec_test_secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeHandler struct {
	status broker.Status
	events []stripe.Event
}

func (f *fakeHandler) Handle(_ context.Context, event stripe.Event) broker.Outcome {
	f.events = append(f.events, event)
	return broker.Outcome{EventID: event.ID, EventType: string(event.Type), Status: f.status}
}

func stripeRouter(h EventHandler) *gin.Engine {
	r := gin.New()
	r.POST("/webhook", middleware.StripeWebhookAuth(whsec), StripeWebhookHandler(h))
	return r
}

func signedRequest(t *testing.T, payload []byte, secret string) *http.Request {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
	})
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(signed.Payload))
	req.Header.Set("Stripe-Signature", signed.Header)
	return req
}

const eventJSON = `{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_test_1","object":"checkout.session"}}}`

func TestStripeWebhook_Acknowledged(t *testing.T) {
	for _, status := range []broker.Status{broker.StatusHandled, broker.StatusDegraded, broker.StatusDuplicate, broker.StatusIgnored} {
		h := &fakeHandler{status: status}
		w := httptest.NewRecorder()
		stripeRouter(h).ServeHTTP(w, signedRequest(t, []byte(eventJSON), whsec))

		assert.Equal(t, http.StatusOK, w.Code, string(status))
		require.Len(t, h.events, 1)
		assert.Equal(t, "evt_1", h.events[0].ID)
	}
}

func TestStripeWebhook_FailedAsksForRedelivery(t *testing.T) {
	h := &fakeHandler{status: broker.StatusFailed}
	w := httptest.NewRecorder()
	stripeRouter(h).ServeHTTP(w, signedRequest(t, []byte(eventJSON), whsec))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestStripeWebhook_BadSignatureHasNoSideEffect(t *testing.T) {
	h := &fakeHandler{status: broker.StatusHandled}
	w := httptest.NewRecorder()
	stripeRouter(h).ServeHTTP(w, signedRequest(t, []byte(eventJSON), "whsec_someone_else"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, h.events)
}

func TestPrintfulWebhook(t *testing.T) {
	db, err := database.OpenMemory()
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.Order{
		OrderRef:          "abc123",
		SessionID:         "cs_test_1",
		OrderType:         models.OrderTypeProduct,
		FulfillmentStatus: models.FulfillmentSubmitted,
		Notes:             "printful order 555",
	}).Error)

	r := gin.New()
	r.POST("/webhooks/printful", PrintfulWebhookHandler(db))
	post := func(body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhooks/printful", strings.NewReader(body)))
		return w
	}

	w := post(`{"type":"package_shipped","data":{"shipment":{"carrier":"RM","tracking_number":"RM123GB","tracking_url":"https://track.test/RM123GB"},"order":{"id":555,"external_id":"abc123","status":"fulfilled"}}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var order models.Order
	require.NoError(t, db.Where("order_ref = ?", "abc123").First(&order).Error)
	assert.Equal(t, models.FulfillmentShipped, order.FulfillmentStatus)
	assert.Contains(t, order.Notes, "printful order 555\n")
	assert.Contains(t, order.Notes, "RM123GB")

	// Unknown orders and events without a status change are acknowledged untouched
	assert.Equal(t, http.StatusOK, post(`{"type":"package_shipped","data":{"order":{"id":9,"external_id":"missing"}}}`).Code)
	assert.Equal(t, http.StatusOK, post(`{"type":"stock_updated","data":{}}`).Code)

	assert.Equal(t, http.StatusBadRequest, post(`not json`).Code)
	assert.Equal(t, http.StatusBadRequest, post(`{"data":{}}`).Code)
}
