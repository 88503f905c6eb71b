package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v80/webhook"
)

const whsec = "whsec_test_secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestValidateAPIKey(t *testing.T) {
	r := gin.New()
	r.GET("/admin", ValidateAPIKey("s3cret"), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	assert.Equal(t, http.StatusUnauthorized, perform(r, req).Code)

	req.Header.Set("X-API-KEY", "wrong")
	assert.Equal(t, http.StatusUnauthorized, perform(r, req).Code)

	req.Header.Set("X-API-KEY", "s3cret")
	assert.Equal(t, http.StatusNoContent, perform(r, req).Code)
}

func TestValidateAPIKey_EmptyKeyLocksRoute(t *testing.T) {
	r := gin.New()
	r.GET("/admin", ValidateAPIKey(""), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("X-API-KEY", "")
	assert.Equal(t, http.StatusUnauthorized, perform(r, req).Code)
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestValidateToken(t *testing.T) {
	r := gin.New()
	r.GET("/cart", ValidateToken("jwt-secret"), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("user_id"))
	})

	good := signToken(t, "jwt-secret", jwt.MapClaims{"user_id": "guest_ab12", "exp": time.Now().Add(time.Hour).Unix()})
	for _, header := range []string{good, "Bearer " + good} {
		req := httptest.NewRequest(http.MethodGet, "/cart", nil)
		req.Header.Set("Authorization", header)
		w := perform(r, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "guest_ab12", w.Body.String())
	}

	for name, token := range map[string]string{
		"missing":      "",
		"wrong secret": signToken(t, "other", jwt.MapClaims{"user_id": "guest_x", "exp": time.Now().Add(time.Hour).Unix()}),
		"expired":      signToken(t, "jwt-secret", jwt.MapClaims{"user_id": "guest_x", "exp": time.Now().Add(-time.Hour).Unix()}),
		"no expiry":    signToken(t, "jwt-secret", jwt.MapClaims{"user_id": "guest_x"}),
		"no user":      signToken(t, "jwt-secret", jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}),
		"garbage":      "not.a.jwt",
	} {
		req := httptest.NewRequest(http.MethodGet, "/cart", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		assert.Equal(t, http.StatusUnauthorized, perform(r, req).Code, name)
	}
}

func webhookRouter(called *bool) *gin.Engine {
	r := gin.New()
	r.POST("/webhook", StripeWebhookAuth(whsec), func(c *gin.Context) {
		*called = true
		ev, ok := StripeEvent(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, ev.ID)
	})
	return r
}

const eventBody = `{"id":"evt_123","object":"event","type":"checkout.session.completed","api_version":"2024-06-20","data":{"object":{"id":"cs_test_1","object":"checkout.session"}}}`

func TestStripeWebhookAuth_Valid(t *testing.T) {
	called := false
	r := webhookRouter(&called)

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(eventBody),
		Secret:    whsec,
		Timestamp: time.Now(),
	})
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(signed.Payload))
	req.Header.Set("Stripe-Signature", signed.Header)

	w := perform(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "evt_123", w.Body.String())
	assert.True(t, called)
}

func TestStripeWebhookAuth_RejectsBeforeHandler(t *testing.T) {
	stale := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(eventBody),
		Secret:    whsec,
		Timestamp: time.Now().Add(-time.Hour),
	})
	wrongSecret := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(eventBody),
		Secret:    "whsec_other",
		Timestamp: time.Now(),
	})
	good := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(eventBody),
		Secret:    whsec,
		Timestamp: time.Now(),
	})

	cases := map[string]struct {
		body   []byte
		header string
	}{
		"no header":     {[]byte(eventBody), ""},
		"wrong secret":  {wrongSecret.Payload, wrongSecret.Header},
		"stale":         {stale.Payload, stale.Header},
		"tampered body": {bytes.Replace(good.Payload, []byte("cs_test_1"), []byte("cs_test_2"), 1), good.Header},
		"garbage":       {[]byte(eventBody), "t=1,v1=deadbeef"},
	}
	for name, tc := range cases {
		called := false
		r := webhookRouter(&called)
		req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(tc.body))
		if tc.header != "" {
			req.Header.Set("Stripe-Signature", tc.header)
		}
		w := perform(r, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, name)
		assert.False(t, called, name)
	}
}

func TestStripeWebhookAuth_RequiresSecret(t *testing.T) {
	assert.Panics(t, func() { StripeWebhookAuth("") })
}

func TestRateLimiter(t *testing.T) {
	l := NewRateLimiter(1, 2)
	r := gin.New()
	r.POST("/validate-discount", l.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/validate-discount", nil)
		req.RemoteAddr = "203.0.113.7:5000"
		codes = append(codes, perform(r, req).Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodPost, "/validate-discount", nil)
	req.RemoteAddr = "198.51.100.1:5000"
	assert.Equal(t, http.StatusOK, perform(r, req).Code, "other clients have their own bucket")
}

func TestRateLimiter_Sweep(t *testing.T) {
	l := NewRateLimiter(1, 1)
	now := time.Now()
	l.allow("a", now.Add(-time.Hour))
	l.allow("b", now)

	l.Sweep(now)
	assert.Len(t, l.limiters, 1)
	assert.Contains(t, l.limiters, "b")
}

func TestPrintfulWebhookAuth(t *testing.T) {
	r := gin.New()
	r.POST("/webhooks/printful", PrintfulWebhookAuth("pf-hook"), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusUnauthorized, perform(r, httptest.NewRequest(http.MethodPost, "/webhooks/printful", nil)).Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, httptest.NewRequest(http.MethodPost, "/webhooks/printful?token=guess", nil)).Code)
	assert.Equal(t, http.StatusOK, perform(r, httptest.NewRequest(http.MethodPost, "/webhooks/printful?token=pf-hook", nil)).Code)

	open := gin.New()
	open.POST("/webhooks/printful", PrintfulWebhookAuth(""), func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusOK, perform(open, httptest.NewRequest(http.MethodPost, "/webhooks/printful", nil)).Code)
}
