package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateGuestSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/auth/guest", CreateGuestSession("jwt-secret"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/guest", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		GuestID   string    `json:"guest_id"`
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, strings.HasPrefix(body.GuestID, "guest_"))
	assert.Len(t, body.GuestID, len("guest_")+32)
	assert.WithinDuration(t, time.Now().Add(GuestTTL), body.ExpiresAt, time.Minute)

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(body.Token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("jwt-secret"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, body.GuestID, claims["user_id"])
	assert.Equal(t, "guest", claims["role"])
}

func TestNewGuestID_Unique(t *testing.T) {
	a, err := NewGuestID()
	require.NoError(t, err)
	b, err := NewGuestID()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
