// Package auth issues guest session tokens. Every storefront visitor gets
// one; the cart and checkout endpoints key their state on its user_id.
package auth

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const GuestTTL = 24 * time.Hour

// POST /auth/guest
func CreateGuestSession(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		guestID, err := NewGuestID()
		if err != nil {
			log.Printf("❌ Guest id generation failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create guest"})
			return
		}

		expiresAt := time.Now().Add(GuestTTL)
		token, err := IssueGuestToken(secret, guestID, expiresAt)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Token generation failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"guest_id":   guestID,
			"token":      token,
			"expires_at": expiresAt,
		})
	}
}

func NewGuestID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return "guest_" + strings.ReplaceAll(id.String(), "-", ""), nil
}

func IssueGuestToken(secret, id string, expiresAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"user_id": id,
		"role":    "guest",
		"exp":     expiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
