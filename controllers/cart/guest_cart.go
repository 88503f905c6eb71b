package cartControllers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lyrion-studio/lyrion-api/cart"
	"gorm.io/gorm"
)

// GuestStorage is the document storage of the guest behind the request's
// token. ok is false (and a 401 has been written) when there is none.
func GuestStorage(db *gorm.DB, c *gin.Context) (cart.Storage, bool) {
	guestID := c.GetString("user_id")
	if guestID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "guest session is required"})
		return nil, false
	}
	return cart.NewDBStorage(db, guestID), true
}

func loadCart(db *gorm.DB, c *gin.Context) (*cart.Manager, bool) {
	storage, ok := GuestStorage(db, c)
	if !ok {
		return nil, false
	}
	return cart.Load(storage), true
}

// GET /cart/last-order
func GetLastOrder(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		storage, ok := GuestStorage(db, c)
		if !ok {
			return
		}
		order, err := cart.LoadLastOrder(storage)
		if errors.Is(err, cart.ErrNotStored) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No completed order for this session"})
			return
		}
		if err != nil {
			log.Printf("❌ Failed to load last order: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load last order"})
			return
		}
		c.JSON(http.StatusOK, order)
	}
}
