package orderControllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lyrion-studio/lyrion-api/models"
	"gorm.io/gorm"
)

// -------- Request Structs --------
type UpdateFulfillmentStatusRequest struct {
	Status string `json:"status" binding:"required"` // e.g. "shipped", "manual"
	Note   string `json:"note"`
}

// -------- Helpers --------

// Map string to FulfillmentStatus
func mapFulfillmentStatus(status string) (models.FulfillmentStatus, error) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case string(models.FulfillmentPending):
		return models.FulfillmentPending, nil
	case string(models.FulfillmentSubmitted):
		return models.FulfillmentSubmitted, nil
	case string(models.FulfillmentManual):
		return models.FulfillmentManual, nil
	case string(models.FulfillmentShipped):
		return models.FulfillmentShipped, nil
	case string(models.FulfillmentFailed):
		return models.FulfillmentFailed, nil
	case string(models.FulfillmentNotRequired):
		return models.FulfillmentNotRequired, nil
	default:
		return "", errors.New("invalid fulfillment status")
	}
}

// filteredOrders applies the list filters shared by the JSON list and the
// spreadsheet export.
func filteredOrders(db *gorm.DB, c *gin.Context) *gorm.DB {
	query := db.Model(&models.Order{}).Preload("Items")
	if outcome := c.Query("outcome"); outcome != "" {
		query = query.Where("outcome = ?", outcome)
	}
	if status := c.Query("fulfillment_status"); status != "" {
		query = query.Where("fulfillment_status = ?", status)
	}
	if orderType := c.Query("order_type"); orderType != "" {
		query = query.Where("order_type = ?", orderType)
	}
	if email := c.Query("email"); email != "" {
		query = query.Where("LOWER(customer_email) = ?", strings.ToLower(email))
	}
	return query.Order("created_at DESC")
}

// -------- Handlers --------

// GET /admin/orders
func GetAllOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 100
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
				return
			}
			limit = min(n, 500)
		}

		var orders []models.Order
		if err := filteredOrders(db, c).Limit(limit).Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

// GET /admin/orders/:ref (order_ref or checkout session id)
func GetOrderHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ref := c.Param("ref")
		if ref == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "order ref is required"})
			return
		}

		var order models.Order
		if err := db.
			Preload("Items").
			Where("order_ref = ? OR session_id = ?", ref, ref).
			First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// PUT /admin/orders/:ref/fulfillment-status
func UpdateFulfillmentStatusHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ref := c.Param("ref")
		var req UpdateFulfillmentStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		newStatus, err := mapFulfillmentStatus(req.Status)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var order models.Order
		if err := db.Where("order_ref = ?", ref).First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		updates := map[string]any{"fulfillment_status": newStatus}
		if note := strings.TrimSpace(req.Note); note != "" {
			updates["notes"] = AppendNote(order.Notes, note)
		}
		if err := db.Model(&order).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update fulfillment status"})
			return
		}
		log.Printf("📦 Order %s fulfillment status set to %s by admin", order.OrderRef, newStatus)
		c.JSON(http.StatusOK, gin.H{"message": "Fulfillment status updated successfully", "status": newStatus})
	}
}

// AppendNote adds a line to an order's newline-separated notes.
func AppendNote(notes, note string) string {
	if notes == "" {
		return note
	}
	return notes + "\n" + note
}
