package orderControllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lyrion-studio/lyrion-api/models"
	"github.com/tealeg/xlsx"
	"gorm.io/gorm"
)

// GET /admin/orders/export-excel
func ExportOrdersToExcel(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var orders []models.Order
		if err := filteredOrders(db, c).Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
			return
		}

		file, err := ordersWorkbook(orders)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel sheet"})
			return
		}

		// Set response headers for download
		filename := fmt.Sprintf("orders-%s.xlsx", time.Now().Format("20060102"))
		c.Header("Content-Disposition", "attachment; filename="+filename)
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Transfer-Encoding", "binary")
		c.Header("Expires", "0")

		if err := file.Write(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write Excel file"})
			return
		}
	}
}

// ordersWorkbook builds an "Orders" sheet (one row per order) and an "Items"
// sheet (one row per line) for reconciliation against the processor payouts.
func ordersWorkbook(orders []models.Order) (*xlsx.File, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Orders")
	if err != nil {
		return nil, err
	}
	items, err := file.AddSheet("Items")
	if err != nil {
		return nil, err
	}

	// Header rows
	headers := []string{
		"OrderRef", "SessionID", "Type", "CustomerName", "CustomerEmail",
		"Currency", "AmountTotal", "AccessCode", "Tier", "Outcome",
		"FulfillmentStatus", "ProviderOrderIDs", "ShipTo", "Notes", "CreatedAt",
	}
	headerRow := sheet.AddRow()
	for _, h := range headers {
		headerRow.AddCell().SetValue(h)
	}
	itemHeaders := []string{"OrderRef", "SKU", "Title", "Variant", "Quantity", "UnitPrice", "Provider", "ProviderVariantID"}
	itemHeaderRow := items.AddRow()
	for _, h := range itemHeaders {
		itemHeaderRow.AddCell().SetValue(h)
	}

	// Data rows
	for _, o := range orders {
		row := sheet.AddRow()
		row.AddCell().SetValue(o.OrderRef)
		row.AddCell().SetValue(o.SessionID)
		row.AddCell().SetValue(string(o.OrderType))
		row.AddCell().SetValue(o.CustomerName)
		row.AddCell().SetValue(o.CustomerEmail)
		row.AddCell().SetValue(strings.ToUpper(o.Currency))
		row.AddCell().SetValue(o.AmountTotal.StringFixed(2))
		row.AddCell().SetValue(o.AccessCode)
		row.AddCell().SetValue(o.Tier)
		row.AddCell().SetValue(string(o.Outcome))
		row.AddCell().SetValue(string(o.FulfillmentStatus))
		row.AddCell().SetValue(o.ProviderOrderIDs)
		row.AddCell().SetValue(shipTo(o.Address))
		row.AddCell().SetValue(o.Notes)
		row.AddCell().SetValue(o.CreatedAt.Format("2006-01-02 15:04:05"))

		for _, it := range o.Items {
			r := items.AddRow()
			r.AddCell().SetValue(o.OrderRef)
			r.AddCell().SetValue(it.SKU)
			r.AddCell().SetValue(it.Title)
			r.AddCell().SetValue(it.Variant)
			r.AddCell().SetValue(it.Quantity)
			r.AddCell().SetValue(it.UnitPrice.StringFixed(2))
			r.AddCell().SetValue(it.Provider)
			r.AddCell().SetValue(it.ProviderVariantID)
		}
	}
	return file, nil
}

func shipTo(a models.Address) string {
	var parts []string
	for _, s := range []string{a.Line1, a.Line2, a.City, a.Region, a.PostalCode, a.Country} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}
