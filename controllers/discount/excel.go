package discountControllers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lyrion-studio/lyrion-api/accesscode"
	"github.com/tealeg/xlsx"
)

type CodeWriter interface {
	Put(ctx context.Context, c accesscode.Code) error
}

// POST /admin/access-codes/import
//
// Columns: Code, Owner, DiscountPercent, ExpiresAt, UsesRemaining, Status.
// The first row is a header.
func ImportAccessCodesFromExcel(store CodeWriter) gin.HandlerFunc {
	return func(c *gin.Context) {
		excelFileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Excel file is required"})
			return
		}

		file, err := excelFileHeader.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open Excel file"})
			return
		}
		defer file.Close()

		xlFile, err := xlsx.OpenReaderAt(file, excelFileHeader.Size)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse Excel file"})
			return
		}
		if len(xlFile.Sheets) == 0 || len(xlFile.Sheets[0].Rows) < 2 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Excel file is empty or missing header row"})
			return
		}

		sheet := xlFile.Sheets[0]
		importedCount, skippedCount := 0, 0
		var skipped []string

		for i := 1; i < len(sheet.Rows); i++ {
			code, err := codeFromRow(sheet.Rows[i])
			if err != nil {
				skippedCount++
				skipped = append(skipped, "row "+strconv.Itoa(i+1)+": "+err.Error())
				continue
			}
			if err := store.Put(c.Request.Context(), code); err != nil {
				skippedCount++
				skipped = append(skipped, "row "+strconv.Itoa(i+1)+": "+err.Error())
				continue
			}
			importedCount++
		}

		log.Printf("🎟️ Access code import: %d imported, %d skipped", importedCount, skippedCount)
		c.JSON(http.StatusOK, gin.H{
			"message":        "Import completed",
			"imported_count": importedCount,
			"skipped_count":  skippedCount,
			"skipped":        skipped,
		})
	}
}

func codeFromRow(row *xlsx.Row) (accesscode.Code, error) {
	get := func(index int) string {
		if index < len(row.Cells) {
			return strings.TrimSpace(row.Cells[index].String())
		}
		return ""
	}

	code := accesscode.Normalize(get(0))
	if code == "" {
		return accesscode.Code{}, errMissing("code")
	}
	percent, err := strconv.Atoi(get(2))
	if err != nil || percent < 0 || percent > 100 {
		return accesscode.Code{}, errMissing("discount percent")
	}
	uses, err := strconv.Atoi(get(4))
	if err != nil {
		return accesscode.Code{}, errMissing("uses remaining")
	}
	expires, err := parseExpiry(get(3))
	if err != nil {
		return accesscode.Code{}, errMissing("expiry")
	}
	status := accesscode.Status(strings.ToLower(get(5)))
	if status == "" {
		status = accesscode.StatusActive
	}

	return accesscode.Code{
		Code:            code,
		Owner:           get(1),
		DiscountPercent: percent,
		ExpiresAt:       expires,
		UsesRemaining:   uses,
		Status:          status,
	}, nil
}

// parseExpiry accepts a date, an RFC 3339 timestamp or an Excel serial date.
// A bare date expires at the end of that day (UTC).
func parseExpiry(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.Add(24*time.Hour - time.Second).UTC(), nil
	}
	serial, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, err
	}
	return xlsx.TimeFromExcelTime(serial, false).UTC(), nil
}

type errMissing string

func (e errMissing) Error() string {
	return "missing or invalid " + string(e)
}
