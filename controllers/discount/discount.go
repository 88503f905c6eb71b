package discountControllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lyrion-studio/lyrion-api/accesscode"
)

type CodeValidator interface {
	Validate(ctx context.Context, code string) accesscode.Result
}

type ValidateDiscountRequest struct {
	Code string `json:"code"`
}

// POST /validate-discount
//
// Always 200: an unusable code is a normal answer, not an error.
func ValidateDiscount(codes CodeValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ValidateDiscountRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, accesscode.Result{Reason: accesscode.ReasonEmpty})
			return
		}
		c.JSON(http.StatusOK, codes.Validate(c.Request.Context(), req.Code))
	}
}

// GET /admin/access-codes/:code
func GetAccessCode(reader accesscode.Reader) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := accesscode.Normalize(c.Param("code"))
		found, err := reader.Get(c.Request.Context(), code)
		if errors.Is(err, accesscode.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "access code not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "access code document unavailable", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, found)
	}
}
