package routes

import (
	"github.com/gin-gonic/gin"
	discountControllers "github.com/lyrion-studio/lyrion-api/controllers/discount"
	"github.com/lyrion-studio/lyrion-api/middleware"
)

// SetupAdminRoutes registers all “/admin/*” endpoints. Requires API‐Key middleware.
func SetupAdminRoutes(r *gin.Engine, deps Dependencies) {
	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.ValidateAPIKey(deps.AdminAPIKey))
	{
		// ─────────── Order Management ───────────
		SetupOrderRoutes(adminGroup, deps)

		// ─────────── Access Codes ───────────
		codes := adminGroup.Group("/access-codes")
		{
			codes.GET("/:code", discountControllers.GetAccessCode(deps.CodeReader))
			if deps.CodeWriter != nil {
				codes.POST("/import", discountControllers.ImportAccessCodesFromExcel(deps.CodeWriter))
			}
		}
	}
}
