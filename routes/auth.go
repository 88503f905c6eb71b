package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/lyrion-studio/lyrion-api/auth"
)

// SetupAuthRoutes registers all “/auth/*” endpoints.
func SetupAuthRoutes(r *gin.Engine, deps Dependencies) {
	authGroup := r.Group("/auth")
	authGroup.Use(limited(deps))
	{
		authGroup.POST("/guest", auth.CreateGuestSession(deps.JWTSecret))
	}
}
