package tiers

import (
	"tickethub/internal/shared/config"
	"tickethub/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupTierRoutes configures tier and availability routes
func SetupTierRoutes(rg *gin.RouterGroup, cfg *config.Config, controller *Controller) {
	// Public availability lookup (sold-out tiers show zero remaining
	// before checkout is attempted)
	rg.GET("/tiers/:id/availability", controller.GetAvailability)

	events := rg.Group("/events")
	{
		events.GET("/:id/tiers", controller.ListTiers)

		organizer := events.Group("")
		organizer.Use(middleware.JWTAuth(cfg), middleware.RequireRoles(middleware.RoleOrganizer, middleware.RoleAdmin))
		{
			organizer.POST("/:id/tiers", controller.CreateTier)
		}
	}
}
