package events

import (
	"tickethub/internal/shared/config"
	"tickethub/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupEventRoutes configures all event-related routes
func SetupEventRoutes(rg *gin.RouterGroup, cfg *config.Config, controller *Controller) {
	events := rg.Group("/events")
	{
		// Public browsing
		events.GET("", controller.ListEvents)
		events.GET("/:id", controller.GetEvent)

		// Organizer operations
		organizer := events.Group("")
		organizer.Use(middleware.JWTAuth(cfg), middleware.RequireRoles(middleware.RoleOrganizer, middleware.RoleAdmin))
		{
			organizer.POST("", controller.CreateEvent)
			organizer.POST("/:id/publish", controller.PublishEvent)
			organizer.PUT("/:id/payment-config", controller.SetPaymentConfig)
			organizer.POST("/:id/payment-config/reset", controller.ResetPaymentConfig)
		}
	}
}
