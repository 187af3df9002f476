package staff

import (
	"tickethub/internal/shared/config"
	"tickethub/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupStaffRoutes mounts staff management under the event scope plus a
// direct staff lookup route.
func SetupStaffRoutes(rg *gin.RouterGroup, cfg *config.Config, controller *Controller) {
	events := rg.Group("/events")
	events.Use(middleware.JWTAuth(cfg))
	events.Use(middleware.RequireRoles(middleware.RoleOrganizer, middleware.RoleAdmin))
	{
		events.POST("/:id/staff", controller.AddStaff)
		events.GET("/:id/staff", controller.ListEventStaff)
		events.PATCH("/:id/staff/:staffId/parent", controller.ReparentStaff)
	}

	staff := rg.Group("/staff")
	staff.Use(middleware.JWTAuth(cfg))
	staff.Use(middleware.RequireRoles(middleware.RoleOrganizer, middleware.RoleAdmin))
	{
		staff.GET("/:id", controller.GetStaff)
	}
}
