package orders

import (
	"tickethub/internal/shared/config"
	"tickethub/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupOrderRoutes mounts the order, ticket, and admin sweep routes.
func SetupOrderRoutes(rg *gin.RouterGroup, cfg *config.Config, controller *Controller) {
	RegisterValidators()

	orders := rg.Group("/orders")
	orders.Use(middleware.JWTAuth(cfg))
	{
		orders.POST("", controller.CreateOrder)
		orders.GET("", controller.ListMyOrders)
		orders.GET("/:id", controller.GetOrder)
		orders.POST("/:id/complete", controller.CompleteOrder)
		orders.POST("/:id/cancel", controller.CancelOrder)
	}

	tickets := rg.Group("/tickets")
	tickets.Use(middleware.JWTAuth(cfg))
	tickets.Use(middleware.RequireRoles(middleware.RoleOrganizer, middleware.RoleAdmin))
	{
		tickets.POST("/:id/scan", controller.ScanTicket)
	}

	admin := rg.Group("/admin/orders")
	admin.Use(middleware.JWTAuth(cfg))
	admin.Use(middleware.RequireAdmin())
	{
		admin.POST("/sweep", controller.SweepNow)
	}
}
