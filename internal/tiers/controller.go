package tiers

import (
	"net/http"

	"tickethub/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// CreateTier handles POST /api/v1/events/:id/tiers
func (c *Controller) CreateTier(ctx *gin.Context) {
	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.BadRequest(ctx, "Invalid event ID", nil)
		return
	}

	var req CreateTierRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.BadRequest(ctx, "Invalid request body", err.Error())
		return
	}

	tier, err := c.service.CreateTier(ctx.Request.Context(), eventID, req)
	if err != nil {
		response.BadRequest(ctx, "Failed to create tier", err.Error())
		return
	}

	response.Success(ctx, http.StatusCreated, "Tier created successfully", tier)
}

// ListTiers handles GET /api/v1/events/:id/tiers
func (c *Controller) ListTiers(ctx *gin.Context) {
	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.BadRequest(ctx, "Invalid event ID", nil)
		return
	}

	tiers, err := c.service.ListTiersByEvent(ctx.Request.Context(), eventID)
	if err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Failed to list tiers", err.Error())
		return
	}

	response.Success(ctx, http.StatusOK, "Tiers retrieved successfully", tiers)
}

// GetAvailability handles GET /api/v1/tiers/:id/availability
func (c *Controller) GetAvailability(ctx *gin.Context) {
	tierID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.BadRequest(ctx, "Invalid tier ID", nil)
		return
	}

	availability, err := c.service.GetAvailability(ctx.Request.Context(), tierID)
	if err != nil {
		response.NotFound(ctx, "Tier not found")
		return
	}

	response.Success(ctx, http.StatusOK, "Availability retrieved successfully", availability)
}
