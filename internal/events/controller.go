package events

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

func organizerID(ctx *gin.Context) (uuid.UUID, bool) {
	idValue, exists := ctx.Get("user_id")
	if !exists {
		response.Error(ctx, http.StatusUnauthorized, "User not authenticated", nil)
		return uuid.Nil, false
	}

	idStr, ok := idValue.(string)
	if !ok {
		response.Error(ctx, http.StatusInternalServerError, "Invalid user ID format", nil)
		return uuid.Nil, false
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		response.BadRequest(ctx, "Invalid user ID", nil)
		return uuid.Nil, false
	}
	return id, true
}

// CreateEvent handles POST /api/v1/events
func (c *Controller) CreateEvent(ctx *gin.Context) {
	userID, ok := organizerID(ctx)
	if !ok {
		return
	}

	var req CreateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.BadRequest(ctx, "Invalid request body", err.Error())
		return
	}

	event, err := c.service.CreateEvent(ctx.Request.Context(), userID, req)
	if err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Failed to create event", err.Error())
		return
	}

	response.Success(ctx, http.StatusCreated, "Event created successfully", event)
}

// PublishEvent handles POST /api/v1/events/:id/publish
func (c *Controller) PublishEvent(ctx *gin.Context) {
	userID, ok := organizerID(ctx)
	if !ok {
		return
	}

	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.BadRequest(ctx, "Invalid event ID", nil)
		return
	}

	if err := c.service.PublishEvent(ctx.Request.Context(), eventID, userID); err != nil {
		response.BadRequest(ctx, "Failed to publish event", err.Error())
		return
	}

	response.Success(ctx, http.StatusOK, "Event published successfully", nil)
}

// GetEvent handles GET /api/v1/events/:id
func (c *Controller) GetEvent(ctx *gin.Context) {
	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.BadRequest(ctx, "Invalid event ID", nil)
		return
	}

	event, err := c.service.GetEventByID(ctx.Request.Context(), eventID)
	if err != nil {
		response.NotFound(ctx, "Event not found")
		return
	}

	response.Success(ctx, http.StatusOK, "Event retrieved successfully", event)
}

// ListEvents handles GET /api/v1/events
func (c *Controller) ListEvents(ctx *gin.Context) {
	var query EventListQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.BadRequest(ctx, "Invalid query parameters", err.Error())
		return
	}

	events, err := c.service.ListEvents(ctx.Request.Context(), query)
	if err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Failed to list events", err.Error())
		return
	}

	response.Success(ctx, http.StatusOK, "Events retrieved successfully", events)
}

// SetPaymentConfig handles PUT /api/v1/events/:id/payment-config
func (c *Controller) SetPaymentConfig(ctx *gin.Context) {
	userID, ok := organizerID(ctx)
	if !ok {
		return
	}

	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.BadRequest(ctx, "Invalid event ID", nil)
		return
	}

	var req SetPaymentConfigRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.BadRequest(ctx, "Invalid request body", err.Error())
		return
	}

	config, err := c.service.SetPaymentConfig(ctx.Request.Context(), eventID, userID, req)
	if err != nil {
		response.BadRequest(ctx, "Failed to set payment config", err.Error())
		return
	}

	response.Success(ctx, http.StatusOK, "Payment config saved", config)
}

// ResetPaymentConfig handles POST /api/v1/events/:id/payment-config/reset
func (c *Controller) ResetPaymentConfig(ctx *gin.Context) {
	userID, ok := organizerID(ctx)
	if !ok {
		return
	}

	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.BadRequest(ctx, "Invalid event ID", nil)
		return
	}

	if err := c.service.ResetPaymentConfig(ctx.Request.Context(), eventID, userID); err != nil {
		response.BadRequest(ctx, "Failed to reset payment config", err.Error())
		return
	}

	response.Success(ctx, http.StatusOK, "Payment config reset", nil)
}
