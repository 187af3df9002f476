package staff

import (
	"errors"
	"net/http"

	"tickethub/internal/shared/apperrors"
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

// AddStaff handles POST /api/v1/events/:id/staff
func (c *Controller) AddStaff(ctx *gin.Context) {
	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.BadRequest(ctx, "Invalid event ID", nil)
		return
	}

	var req CreateStaffRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.BadRequest(ctx, "Invalid request body", err.Error())
		return
	}

	node, err := c.service.AddStaff(ctx.Request.Context(), eventID, req)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrCyclicHierarchy):
			response.Error(ctx, http.StatusConflict, "Staff hierarchy would form a cycle", err.Error())
		case errors.Is(err, apperrors.ErrAllocationExceeded):
			response.Error(ctx, http.StatusConflict, "Allocation exceeds parent's remaining tickets", err.Error())
		default:
			response.BadRequest(ctx, "Failed to add staff", err.Error())
		}
		return
	}

	response.Success(ctx, http.StatusCreated, "Staff added successfully", node)
}

// ReparentStaff handles PATCH /api/v1/events/:id/staff/:staffId/parent
func (c *Controller) ReparentStaff(ctx *gin.Context) {
	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.BadRequest(ctx, "Invalid event ID", nil)
		return
	}

	staffID, err := uuid.Parse(ctx.Param("staffId"))
	if err != nil {
		response.BadRequest(ctx, "Invalid staff ID", nil)
		return
	}

	var req ReparentStaffRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.BadRequest(ctx, "Invalid request body", err.Error())
		return
	}

	node, err := c.service.ReparentStaff(ctx.Request.Context(), eventID, staffID, req)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrCyclicHierarchy):
			response.Error(ctx, http.StatusConflict, "Staff hierarchy would form a cycle", err.Error())
		case errors.Is(err, apperrors.ErrAllocationExceeded):
			response.Error(ctx, http.StatusConflict, "Allocation exceeds parent's remaining tickets", err.Error())
		default:
			response.BadRequest(ctx, "Failed to reparent staff", err.Error())
		}
		return
	}

	response.Success(ctx, http.StatusOK, "Staff reparented successfully", node)
}

// ListEventStaff handles GET /api/v1/events/:id/staff
func (c *Controller) ListEventStaff(ctx *gin.Context) {
	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.BadRequest(ctx, "Invalid event ID", nil)
		return
	}

	nodes, err := c.service.ListEventStaff(ctx.Request.Context(), eventID)
	if err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Failed to list staff", err.Error())
		return
	}

	response.Success(ctx, http.StatusOK, "Staff retrieved successfully", nodes)
}

// GetStaff handles GET /api/v1/staff/:id
func (c *Controller) GetStaff(ctx *gin.Context) {
	staffID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.BadRequest(ctx, "Invalid staff ID", nil)
		return
	}

	node, err := c.service.GetStaff(ctx.Request.Context(), staffID)
	if err != nil {
		response.NotFound(ctx, "Staff not found")
		return
	}

	response.Success(ctx, http.StatusOK, "Staff retrieved successfully", node)
}
