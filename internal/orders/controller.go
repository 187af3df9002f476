package orders

import (
	"errors"
	"net/http"
	"strconv"

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

func buyerID(ctx *gin.Context) (uuid.UUID, bool) {
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

// CreateOrder handles POST /api/v1/orders
func (c *Controller) CreateOrder(ctx *gin.Context) {
	userID, ok := buyerID(ctx)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.BadRequest(ctx, "Invalid request body", err.Error())
		return
	}

	order, err := c.service.CreateOrder(ctx.Request.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInsufficientInventory):
			response.Error(ctx, http.StatusConflict, "Not enough tickets available", err.Error())
		case errors.Is(err, apperrors.ErrTicketsNotYetAvailable):
			response.Error(ctx, http.StatusForbidden, "Tickets are not yet available for this event", err.Error())
		default:
			response.BadRequest(ctx, "Failed to create order", err.Error())
		}
		return
	}

	response.Success(ctx, http.StatusCreated, "Order created successfully", order)
}

// CompleteOrder handles POST /api/v1/orders/:id/complete
func (c *Controller) CompleteOrder(ctx *gin.Context) {
	orderID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.BadRequest(ctx, "Invalid order ID", nil)
		return
	}

	var req CompleteOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.BadRequest(ctx, "Invalid request body", err.Error())
		return
	}

	order, err := c.service.CompleteOrder(ctx.Request.Context(), orderID, req.PaymentConfirmation)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidStateTransition) {
			response.Error(ctx, http.StatusConflict, "Order is already finalized", err.Error())
			return
		}
		response.BadRequest(ctx, "Failed to complete order", err.Error())
		return
	}

	response.Success(ctx, http.StatusOK, "Order completed successfully", order)
}

// CancelOrder handles POST /api/v1/orders/:id/cancel
func (c *Controller) CancelOrder(ctx *gin.Context) {
	orderID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.BadRequest(ctx, "Invalid order ID", nil)
		return
	}

	var req CancelOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		req.Reason = "buyer request"
	}

	order, err := c.service.CancelOrder(ctx.Request.Context(), orderID, req.Reason)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidStateTransition) {
			response.Error(ctx, http.StatusConflict, "Order is already finalized", err.Error())
			return
		}
		response.BadRequest(ctx, "Failed to cancel order", err.Error())
		return
	}

	response.Success(ctx, http.StatusOK, "Order cancelled successfully", order)
}

// GetOrder handles GET /api/v1/orders/:id
func (c *Controller) GetOrder(ctx *gin.Context) {
	orderID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.BadRequest(ctx, "Invalid order ID", nil)
		return
	}

	order, err := c.service.GetOrder(ctx.Request.Context(), orderID)
	if err != nil {
		response.NotFound(ctx, "Order not found")
		return
	}

	response.Success(ctx, http.StatusOK, "Order retrieved successfully", order)
}

// ListMyOrders handles GET /api/v1/orders
func (c *Controller) ListMyOrders(ctx *gin.Context) {
	userID, ok := buyerID(ctx)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(ctx.DefaultQuery("offset", "0"))

	orders, total, err := c.service.ListUserOrders(ctx.Request.Context(), userID, limit, offset)
	if err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Failed to list orders", err.Error())
		return
	}

	response.Success(ctx, http.StatusOK, "Orders retrieved successfully", gin.H{
		"orders": orders,
		"total":  total,
	})
}

// SweepNow handles POST /api/v1/admin/orders/sweep, a manual trigger for
// the cash hold sweep, alongside the scheduled run.
func (c *Controller) SweepNow(ctx *gin.Context) {
	result, err := c.service.SweepExpiredCashHolds(ctx.Request.Context())
	if err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Sweep failed", err.Error())
		return
	}

	response.Success(ctx, http.StatusOK, "Sweep completed", result)
}

// ScanTicket handles POST /api/v1/tickets/:id/scan
func (c *Controller) ScanTicket(ctx *gin.Context) {
	ticketID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.BadRequest(ctx, "Invalid ticket ID", nil)
		return
	}

	ticket, err := c.service.ScanTicket(ctx.Request.Context(), ticketID)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidStateTransition) {
			response.Error(ctx, http.StatusConflict, "Ticket cannot be scanned", err.Error())
			return
		}
		response.NotFound(ctx, "Ticket not found")
		return
	}

	response.Success(ctx, http.StatusOK, "Ticket scanned", ticket)
}
