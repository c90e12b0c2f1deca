package handler

import (
	"context"
	"net/http"

	"pharmacy-backend/internal/domains/alert/model"
	"pharmacy-backend/internal/domains/alert/service"
	"pharmacy-backend/internal/shared/middleware"
	"pharmacy-backend/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	service service.Service
}

// NewHandler creates a new alert handler
func NewHandler(service service.Service) *Handler {
	return &Handler{
		service: service,
	}
}

// ListAlerts handles GET /api/v1/alerts?status=active&alert_type=low_stock
// @Summary List alerts with pagination and filters
func (h *Handler) ListAlerts(c *gin.Context) {
	var req model.ListAlertsRequest

	if err := c.ShouldBindQuery(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "BAD_REQUEST", "Invalid query parameters", err.Error())
		return
	}
	req.PharmacyID = middleware.PharmacyID(c)

	res, err := h.service.ListAlerts(c.Request.Context(), req)
	if err != nil {
		if model.IsValidationError(err) {
			response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed", err.Error())
			return
		}
		response.ErrorWithDetails(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Failed to list alerts", err.Error())
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, res.Items, &response.Meta{
		Page:  res.Page,
		Limit: res.Limit,
		Total: res.TotalItems,
	})
}

// GetAlert handles GET /api/v1/alerts/:id
func (h *Handler) GetAlert(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid alert ID format")
		return
	}

	pharmacyID := middleware.PharmacyID(c)

	res, err := h.service.GetAlert(c.Request.Context(), pharmacyID, id)
	if err != nil {
		if model.IsNotFoundError(err) {
			response.NotFound(c, "Alert not found")
			return
		}
		response.ErrorWithDetails(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Failed to get alert", err.Error())
		return
	}

	response.Success(c, http.StatusOK, res)
}

// Acknowledge handles POST /api/v1/alerts/:id/acknowledge
func (h *Handler) Acknowledge(c *gin.Context) {
	h.transition(c, h.service.Acknowledge)
}

// Resolve handles POST /api/v1/alerts/:id/resolve
func (h *Handler) Resolve(c *gin.Context) {
	h.transition(c, h.service.Resolve)
}

// Dismiss handles POST /api/v1/alerts/:id/dismiss
func (h *Handler) Dismiss(c *gin.Context) {
	h.transition(c, h.service.Dismiss)
}

func (h *Handler) transition(c *gin.Context, fn func(ctx context.Context, pharmacyID, id, userID uuid.UUID) (*model.AlertResponse, error)) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid alert ID format")
		return
	}

	pharmacyID := middleware.PharmacyID(c)
	userID := middleware.UserID(c)

	res, err := fn(c.Request.Context(), pharmacyID, id, userID)
	if err != nil {
		switch {
		case model.IsNotFoundError(err):
			response.NotFound(c, "Alert not found")
		case model.IsTransitionError(err):
			response.ErrorWithDetails(c, http.StatusConflict, "INVALID_TRANSITION", "Alert cannot move to that status", err.Error())
		default:
			response.ErrorWithDetails(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Failed to update alert", err.Error())
		}
		return
	}

	response.Success(c, http.StatusOK, res)
}
