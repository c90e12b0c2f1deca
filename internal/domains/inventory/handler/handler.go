package handler

import (
	"errors"
	"net/http"

	"pharmacy-backend/internal/domains/inventory/model"
	"pharmacy-backend/internal/domains/inventory/service"
	"pharmacy-backend/internal/shared/middleware"
	"pharmacy-backend/internal/shared/response"
	"pharmacy-backend/pkg/gs1"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

type Handler struct {
	service service.Service
}

// NewHandler creates a new inventory handler
func NewHandler(service service.Service) *Handler {
	return &Handler{
		service: service,
	}
}

// Scan handles POST /api/v1/inventory/scan
// @Summary Process a barcode scan as one atomic stock movement
func (h *Handler) Scan(c *gin.Context) {
	var req model.ScanRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "BAD_REQUEST", "Invalid request payload", err.Error())
		return
	}

	pharmacyID := middleware.PharmacyID(c)
	userID := middleware.UserID(c)

	res, err := h.service.ProcessScan(c.Request.Context(), pharmacyID, userID, req)
	if err != nil {
		var validationErrs validation.Errors
		switch {
		case errors.As(err, &validationErrs), model.IsValidationError(err):
			response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed", err.Error())
		case errors.Is(err, gs1.ErrMissingGTIN):
			response.ErrorWithDetails(c, http.StatusBadRequest, "INVALID_BARCODE", "Barcode does not carry a GTIN", err.Error())
		case model.IsNotFoundError(err):
			response.ErrorWithDetails(c, http.StatusNotFound, "ITEM_NOT_FOUND", "No inventory item for this barcode", err.Error())
		case model.IsInsufficientStockError(err):
			response.ErrorWithDetails(c, http.StatusConflict, "INSUFFICIENT_STOCK", "Movement would drive stock negative", err.Error())
		case model.IsConflictError(err):
			response.ErrorWithDetails(c, http.StatusConflict, "SCAN_CONFLICT", "Concurrent scan conflict, please retry", err.Error())
		default:
			response.ErrorWithDetails(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Failed to process scan", err.Error())
		}
		return
	}

	response.Success(c, http.StatusCreated, res)
}

// Lookup handles GET /api/v1/inventory/lookup?qr_code=xxx
// @Summary Resolve an item from a raw barcode without mutating stock
func (h *Handler) Lookup(c *gin.Context) {
	qrCode := c.Query("qr_code")
	if qrCode == "" {
		response.BadRequest(c, "qr_code query parameter is required")
		return
	}

	pharmacyID := middleware.PharmacyID(c)

	res, err := h.service.LookupByBarcode(c.Request.Context(), pharmacyID, qrCode)
	if err != nil {
		switch {
		case errors.Is(err, gs1.ErrMissingGTIN):
			response.ErrorWithDetails(c, http.StatusBadRequest, "INVALID_BARCODE", "Barcode does not carry a GTIN", err.Error())
		case model.IsNotFoundError(err):
			response.ErrorWithDetails(c, http.StatusNotFound, "ITEM_NOT_FOUND", "No inventory item for this barcode", err.Error())
		default:
			response.ErrorWithDetails(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Failed to look up barcode", err.Error())
		}
		return
	}

	response.Success(c, http.StatusOK, res)
}

// GetItem handles GET /api/v1/inventory/items/:id
func (h *Handler) GetItem(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid item ID format")
		return
	}

	pharmacyID := middleware.PharmacyID(c)

	res, err := h.service.GetItem(c.Request.Context(), pharmacyID, id)
	if err != nil {
		if model.IsNotFoundError(err) {
			response.NotFound(c, "Inventory item not found")
			return
		}
		response.ErrorWithDetails(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Failed to get item", err.Error())
		return
	}

	response.Success(c, http.StatusOK, res)
}

// ListItems handles GET /api/v1/inventory/items?page=1&limit=20&low_stock=true
// @Summary List inventory items with pagination and filters
// @Param gtin query string false "Filter by GTIN"
// @Param low_stock query bool false "Only items at or below their reorder threshold"
// @Param expiring_soon query bool false "Only items expiring within the warning window"
// @Param expired query bool false "Only expired items"
// @Param controlled query bool false "Only controlled substances"
func (h *Handler) ListItems(c *gin.Context) {
	var req model.ListItemsRequest

	if err := c.ShouldBindQuery(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "BAD_REQUEST", "Invalid query parameters", err.Error())
		return
	}
	req.PharmacyID = middleware.PharmacyID(c)

	res, err := h.service.ListItems(c.Request.Context(), req)
	if err != nil {
		response.ErrorWithDetails(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Failed to list items", err.Error())
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, res.Items, &response.Meta{
		Page:  res.Page,
		Limit: res.Limit,
		Total: res.TotalItems,
	})
}

// ListTransactions handles GET /api/v1/inventory/items/:id/transactions
// @Summary List the append-only ledger of one item, newest first
func (h *Handler) ListTransactions(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid item ID format")
		return
	}

	var req model.ListTransactionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "BAD_REQUEST", "Invalid query parameters", err.Error())
		return
	}
	if req.TransactionType != nil && !req.TransactionType.IsValid() {
		response.BadRequest(c, "Invalid transaction type filter")
		return
	}
	req.PharmacyID = middleware.PharmacyID(c)
	req.InventoryItemID = itemID

	res, err := h.service.ListTransactions(c.Request.Context(), req)
	if err != nil {
		if model.IsNotFoundError(err) {
			response.NotFound(c, "Inventory item not found")
			return
		}
		response.ErrorWithDetails(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Failed to list transactions", err.Error())
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, res.Items, &response.Meta{
		Page:  res.Page,
		Limit: res.Limit,
		Total: res.TotalItems,
	})
}

// StockSummary handles GET /api/v1/inventory/summary
func (h *Handler) StockSummary(c *gin.Context) {
	pharmacyID := middleware.PharmacyID(c)

	res, err := h.service.GetStockSummary(c.Request.Context(), pharmacyID)
	if err != nil {
		response.ErrorWithDetails(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Failed to get stock summary", err.Error())
		return
	}

	response.Success(c, http.StatusOK, res)
}
