package model

import (
	"time"

	"github.com/google/uuid"
)

// AlertResponse is the caller-facing alert projection.
type AlertResponse struct {
	ID                uuid.UUID     `json:"id"`
	PharmacyID        uuid.UUID     `json:"pharmacy_id"`
	InventoryItemID   uuid.UUID     `json:"inventory_item_id"`
	AlertType         AlertType     `json:"alert_type"`
	Severity          AlertSeverity `json:"severity"`
	Message           string        `json:"message"`
	SuggestedAction   *string       `json:"suggested_action,omitempty"`
	SuggestedQuantity *int          `json:"suggested_quantity,omitempty"`
	Status            AlertStatus   `json:"status"`
	AcknowledgedBy    *uuid.UUID    `json:"acknowledged_by,omitempty"`
	AcknowledgedAt    *time.Time    `json:"acknowledged_at,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	ResolvedAt        *time.Time    `json:"resolved_at,omitempty"`
}

// ToResponse converts the entity to its projection.
func (a *InventoryAlert) ToResponse() AlertResponse {
	return AlertResponse{
		ID:                a.ID,
		PharmacyID:        a.PharmacyID,
		InventoryItemID:   a.InventoryItemID,
		AlertType:         a.AlertType,
		Severity:          a.Severity,
		Message:           a.Message,
		SuggestedAction:   a.SuggestedAction,
		SuggestedQuantity: a.SuggestedQuantity,
		Status:            a.Status,
		AcknowledgedBy:    a.AcknowledgedBy,
		AcknowledgedAt:    a.AcknowledgedAt,
		CreatedAt:         a.CreatedAt,
		ResolvedAt:        a.ResolvedAt,
	}
}

// ToResponseList converts a slice of entities.
func ToResponseList(alerts []InventoryAlert) []AlertResponse {
	out := make([]AlertResponse, 0, len(alerts))
	for idx := range alerts {
		out = append(out, alerts[idx].ToResponse())
	}
	return out
}

// ListAlertsRequest filters and paginates alerts of one pharmacy.
type ListAlertsRequest struct {
	PharmacyID      uuid.UUID    `form:"-"`
	InventoryItemID *uuid.UUID   `form:"item_id"`
	AlertType       *AlertType   `form:"alert_type"`
	Status          *AlertStatus `form:"status"`
	Page            int          `form:"page"`
	Limit           int          `form:"limit"`
}

// Normalize clamps pagination to sane bounds.
func (req *ListAlertsRequest) Normalize() {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 {
		req.Limit = 20
	}
	if req.Limit > 100 {
		req.Limit = 100
	}
}

// ListAlertsResponse is the paginated alert list.
type ListAlertsResponse struct {
	Items      []AlertResponse `json:"items"`
	TotalItems int             `json:"total_items"`
	TotalPages int             `json:"total_pages"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
}
