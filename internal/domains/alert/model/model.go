package model

import (
	"time"

	"github.com/google/uuid"
)

// AlertType classifies the triggering condition.
type AlertType string

const (
	AlertTypeLowStock         AlertType = "low_stock"
	AlertTypeExpiringSoon     AlertType = "expiring_soon"
	AlertTypeExpired          AlertType = "expired"
	AlertTypeReorderSuggested AlertType = "reorder_suggested"
)

// AlertSeverity ranks how urgent the condition is. Severity is fixed at
// first detection and never refreshed while the alert stays active.
type AlertSeverity string

const (
	SeverityLow      AlertSeverity = "low"
	SeverityMedium   AlertSeverity = "medium"
	SeverityHigh     AlertSeverity = "high"
	SeverityCritical AlertSeverity = "critical"
)

// AlertStatus is the lifecycle state. Only one active alert may exist per
// (item, type) pair; the database enforces this with a partial unique
// index.
type AlertStatus string

const (
	StatusActive       AlertStatus = "active"
	StatusAcknowledged AlertStatus = "acknowledged"
	StatusResolved     AlertStatus = "resolved"
	StatusDismissed    AlertStatus = "dismissed"
)

// ValidAlertTypes lists every accepted alert type.
var ValidAlertTypes = []AlertType{
	AlertTypeLowStock,
	AlertTypeExpiringSoon,
	AlertTypeExpired,
	AlertTypeReorderSuggested,
}

// IsValid checks the type against the closed enum.
func (t AlertType) IsValid() bool {
	for _, valid := range ValidAlertTypes {
		if t == valid {
			return true
		}
	}
	return false
}

// IsValid checks the status against the closed enum.
func (s AlertStatus) IsValid() bool {
	switch s {
	case StatusActive, StatusAcknowledged, StatusResolved, StatusDismissed:
		return true
	}
	return false
}

// InventoryAlert is one operational alert row.
type InventoryAlert struct {
	ID                uuid.UUID     `db:"id"`
	PharmacyID        uuid.UUID     `db:"pharmacy_id"`
	InventoryItemID   uuid.UUID     `db:"inventory_item_id"`
	AlertType         AlertType     `db:"alert_type"`
	Severity          AlertSeverity `db:"severity"`
	Message           string        `db:"message"`
	SuggestedAction   *string       `db:"suggested_action"`
	SuggestedQuantity *int          `db:"suggested_quantity"`
	Status            AlertStatus   `db:"status"`
	AcknowledgedBy    *uuid.UUID    `db:"acknowledged_by"`
	AcknowledgedAt    *time.Time    `db:"acknowledged_at"`
	CreatedAt         time.Time     `db:"created_at"`
	ResolvedAt        *time.Time    `db:"resolved_at"`
}

// CanTransitionTo reports whether a lifecycle move is allowed. Alerts only
// ever leave the active state through a human action; closed alerts stay
// closed.
func (a *InventoryAlert) CanTransitionTo(next AlertStatus) bool {
	switch a.Status {
	case StatusActive:
		return next == StatusAcknowledged || next == StatusResolved || next == StatusDismissed
	case StatusAcknowledged:
		return next == StatusResolved || next == StatusDismissed
	default:
		return false
	}
}
