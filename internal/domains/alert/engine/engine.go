// Package engine evaluates an inventory item against the alert rules.
// Evaluation is pure: it takes an explicit as-of time and touches no
// storage, so the same item state always yields the same candidates.
package engine

import (
	"fmt"
	"time"

	alertmodel "pharmacy-backend/internal/domains/alert/model"
	invmodel "pharmacy-backend/internal/domains/inventory/model"

	"github.com/google/uuid"
)

// Days-until-expiry at or below which an expiring item is high severity.
const expiryUrgentDays = 7

// Candidate is one alert condition detected on an item. Reconciliation
// against already-active alerts happens at the persistence layer.
type Candidate struct {
	Type              alertmodel.AlertType
	Severity          alertmodel.AlertSeverity
	Message           string
	SuggestedAction   *string
	SuggestedQuantity *int
}

// Evaluate checks every scan-driven rule independently. An item can
// trigger several types at once but never the same type twice.
func Evaluate(item *invmodel.InventoryItem, asOf time.Time) []Candidate {
	var candidates []Candidate

	if item.IsLowStock() {
		severity := alertmodel.SeverityMedium
		if item.IsCriticalStock() {
			severity = alertmodel.SeverityHigh
		}
		candidates = append(candidates, Candidate{
			Type:     alertmodel.AlertTypeLowStock,
			Severity: severity,
			Message: fmt.Sprintf("%s is low on stock: %d %s left (reorder at %d)",
				item.MedicationName, item.Quantity, item.Unit, *item.ReorderThreshold),
		})
	}

	if item.IsExpired(asOf) {
		candidates = append(candidates, Candidate{
			Type:     alertmodel.AlertTypeExpired,
			Severity: alertmodel.SeverityCritical,
			Message: fmt.Sprintf("%s batch %s expired on %s",
				item.MedicationName, batchLabel(item), item.ExpiryDate.Format("2006-01-02")),
		})
	} else if item.IsExpiringSoon(asOf) {
		days := item.DaysUntilExpiry(asOf)
		severity := alertmodel.SeverityMedium
		if days <= expiryUrgentDays {
			severity = alertmodel.SeverityHigh
		}
		candidates = append(candidates, Candidate{
			Type:     alertmodel.AlertTypeExpiringSoon,
			Severity: severity,
			Message: fmt.Sprintf("%s batch %s expires in %d days (%s)",
				item.MedicationName, batchLabel(item), days, item.ExpiryDate.Format("2006-01-02")),
		})
	}

	return candidates
}

// ReorderCandidate builds the reorder_suggested condition raised by the
// periodic forecast job, never by the scan path.
func ReorderCandidate(item *invmodel.InventoryItem, suggestedQuantity int) Candidate {
	qty := suggestedQuantity
	action := fmt.Sprintf("Reorder %d %s", qty, item.Unit)
	return Candidate{
		Type:     alertmodel.AlertTypeReorderSuggested,
		Severity: alertmodel.SeverityLow,
		Message: fmt.Sprintf("Forecasted demand for %s exceeds current stock of %d %s",
			item.MedicationName, item.Quantity, item.Unit),
		SuggestedAction:   &action,
		SuggestedQuantity: &qty,
	}
}

// Build materializes a candidate into an insertable active alert row.
func (c Candidate) Build(item *invmodel.InventoryItem, now time.Time) *alertmodel.InventoryAlert {
	return &alertmodel.InventoryAlert{
		ID:                uuid.New(),
		PharmacyID:        item.PharmacyID,
		InventoryItemID:   item.ID,
		AlertType:         c.Type,
		Severity:          c.Severity,
		Message:           c.Message,
		SuggestedAction:   c.SuggestedAction,
		SuggestedQuantity: c.SuggestedQuantity,
		Status:            alertmodel.StatusActive,
		CreatedAt:         now,
	}
}

func batchLabel(item *invmodel.InventoryItem) string {
	if item.BatchNumber != nil {
		return *item.BatchNumber
	}
	return "(unknown)"
}
