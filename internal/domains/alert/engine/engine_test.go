package engine

import (
	"testing"
	"time"

	alertmodel "pharmacy-backend/internal/domains/alert/model"
	invmodel "pharmacy-backend/internal/domains/inventory/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var asOf = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newItem() *invmodel.InventoryItem {
	return &invmodel.InventoryItem{
		ID:             uuid.New(),
		PharmacyID:     uuid.New(),
		MedicationName: "Metformin 850mg",
		Quantity:       100,
		Unit:           "box",
	}
}

func TestEvaluateHealthyItem(t *testing.T) {
	assert.Empty(t, Evaluate(newItem(), asOf))
}

func TestEvaluateLowStock(t *testing.T) {
	threshold := 20
	item := newItem()
	item.ReorderThreshold = &threshold

	item.Quantity = 15
	candidates := Evaluate(item, asOf)
	require.Len(t, candidates, 1)
	assert.Equal(t, alertmodel.AlertTypeLowStock, candidates[0].Type)
	assert.Equal(t, alertmodel.SeverityMedium, candidates[0].Severity)

	// At or below half the threshold the severity escalates.
	item.Quantity = 10
	candidates = Evaluate(item, asOf)
	require.Len(t, candidates, 1)
	assert.Equal(t, alertmodel.SeverityHigh, candidates[0].Severity)
}

func TestEvaluateExpiringSoon(t *testing.T) {
	item := newItem()

	expiry := time.Date(2025, 4, 9, 0, 0, 0, 0, time.UTC)
	item.ExpiryDate = &expiry
	candidates := Evaluate(item, asOf)
	require.Len(t, candidates, 1)
	assert.Equal(t, alertmodel.AlertTypeExpiringSoon, candidates[0].Type)
	assert.Equal(t, alertmodel.SeverityMedium, candidates[0].Severity)

	// Within a week the severity escalates.
	expiry = time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC)
	candidates = Evaluate(item, asOf)
	require.Len(t, candidates, 1)
	assert.Equal(t, alertmodel.SeverityHigh, candidates[0].Severity)
}

func TestEvaluateExpiredSuppressesExpiringSoon(t *testing.T) {
	item := newItem()
	expiry := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	item.ExpiryDate = &expiry

	candidates := Evaluate(item, asOf)
	require.Len(t, candidates, 1)
	assert.Equal(t, alertmodel.AlertTypeExpired, candidates[0].Type)
	assert.Equal(t, alertmodel.SeverityCritical, candidates[0].Severity)
}

func TestEvaluateMultipleConditions(t *testing.T) {
	threshold := 20
	item := newItem()
	item.ReorderThreshold = &threshold
	item.Quantity = 5
	expiry := time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)
	item.ExpiryDate = &expiry

	candidates := Evaluate(item, asOf)
	require.Len(t, candidates, 2)

	types := []alertmodel.AlertType{candidates[0].Type, candidates[1].Type}
	assert.Contains(t, types, alertmodel.AlertTypeLowStock)
	assert.Contains(t, types, alertmodel.AlertTypeExpiringSoon)
}

func TestReorderCandidate(t *testing.T) {
	item := newItem()
	item.Quantity = 12

	candidate := ReorderCandidate(item, 48)
	assert.Equal(t, alertmodel.AlertTypeReorderSuggested, candidate.Type)
	assert.Equal(t, alertmodel.SeverityLow, candidate.Severity)
	require.NotNil(t, candidate.SuggestedQuantity)
	assert.Equal(t, 48, *candidate.SuggestedQuantity)
	require.NotNil(t, candidate.SuggestedAction)
	assert.Equal(t, "Reorder 48 box", *candidate.SuggestedAction)
}

func TestCandidateBuild(t *testing.T) {
	threshold := 10
	item := newItem()
	item.ReorderThreshold = &threshold
	item.Quantity = 4

	candidates := Evaluate(item, asOf)
	require.Len(t, candidates, 1)

	alert := candidates[0].Build(item, asOf)
	assert.Equal(t, item.ID, alert.InventoryItemID)
	assert.Equal(t, item.PharmacyID, alert.PharmacyID)
	assert.Equal(t, alertmodel.StatusActive, alert.Status)
	assert.Equal(t, asOf, alert.CreatedAt)
	assert.NotEqual(t, uuid.Nil, alert.ID)
}
