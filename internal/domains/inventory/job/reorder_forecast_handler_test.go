package job

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	alertmodel "pharmacy-backend/internal/domains/alert/model"
	"pharmacy-backend/internal/domains/inventory/forecast"
	"pharmacy-backend/internal/domains/inventory/model"
	"pharmacy-backend/internal/shared"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	pharmacyIDs []uuid.UUID
	candidates  []model.InventoryItem
	alerts      []alertmodel.InventoryAlert
}

func (f *fakeStore) ListPharmacyIDs(ctx context.Context) ([]uuid.UUID, error) {
	return f.pharmacyIDs, nil
}

func (f *fakeStore) ListReorderCandidates(ctx context.Context, pharmacyID uuid.UUID) ([]model.InventoryItem, error) {
	return f.candidates, nil
}

func (f *fakeStore) InsertAlertIfAbsent(ctx context.Context, alert *alertmodel.InventoryAlert) (bool, error) {
	for _, existing := range f.alerts {
		if existing.InventoryItemID == alert.InventoryItemID &&
			existing.AlertType == alert.AlertType &&
			existing.Status == alertmodel.StatusActive {
			return false, nil
		}
	}
	f.alerts = append(f.alerts, *alert)
	return true, nil
}

type stubForecaster struct {
	projection forecast.Projection
}

func (s *stubForecaster) Forecast(ctx context.Context, pharmacyID, itemID uuid.UUID, quantityOnHand, horizonDays int) (*forecast.Projection, error) {
	copied := s.projection
	return &copied, nil
}

func newForecastTask(t *testing.T, pharmacyID uuid.UUID) *asynq.Task {
	t.Helper()
	payload, err := json.Marshal(shared.ReorderForecastPayload{
		PharmacyID: pharmacyID.String(),
	})
	require.NoError(t, err)
	return asynq.NewTask(shared.TypeReorderForecast, payload)
}

func newTestHandler(store *fakeStore, forecaster forecast.Forecaster) *ReorderForecastHandler {
	return &ReorderForecastHandler{
		store:      store,
		forecaster: forecaster,
		now:        func() time.Time { return time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC) },
	}
}

func reorderCandidateItem(pharmacyID uuid.UUID) model.InventoryItem {
	return model.InventoryItem{
		ID:             uuid.New(),
		PharmacyID:     pharmacyID,
		MedicationName: "Amoxicillin 500mg",
		Quantity:       4,
		Unit:           "box",
	}
}

func TestReorderForecastRaisesAlert(t *testing.T) {
	pharmacyID := uuid.New()
	store := &fakeStore{candidates: []model.InventoryItem{reorderCandidateItem(pharmacyID)}}
	h := newTestHandler(store, &stubForecaster{projection: forecast.Projection{
		ForecastedDemand:  34,
		SuggestedQuantity: 30,
		Confidence:        0.9,
	}})

	require.NoError(t, h.ProcessTask(context.Background(), newForecastTask(t, pharmacyID)))

	require.Len(t, store.alerts, 1)
	alert := store.alerts[0]
	assert.Equal(t, alertmodel.AlertTypeReorderSuggested, alert.AlertType)
	assert.Equal(t, alertmodel.SeverityLow, alert.Severity)
	require.NotNil(t, alert.SuggestedQuantity)
	assert.Equal(t, 30, *alert.SuggestedQuantity)
}

func TestReorderForecastIgnoresLowConfidenceProjection(t *testing.T) {
	pharmacyID := uuid.New()
	store := &fakeStore{candidates: []model.InventoryItem{reorderCandidateItem(pharmacyID)}}
	h := newTestHandler(store, &stubForecaster{projection: forecast.Projection{
		ForecastedDemand:  34,
		SuggestedQuantity: 30,
		Confidence:        0.1,
	}})

	require.NoError(t, h.ProcessTask(context.Background(), newForecastTask(t, pharmacyID)))

	assert.Empty(t, store.alerts)
}

func TestReorderForecastSkipsCoveredStock(t *testing.T) {
	pharmacyID := uuid.New()
	store := &fakeStore{candidates: []model.InventoryItem{reorderCandidateItem(pharmacyID)}}
	h := newTestHandler(store, &stubForecaster{projection: forecast.Projection{
		ForecastedDemand:  3,
		SuggestedQuantity: 0,
		Confidence:        1.0,
	}})

	require.NoError(t, h.ProcessTask(context.Background(), newForecastTask(t, pharmacyID)))

	assert.Empty(t, store.alerts)
}

func TestReorderForecastFansOutWithoutPharmacyID(t *testing.T) {
	store := &fakeStore{
		pharmacyIDs: []uuid.UUID{uuid.New(), uuid.New()},
		candidates:  []model.InventoryItem{reorderCandidateItem(uuid.New())},
	}
	h := newTestHandler(store, &stubForecaster{projection: forecast.Projection{
		ForecastedDemand:  20,
		SuggestedQuantity: 16,
		Confidence:        0.8,
	}})

	payload, err := json.Marshal(shared.ReorderForecastPayload{})
	require.NoError(t, err)

	require.NoError(t, h.ProcessTask(context.Background(), asynq.NewTask(shared.TypeReorderForecast, payload)))

	// One candidate per pharmacy run, deduped per item by the insert path.
	assert.Len(t, store.alerts, 1)
}
