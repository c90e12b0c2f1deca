package job

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"pharmacy-backend/internal/domains/alert/engine"
	alertmodel "pharmacy-backend/internal/domains/alert/model"
	"pharmacy-backend/internal/domains/inventory/forecast"
	"pharmacy-backend/internal/domains/inventory/model"
	"pharmacy-backend/internal/shared"
	"pharmacy-backend/pkg/logger"

	"github.com/google/uuid"
)

// defaultHorizonDays is how far ahead the reorder forecast looks when the
// payload does not pin a horizon.
const defaultHorizonDays = 14

// Store is the slice of the inventory store the forecast run needs.
// repository.Store satisfies it.
type Store interface {
	ListPharmacyIDs(ctx context.Context) ([]uuid.UUID, error)
	ListReorderCandidates(ctx context.Context, pharmacyID uuid.UUID) ([]model.InventoryItem, error)
	InsertAlertIfAbsent(ctx context.Context, alert *alertmodel.InventoryAlert) (bool, error)
}

// ReorderForecastHandler runs the periodic demand forecast and raises
// reorder_suggested alerts. It is the only producer of that alert type;
// the scan path never suggests reorders.
type ReorderForecastHandler struct {
	store      Store
	forecaster forecast.Forecaster
	now        func() time.Time
}

// NewReorderForecastHandler creates the handler with dependencies from the
// container.
func NewReorderForecastHandler(store Store, forecaster forecast.Forecaster) *ReorderForecastHandler {
	return &ReorderForecastHandler{
		store:      store,
		forecaster: forecaster,
		now:        time.Now,
	}
}

// ProcessTask handles one reorder forecast run.
// 1. Parse payload; empty pharmacy_id fans out to every tenant.
// 2. Forecast demand for each item that carries an optimal stock level.
// 3. Raise reorder_suggested where forecasted demand exceeds stock on hand.
func (h *ReorderForecastHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.ReorderForecastPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Error("ReorderForecast: failed to unmarshal payload", err)
		// Corrupt payload, retrying cannot fix the data.
		return fmt.Errorf("unmarshal ReorderForecast payload: %w", err)
	}

	horizon := payload.HorizonDays
	if horizon <= 0 {
		horizon = defaultHorizonDays
	}

	var pharmacyIDs []uuid.UUID
	if payload.PharmacyID != "" {
		id, err := uuid.Parse(payload.PharmacyID)
		if err != nil {
			logger.Error("ReorderForecast: invalid pharmacy_id in payload", err)
			return fmt.Errorf("parse pharmacy_id: %w", err)
		}
		pharmacyIDs = []uuid.UUID{id}
	} else {
		ids, err := h.store.ListPharmacyIDs(ctx)
		if err != nil {
			// DB errors are transient, let asynq retry.
			logger.Error("ReorderForecast: ListPharmacyIDs failed", err)
			return err
		}
		pharmacyIDs = ids
	}

	raised := 0
	evaluated := 0
	for _, pharmacyID := range pharmacyIDs {
		n, e, err := h.runPharmacy(ctx, pharmacyID, horizon)
		if err != nil {
			return err
		}
		raised += n
		evaluated += e
	}

	logger.Info("ReorderForecast: run complete", map[string]interface{}{
		"pharmacies":    len(pharmacyIDs),
		"evaluated":     evaluated,
		"alerts_raised": raised,
		"horizon_days":  horizon,
		"correlation":   payload.CorrelationID,
	})

	return nil
}

func (h *ReorderForecastHandler) runPharmacy(ctx context.Context, pharmacyID uuid.UUID, horizon int) (raised, evaluated int, err error) {
	items, err := h.store.ListReorderCandidates(ctx, pharmacyID)
	if err != nil {
		logger.Error("ReorderForecast: ListReorderCandidates failed", err)
		return 0, 0, err
	}

	now := h.now().UTC()
	for idx := range items {
		item := &items[idx]
		evaluated++

		projection, err := h.forecaster.Forecast(ctx, pharmacyID, item.ID, item.Quantity, horizon)
		if err != nil {
			logger.Error("ReorderForecast: forecast failed", err)
			return raised, evaluated, err
		}

		// A projection below the confidence threshold counts as no
		// forecast; never raise a reorder on it.
		if projection.Confidence < forecast.MinActionableConfidence {
			continue
		}
		if projection.SuggestedQuantity == 0 {
			continue
		}

		candidate := engine.ReorderCandidate(item, projection.SuggestedQuantity)
		inserted, err := h.store.InsertAlertIfAbsent(ctx, candidate.Build(item, now))
		if err != nil {
			logger.Error("ReorderForecast: failed to insert alert", err)
			return raised, evaluated, err
		}
		if inserted {
			raised++
			logger.Info("ReorderForecast: alert raised", map[string]interface{}{
				"pharmacy_id":        pharmacyID.String(),
				"item_id":            item.ID.String(),
				"forecasted_demand":  projection.ForecastedDemand,
				"suggested_quantity": projection.SuggestedQuantity,
				"confidence":         projection.Confidence,
			})
		}
	}

	return raised, evaluated, nil
}
