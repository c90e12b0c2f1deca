// Package forecast estimates near-term demand for an inventory item from
// its outbound ledger history. The default model is a moving average; the
// interface exists so a smarter model can be swapped in without touching
// the reorder job.
package forecast

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	// lookbackDays is the history window fed into the moving average.
	lookbackDays = 30

	// MinActionableConfidence is the threshold below which a projection
	// counts as no forecast at all; consumers must not act on it. The
	// moving average also uses it as the floor of its own score, so its
	// projections are always actionable.
	MinActionableConfidence = 0.5
)

// Projection is the outcome of one forecast run for one item.
type Projection struct {
	// ForecastedDemand is the expected outbound units over the horizon.
	ForecastedDemand int

	// SuggestedQuantity is how many units to order now to cover the
	// horizon, net of stock on hand.
	SuggestedQuantity int

	// Confidence is in [0, 1]; higher means more history backed the
	// estimate.
	Confidence float64
}

// Forecaster projects demand for one item over a horizon in days.
type Forecaster interface {
	Forecast(ctx context.Context, pharmacyID, itemID uuid.UUID, quantityOnHand, horizonDays int) (*Projection, error)
}

// OutboundReader is the slice of the inventory store the moving average
// needs: total outbound units for one item since a point in time.
type OutboundReader interface {
	OutboundTotal(ctx context.Context, pharmacyID, itemID uuid.UUID, since time.Time) (int, error)
}

// MovingAverage projects demand as the daily outbound rate over the last
// lookbackDays, scaled to the horizon.
type MovingAverage struct {
	store OutboundReader
	now   func() time.Time
}

// NewMovingAverage creates the default forecaster.
func NewMovingAverage(store OutboundReader) *MovingAverage {
	return &MovingAverage{
		store: store,
		now:   time.Now,
	}
}

// Forecast implements Forecaster.
func (m *MovingAverage) Forecast(ctx context.Context, pharmacyID, itemID uuid.UUID, quantityOnHand, horizonDays int) (*Projection, error) {
	now := m.now().UTC()
	since := now.AddDate(0, 0, -lookbackDays)

	outbound, err := m.store.OutboundTotal(ctx, pharmacyID, itemID, since)
	if err != nil {
		return nil, err
	}

	dailyRate := float64(outbound) / float64(lookbackDays)
	demand := int(dailyRate * float64(horizonDays))

	suggested := demand - quantityOnHand
	if suggested < 0 {
		suggested = 0
	}

	// Confidence scales with how much of the horizon the observed history
	// could cover; a quiet item earns the floor, not a zero.
	confidence := MinActionableConfidence
	if demand > 0 {
		coverage := float64(outbound) / float64(demand)
		if coverage > 1 {
			coverage = 1
		}
		if coverage > confidence {
			confidence = coverage
		}
	}

	return &Projection{
		ForecastedDemand:  demand,
		SuggestedQuantity: suggested,
		Confidence:        confidence,
	}, nil
}
