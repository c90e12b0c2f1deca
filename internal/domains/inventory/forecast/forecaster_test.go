package forecast

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedOutbound struct {
	total int
	since time.Time
}

func (f *fixedOutbound) OutboundTotal(ctx context.Context, pharmacyID, itemID uuid.UUID, since time.Time) (int, error) {
	f.since = since
	return f.total, nil
}

func newTestForecaster(reader OutboundReader, now time.Time) *MovingAverage {
	return &MovingAverage{
		store: reader,
		now:   func() time.Time { return now },
	}
}

func TestForecastSteadyDemand(t *testing.T) {
	now := time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC)
	reader := &fixedOutbound{total: 60} // 2 units/day over 30 days
	f := newTestForecaster(reader, now)

	projection, err := f.Forecast(context.Background(), uuid.New(), uuid.New(), 10, 14)
	require.NoError(t, err)

	assert.Equal(t, 28, projection.ForecastedDemand)
	assert.Equal(t, 18, projection.SuggestedQuantity)
	assert.Equal(t, 1.0, projection.Confidence)

	// History window is the last 30 days.
	assert.Equal(t, now.AddDate(0, 0, -30), reader.since)
}

func TestForecastQuietItem(t *testing.T) {
	f := newTestForecaster(&fixedOutbound{total: 0}, time.Now())

	projection, err := f.Forecast(context.Background(), uuid.New(), uuid.New(), 5, 14)
	require.NoError(t, err)

	assert.Equal(t, 0, projection.ForecastedDemand)
	assert.Equal(t, 0, projection.SuggestedQuantity)
	assert.Equal(t, 0.5, projection.Confidence)
}

func TestForecastStockCoversDemand(t *testing.T) {
	f := newTestForecaster(&fixedOutbound{total: 30}, time.Now())

	// Demand 14 over the horizon, 50 on hand: nothing to order.
	projection, err := f.Forecast(context.Background(), uuid.New(), uuid.New(), 50, 14)
	require.NoError(t, err)

	assert.Equal(t, 14, projection.ForecastedDemand)
	assert.Equal(t, 0, projection.SuggestedQuantity)
}
