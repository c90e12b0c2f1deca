package service

import (
	"context"
	"testing"
	"time"

	"pharmacy-backend/internal/domains/alert/model"
	"pharmacy-backend/internal/domains/alert/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepository struct {
	alerts map[uuid.UUID]model.InventoryAlert
}

func newFakeRepository(alerts ...model.InventoryAlert) *fakeRepository {
	f := &fakeRepository{alerts: make(map[uuid.UUID]model.InventoryAlert)}
	for _, alert := range alerts {
		f.alerts[alert.ID] = alert
	}
	return f
}

func (f *fakeRepository) GetByID(ctx context.Context, pharmacyID, id uuid.UUID) (*model.InventoryAlert, error) {
	alert, ok := f.alerts[id]
	if !ok || alert.PharmacyID != pharmacyID {
		return nil, model.NewAlertNotFoundError(id)
	}
	copied := alert
	return &copied, nil
}

func (f *fakeRepository) List(ctx context.Context, req model.ListAlertsRequest) ([]model.InventoryAlert, int, error) {
	var out []model.InventoryAlert
	for _, alert := range f.alerts {
		if alert.PharmacyID != req.PharmacyID {
			continue
		}
		if req.Status != nil && alert.Status != *req.Status {
			continue
		}
		out = append(out, alert)
	}
	return out, len(out), nil
}

func (f *fakeRepository) UpdateStatus(ctx context.Context, alert *model.InventoryAlert, from model.AlertStatus) error {
	stored, ok := f.alerts[alert.ID]
	if !ok {
		return model.NewAlertNotFoundError(alert.ID)
	}
	if stored.Status != from {
		return model.NewTransitionConflictError(alert.ID, from)
	}
	f.alerts[alert.ID] = *alert
	return nil
}

func newActiveAlert(pharmacyID uuid.UUID) model.InventoryAlert {
	return model.InventoryAlert{
		ID:              uuid.New(),
		PharmacyID:      pharmacyID,
		InventoryItemID: uuid.New(),
		AlertType:       model.AlertTypeLowStock,
		Severity:        model.SeverityMedium,
		Message:         "stock is low",
		Status:          model.StatusActive,
		CreatedAt:       time.Now().UTC().Add(-time.Hour),
	}
}

// staleReadRepository serves a fixed snapshot from GetByID while writes
// still go through the shared fake, mimicking a second caller that read
// the alert before a concurrent transition committed.
type staleReadRepository struct {
	*fakeRepository
	snapshot model.InventoryAlert
}

func (s *staleReadRepository) GetByID(ctx context.Context, pharmacyID, id uuid.UUID) (*model.InventoryAlert, error) {
	if s.snapshot.ID != id || s.snapshot.PharmacyID != pharmacyID {
		return nil, model.NewAlertNotFoundError(id)
	}
	copied := s.snapshot
	return &copied, nil
}

func newTestService(repo repository.Repository, now time.Time) Service {
	return &alertService{
		repo: repo,
		now:  func() time.Time { return now },
	}
}

func TestAcknowledgeSetsActorAndTimestamp(t *testing.T) {
	pharmacyID := uuid.New()
	userID := uuid.New()
	alert := newActiveAlert(pharmacyID)
	repo := newFakeRepository(alert)

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	svc := newTestService(repo, now)

	res, err := svc.Acknowledge(context.Background(), pharmacyID, alert.ID, userID)
	require.NoError(t, err)

	assert.Equal(t, model.StatusAcknowledged, res.Status)
	require.NotNil(t, res.AcknowledgedBy)
	assert.Equal(t, userID, *res.AcknowledgedBy)
	require.NotNil(t, res.AcknowledgedAt)
	assert.Equal(t, now, *res.AcknowledgedAt)
	assert.Nil(t, res.ResolvedAt)
}

func TestResolveFromActive(t *testing.T) {
	pharmacyID := uuid.New()
	alert := newActiveAlert(pharmacyID)
	repo := newFakeRepository(alert)

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	svc := newTestService(repo, now)

	res, err := svc.Resolve(context.Background(), pharmacyID, alert.ID, uuid.New())
	require.NoError(t, err)

	assert.Equal(t, model.StatusResolved, res.Status)
	require.NotNil(t, res.ResolvedAt)
	assert.Equal(t, now, *res.ResolvedAt)
}

func TestClosedAlertCannotReopen(t *testing.T) {
	pharmacyID := uuid.New()
	alert := newActiveAlert(pharmacyID)
	alert.Status = model.StatusResolved
	repo := newFakeRepository(alert)

	svc := newTestService(repo, time.Now())

	_, err := svc.Acknowledge(context.Background(), pharmacyID, alert.ID, uuid.New())
	require.Error(t, err)
	assert.True(t, model.IsTransitionError(err))

	_, err = svc.Dismiss(context.Background(), pharmacyID, alert.ID, uuid.New())
	require.Error(t, err)
	assert.True(t, model.IsTransitionError(err))
}

func TestAcknowledgedAlertCanStillClose(t *testing.T) {
	pharmacyID := uuid.New()
	alert := newActiveAlert(pharmacyID)
	alert.Status = model.StatusAcknowledged
	repo := newFakeRepository(alert)

	svc := newTestService(repo, time.Now())

	res, err := svc.Dismiss(context.Background(), pharmacyID, alert.ID, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, model.StatusDismissed, res.Status)
	assert.NotNil(t, res.ResolvedAt)
}

func TestLosingConcurrentTransitionCannotReopenAlert(t *testing.T) {
	pharmacyID := uuid.New()
	userID := uuid.New()
	alert := newActiveAlert(pharmacyID)
	repo := newFakeRepository(alert)

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	// Both callers read the alert while it was still active; the resolver
	// commits first.
	_, err := newTestService(repo, now).Resolve(context.Background(), pharmacyID, alert.ID, userID)
	require.NoError(t, err)

	stale := &staleReadRepository{fakeRepository: repo, snapshot: alert}
	_, err = newTestService(stale, now).Acknowledge(context.Background(), pharmacyID, alert.ID, uuid.New())
	require.Error(t, err)
	assert.True(t, model.IsTransitionError(err))

	// The losing write must not have moved the alert out of resolved.
	stored := repo.alerts[alert.ID]
	assert.Equal(t, model.StatusResolved, stored.Status)
}

func TestTransitionIsTenantScoped(t *testing.T) {
	alert := newActiveAlert(uuid.New())
	repo := newFakeRepository(alert)

	svc := newTestService(repo, time.Now())

	_, err := svc.Acknowledge(context.Background(), uuid.New(), alert.ID, uuid.New())
	require.Error(t, err)
	assert.True(t, model.IsNotFoundError(err))
}

func TestListAlertsFiltersInvalidEnums(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, time.Now())

	badType := model.AlertType("stockout")
	_, err := svc.ListAlerts(context.Background(), model.ListAlertsRequest{
		PharmacyID: uuid.New(),
		AlertType:  &badType,
	})
	assert.ErrorIs(t, err, model.ErrInvalidAlertType)

	badStatus := model.AlertStatus("open")
	_, err = svc.ListAlerts(context.Background(), model.ListAlertsRequest{
		PharmacyID: uuid.New(),
		Status:     &badStatus,
	})
	assert.ErrorIs(t, err, model.ErrInvalidAlertStatus)
}

func TestListAlertsPaginates(t *testing.T) {
	pharmacyID := uuid.New()
	repo := newFakeRepository(newActiveAlert(pharmacyID), newActiveAlert(pharmacyID))
	svc := newTestService(repo, time.Now())

	res, err := svc.ListAlerts(context.Background(), model.ListAlertsRequest{PharmacyID: pharmacyID})
	require.NoError(t, err)

	assert.Len(t, res.Items, 2)
	assert.Equal(t, 2, res.TotalItems)
	assert.Equal(t, 1, res.TotalPages)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, 20, res.Limit)
}
