package service

import (
	"context"
	"time"

	"pharmacy-backend/internal/domains/alert/model"
	"pharmacy-backend/internal/domains/alert/repository"

	"github.com/google/uuid"
)

// Service owns the human-facing alert lifecycle: listing and the
// acknowledge/resolve/dismiss transitions. Alert creation lives in the
// scan path and the reorder job.
type Service interface {
	ListAlerts(ctx context.Context, req model.ListAlertsRequest) (*model.ListAlertsResponse, error)
	GetAlert(ctx context.Context, pharmacyID, id uuid.UUID) (*model.AlertResponse, error)
	Acknowledge(ctx context.Context, pharmacyID, id, userID uuid.UUID) (*model.AlertResponse, error)
	Resolve(ctx context.Context, pharmacyID, id, userID uuid.UUID) (*model.AlertResponse, error)
	Dismiss(ctx context.Context, pharmacyID, id, userID uuid.UUID) (*model.AlertResponse, error)
}

type alertService struct {
	repo repository.Repository
	now  func() time.Time
}

// NewService creates a new alert service.
func NewService(repo repository.Repository) Service {
	return &alertService{
		repo: repo,
		now:  time.Now,
	}
}

// ListAlerts implements Service.ListAlerts.
func (s *alertService) ListAlerts(ctx context.Context, req model.ListAlertsRequest) (*model.ListAlertsResponse, error) {
	if req.AlertType != nil && !req.AlertType.IsValid() {
		return nil, model.ErrInvalidAlertType
	}
	if req.Status != nil && !req.Status.IsValid() {
		return nil, model.ErrInvalidAlertStatus
	}
	req.Normalize()

	alerts, totalItems, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, err
	}

	totalPages := (totalItems + req.Limit - 1) / req.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	return &model.ListAlertsResponse{
		Items:      model.ToResponseList(alerts),
		TotalItems: totalItems,
		TotalPages: totalPages,
		Page:       req.Page,
		Limit:      req.Limit,
	}, nil
}

// GetAlert implements Service.GetAlert.
func (s *alertService) GetAlert(ctx context.Context, pharmacyID, id uuid.UUID) (*model.AlertResponse, error) {
	alert, err := s.repo.GetByID(ctx, pharmacyID, id)
	if err != nil {
		return nil, err
	}

	response := alert.ToResponse()
	return &response, nil
}

// Acknowledge implements Service.Acknowledge.
func (s *alertService) Acknowledge(ctx context.Context, pharmacyID, id, userID uuid.UUID) (*model.AlertResponse, error) {
	return s.transition(ctx, pharmacyID, id, userID, model.StatusAcknowledged)
}

// Resolve implements Service.Resolve. A resolved alert frees the
// (item, type) slot: the next detection of the same condition creates a
// fresh alert with freshly computed severity.
func (s *alertService) Resolve(ctx context.Context, pharmacyID, id, userID uuid.UUID) (*model.AlertResponse, error) {
	return s.transition(ctx, pharmacyID, id, userID, model.StatusResolved)
}

// Dismiss implements Service.Dismiss.
func (s *alertService) Dismiss(ctx context.Context, pharmacyID, id, userID uuid.UUID) (*model.AlertResponse, error) {
	return s.transition(ctx, pharmacyID, id, userID, model.StatusDismissed)
}

func (s *alertService) transition(ctx context.Context, pharmacyID, id, userID uuid.UUID, next model.AlertStatus) (*model.AlertResponse, error) {
	alert, err := s.repo.GetByID(ctx, pharmacyID, id)
	if err != nil {
		return nil, err
	}

	if !alert.CanTransitionTo(next) {
		return nil, model.NewInvalidTransitionError(alert.Status, next)
	}

	from := alert.Status
	now := s.now().UTC()
	alert.Status = next

	switch next {
	case model.StatusAcknowledged:
		alert.AcknowledgedBy = &userID
		alert.AcknowledgedAt = &now
	case model.StatusResolved, model.StatusDismissed:
		alert.ResolvedAt = &now
		if alert.AcknowledgedBy == nil {
			alert.AcknowledgedBy = &userID
		}
	}

	if err := s.repo.UpdateStatus(ctx, alert, from); err != nil {
		return nil, err
	}

	response := alert.ToResponse()
	return &response, nil
}
