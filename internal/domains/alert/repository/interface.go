package repository

import (
	"context"

	"pharmacy-backend/internal/domains/alert/model"

	"github.com/google/uuid"
)

// Repository is the alert read/lifecycle boundary. Alert creation happens
// through the inventory store's insert-or-ignore path; this side owns
// listing and the human-driven status transitions.
type Repository interface {
	GetByID(ctx context.Context, pharmacyID, id uuid.UUID) (*model.InventoryAlert, error)
	List(ctx context.Context, req model.ListAlertsRequest) ([]model.InventoryAlert, int, error)

	// UpdateStatus persists a lifecycle transition together with actor and
	// timestamps. The caller validates the transition first; the write is
	// guarded on the status the caller read, so a concurrent transition
	// surfaces as an invalid-transition error instead of a lost update.
	UpdateStatus(ctx context.Context, alert *model.InventoryAlert, from model.AlertStatus) error
}
