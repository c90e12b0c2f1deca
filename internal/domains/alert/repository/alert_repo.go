package repository

import (
	"context"
	"errors"
	"fmt"

	"pharmacy-backend/internal/domains/alert/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const alertColumns = `
	id, pharmacy_id, inventory_item_id, alert_type, severity,
	message, suggested_action, suggested_quantity, status,
	acknowledged_by, acknowledged_at, created_at, resolved_at
`

// postgresRepository implements Repository on a pgx connection pool.
type postgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL alert repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{
		pool: pool,
	}
}

// GetByID implements Repository.GetByID.
func (r *postgresRepository) GetByID(ctx context.Context, pharmacyID, id uuid.UUID) (*model.InventoryAlert, error) {
	query := `
		SELECT ` + alertColumns + `
		FROM inventory_alerts
		WHERE pharmacy_id = $1 AND id = $2
	`

	alert, err := scanAlertRow(r.pool.QueryRow(ctx, query, pharmacyID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NewAlertNotFoundError(id)
		}
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}

	return alert, nil
}

// List implements Repository.List.
func (r *postgresRepository) List(ctx context.Context, req model.ListAlertsRequest) ([]model.InventoryAlert, int, error) {
	queryBuilder := `
		SELECT ` + alertColumns + `
		FROM inventory_alerts
		WHERE pharmacy_id = $1
	`
	countQuery := "SELECT COUNT(*) FROM inventory_alerts WHERE pharmacy_id = $1"

	args := []any{req.PharmacyID}
	argCount := 2

	if req.InventoryItemID != nil {
		clause := fmt.Sprintf(" AND inventory_item_id = $%d", argCount)
		queryBuilder += clause
		countQuery += clause
		args = append(args, *req.InventoryItemID)
		argCount++
	}

	if req.AlertType != nil {
		clause := fmt.Sprintf(" AND alert_type = $%d", argCount)
		queryBuilder += clause
		countQuery += clause
		args = append(args, *req.AlertType)
		argCount++
	}

	if req.Status != nil {
		clause := fmt.Sprintf(" AND status = $%d", argCount)
		queryBuilder += clause
		countQuery += clause
		args = append(args, *req.Status)
		argCount++
	}

	var totalCount int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count alerts: %w", err)
	}

	queryBuilder += " ORDER BY created_at DESC, id DESC"
	offset := (req.Page - 1) * req.Limit
	queryBuilder += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1)
	args = append(args, req.Limit, offset)

	rows, err := r.pool.Query(ctx, queryBuilder, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	alerts := make([]model.InventoryAlert, 0, req.Limit)
	for rows.Next() {
		alert, err := scanAlertRow(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan alert row: %w", err)
		}
		alerts = append(alerts, *alert)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating alert rows: %w", err)
	}

	return alerts, totalCount, nil
}

// UpdateStatus implements Repository.UpdateStatus. The status predicate
// makes the read-check-write sequence in the service safe: if another
// transition landed between the read and this write, zero rows match and
// the caller gets a transition error rather than silently reopening or
// overwriting the alert.
func (r *postgresRepository) UpdateStatus(ctx context.Context, alert *model.InventoryAlert, from model.AlertStatus) error {
	query := `
		UPDATE inventory_alerts
		SET
			status = $3,
			acknowledged_by = $4,
			acknowledged_at = $5,
			resolved_at = $6
		WHERE pharmacy_id = $1 AND id = $2 AND status = $7
	`

	result, err := r.pool.Exec(ctx, query,
		alert.PharmacyID,
		alert.ID,
		alert.Status,
		alert.AcknowledgedBy,
		alert.AcknowledgedAt,
		alert.ResolvedAt,
		from,
	)
	if err != nil {
		return fmt.Errorf("failed to update alert status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.NewTransitionConflictError(alert.ID, from)
	}

	return nil
}

// scannable covers pgx.Row and pgx.Rows.
type scannable interface {
	Scan(dest ...any) error
}

func scanAlertRow(row scannable) (*model.InventoryAlert, error) {
	var alert model.InventoryAlert
	err := row.Scan(
		&alert.ID,
		&alert.PharmacyID,
		&alert.InventoryItemID,
		&alert.AlertType,
		&alert.Severity,
		&alert.Message,
		&alert.SuggestedAction,
		&alert.SuggestedQuantity,
		&alert.Status,
		&alert.AcknowledgedBy,
		&alert.AcknowledgedAt,
		&alert.CreatedAt,
		&alert.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	return &alert, nil
}
