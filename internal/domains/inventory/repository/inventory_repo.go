package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	alertmodel "pharmacy-backend/internal/domains/alert/model"
	"pharmacy-backend/internal/domains/inventory/model"
	"pharmacy-backend/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const itemColumns = `
	id, pharmacy_id, medication_name, gtin, formulary_code,
	quantity, unit, reorder_threshold, optimal_stock_level,
	batch_number, expiry_date, supplier_name, cost_per_unit,
	is_controlled, substance_schedule,
	created_at, updated_at, last_restocked_at
`

const transactionColumns = `
	id, pharmacy_id, inventory_item_id, transaction_type,
	quantity_change, quantity_after, user_id, prescription_id,
	qr_code_scanned, notes, created_at
`

// postgresStore implements Store on a pgx connection pool.
type postgresStore struct {
	pool *pgxpool.Pool
}

// NewStore creates a new PostgreSQL inventory store.
func NewStore(pool *pgxpool.Pool) Store {
	return &postgresStore{
		pool: pool,
	}
}

// InScanTx implements Store.InScanTx.
func (s *postgresStore) InScanTx(ctx context.Context, fn func(tx ScanTx) error) error {
	return database.WithTransaction(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&scanTx{tx: tx})
	})
}

// scanTx binds the scan persistence port to one open transaction.
type scanTx struct {
	tx pgx.Tx
}

// FindItemForUpdate implements ScanTx.FindItemForUpdate.
func (s *scanTx) FindItemForUpdate(ctx context.Context, pharmacyID uuid.UUID, gtin string) (*model.InventoryItem, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM inventory_items
		WHERE pharmacy_id = $1 AND gtin = $2
		FOR UPDATE
	`

	item, err := scanItemRow(s.tx.QueryRow(ctx, query, pharmacyID, gtin))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NewItemNotFoundError(pharmacyID, gtin)
		}
		return nil, fmt.Errorf("failed to lock inventory item: %w", err)
	}

	return item, nil
}

// CreateItem implements ScanTx.CreateItem.
func (s *scanTx) CreateItem(ctx context.Context, item *model.InventoryItem) error {
	query := `
		INSERT INTO inventory_items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err := s.tx.Exec(ctx, query,
		item.ID,
		item.PharmacyID,
		item.MedicationName,
		item.GTIN,
		item.FormularyCode,
		item.Quantity,
		item.Unit,
		item.ReorderThreshold,
		item.OptimalStockLevel,
		item.BatchNumber,
		item.ExpiryDate,
		item.SupplierName,
		item.CostPerUnit,
		item.IsControlled,
		item.SubstanceSchedule,
		item.CreatedAt,
		item.UpdatedAt,
		item.LastRestockedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation on (pharmacy_id, gtin)
			// A concurrent first receive won the race; surface as a
			// retryable conflict so the orchestrator re-resolves.
			return fmt.Errorf("%w: %s", model.ErrConflictRetry, pgErr.ConstraintName)
		}
		return fmt.Errorf("failed to insert inventory item: %w", err)
	}

	return nil
}

// SaveItem implements ScanTx.SaveItem.
func (s *scanTx) SaveItem(ctx context.Context, item *model.InventoryItem) error {
	query := `
		UPDATE inventory_items
		SET
			medication_name = $3,
			quantity = $4,
			batch_number = $5,
			expiry_date = $6,
			supplier_name = $7,
			cost_per_unit = $8,
			updated_at = $9,
			last_restocked_at = $10
		WHERE id = $1 AND pharmacy_id = $2
	`

	result, err := s.tx.Exec(ctx, query,
		item.ID,
		item.PharmacyID,
		item.MedicationName,
		item.Quantity,
		item.BatchNumber,
		item.ExpiryDate,
		item.SupplierName,
		item.CostPerUnit,
		item.UpdatedAt,
		item.LastRestockedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update inventory item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.NewItemNotFoundError(item.PharmacyID, deref(item.GTIN))
	}

	return nil
}

// AppendTransaction implements ScanTx.AppendTransaction.
func (s *scanTx) AppendTransaction(ctx context.Context, txn *model.InventoryTransaction) error {
	query := `
		INSERT INTO inventory_transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := s.tx.Exec(ctx, query,
		txn.ID,
		txn.PharmacyID,
		txn.InventoryItemID,
		txn.TransactionType,
		txn.QuantityChange,
		txn.QuantityAfter,
		txn.UserID,
		txn.PrescriptionID,
		txn.QRCodeScanned,
		txn.Notes,
		txn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append inventory transaction: %w", err)
	}

	return nil
}

// InsertAlertIfAbsent implements ScanTx.InsertAlertIfAbsent.
func (s *scanTx) InsertAlertIfAbsent(ctx context.Context, alert *alertmodel.InventoryAlert) (bool, error) {
	return insertAlertIfAbsent(ctx, s.tx, alert)
}

// insertAlertIfAbsent relies on the partial unique index on
// (inventory_item_id, alert_type) WHERE status = 'active'. The insert and
// the dedup check are one statement, so concurrent scans cannot both
// conclude "no active alert" and insert twice.
func insertAlertIfAbsent(ctx context.Context, q querier, alert *alertmodel.InventoryAlert) (bool, error) {
	query := `
		INSERT INTO inventory_alerts (
			id, pharmacy_id, inventory_item_id, alert_type, severity,
			message, suggested_action, suggested_quantity, status, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
		ON CONFLICT (inventory_item_id, alert_type) WHERE status = 'active'
		DO NOTHING
	`

	result, err := q.Exec(ctx, query,
		alert.ID,
		alert.PharmacyID,
		alert.InventoryItemID,
		alert.AlertType,
		alert.Severity,
		alert.Message,
		alert.SuggestedAction,
		alert.SuggestedQuantity,
		alert.Status,
		alert.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert alert: %w", err)
	}

	return result.RowsAffected() == 1, nil
}

// querier is the subset of pgx shared by pool and transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// GetItemByID implements Store.GetItemByID.
func (s *postgresStore) GetItemByID(ctx context.Context, pharmacyID, id uuid.UUID) (*model.InventoryItem, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM inventory_items
		WHERE pharmacy_id = $1 AND id = $2
	`

	item, err := scanItemRow(s.pool.QueryRow(ctx, query, pharmacyID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: id=%s", model.ErrItemNotFound, id)
		}
		return nil, fmt.Errorf("failed to get inventory item: %w", err)
	}

	return item, nil
}

// FindItemByGTIN implements Store.FindItemByGTIN (lookup without lock).
func (s *postgresStore) FindItemByGTIN(ctx context.Context, pharmacyID uuid.UUID, gtin string) (*model.InventoryItem, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM inventory_items
		WHERE pharmacy_id = $1 AND gtin = $2
	`

	item, err := scanItemRow(s.pool.QueryRow(ctx, query, pharmacyID, gtin))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NewItemNotFoundError(pharmacyID, gtin)
		}
		return nil, fmt.Errorf("failed to find inventory item by gtin: %w", err)
	}

	return item, nil
}

// ListItems implements Store.ListItems.
func (s *postgresStore) ListItems(ctx context.Context, req model.ListItemsRequest) ([]model.InventoryItem, int, error) {
	queryBuilder := `
		SELECT ` + itemColumns + `
		FROM inventory_items
		WHERE pharmacy_id = $1
	`
	countQuery := "SELECT COUNT(*) FROM inventory_items WHERE pharmacy_id = $1"

	args := []any{req.PharmacyID}
	argCount := 2

	if req.GTIN != nil {
		clause := fmt.Sprintf(" AND gtin = $%d", argCount)
		queryBuilder += clause
		countQuery += clause
		args = append(args, *req.GTIN)
		argCount++
	}

	if req.LowStock != nil {
		clause := " AND (reorder_threshold IS NOT NULL AND quantity <= reorder_threshold)"
		if !*req.LowStock {
			clause = " AND (reorder_threshold IS NULL OR quantity > reorder_threshold)"
		}
		queryBuilder += clause
		countQuery += clause
	}

	if req.ExpiringSoon != nil && *req.ExpiringSoon {
		clause := " AND (expiry_date IS NOT NULL AND expiry_date > CURRENT_DATE AND expiry_date <= CURRENT_DATE + INTERVAL '60 days')"
		queryBuilder += clause
		countQuery += clause
	}

	if req.Expired != nil && *req.Expired {
		clause := " AND (expiry_date IS NOT NULL AND expiry_date < CURRENT_DATE)"
		queryBuilder += clause
		countQuery += clause
	}

	if req.Controlled != nil {
		clause := fmt.Sprintf(" AND is_controlled = $%d", argCount)
		queryBuilder += clause
		countQuery += clause
		args = append(args, *req.Controlled)
		argCount++
	}

	var totalCount int
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count inventory items: %w", err)
	}

	queryBuilder += " ORDER BY medication_name ASC, id ASC"
	offset := (req.Page - 1) * req.Limit
	queryBuilder += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1)
	args = append(args, req.Limit, offset)

	rows, err := s.pool.Query(ctx, queryBuilder, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list inventory items: %w", err)
	}
	defer rows.Close()

	items := make([]model.InventoryItem, 0, req.Limit)
	for rows.Next() {
		item, err := scanItemRow(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan inventory item row: %w", err)
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating inventory item rows: %w", err)
	}

	return items, totalCount, nil
}

// ListTransactions implements Store.ListTransactions.
func (s *postgresStore) ListTransactions(ctx context.Context, req model.ListTransactionsRequest) ([]model.InventoryTransaction, int, error) {
	queryBuilder := `
		SELECT ` + transactionColumns + `
		FROM inventory_transactions
		WHERE pharmacy_id = $1 AND inventory_item_id = $2
	`
	countQuery := "SELECT COUNT(*) FROM inventory_transactions WHERE pharmacy_id = $1 AND inventory_item_id = $2"

	args := []any{req.PharmacyID, req.InventoryItemID}
	argCount := 3

	if req.TransactionType != nil {
		clause := fmt.Sprintf(" AND transaction_type = $%d", argCount)
		queryBuilder += clause
		countQuery += clause
		args = append(args, *req.TransactionType)
		argCount++
	}

	var totalCount int
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count inventory transactions: %w", err)
	}

	queryBuilder += " ORDER BY created_at DESC, id DESC"
	offset := (req.Page - 1) * req.Limit
	queryBuilder += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1)
	args = append(args, req.Limit, offset)

	rows, err := s.pool.Query(ctx, queryBuilder, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list inventory transactions: %w", err)
	}
	defer rows.Close()

	txns := make([]model.InventoryTransaction, 0, req.Limit)
	for rows.Next() {
		var txn model.InventoryTransaction
		err := rows.Scan(
			&txn.ID,
			&txn.PharmacyID,
			&txn.InventoryItemID,
			&txn.TransactionType,
			&txn.QuantityChange,
			&txn.QuantityAfter,
			&txn.UserID,
			&txn.PrescriptionID,
			&txn.QRCodeScanned,
			&txn.Notes,
			&txn.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		txns = append(txns, txn)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating transaction rows: %w", err)
	}

	return txns, totalCount, nil
}

// GetStockSummary implements Store.GetStockSummary.
func (s *postgresStore) GetStockSummary(ctx context.Context, pharmacyID uuid.UUID, asOf time.Time) (*model.StockSummaryResponse, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(quantity), 0),
			COUNT(*) FILTER (WHERE reorder_threshold IS NOT NULL AND quantity <= reorder_threshold),
			COUNT(*) FILTER (WHERE expiry_date IS NOT NULL AND expiry_date > $2::date AND expiry_date <= $2::date + INTERVAL '60 days'),
			COUNT(*) FILTER (WHERE expiry_date IS NOT NULL AND expiry_date < $2::date),
			COUNT(*) FILTER (WHERE is_controlled)
		FROM inventory_items
		WHERE pharmacy_id = $1
	`

	summary := model.StockSummaryResponse{
		PharmacyID: pharmacyID,
		Timestamp:  asOf,
	}
	err := s.pool.QueryRow(ctx, query, pharmacyID, asOf).Scan(
		&summary.TotalItems,
		&summary.TotalUnits,
		&summary.LowStockCount,
		&summary.ExpiringSoonCount,
		&summary.ExpiredCount,
		&summary.ControlledCount,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get stock summary: %w", err)
	}

	return &summary, nil
}

// ListPharmacyIDs implements Store.ListPharmacyIDs.
func (s *postgresStore) ListPharmacyIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx, "SELECT DISTINCT pharmacy_id FROM inventory_items")
	if err != nil {
		return nil, fmt.Errorf("failed to list pharmacy ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan pharmacy id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pharmacy ids: %w", err)
	}

	return ids, nil
}

// ListReorderCandidates implements Store.ListReorderCandidates.
func (s *postgresStore) ListReorderCandidates(ctx context.Context, pharmacyID uuid.UUID) ([]model.InventoryItem, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM inventory_items
		WHERE pharmacy_id = $1 AND optimal_stock_level IS NOT NULL
		ORDER BY medication_name ASC
	`

	rows, err := s.pool.Query(ctx, query, pharmacyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reorder candidates: %w", err)
	}
	defer rows.Close()

	var items []model.InventoryItem
	for rows.Next() {
		item, err := scanItemRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reorder candidate: %w", err)
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reorder candidates: %w", err)
	}

	return items, nil
}

// OutboundTotal implements Store.OutboundTotal.
func (s *postgresStore) OutboundTotal(ctx context.Context, pharmacyID, itemID uuid.UUID, since time.Time) (int, error) {
	query := `
		SELECT COALESCE(SUM(-quantity_change), 0)
		FROM inventory_transactions
		WHERE pharmacy_id = $1
		  AND inventory_item_id = $2
		  AND quantity_change < 0
		  AND created_at >= $3
	`

	var total int
	if err := s.pool.QueryRow(ctx, query, pharmacyID, itemID, since).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum outbound quantity: %w", err)
	}

	return total, nil
}

// InsertAlertIfAbsent implements Store.InsertAlertIfAbsent.
func (s *postgresStore) InsertAlertIfAbsent(ctx context.Context, alert *alertmodel.InventoryAlert) (bool, error) {
	return insertAlertIfAbsent(ctx, s.pool, alert)
}

// scannable covers pgx.Row and pgx.Rows.
type scannable interface {
	Scan(dest ...any) error
}

func scanItemRow(row scannable) (*model.InventoryItem, error) {
	var item model.InventoryItem
	err := row.Scan(
		&item.ID,
		&item.PharmacyID,
		&item.MedicationName,
		&item.GTIN,
		&item.FormularyCode,
		&item.Quantity,
		&item.Unit,
		&item.ReorderThreshold,
		&item.OptimalStockLevel,
		&item.BatchNumber,
		&item.ExpiryDate,
		&item.SupplierName,
		&item.CostPerUnit,
		&item.IsControlled,
		&item.SubstanceSchedule,
		&item.CreatedAt,
		&item.UpdatedAt,
		&item.LastRestockedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
