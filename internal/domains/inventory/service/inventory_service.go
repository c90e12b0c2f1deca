package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pharmacy-backend/internal/domains/alert/engine"
	"pharmacy-backend/internal/domains/inventory/model"
	"pharmacy-backend/internal/domains/inventory/repository"
	"pharmacy-backend/pkg/cache"
	"pharmacy-backend/pkg/gs1"
	"pharmacy-backend/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	// scanConflictRetries bounds transparent retries on serialization
	// conflicts before the failure surfaces to the caller.
	scanConflictRetries = 3
	scanRetryBackoff    = 50 * time.Millisecond
)

type inventoryService struct {
	store repository.Store
	cache cache.Cache
	now   func() time.Time
}

// NewService creates a new inventory service.
func NewService(store repository.Store, cache cache.Cache) Service {
	return &inventoryService{
		store: store,
		cache: cache,
		now:   time.Now,
	}
}

// ProcessScan implements Service.ProcessScan.
//
// The attempt walks Received -> Decoded -> Resolved -> Validated ->
// Applied -> Alerted -> Committed. Parse errors, unknown items and
// insufficient stock exit before any mutation is committed; the whole
// unit of work rolls back on any failure, so a failed scan leaves no
// item update, no orphan ledger row and no alert.
func (s *inventoryService) ProcessScan(ctx context.Context, pharmacyID, userID uuid.UUID, req model.ScanRequest) (*model.ScanResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if !gs1.Validate(req.QRCode) {
		return nil, gs1.ErrMissingGTIN
	}
	code, err := gs1.Decode(req.QRCode)
	if err != nil {
		return nil, err
	}

	var result *model.ScanResponse
	for attempt := 1; ; attempt++ {
		result, err = s.applyScan(ctx, pharmacyID, userID, code, req)
		if err == nil {
			break
		}
		if !isRetryableConflict(err) {
			return nil, err
		}
		if attempt >= scanConflictRetries {
			return nil, fmt.Errorf("%w: %v", model.ErrConflictRetry, err)
		}
		logger.Info("scan conflict, retrying", map[string]interface{}{
			"pharmacy_id": pharmacyID.String(),
			"gtin":        code.GTIN,
			"attempt":     attempt,
		})
		time.Sleep(scanRetryBackoff)
	}

	s.cacheStockSnapshot(ctx, &result.Item)

	logger.Info("scan applied", map[string]interface{}{
		"pharmacy_id":      pharmacyID.String(),
		"item_id":          result.Item.ID.String(),
		"transaction_type": string(req.TransactionType),
		"quantity_change":  result.Transaction.QuantityChange,
		"quantity_after":   result.Transaction.QuantityAfter,
	})

	return result, nil
}

// applyScan runs one attempt of the atomic unit of work.
func (s *inventoryService) applyScan(ctx context.Context, pharmacyID, userID uuid.UUID, code *gs1.ParsedCode, req model.ScanRequest) (*model.ScanResponse, error) {
	now := s.now().UTC()

	var (
		item *model.InventoryItem
		txn  *model.InventoryTransaction
	)

	err := s.store.InScanTx(ctx, func(tx repository.ScanTx) error {
		resolved, err := tx.FindItemForUpdate(ctx, pharmacyID, code.GTIN)
		created := false
		if err != nil {
			if !model.IsNotFoundError(err) {
				return err
			}
			// Only a receive may materialize an unseen GTIN; you cannot
			// dispense what was never received.
			if req.TransactionType != model.TransactionTypeReceive {
				return err
			}
			resolved = newItemFromScan(pharmacyID, code, req, now)
			created = true
		}

		delta := req.TransactionType.Delta(req.Quantity)
		newQuantity := resolved.Quantity + delta
		if newQuantity < 0 {
			return model.NewInsufficientStockError(resolved.Quantity, req.Quantity)
		}

		resolved.Quantity = newQuantity
		resolved.UpdatedAt = now
		if req.TransactionType == model.TransactionTypeReceive {
			resolved.LastRestockedAt = &now
			applyReceiveBatchData(resolved, code, req)
		}

		if created {
			err = tx.CreateItem(ctx, resolved)
		} else {
			err = tx.SaveItem(ctx, resolved)
		}
		if err != nil {
			return err
		}

		raw := code.Raw
		txn = &model.InventoryTransaction{
			ID:              uuid.New(),
			PharmacyID:      pharmacyID,
			InventoryItemID: resolved.ID,
			TransactionType: req.TransactionType,
			QuantityChange:  delta,
			QuantityAfter:   newQuantity,
			UserID:          userID,
			PrescriptionID:  req.PrescriptionID,
			QRCodeScanned:   &raw,
			Notes:           req.Notes,
			CreatedAt:       now,
		}
		if err := tx.AppendTransaction(ctx, txn); err != nil {
			return err
		}

		// Alert reconciliation shares the transaction so the dedup check
		// and the item update commit as one unit.
		for _, candidate := range engine.Evaluate(resolved, now) {
			if _, err := tx.InsertAlertIfAbsent(ctx, candidate.Build(resolved, now)); err != nil {
				return err
			}
		}

		item = resolved
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &model.ScanResponse{
		Item:        item.ToResponse(),
		Transaction: txn.ToResponse(),
	}, nil
}

// newItemFromScan materializes an item on first receive. The name is a
// placeholder pending catalog enrichment; batch data is seeded from the
// scan with the request as fallback.
func newItemFromScan(pharmacyID uuid.UUID, code *gs1.ParsedCode, req model.ScanRequest, now time.Time) *model.InventoryItem {
	gtin := code.GTIN
	item := &model.InventoryItem{
		ID:             uuid.New(),
		PharmacyID:     pharmacyID,
		MedicationName: "Unregistered medication " + gtin,
		GTIN:           &gtin,
		Quantity:       0,
		Unit:           "unit",
		BatchNumber:    code.BatchNumber,
		ExpiryDate:     code.ExpiryDate,
		SupplierName:   req.SupplierName,
		CostPerUnit:    req.CostPerUnit,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if item.BatchNumber == nil {
		item.BatchNumber = req.BatchNumber
	}
	return item
}

// applyReceiveBatchData overwrites batch fields on receive. Scan-provided
// values always win; request fields fill what the barcode didn't carry.
func applyReceiveBatchData(item *model.InventoryItem, code *gs1.ParsedCode, req model.ScanRequest) {
	if code.BatchNumber != nil {
		item.BatchNumber = code.BatchNumber
	} else if req.BatchNumber != nil {
		item.BatchNumber = req.BatchNumber
	}
	if code.ExpiryDate != nil {
		item.ExpiryDate = code.ExpiryDate
	}
	if req.SupplierName != nil {
		item.SupplierName = req.SupplierName
	}
	if req.CostPerUnit != nil {
		item.CostPerUnit = req.CostPerUnit
	}
}

// isRetryableConflict reports whether an attempt hit a serialization
// conflict worth retrying: SQLSTATE 40001 (serialization_failure), 40P01
// (deadlock_detected), or a lost race on first-receive item creation.
func isRetryableConflict(err error) bool {
	if errors.Is(err, model.ErrConflictRetry) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

// stockSnapshotDTO is the JSON structure cached per item.
type stockSnapshotDTO struct {
	ItemID     string    `json:"item_id"`
	PharmacyID string    `json:"pharmacy_id"`
	Quantity   int       `json:"quantity"`
	IsLowStock bool      `json:"is_low_stock"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// cacheStockSnapshot publishes the post-commit quantity to Redis, best
// effort. The database stays the source of truth, so cache failures are
// logged and swallowed.
func (s *inventoryService) cacheStockSnapshot(ctx context.Context, item *model.ItemResponse) {
	if s.cache == nil {
		return
	}

	key := fmt.Sprintf("inventory:item:%s:stock", item.ID)
	snapshot := stockSnapshotDTO{
		ItemID:     item.ID.String(),
		PharmacyID: item.PharmacyID.String(),
		Quantity:   item.Quantity,
		IsLowStock: item.IsLowStock,
		UpdatedAt:  item.UpdatedAt,
	}
	if err := s.cache.Set(ctx, key, snapshot, 0); err != nil {
		logger.Error("failed to cache stock snapshot", err)
	}
}

// LookupByBarcode implements Service.LookupByBarcode.
func (s *inventoryService) LookupByBarcode(ctx context.Context, pharmacyID uuid.UUID, qrCode string) (*model.ItemResponse, error) {
	gtin, ok := gs1.ExtractGTIN(qrCode)
	if !ok {
		return nil, gs1.ErrMissingGTIN
	}

	item, err := s.store.FindItemByGTIN(ctx, pharmacyID, gtin)
	if err != nil {
		return nil, err
	}

	response := item.ToResponse()
	return &response, nil
}

// GetItem implements Service.GetItem.
func (s *inventoryService) GetItem(ctx context.Context, pharmacyID, id uuid.UUID) (*model.ItemResponse, error) {
	item, err := s.store.GetItemByID(ctx, pharmacyID, id)
	if err != nil {
		return nil, err
	}

	response := item.ToResponse()
	return &response, nil
}

// ListItems implements Service.ListItems.
func (s *inventoryService) ListItems(ctx context.Context, req model.ListItemsRequest) (*model.ListItemsResponse, error) {
	req.Normalize()

	items, totalItems, err := s.store.ListItems(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	totalPages := (totalItems + req.Limit - 1) / req.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	return &model.ListItemsResponse{
		Items:      model.ToItemResponseList(items),
		TotalItems: totalItems,
		TotalPages: totalPages,
		Page:       req.Page,
		Limit:      req.Limit,
	}, nil
}

// ListTransactions implements Service.ListTransactions.
func (s *inventoryService) ListTransactions(ctx context.Context, req model.ListTransactionsRequest) (*model.ListTransactionsResponse, error) {
	req.Normalize()

	// Tenant check: the item must belong to the caller's pharmacy.
	if _, err := s.store.GetItemByID(ctx, req.PharmacyID, req.InventoryItemID); err != nil {
		return nil, err
	}

	txns, totalItems, err := s.store.ListTransactions(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	totalPages := (totalItems + req.Limit - 1) / req.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	return &model.ListTransactionsResponse{
		Items:      model.ToTransactionResponseList(txns),
		TotalItems: totalItems,
		TotalPages: totalPages,
		Page:       req.Page,
		Limit:      req.Limit,
	}, nil
}

// GetStockSummary implements Service.GetStockSummary.
func (s *inventoryService) GetStockSummary(ctx context.Context, pharmacyID uuid.UUID) (*model.StockSummaryResponse, error) {
	summary, err := s.store.GetStockSummary(ctx, pharmacyID, s.now().UTC())
	if err != nil {
		return nil, err
	}
	return summary, nil
}
