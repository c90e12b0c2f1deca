package repository

import (
	"context"
	"time"

	alertmodel "pharmacy-backend/internal/domains/alert/model"
	"pharmacy-backend/internal/domains/inventory/model"

	"github.com/google/uuid"
)

// ScanTx is the persistence port visible inside one scan transaction.
// Every call runs against the same database transaction; the item row
// locked by FindItemForUpdate is the serialization point, so two scans of
// the same (pharmacy, gtin) cannot interleave between read and commit.
type ScanTx interface {
	// FindItemForUpdate resolves and row-locks the item. Returns
	// model.ErrItemNotFound (wrapped) when the pharmacy never saw the GTIN.
	FindItemForUpdate(ctx context.Context, pharmacyID uuid.UUID, gtin string) (*model.InventoryItem, error)

	// CreateItem materializes a new item on first receive.
	CreateItem(ctx context.Context, item *model.InventoryItem) error

	// SaveItem persists stock and batch mutations of a resolved item.
	SaveItem(ctx context.Context, item *model.InventoryItem) error

	// AppendTransaction inserts one immutable ledger row.
	AppendTransaction(ctx context.Context, txn *model.InventoryTransaction) error

	// InsertAlertIfAbsent inserts an active alert unless one with the same
	// (item, type) is already active. Returns false on the no-op path.
	InsertAlertIfAbsent(ctx context.Context, alert *alertmodel.InventoryAlert) (bool, error)
}

// Store is the inventory persistence boundary. The scan path goes through
// InScanTx; reads and the background job use the pool directly.
type Store interface {
	// InScanTx runs fn inside a single database transaction and commits
	// only if fn returns nil.
	InScanTx(ctx context.Context, fn func(tx ScanTx) error) error

	GetItemByID(ctx context.Context, pharmacyID, id uuid.UUID) (*model.InventoryItem, error)
	FindItemByGTIN(ctx context.Context, pharmacyID uuid.UUID, gtin string) (*model.InventoryItem, error)
	ListItems(ctx context.Context, req model.ListItemsRequest) ([]model.InventoryItem, int, error)
	ListTransactions(ctx context.Context, req model.ListTransactionsRequest) ([]model.InventoryTransaction, int, error)
	GetStockSummary(ctx context.Context, pharmacyID uuid.UUID, asOf time.Time) (*model.StockSummaryResponse, error)

	// ListPharmacyIDs returns every tenant that owns at least one item,
	// for the periodic reorder job.
	ListPharmacyIDs(ctx context.Context) ([]uuid.UUID, error)

	// ListReorderCandidates returns the items of one pharmacy that carry
	// an optimal stock level and are eligible for demand forecasting.
	ListReorderCandidates(ctx context.Context, pharmacyID uuid.UUID) ([]model.InventoryItem, error)

	// OutboundTotal sums outbound quantity (absolute units) for one item
	// since the given time; demand input for the forecaster.
	OutboundTotal(ctx context.Context, pharmacyID, itemID uuid.UUID, since time.Time) (int, error)

	// InsertAlertIfAbsent is the pool-level twin of ScanTx.InsertAlertIfAbsent,
	// used by the reorder job outside the scan path.
	InsertAlertIfAbsent(ctx context.Context, alert *alertmodel.InventoryAlert) (bool, error)
}
