package service

import (
	"context"
	"testing"
	"time"

	alertmodel "pharmacy-backend/internal/domains/alert/model"
	"pharmacy-backend/internal/domains/inventory/model"
	"pharmacy-backend/internal/domains/inventory/repository"
	"pharmacy-backend/pkg/gs1"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory Store. InScanTx snapshots the state before
// running fn and restores it on error, mirroring a database rollback.
type fakeStore struct {
	items  map[string]model.InventoryItem // keyed by gtin
	txns   []model.InventoryTransaction
	alerts []alertmodel.InventoryAlert

	outboundTotal int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		items: make(map[string]model.InventoryItem),
	}
}

func (f *fakeStore) snapshot() ([]model.InventoryTransaction, []alertmodel.InventoryAlert, map[string]model.InventoryItem) {
	items := make(map[string]model.InventoryItem, len(f.items))
	for k, v := range f.items {
		items[k] = v
	}
	txns := append([]model.InventoryTransaction(nil), f.txns...)
	alerts := append([]alertmodel.InventoryAlert(nil), f.alerts...)
	return txns, alerts, items
}

func (f *fakeStore) InScanTx(ctx context.Context, fn func(tx repository.ScanTx) error) error {
	txns, alerts, items := f.snapshot()
	if err := fn(&fakeTx{store: f}); err != nil {
		f.txns, f.alerts, f.items = txns, alerts, items
		return err
	}
	return nil
}

type fakeTx struct {
	store *fakeStore
}

func (t *fakeTx) FindItemForUpdate(ctx context.Context, pharmacyID uuid.UUID, gtin string) (*model.InventoryItem, error) {
	item, ok := t.store.items[gtin]
	if !ok || item.PharmacyID != pharmacyID {
		return nil, model.NewItemNotFoundError(pharmacyID, gtin)
	}
	copied := item
	return &copied, nil
}

func (t *fakeTx) CreateItem(ctx context.Context, item *model.InventoryItem) error {
	t.store.items[*item.GTIN] = *item
	return nil
}

func (t *fakeTx) SaveItem(ctx context.Context, item *model.InventoryItem) error {
	t.store.items[*item.GTIN] = *item
	return nil
}

func (t *fakeTx) AppendTransaction(ctx context.Context, txn *model.InventoryTransaction) error {
	t.store.txns = append(t.store.txns, *txn)
	return nil
}

func (t *fakeTx) InsertAlertIfAbsent(ctx context.Context, alert *alertmodel.InventoryAlert) (bool, error) {
	return t.store.insertAlertIfAbsent(alert)
}

func (f *fakeStore) insertAlertIfAbsent(alert *alertmodel.InventoryAlert) (bool, error) {
	for _, existing := range f.alerts {
		if existing.InventoryItemID == alert.InventoryItemID &&
			existing.AlertType == alert.AlertType &&
			existing.Status == alertmodel.StatusActive {
			return false, nil
		}
	}
	f.alerts = append(f.alerts, *alert)
	return true, nil
}

func (f *fakeStore) GetItemByID(ctx context.Context, pharmacyID, id uuid.UUID) (*model.InventoryItem, error) {
	for _, item := range f.items {
		if item.ID == id && item.PharmacyID == pharmacyID {
			copied := item
			return &copied, nil
		}
	}
	return nil, model.NewItemNotFoundError(pharmacyID, "")
}

func (f *fakeStore) FindItemByGTIN(ctx context.Context, pharmacyID uuid.UUID, gtin string) (*model.InventoryItem, error) {
	item, ok := f.items[gtin]
	if !ok || item.PharmacyID != pharmacyID {
		return nil, model.NewItemNotFoundError(pharmacyID, gtin)
	}
	copied := item
	return &copied, nil
}

func (f *fakeStore) ListItems(ctx context.Context, req model.ListItemsRequest) ([]model.InventoryItem, int, error) {
	var out []model.InventoryItem
	for _, item := range f.items {
		if item.PharmacyID == req.PharmacyID {
			out = append(out, item)
		}
	}
	return out, len(out), nil
}

func (f *fakeStore) ListTransactions(ctx context.Context, req model.ListTransactionsRequest) ([]model.InventoryTransaction, int, error) {
	var out []model.InventoryTransaction
	for _, txn := range f.txns {
		if txn.InventoryItemID == req.InventoryItemID {
			out = append(out, txn)
		}
	}
	return out, len(out), nil
}

func (f *fakeStore) GetStockSummary(ctx context.Context, pharmacyID uuid.UUID, asOf time.Time) (*model.StockSummaryResponse, error) {
	return &model.StockSummaryResponse{PharmacyID: pharmacyID, Timestamp: asOf}, nil
}

func (f *fakeStore) ListPharmacyIDs(ctx context.Context) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]bool)
	var out []uuid.UUID
	for _, item := range f.items {
		if !seen[item.PharmacyID] {
			seen[item.PharmacyID] = true
			out = append(out, item.PharmacyID)
		}
	}
	return out, nil
}

func (f *fakeStore) ListReorderCandidates(ctx context.Context, pharmacyID uuid.UUID) ([]model.InventoryItem, error) {
	var out []model.InventoryItem
	for _, item := range f.items {
		if item.PharmacyID == pharmacyID && item.OptimalStockLevel != nil {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeStore) OutboundTotal(ctx context.Context, pharmacyID, itemID uuid.UUID, since time.Time) (int, error) {
	return f.outboundTotal, nil
}

func (f *fakeStore) InsertAlertIfAbsent(ctx context.Context, alert *alertmodel.InventoryAlert) (bool, error) {
	return f.insertAlertIfAbsent(alert)
}

func newTestService(store *fakeStore, now time.Time) *inventoryService {
	return &inventoryService{
		store: store,
		cache: nil,
		now:   func() time.Time { return now },
	}
}

const testBarcode = "(01)08901234567890(17)270630(10)BATCH42"

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func TestProcessScanReceiveCreatesItem(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, testNow)
	pharmacyID := uuid.New()
	userID := uuid.New()

	res, err := svc.ProcessScan(context.Background(), pharmacyID, userID, model.ScanRequest{
		QRCode:          testBarcode,
		TransactionType: model.TransactionTypeReceive,
		Quantity:        100,
	})
	require.NoError(t, err)

	assert.Equal(t, 100, res.Item.Quantity)
	assert.Equal(t, "Unregistered medication 08901234567890", res.Item.MedicationName)
	require.NotNil(t, res.Item.GTIN)
	assert.Equal(t, "08901234567890", *res.Item.GTIN)
	require.NotNil(t, res.Item.BatchNumber)
	assert.Equal(t, "BATCH42", *res.Item.BatchNumber)
	assert.NotNil(t, res.Item.LastRestockedAt)

	assert.Equal(t, 100, res.Transaction.QuantityChange)
	assert.Equal(t, 100, res.Transaction.QuantityAfter)
	assert.Equal(t, userID, res.Transaction.UserID)
	assert.Len(t, store.txns, 1)
}

func TestProcessScanReceiveThenDispense(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, testNow)
	pharmacyID := uuid.New()
	userID := uuid.New()

	_, err := svc.ProcessScan(context.Background(), pharmacyID, userID, model.ScanRequest{
		QRCode:          testBarcode,
		TransactionType: model.TransactionTypeReceive,
		Quantity:        100,
	})
	require.NoError(t, err)

	res, err := svc.ProcessScan(context.Background(), pharmacyID, userID, model.ScanRequest{
		QRCode:          testBarcode,
		TransactionType: model.TransactionTypeDispense,
		Quantity:        30,
	})
	require.NoError(t, err)

	assert.Equal(t, 70, res.Item.Quantity)
	assert.Equal(t, -30, res.Transaction.QuantityChange)
	assert.Equal(t, 70, res.Transaction.QuantityAfter)

	// The ledger replays to the stored quantity.
	sum := 0
	for _, txn := range store.txns {
		sum += txn.QuantityChange
	}
	assert.Equal(t, res.Item.Quantity, sum)
}

func TestProcessScanReturnIsOutbound(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, testNow)
	pharmacyID := uuid.New()

	_, err := svc.ProcessScan(context.Background(), pharmacyID, uuid.New(), model.ScanRequest{
		QRCode:          testBarcode,
		TransactionType: model.TransactionTypeReceive,
		Quantity:        50,
	})
	require.NoError(t, err)

	res, err := svc.ProcessScan(context.Background(), pharmacyID, uuid.New(), model.ScanRequest{
		QRCode:          testBarcode,
		TransactionType: model.TransactionTypeReturn,
		Quantity:        10,
	})
	require.NoError(t, err)

	assert.Equal(t, 40, res.Item.Quantity)
	assert.Equal(t, -10, res.Transaction.QuantityChange)
}

func TestProcessScanInsufficientStockLeavesNoTrace(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, testNow)
	pharmacyID := uuid.New()

	_, err := svc.ProcessScan(context.Background(), pharmacyID, uuid.New(), model.ScanRequest{
		QRCode:          testBarcode,
		TransactionType: model.TransactionTypeReceive,
		Quantity:        30,
	})
	require.NoError(t, err)
	txnsBefore := len(store.txns)

	_, err = svc.ProcessScan(context.Background(), pharmacyID, uuid.New(), model.ScanRequest{
		QRCode:          testBarcode,
		TransactionType: model.TransactionTypeDispense,
		Quantity:        50,
	})
	require.Error(t, err)
	assert.True(t, model.IsInsufficientStockError(err))

	// Rolled back: no ledger row, quantity unchanged.
	assert.Len(t, store.txns, txnsBefore)
	item := store.items["08901234567890"]
	assert.Equal(t, 30, item.Quantity)
}

func TestProcessScanUnknownItemOutboundFails(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, testNow)

	_, err := svc.ProcessScan(context.Background(), uuid.New(), uuid.New(), model.ScanRequest{
		QRCode:          testBarcode,
		TransactionType: model.TransactionTypeDispense,
		Quantity:        1,
	})
	require.Error(t, err)
	assert.True(t, model.IsNotFoundError(err))
	assert.Empty(t, store.txns)
}

func TestProcessScanMissingGTINFailsBeforePersistence(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, testNow)

	_, err := svc.ProcessScan(context.Background(), uuid.New(), uuid.New(), model.ScanRequest{
		QRCode:          "(10)BATCH42(21)SERIAL",
		TransactionType: model.TransactionTypeReceive,
		Quantity:        10,
	})
	require.ErrorIs(t, err, gs1.ErrMissingGTIN)
	assert.Empty(t, store.items)
	assert.Empty(t, store.txns)
}

func TestProcessScanRaisesLowStockAlertOnce(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, testNow)
	pharmacyID := uuid.New()

	threshold := 20
	gtin := "08901234567890"
	store.items[gtin] = model.InventoryItem{
		ID:               uuid.New(),
		PharmacyID:       pharmacyID,
		MedicationName:   "Amoxicillin 500mg",
		GTIN:             &gtin,
		Quantity:         25,
		Unit:             "box",
		ReorderThreshold: &threshold,
	}

	// 25 -> 15 crosses the threshold; severity is medium (above half).
	_, err := svc.ProcessScan(context.Background(), pharmacyID, uuid.New(), model.ScanRequest{
		QRCode:          testBarcode,
		TransactionType: model.TransactionTypeDispense,
		Quantity:        10,
	})
	require.NoError(t, err)
	require.Len(t, store.alerts, 1)
	assert.Equal(t, alertmodel.AlertTypeLowStock, store.alerts[0].AlertType)
	assert.Equal(t, alertmodel.SeverityMedium, store.alerts[0].Severity)

	// 15 -> 7 would evaluate high, but the active alert wins and its
	// severity stays as first detected.
	_, err = svc.ProcessScan(context.Background(), pharmacyID, uuid.New(), model.ScanRequest{
		QRCode:          testBarcode,
		TransactionType: model.TransactionTypeDispense,
		Quantity:        8,
	})
	require.NoError(t, err)
	require.Len(t, store.alerts, 1)
	assert.Equal(t, alertmodel.SeverityMedium, store.alerts[0].Severity)
}

func TestProcessScanRaisesExpiringSoonAlert(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, testNow)
	pharmacyID := uuid.New()

	gtin := "08901234567890"
	expiry := time.Date(2025, 4, 9, 0, 0, 0, 0, time.UTC) // 30 days out
	store.items[gtin] = model.InventoryItem{
		ID:             uuid.New(),
		PharmacyID:     pharmacyID,
		MedicationName: "Insulin",
		GTIN:           &gtin,
		Quantity:       40,
		Unit:           "vial",
		ExpiryDate:     &expiry,
	}

	_, err := svc.ProcessScan(context.Background(), pharmacyID, uuid.New(), model.ScanRequest{
		QRCode:          "(01)08901234567890",
		TransactionType: model.TransactionTypeDispense,
		Quantity:        2,
	})
	require.NoError(t, err)

	require.Len(t, store.alerts, 1)
	assert.Equal(t, alertmodel.AlertTypeExpiringSoon, store.alerts[0].AlertType)
	assert.Equal(t, alertmodel.SeverityMedium, store.alerts[0].Severity)
}

func TestProcessScanInvalidQuantityRejected(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, testNow)

	_, err := svc.ProcessScan(context.Background(), uuid.New(), uuid.New(), model.ScanRequest{
		QRCode:          testBarcode,
		TransactionType: model.TransactionTypeDispense,
		Quantity:        0,
	})
	require.Error(t, err)
	assert.Empty(t, store.txns)
}

func TestLookupByBarcode(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, testNow)
	pharmacyID := uuid.New()

	gtin := "08901234567890"
	store.items[gtin] = model.InventoryItem{
		ID:             uuid.New(),
		PharmacyID:     pharmacyID,
		MedicationName: "Paracetamol",
		GTIN:           &gtin,
		Quantity:       12,
		Unit:           "box",
	}

	res, err := svc.LookupByBarcode(context.Background(), pharmacyID, testBarcode)
	require.NoError(t, err)
	assert.Equal(t, "Paracetamol", res.MedicationName)
	assert.Equal(t, 12, res.Quantity)

	// Other tenants never see the item.
	_, err = svc.LookupByBarcode(context.Background(), uuid.New(), testBarcode)
	assert.True(t, model.IsNotFoundError(err))

	_, err = svc.LookupByBarcode(context.Background(), pharmacyID, "(10)NOGTIN")
	assert.ErrorIs(t, err, gs1.ErrMissingGTIN)
}
