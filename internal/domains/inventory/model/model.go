package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType classifies a stock movement.
type TransactionType string

const (
	TransactionTypeReceive    TransactionType = "receive"
	TransactionTypeDispense   TransactionType = "dispense"
	TransactionTypeTransfer   TransactionType = "transfer"
	TransactionTypeReturn     TransactionType = "return"
	TransactionTypeAdjustment TransactionType = "adjustment"
	TransactionTypeExpired    TransactionType = "expired"
)

// ValidTransactionTypes lists every accepted transaction type.
var ValidTransactionTypes = []TransactionType{
	TransactionTypeReceive,
	TransactionTypeDispense,
	TransactionTypeTransfer,
	TransactionTypeReturn,
	TransactionTypeAdjustment,
	TransactionTypeExpired,
}

// IsValid checks the type against the closed enum.
func (t TransactionType) IsValid() bool {
	for _, valid := range ValidTransactionTypes {
		if t == valid {
			return true
		}
	}
	return false
}

// Delta converts a scanned quantity into a signed quantity change. Only
// receive adds stock; every other type, including return, subtracts.
// Treating return as outbound matches the upstream dispensing system and
// is pinned by tests until product says otherwise.
func (t TransactionType) Delta(quantity int) int {
	if t == TransactionTypeReceive {
		return quantity
	}
	return -quantity
}

// ExpiryWarningWindow is how far ahead an expiry date counts as
// "expiring soon".
const ExpiryWarningWindow = 60 * 24 * time.Hour

// InventoryItem is one medication position of one pharmacy. Quantity is
// only ever mutated through the scan transaction.
type InventoryItem struct {
	// Identity
	ID         uuid.UUID `db:"id"`
	PharmacyID uuid.UUID `db:"pharmacy_id"`

	// Catalog
	MedicationName string  `db:"medication_name"`
	GTIN           *string `db:"gtin"`
	FormularyCode  *string `db:"formulary_code"`

	// Stock
	Quantity          int    `db:"quantity"`
	Unit              string `db:"unit"`
	ReorderThreshold  *int   `db:"reorder_threshold"`
	OptimalStockLevel *int   `db:"optimal_stock_level"`

	// Batch
	BatchNumber  *string          `db:"batch_number"`
	ExpiryDate   *time.Time       `db:"expiry_date"`
	SupplierName *string          `db:"supplier_name"`
	CostPerUnit  *decimal.Decimal `db:"cost_per_unit"`

	// Compliance
	IsControlled      bool    `db:"is_controlled"`
	SubstanceSchedule *string `db:"substance_schedule"`

	// Timestamps
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
	LastRestockedAt *time.Time `db:"last_restocked_at"`
}

// IsLowStock reports whether quantity has fallen to the reorder threshold.
// Items without a threshold never count as low.
func (i *InventoryItem) IsLowStock() bool {
	return i.ReorderThreshold != nil && i.Quantity <= *i.ReorderThreshold
}

// IsCriticalStock reports whether quantity has fallen to half the reorder
// threshold.
func (i *InventoryItem) IsCriticalStock() bool {
	return i.ReorderThreshold != nil && i.Quantity <= *i.ReorderThreshold/2
}

// IsExpired reports whether the item's expiry date lies strictly before
// asOf's calendar date. Items without an expiry never expire.
func (i *InventoryItem) IsExpired(asOf time.Time) bool {
	if i.ExpiryDate == nil {
		return false
	}
	return i.ExpiryDate.Before(startOfDay(asOf))
}

// IsExpiringSoon reports whether the expiry date falls inside the warning
// window: later than asOf's date but no more than 60 days out.
func (i *InventoryItem) IsExpiringSoon(asOf time.Time) bool {
	if i.ExpiryDate == nil {
		return false
	}
	today := startOfDay(asOf)
	return i.ExpiryDate.After(today) && !i.ExpiryDate.After(today.Add(ExpiryWarningWindow))
}

// DaysUntilExpiry returns whole calendar days from asOf's date to the
// expiry date. Negative for already-expired items, 0 when no expiry is set.
func (i *InventoryItem) DaysUntilExpiry(asOf time.Time) int {
	if i.ExpiryDate == nil {
		return 0
	}
	return int(i.ExpiryDate.Sub(startOfDay(asOf)).Hours() / 24)
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// InventoryTransaction is one immutable ledger row per scan event.
// quantity_after snapshots the item quantity right after the movement, so
// the log alone can reconstruct stock history.
type InventoryTransaction struct {
	ID              uuid.UUID       `db:"id"`
	PharmacyID      uuid.UUID       `db:"pharmacy_id"`
	InventoryItemID uuid.UUID       `db:"inventory_item_id"`
	TransactionType TransactionType `db:"transaction_type"`
	QuantityChange  int             `db:"quantity_change"`
	QuantityAfter   int             `db:"quantity_after"`
	UserID          uuid.UUID       `db:"user_id"`
	PrescriptionID  *uuid.UUID      `db:"prescription_id"`
	QRCodeScanned   *string         `db:"qr_code_scanned"`
	Notes           *string         `db:"notes"`
	CreatedAt       time.Time       `db:"created_at"`
}
