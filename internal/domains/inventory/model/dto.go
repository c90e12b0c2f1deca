package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =====================================================
// SCAN REQUEST
// =====================================================

// ScanRequest is the caller-facing payload of one barcode scan. Pharmacy
// and user come from the request context, not the body.
type ScanRequest struct {
	QRCode          string           `json:"qr_code"`
	TransactionType TransactionType  `json:"transaction_type"`
	Quantity        int              `json:"quantity"`
	PrescriptionID  *uuid.UUID       `json:"prescription_id,omitempty"`
	Notes           *string          `json:"notes,omitempty"`
	BatchNumber     *string          `json:"batch_number,omitempty"`
	SupplierName    *string          `json:"supplier_name,omitempty"`
	CostPerUnit     *decimal.Decimal `json:"cost_per_unit,omitempty"`
}

// Validate validates ScanRequest.
func (req ScanRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.QRCode, validation.Required),
		validation.Field(&req.TransactionType, validation.Required, validation.In(
			TransactionTypeReceive,
			TransactionTypeDispense,
			TransactionTypeTransfer,
			TransactionTypeReturn,
			TransactionTypeAdjustment,
			TransactionTypeExpired,
		)),
		validation.Field(&req.Quantity, validation.Required, validation.Min(1)),
	)
}

// =====================================================
// RESPONSES
// =====================================================

// ItemResponse is the item projection returned to callers.
type ItemResponse struct {
	ID                uuid.UUID        `json:"id"`
	PharmacyID        uuid.UUID        `json:"pharmacy_id"`
	MedicationName    string           `json:"medication_name"`
	GTIN              *string          `json:"gtin,omitempty"`
	FormularyCode     *string          `json:"formulary_code,omitempty"`
	Quantity          int              `json:"quantity"`
	Unit              string           `json:"unit"`
	ReorderThreshold  *int             `json:"reorder_threshold,omitempty"`
	OptimalStockLevel *int             `json:"optimal_stock_level,omitempty"`
	BatchNumber       *string          `json:"batch_number,omitempty"`
	ExpiryDate        *time.Time       `json:"expiry_date,omitempty"`
	SupplierName      *string          `json:"supplier_name,omitempty"`
	CostPerUnit       *decimal.Decimal `json:"cost_per_unit,omitempty"`
	IsControlled      bool             `json:"is_controlled"`
	SubstanceSchedule *string          `json:"substance_schedule,omitempty"`
	IsLowStock        bool             `json:"is_low_stock"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
	LastRestockedAt   *time.Time       `json:"last_restocked_at,omitempty"`
}

// ToResponse converts the entity to its caller-facing projection.
func (i *InventoryItem) ToResponse() ItemResponse {
	return ItemResponse{
		ID:                i.ID,
		PharmacyID:        i.PharmacyID,
		MedicationName:    i.MedicationName,
		GTIN:              i.GTIN,
		FormularyCode:     i.FormularyCode,
		Quantity:          i.Quantity,
		Unit:              i.Unit,
		ReorderThreshold:  i.ReorderThreshold,
		OptimalStockLevel: i.OptimalStockLevel,
		BatchNumber:       i.BatchNumber,
		ExpiryDate:        i.ExpiryDate,
		SupplierName:      i.SupplierName,
		CostPerUnit:       i.CostPerUnit,
		IsControlled:      i.IsControlled,
		SubstanceSchedule: i.SubstanceSchedule,
		IsLowStock:        i.IsLowStock(),
		CreatedAt:         i.CreatedAt,
		UpdatedAt:         i.UpdatedAt,
		LastRestockedAt:   i.LastRestockedAt,
	}
}

// ToItemResponseList converts a slice of entities.
func ToItemResponseList(items []InventoryItem) []ItemResponse {
	out := make([]ItemResponse, 0, len(items))
	for idx := range items {
		out = append(out, items[idx].ToResponse())
	}
	return out
}

// TransactionResponse is the ledger row projection returned to callers.
type TransactionResponse struct {
	ID              uuid.UUID       `json:"id"`
	InventoryItemID uuid.UUID       `json:"inventory_item_id"`
	TransactionType TransactionType `json:"transaction_type"`
	QuantityChange  int             `json:"quantity_change"`
	QuantityAfter   int             `json:"quantity_after"`
	UserID          uuid.UUID       `json:"user_id"`
	PrescriptionID  *uuid.UUID      `json:"prescription_id,omitempty"`
	Notes           *string         `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ToResponse converts the ledger entity to its projection.
func (t *InventoryTransaction) ToResponse() TransactionResponse {
	return TransactionResponse{
		ID:              t.ID,
		InventoryItemID: t.InventoryItemID,
		TransactionType: t.TransactionType,
		QuantityChange:  t.QuantityChange,
		QuantityAfter:   t.QuantityAfter,
		UserID:          t.UserID,
		PrescriptionID:  t.PrescriptionID,
		Notes:           t.Notes,
		CreatedAt:       t.CreatedAt,
	}
}

// ToTransactionResponseList converts a slice of ledger entities.
func ToTransactionResponseList(txns []InventoryTransaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txns))
	for idx := range txns {
		out = append(out, txns[idx].ToResponse())
	}
	return out
}

// ScanResponse pairs the updated item with the created transaction.
type ScanResponse struct {
	Item        ItemResponse        `json:"item"`
	Transaction TransactionResponse `json:"transaction"`
}

// =====================================================
// QUERY REQUESTS
// =====================================================

// ListItemsRequest filters and paginates the item list of one pharmacy.
type ListItemsRequest struct {
	PharmacyID   uuid.UUID `form:"-"`
	GTIN         *string   `form:"gtin"`
	LowStock     *bool     `form:"low_stock"`
	ExpiringSoon *bool     `form:"expiring_soon"`
	Expired      *bool     `form:"expired"`
	Controlled   *bool     `form:"controlled"`
	Page         int       `form:"page"`
	Limit        int       `form:"limit"`
}

// Normalize clamps pagination to sane bounds.
func (req *ListItemsRequest) Normalize() {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 {
		req.Limit = 20
	}
	if req.Limit > 100 {
		req.Limit = 100
	}
}

// ListItemsResponse is the paginated item list.
type ListItemsResponse struct {
	Items      []ItemResponse `json:"items"`
	TotalItems int            `json:"total_items"`
	TotalPages int            `json:"total_pages"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
}

// ListTransactionsRequest paginates the ledger of one item.
type ListTransactionsRequest struct {
	PharmacyID      uuid.UUID        `form:"-"`
	InventoryItemID uuid.UUID        `form:"-"`
	TransactionType *TransactionType `form:"transaction_type"`
	Page            int              `form:"page"`
	Limit           int              `form:"limit"`
}

// Normalize clamps pagination to sane bounds.
func (req *ListTransactionsRequest) Normalize() {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 {
		req.Limit = 50
	}
	if req.Limit > 200 {
		req.Limit = 200
	}
}

// ListTransactionsResponse is the paginated ledger slice.
type ListTransactionsResponse struct {
	Items      []TransactionResponse `json:"items"`
	TotalItems int                   `json:"total_items"`
	TotalPages int                   `json:"total_pages"`
	Page       int                   `json:"page"`
	Limit      int                   `json:"limit"`
}

// StockSummaryResponse aggregates one pharmacy's stock position.
type StockSummaryResponse struct {
	PharmacyID        uuid.UUID `json:"pharmacy_id"`
	TotalItems        int       `json:"total_items"`
	TotalUnits        int       `json:"total_units"`
	LowStockCount     int       `json:"low_stock_count"`
	ExpiringSoonCount int       `json:"expiring_soon_count"`
	ExpiredCount      int       `json:"expired_count"`
	ControlledCount   int       `json:"controlled_count"`
	Timestamp         time.Time `json:"timestamp"`
}
