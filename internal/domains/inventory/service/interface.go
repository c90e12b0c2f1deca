package service

import (
	"context"

	"pharmacy-backend/internal/domains/inventory/model"

	"github.com/google/uuid"
)

// Service is the inventory use-case boundary. ProcessScan is the single
// write path; everything else reads.
type Service interface {
	// ProcessScan decodes a GS1 barcode and applies the resulting stock
	// movement atomically: item update, ledger append and alert
	// reconciliation commit together or not at all.
	ProcessScan(ctx context.Context, pharmacyID, userID uuid.UUID, req model.ScanRequest) (*model.ScanResponse, error)

	// LookupByBarcode resolves an item from a raw barcode without
	// mutating anything (GTIN fast path, no full decode).
	LookupByBarcode(ctx context.Context, pharmacyID uuid.UUID, qrCode string) (*model.ItemResponse, error)

	GetItem(ctx context.Context, pharmacyID, id uuid.UUID) (*model.ItemResponse, error)
	ListItems(ctx context.Context, req model.ListItemsRequest) (*model.ListItemsResponse, error)
	ListTransactions(ctx context.Context, req model.ListTransactionsRequest) (*model.ListTransactionsResponse, error)
	GetStockSummary(ctx context.Context, pharmacyID uuid.UUID) (*model.StockSummaryResponse, error)
}
