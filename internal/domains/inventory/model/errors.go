package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrItemNotFound is returned for outbound scans against a GTIN the
	// pharmacy never received
	ErrItemNotFound = errors.New("inventory item not found")

	// ErrInsufficientStock is returned when a movement would drive the
	// quantity negative
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInvalidTransactionType is returned for values outside the enum
	ErrInvalidTransactionType = errors.New("invalid transaction type")

	// ErrInvalidQuantity is returned for non-positive scan quantities
	ErrInvalidQuantity = errors.New("quantity must be at least 1")

	// ErrConflictRetry is returned after the bounded retry budget for
	// serialization conflicts is exhausted
	ErrConflictRetry = errors.New("concurrent scan conflict, retries exhausted")
)

// NewItemNotFoundError creates a not found error with lookup details.
func NewItemNotFoundError(pharmacyID uuid.UUID, gtin string) error {
	return fmt.Errorf("%w: pharmacy_id=%s, gtin=%s", ErrItemNotFound, pharmacyID, gtin)
}

// NewInsufficientStockError carries the current and requested quantities
// for caller display.
func NewInsufficientStockError(current, requested int) error {
	return fmt.Errorf("%w: current=%d, requested=%d", ErrInsufficientStock, current, requested)
}

// IsNotFoundError checks if error is a not found error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrItemNotFound)
}

// IsInsufficientStockError checks if error is an insufficient stock error.
func IsInsufficientStockError(err error) bool {
	return errors.Is(err, ErrInsufficientStock)
}

// IsConflictError checks if error is an exhausted conflict retry.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrConflictRetry)
}

// IsValidationError checks if error is a request validation error.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidTransactionType) ||
		errors.Is(err, ErrInvalidQuantity)
}
