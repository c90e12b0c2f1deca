package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrAlertNotFound is returned when the alert does not exist in the
	// caller's pharmacy
	ErrAlertNotFound = errors.New("alert not found")

	// ErrInvalidTransition is returned for lifecycle moves the state
	// machine does not allow
	ErrInvalidTransition = errors.New("invalid alert status transition")

	// ErrInvalidAlertType is returned for values outside the enum
	ErrInvalidAlertType = errors.New("invalid alert type")

	// ErrInvalidAlertStatus is returned for values outside the enum
	ErrInvalidAlertStatus = errors.New("invalid alert status")
)

// NewAlertNotFoundError creates a not found error with the alert id.
func NewAlertNotFoundError(id uuid.UUID) error {
	return fmt.Errorf("%w: id=%s", ErrAlertNotFound, id)
}

// NewInvalidTransitionError carries both states for caller display.
func NewInvalidTransitionError(from, to AlertStatus) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// NewTransitionConflictError reports a lifecycle update that matched no
// row in the expected status, meaning a concurrent writer moved the
// alert first.
func NewTransitionConflictError(id uuid.UUID, from AlertStatus) error {
	return fmt.Errorf("%w: alert %s is no longer %s", ErrInvalidTransition, id, from)
}

// IsNotFoundError checks if error is a not found error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrAlertNotFound)
}

// IsTransitionError checks if error is an invalid lifecycle move.
func IsTransitionError(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}

// IsValidationError checks if error is a request validation error.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidAlertType) ||
		errors.Is(err, ErrInvalidAlertStatus)
}
