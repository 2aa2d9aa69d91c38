package types

import (
	"errors"
	"fmt"
)

// Lookup errors.
var (
	ErrNotFound         = errors.New("entity not found")
	ErrOperatorNotFound = fmt.Errorf("operator: %w", ErrNotFound)
	ErrUnknownTable     = errors.New("unknown table")
)

// Transaction rejections. These are detected before any mutation.
var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrAlreadyLoaned     = errors.New("tool is already on loan")
	ErrNotLoaned         = errors.New("tool is not on loan")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrInvalidCondition  = errors.New("condition must be GOOD or BAD")
)

// Master-data errors.
var (
	ErrInvalidName  = errors.New("name must not be empty")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrToolOnLoan   = errors.New("tool on loan cannot be removed")
)

// Session errors.
var (
	ErrUnauthorized  = errors.New("invalid credentials")
	ErrSessionClosed = errors.New("session is closed")
)

// ErrStore matches any *StoreError via errors.Is.
var ErrStore = errors.New("store error")

// StoreError reports a Ledger Store failure on one table. Store errors are
// retryable: the in-memory state is left as it was when the call failed.
type StoreError struct {
	Op    string // "read", "write", "append" or "batch"
	Table string
	Err   error
}

func (e *StoreError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("store %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Table, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrStore) true for every StoreError.
func (e *StoreError) Is(target error) bool { return target == ErrStore }
