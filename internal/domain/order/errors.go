package order

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAmount: negative total, discounted > original, or qty <= 0.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrSplitPolicy: policy left items unassigned, duplicated them, or
	// produced an empty group.
	ErrSplitPolicy = errors.New("invalid split partition")
	// ErrStorageConflict: concurrent writer held the per-order lock longer
	// than the bounded wait. Transient, caller may retry.
	ErrStorageConflict = errors.New("storage conflict")
	// ErrNotFound is the expected miss value, not a failure.
	ErrNotFound = errors.New("not found")
	// ErrMissingField: a required nested section is absent from the payload.
	ErrMissingField = errors.New("required field is missing")
)

// NormalizationError wraps whatever broke while normalizing one raw order.
// Normalization never partially applies: either all sub-orders or this.
type NormalizationError struct {
	SourceOrderID int64
	Cause         error
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalize order %d: %v", e.SourceOrderID, e.Cause)
}

func (e *NormalizationError) Unwrap() error { return e.Cause }

// FetchError marks transient upstream failures (auth, rate limit, timeout).
type FetchError struct {
	Cause error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch orders: %v", e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Cause }
