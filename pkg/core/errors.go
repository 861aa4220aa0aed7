// Package core wires the memory subsystem together and exposes its public
// client: extraction, scoring, deduplication, encrypted persistence,
// capacity eviction, querying, and export.
package core

import (
	"errors"
	"fmt"

	"github.com/lucidnotes/memvault/pkg/extraction"
	"github.com/lucidnotes/memvault/pkg/storage"
)

// Predefined errors for common failure scenarios. Persisted-data errors are
// always surfaced as distinct, inspectable values; nothing is swallowed
// except the deliberately soft extraction-unavailable path, which is logged
// and returned but never escalated.
var (
	// ErrNotFound indicates that a requested memory was not found.
	ErrNotFound = storage.ErrNotFound

	// ErrStoreCorruption indicates that a record failed to decrypt or
	// deserialize. The record is unreadable; other operations continue.
	ErrStoreCorruption = storage.ErrCorruptRecord

	// ErrExtractionUnavailable indicates the generation capability was
	// unreachable or erroring. Extraction yields empty results and batch
	// processing continues with the next unit.
	ErrExtractionUnavailable = extraction.ErrUnavailable

	// ErrCapacityExceededByPins is a warning: the store is over capacity
	// but every remaining memory is pinned, so nothing was evicted.
	ErrCapacityExceededByPins = errors.New("capacity exceeded by pinned memories")

	// ErrInvalidConfig indicates a configuration or settings value outside
	// its allowed range. The prior configuration is retained.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidInput indicates invalid caller input, such as empty
	// memory content.
	ErrInvalidInput = errors.New("invalid input")
)

// MemoryError wraps errors with operation context.
type MemoryError struct {
	// Op is the name of the operation that failed.
	Op string

	// Err is the underlying error.
	Err error
}

// Error returns "memvault: <Op>: <Err>".
func (e *MemoryError) Error() string {
	return fmt.Sprintf("memvault: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is / errors.As.
func (e *MemoryError) Unwrap() error {
	return e.Err
}

// NewMemoryError wraps err with operation context; returns nil if err is
// nil.
func NewMemoryError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &MemoryError{Op: op, Err: err}
}
