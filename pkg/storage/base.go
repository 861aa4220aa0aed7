// Package storage defines the persistence interface for memory records and
// the authenticated-encryption boundary every backend writes through.
//
// A backend stores one ciphertext blob per memory, keyed by plaintext ID,
// plus a single encrypted settings record. All record fields other than the
// ID live inside the ciphertext.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/lucidnotes/memvault/pkg/memory"
)

// Sentinel errors shared by all backends.
var (
	// ErrNotFound indicates that no record exists for the requested ID.
	ErrNotFound = errors.New("record not found")

	// ErrCorruptRecord indicates that a stored record failed to decrypt or
	// deserialize. The record is unreadable but other records are not
	// affected; callers must surface this, never drop it silently.
	ErrCorruptRecord = errors.New("record corrupt or key mismatch")
)

// FieldUpdate names the mutable fields of a stored memory. Nil fields are
// left unchanged. Content, tags, pin state, and access time are the only
// fields that may change after creation.
type FieldUpdate struct {
	Content        *string
	Tags           *[]string
	Pinned         *bool
	LastAccessedAt *time.Time
}

// Store is durable keyed storage for memory records with confidentiality at
// rest. Implementations must serialize writes; reads of committed data may
// proceed concurrently.
type Store interface {
	// Insert persists a new record. The record's ID must be unique.
	Insert(ctx context.Context, m *memory.Memory) error

	// Get returns the record with the given ID, ErrNotFound if absent, or
	// ErrCorruptRecord if it cannot be decrypted.
	Get(ctx context.Context, id int64) (*memory.Memory, error)

	// GetAll returns every readable record. A record that fails to decrypt
	// aborts the read with ErrCorruptRecord rather than being skipped.
	GetAll(ctx context.Context) ([]*memory.Memory, error)

	// UpdateFields applies the non-nil fields of upd to the record.
	// Updating a missing ID returns ErrNotFound.
	UpdateFields(ctx context.Context, id int64, upd FieldUpdate) error

	// Delete removes a record. Deleting a missing ID is a no-op.
	Delete(ctx context.Context, id int64) error

	// DeleteMany removes a set of records in one transaction so readers
	// never observe a partially applied bulk delete.
	DeleteMany(ctx context.Context, ids []int64) error

	// DeleteAll removes every record, pinned or not.
	DeleteAll(ctx context.Context) error

	// Count returns the number of stored records without decrypting them.
	Count(ctx context.Context) (int, error)

	// LoadSettings returns the persisted settings record, or ErrNotFound
	// if none has been saved yet.
	LoadSettings(ctx context.Context) (memory.Settings, error)

	// SaveSettings persists the settings record, replacing any previous one.
	SaveSettings(ctx context.Context, s memory.Settings) error

	// Close releases the backend connection.
	Close() error
}
