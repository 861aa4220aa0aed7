// Package sqlite provides the SQLite implementation of the encrypted memory
// store.
//
// SQLite is the default backend: a single local file, suitable for the
// journaling use case where all data stays on the user's machine. Each
// record is serialized to JSON, sealed with the storage.Sealer, and stored
// as an opaque blob keyed by plaintext ID.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lucidnotes/memvault/pkg/memory"
	"github.com/lucidnotes/memvault/pkg/storage"
)

const settingsKey = "settings"

// Client implements storage.Store backed by SQLite.
type Client struct {
	db     *sql.DB
	sealer *storage.Sealer
}

// Config contains configuration for creating a SQLite store.
type Config struct {
	// DBPath is the path to the SQLite database file. Parent directories
	// are created if missing.
	DBPath string

	// Key is the 32-byte encryption key for records at rest.
	Key []byte
}

// NewClient opens (or creates) the database at cfg.DBPath and prepares the
// schema.
func NewClient(cfg *Config) (*Client, error) {
	sealer, err := storage.NewSealer(cfg.Key)
	if err != nil {
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}

	dbDir := filepath.Dir(cfg.DBPath)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0700); err != nil {
			return nil, fmt.Errorf("NewSQLiteClient: failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_foreign_keys=1&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}

	client := &Client{db: db, sealer: sealer}
	if err := client.initTables(context.Background()); err != nil {
		return nil, err
	}
	return client, nil
}

func (c *Client) initTables(ctx context.Context) error {
	const q = `
		CREATE TABLE IF NOT EXISTS memories (
			id INTEGER PRIMARY KEY,
			blob BLOB NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS config (
			k TEXT PRIMARY KEY,
			blob BLOB NOT NULL
		);
	`
	if _, err := c.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("initTables: %w", err)
	}
	return nil
}

// Insert persists a new sealed record.
func (c *Client) Insert(ctx context.Context, m *memory.Memory) error {
	blob, err := c.seal(m)
	if err != nil {
		return fmt.Errorf("Insert: %w", err)
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO memories (id, blob, created_at) VALUES (?, ?, ?)`,
		m.ID, blob, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("Insert: %w", err)
	}
	return nil
}

// Get returns the record with the given ID.
func (c *Client) Get(ctx context.Context, id int64) (*memory.Memory, error) {
	var blob []byte
	err := c.db.QueryRowContext(ctx,
		`SELECT blob FROM memories WHERE id = ?`, id).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("Get: id %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	m, err := c.open(blob)
	if err != nil {
		return nil, fmt.Errorf("Get: id %d: %w", id, err)
	}
	return m, nil
}

// GetAll returns every record, decrypted. Decryption failure on any record
// aborts with ErrCorruptRecord so silent loss is impossible.
func (c *Client) GetAll(ctx context.Context) ([]*memory.Memory, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, blob FROM memories ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("GetAll: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var memories []*memory.Memory
	for rows.Next() {
		var id int64
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, fmt.Errorf("GetAll: %w", err)
		}
		m, err := c.open(blob)
		if err != nil {
			return nil, fmt.Errorf("GetAll: id %d: %w", id, err)
		}
		memories = append(memories, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetAll: %w", err)
	}
	return memories, nil
}

// UpdateFields rewrites the sealed record with the non-nil fields of upd
// applied. The read-modify-write runs in one transaction.
func (c *Client) UpdateFields(ctx context.Context, id int64, upd storage.FieldUpdate) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("UpdateFields: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var blob []byte
	err = tx.QueryRowContext(ctx,
		`SELECT blob FROM memories WHERE id = ?`, id).Scan(&blob)
	if err == sql.ErrNoRows {
		return fmt.Errorf("UpdateFields: id %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("UpdateFields: %w", err)
	}

	m, err := c.open(blob)
	if err != nil {
		return fmt.Errorf("UpdateFields: id %d: %w", id, err)
	}
	applyUpdate(m, upd)

	sealed, err := c.seal(m)
	if err != nil {
		return fmt.Errorf("UpdateFields: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE memories SET blob = ? WHERE id = ?`, sealed, id); err != nil {
		return fmt.Errorf("UpdateFields: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("UpdateFields: %w", err)
	}
	return nil
}

// Delete removes a record. Missing IDs are a no-op.
func (c *Client) Delete(ctx context.Context, id int64) error {
	if _, err := c.db.ExecContext(ctx,
		`DELETE FROM memories WHERE id = ?`, id); err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	return nil
}

// DeleteMany removes the given records in one transaction.
func (c *Client) DeleteMany(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("DeleteMany: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM memories WHERE id = ?`, id); err != nil {
			return fmt.Errorf("DeleteMany: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("DeleteMany: %w", err)
	}
	return nil
}

// DeleteAll removes every record, pinned or not.
func (c *Client) DeleteAll(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM memories`); err != nil {
		return fmt.Errorf("DeleteAll: %w", err)
	}
	return nil
}

// Count returns the number of stored records.
func (c *Client) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memories`).Scan(&n); err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return n, nil
}

// LoadSettings returns the persisted settings record.
func (c *Client) LoadSettings(ctx context.Context) (memory.Settings, error) {
	var blob []byte
	err := c.db.QueryRowContext(ctx,
		`SELECT blob FROM config WHERE k = ?`, settingsKey).Scan(&blob)
	if err == sql.ErrNoRows {
		return memory.Settings{}, fmt.Errorf("LoadSettings: %w", storage.ErrNotFound)
	}
	if err != nil {
		return memory.Settings{}, fmt.Errorf("LoadSettings: %w", err)
	}

	plaintext, err := c.sealer.Open(blob)
	if err != nil {
		return memory.Settings{}, fmt.Errorf("LoadSettings: %w", err)
	}
	var s memory.Settings
	if err := json.Unmarshal(plaintext, &s); err != nil {
		return memory.Settings{}, fmt.Errorf("LoadSettings: %w", storage.ErrCorruptRecord)
	}
	return s, nil
}

// SaveSettings persists the settings record, replacing any previous one.
func (c *Client) SaveSettings(ctx context.Context, s memory.Settings) error {
	plaintext, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("SaveSettings: %w", err)
	}
	blob, err := c.sealer.Seal(plaintext)
	if err != nil {
		return fmt.Errorf("SaveSettings: %w", err)
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO config (k, blob) VALUES (?, ?)
		 ON CONFLICT(k) DO UPDATE SET blob = excluded.blob`,
		settingsKey, blob)
	if err != nil {
		return fmt.Errorf("SaveSettings: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func (c *Client) seal(m *memory.Memory) ([]byte, error) {
	plaintext, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return c.sealer.Seal(plaintext)
}

func (c *Client) open(blob []byte) (*memory.Memory, error) {
	plaintext, err := c.sealer.Open(blob)
	if err != nil {
		return nil, err
	}
	var m memory.Memory
	if err := json.Unmarshal(plaintext, &m); err != nil {
		return nil, storage.ErrCorruptRecord
	}
	return &m, nil
}

func applyUpdate(m *memory.Memory, upd storage.FieldUpdate) {
	if upd.Content != nil {
		m.Content = *upd.Content
	}
	if upd.Tags != nil {
		m.Tags = memory.DedupeTags(*upd.Tags)
	}
	if upd.Pinned != nil {
		m.Pinned = *upd.Pinned
	}
	if upd.LastAccessedAt != nil && upd.LastAccessedAt.After(m.CreatedAt) {
		m.LastAccessedAt = *upd.LastAccessedAt
	}
}
