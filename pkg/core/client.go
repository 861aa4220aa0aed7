package core

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/lucidnotes/memvault/pkg/export"
	"github.com/lucidnotes/memvault/pkg/extraction"
	"github.com/lucidnotes/memvault/pkg/intelligence"
	"github.com/lucidnotes/memvault/pkg/llm"
	ollamaLLM "github.com/lucidnotes/memvault/pkg/llm/ollama"
	openaiLLM "github.com/lucidnotes/memvault/pkg/llm/openai"
	"github.com/lucidnotes/memvault/pkg/memory"
	"github.com/lucidnotes/memvault/pkg/query"
	"github.com/lucidnotes/memvault/pkg/storage"
	postgresStore "github.com/lucidnotes/memvault/pkg/storage/postgres"
	sqliteStore "github.com/lucidnotes/memvault/pkg/storage/sqlite"
)

// Client is the memory subsystem's public surface.
//
// It owns the canonical memory set through the encrypted store and runs the
// full pipeline: extraction, importance scoring, duplicate rejection,
// persistence, and capacity eviction. Every read hands out snapshot copies;
// callers never hold canonical records.
//
// The client is safe for concurrent use. Writes serialize through a single
// writer lock; reads of committed data proceed concurrently.
type Client struct {
	store     storage.Store
	provider  llm.Provider
	extractor *extraction.Extractor
	scorer    *intelligence.Scorer
	node      *snowflake.Node

	mu       sync.RWMutex
	settings memory.Settings
}

// NewClient creates a client from configuration: it opens the encrypted
// store, connects the generation provider, and loads persisted settings
// (falling back to cfg.Settings on first run).
func NewClient(cfg *Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	key, err := cfg.DecodeKey()
	if err != nil {
		return nil, err
	}

	store, err := initStore(cfg, key)
	if err != nil {
		return nil, NewMemoryError("NewClient", err)
	}

	provider, err := initLLM(cfg.LLM)
	if err != nil {
		_ = store.Close()
		return nil, NewMemoryError("NewClient", err)
	}

	client, err := New(store, provider, cfg.Settings)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return client, nil
}

// New builds a client from explicitly constructed dependencies. The store
// and provider are owned by the client afterwards and closed with it.
// Settings persisted in the store take precedence over the initial value.
func New(store storage.Store, provider llm.Provider, initial memory.Settings) (*Client, error) {
	if err := initial.Validate(); err != nil {
		return nil, NewMemoryError("New", ErrInvalidConfig)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, NewMemoryError("New", err)
	}

	client := &Client{
		store:     store,
		provider:  provider,
		extractor: extraction.NewExtractor(provider),
		scorer:    intelligence.NewScorer(),
		node:      node,
		settings:  initial,
	}

	ctx := context.Background()
	persisted, err := store.LoadSettings(ctx)
	switch {
	case err == nil:
		if persisted.Validate() == nil {
			client.settings = persisted
		}
	case isNotFound(err):
		if err := store.SaveSettings(ctx, initial); err != nil {
			return nil, NewMemoryError("New", err)
		}
	default:
		return nil, NewMemoryError("New", err)
	}

	return client, nil
}

// Extract runs the automatic pipeline over one unit of source text and
// returns the IDs of the memories written, in extraction order.
//
// Failure of the generation capability is soft: the method logs, returns no
// IDs, and reports ErrExtractionUnavailable so batch callers can continue.
// A pinned-only overflow reports ErrCapacityExceededByPins alongside the
// IDs that were written; it is a warning, not a failure.
func (c *Client) Extract(ctx context.Context, sourceText, sourceID string) ([]int64, error) {
	c.mu.RLock()
	settings := c.settings
	c.mu.RUnlock()

	if !settings.AutomaticExtraction {
		return nil, nil
	}

	candidates, err := c.extractor.Extract(ctx, sourceText)
	if err != nil {
		log.Printf("memvault: extraction unavailable for source %q: %v", sourceID, err)
		return nil, NewMemoryError("Extract", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	existing, err := c.store.GetAll(ctx)
	if err != nil {
		return nil, NewMemoryError("Extract", err)
	}
	dedup := intelligence.NewDeduplicator(existing)

	var ids []int64
	var pinnedOverflow bool
	for _, cand := range candidates {
		score := c.scorer.Score(cand.Content, cand.Type, cand.SuggestedImportance)
		if score < settings.MinImportanceThreshold {
			continue
		}
		if dedup.IsDuplicate(cand.Content) {
			continue
		}

		now := time.Now()
		m := &memory.Memory{
			ID:             c.node.Generate().Int64(),
			Content:        strings.TrimSpace(cand.Content),
			Type:           cand.Type,
			Importance:     score,
			CreatedAt:      now,
			LastAccessedAt: now,
			SourceEntryID:  sourceID,
		}
		if err := c.store.Insert(ctx, m); err != nil {
			return ids, NewMemoryError("Extract", err)
		}
		dedup.Add(m.Content)
		ids = append(ids, m.ID)

		overflow, err := c.enforceCapacityLocked(ctx)
		if err != nil {
			return ids, NewMemoryError("Extract", err)
		}
		pinnedOverflow = pinnedOverflow || overflow
	}

	if pinnedOverflow {
		return ids, NewMemoryError("Extract", ErrCapacityExceededByPins)
	}
	return ids, nil
}

// Create stores a memory directly (the user-provided path). It bypasses
// extraction and threshold gating but is still subject to capacity
// eviction. Content must be non-empty after trimming.
func (c *Client) Create(ctx context.Context, content string, t memory.MemoryType, opts ...CreateOption) (*memory.Memory, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, NewMemoryError("Create", ErrInvalidInput)
	}
	if !t.Valid() {
		return nil, NewMemoryError("Create", ErrInvalidInput)
	}

	options := applyCreateOptions(opts)

	importance := c.scorer.Score(content, t, 0)
	if options.Importance != nil {
		importance = clamp01(*options.Importance)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	m := &memory.Memory{
		ID:             c.node.Generate().Int64(),
		Content:        content,
		Type:           t,
		Importance:     importance,
		Tags:           memory.DedupeTags(options.Tags),
		Pinned:         options.Pinned,
		CreatedAt:      now,
		LastAccessedAt: now,
		SourceEntryID:  options.SourceEntryID,
	}
	if err := c.store.Insert(ctx, m); err != nil {
		return nil, NewMemoryError("Create", err)
	}

	overflow, err := c.enforceCapacityLocked(ctx)
	if err != nil {
		return nil, NewMemoryError("Create", err)
	}
	if overflow {
		return m.Clone(), NewMemoryError("Create", ErrCapacityExceededByPins)
	}
	return m.Clone(), nil
}

// ListAll returns a snapshot of every memory, newest first.
func (c *Client) ListAll(ctx context.Context) ([]*memory.Memory, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	all, err := c.store.GetAll(ctx)
	if err != nil {
		return nil, NewMemoryError("ListAll", err)
	}
	return cloneAll(all), nil
}

// Get returns one memory by ID.
func (c *Client) Get(ctx context.Context, id int64) (*memory.Memory, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, NewMemoryError("Get", err)
	}
	return m.Clone(), nil
}

// Touch records that a memory was used for a response, bumping
// LastAccessedAt. The timestamp never moves below CreatedAt.
func (c *Client) Touch(ctx context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	err := c.store.UpdateFields(ctx, id, storage.FieldUpdate{LastAccessedAt: &now})
	if err != nil {
		return NewMemoryError("Touch", err)
	}
	return nil
}

// Search returns the memories matching q (see query.Filter), newest first.
// An empty query returns the full set.
func (c *Client) Search(ctx context.Context, q string) ([]*memory.Memory, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	all, err := c.store.GetAll(ctx)
	if err != nil {
		return nil, NewMemoryError("Search", err)
	}
	return cloneAll(query.Filter(all, q)), nil
}

// Stats computes on-demand statistics over the current snapshot.
func (c *Client) Stats(ctx context.Context) (query.Stats, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	all, err := c.store.GetAll(ctx)
	if err != nil {
		return query.Stats{}, NewMemoryError("Stats", err)
	}
	return query.Compute(all), nil
}

// SetPinned pins or unpins a memory.
func (c *Client) SetPinned(ctx context.Context, id int64, pinned bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.store.UpdateFields(ctx, id, storage.FieldUpdate{Pinned: &pinned})
	if err != nil {
		return NewMemoryError("SetPinned", err)
	}
	return nil
}

// SetTags replaces a memory's tags, collapsing duplicates.
func (c *Client) SetTags(ctx context.Context, id int64, tags []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.store.UpdateFields(ctx, id, storage.FieldUpdate{Tags: &tags})
	if err != nil {
		return NewMemoryError("SetTags", err)
	}
	return nil
}

// CleanAllFormatting strips residual markup from every stored memory's
// content in place. Returns the number of memories rewritten.
func (c *Client) CleanAllFormatting(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	all, err := c.store.GetAll(ctx)
	if err != nil {
		return 0, NewMemoryError("CleanAllFormatting", err)
	}

	cleaned := 0
	for _, m := range all {
		next := memory.CleanFormatting(m.Content)
		if next == m.Content || next == "" {
			continue
		}
		err := c.store.UpdateFields(ctx, m.ID, storage.FieldUpdate{Content: &next})
		if err != nil {
			return cleaned, NewMemoryError("CleanAllFormatting", err)
		}
		cleaned++
	}
	return cleaned, nil
}

// Delete removes one memory. Deleting a missing ID is a no-op, not an
// error. The source entry, if any, is unaffected.
func (c *Client) Delete(ctx context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.Delete(ctx, id); err != nil {
		return NewMemoryError("Delete", err)
	}
	return nil
}

// DeleteMany removes a set of memories. Missing IDs are skipped silently.
func (c *Client) DeleteMany(ctx context.Context, ids []int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.DeleteMany(ctx, ids); err != nil {
		return NewMemoryError("DeleteMany", err)
	}
	return nil
}

// ClearAll removes every memory. Unlike eviction, an explicit clear
// overrides pin protection.
func (c *Client) ClearAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.DeleteAll(ctx); err != nil {
		return NewMemoryError("ClearAll", err)
	}
	return nil
}

// Settings returns the current settings value.
func (c *Client) Settings() memory.Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings
}

// SettingsUpdate names the settings fields to change; nil fields keep
// their current value.
type SettingsUpdate struct {
	AutomaticExtraction    *bool
	MaxMemoryCount         *int
	MinImportanceThreshold *float64
}

// UpdateSettings validates and commits a settings change. Out-of-range
// values are rejected with ErrInvalidConfig and the prior configuration is
// retained. Shrinking MaxMemoryCount triggers eviction immediately; a
// pinned-only overflow is reported as the ErrCapacityExceededByPins
// warning alongside the committed settings.
func (c *Client) UpdateSettings(ctx context.Context, upd SettingsUpdate) (memory.Settings, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.settings
	if upd.AutomaticExtraction != nil {
		next.AutomaticExtraction = *upd.AutomaticExtraction
	}
	if upd.MaxMemoryCount != nil {
		next.MaxMemoryCount = *upd.MaxMemoryCount
	}
	if upd.MinImportanceThreshold != nil {
		next.MinImportanceThreshold = *upd.MinImportanceThreshold
	}

	if err := next.Validate(); err != nil {
		return c.settings, NewMemoryError("UpdateSettings", ErrInvalidConfig)
	}
	if err := c.store.SaveSettings(ctx, next); err != nil {
		return c.settings, NewMemoryError("UpdateSettings", err)
	}

	shrunk := next.MaxMemoryCount < c.settings.MaxMemoryCount
	c.settings = next

	if shrunk {
		overflow, err := c.enforceCapacityLocked(ctx)
		if err != nil {
			return c.settings, NewMemoryError("UpdateSettings", err)
		}
		if overflow {
			return c.settings, NewMemoryError("UpdateSettings", ErrCapacityExceededByPins)
		}
	}
	return c.settings, nil
}

// Export renders the given memories (all of them when ids is nil) to a
// text blob. IDs not present in the store are skipped.
func (c *Client) Export(ctx context.Context, ids []int64, format export.Format, includeMetadata bool) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	all, err := c.store.GetAll(ctx)
	if err != nil {
		return "", NewMemoryError("Export", err)
	}

	selected := all
	if ids != nil {
		want := make(map[int64]struct{}, len(ids))
		for _, id := range ids {
			want[id] = struct{}{}
		}
		selected = make([]*memory.Memory, 0, len(ids))
		for _, m := range all {
			if _, ok := want[m.ID]; ok {
				selected = append(selected, m)
			}
		}
	}

	blob, err := export.Render(selected, format, includeMetadata)
	if err != nil {
		return "", NewMemoryError("Export", err)
	}
	return blob, nil
}

// Import reconstructs memories from a JSON export blob, preserving
// content, type, and importance exactly. Normalized-content duplicates of
// existing memories are skipped. Returns the number of memories written.
// A pinned-only overflow reports ErrCapacityExceededByPins alongside the
// count; it is a warning, not a failure.
func (c *Client) Import(ctx context.Context, blob string) (int, error) {
	records, err := export.Parse(blob)
	if err != nil {
		return 0, NewMemoryError("Import", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	existing, err := c.store.GetAll(ctx)
	if err != nil {
		return 0, NewMemoryError("Import", err)
	}
	dedup := intelligence.NewDeduplicator(existing)

	imported := 0
	for _, r := range records {
		if dedup.IsDuplicate(r.Content) {
			continue
		}
		now := time.Now()
		m := &memory.Memory{
			ID:             c.node.Generate().Int64(),
			Content:        strings.TrimSpace(r.Content),
			Type:           r.Type,
			Importance:     r.Importance,
			Tags:           memory.DedupeTags(r.Tags),
			Pinned:         r.Pinned,
			CreatedAt:      now,
			LastAccessedAt: now,
			SourceEntryID:  r.SourceEntryID,
		}
		if err := c.store.Insert(ctx, m); err != nil {
			return imported, NewMemoryError("Import", err)
		}
		dedup.Add(m.Content)
		imported++
	}

	overflow, err := c.enforceCapacityLocked(ctx)
	if err != nil {
		return imported, NewMemoryError("Import", err)
	}
	if overflow {
		return imported, NewMemoryError("Import", ErrCapacityExceededByPins)
	}
	return imported, nil
}

// NewSearcher returns a debounced searcher backed by this client, for
// keystroke-driven callers. Close it when done.
func (c *Client) NewSearcher(delay time.Duration, deliver query.DeliverFunc) *query.DebouncedSearcher {
	return query.NewDebouncedSearcher(delay, c.Search, deliver)
}

// Close closes the store and the generation provider.
func (c *Client) Close() error {
	var first error
	if c.store != nil {
		if err := c.store.Close(); err != nil {
			first = err
		}
	}
	if c.provider != nil {
		if err := c.provider.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// enforceCapacityLocked evicts the lowest-priority non-pinned memories
// until the count is within MaxMemoryCount. Caller holds the write lock.
// Returns true when the overflow consists entirely of pinned memories.
func (c *Client) enforceCapacityLocked(ctx context.Context) (bool, error) {
	count, err := c.store.Count(ctx)
	if err != nil {
		return false, err
	}
	if count <= c.settings.MaxMemoryCount {
		return false, nil
	}

	all, err := c.store.GetAll(ctx)
	if err != nil {
		return false, err
	}
	plan := intelligence.PlanEviction(all, c.settings.MaxMemoryCount)
	if len(plan.Evict) > 0 {
		if err := c.store.DeleteMany(ctx, plan.Evict); err != nil {
			return false, err
		}
	}
	return plan.PinnedOverflow, nil
}

func initStore(cfg *Config, key []byte) (storage.Store, error) {
	switch cfg.Store.Provider {
	case "sqlite":
		return sqliteStore.NewClient(&sqliteStore.Config{
			DBPath: cfg.Store.DBPath,
			Key:    key,
		})
	case "postgres":
		return postgresStore.NewClient(&postgresStore.Config{
			Host:     cfg.Store.Host,
			Port:     cfg.Store.Port,
			User:     cfg.Store.User,
			Password: cfg.Store.Password,
			DBName:   cfg.Store.DBName,
			SSLMode:  cfg.Store.SSLMode,
			Key:      key,
		})
	}
	return nil, ErrInvalidConfig
}

func initLLM(cfg LLMConfig) (llm.Provider, error) {
	switch cfg.Provider {
	case "ollama":
		return ollamaLLM.NewClient(&ollamaLLM.Config{
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
	case "openai":
		return openaiLLM.NewClient(&openaiLLM.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
	case "none", "":
		// Extraction disabled; every Extract fails soft.
		return nil, nil
	}
	return nil, ErrInvalidConfig
}

func cloneAll(memories []*memory.Memory) []*memory.Memory {
	out := make([]*memory.Memory, len(memories))
	for i, m := range memories {
		out[i] = m.Clone()
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func isNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}
