// Package memory defines the core domain types shared by every layer of
// memvault: the Memory record, its closed type enum, and the subsystem
// settings.
package memory

import "time"

// Memory is a single durable fact extracted from user-authored text or
// provided directly by the user.
//
// Invariants held by every persisted record:
//   - Content is non-empty after trimming whitespace
//   - 0.0 <= Importance <= 1.0
//   - LastAccessedAt >= CreatedAt
type Memory struct {
	// ID is the unique identifier of the memory, assigned at creation and
	// never reused.
	ID int64 `json:"id"`

	// Content is the text of the fact.
	Content string `json:"content"`

	// Type classifies where the memory came from. It never changes after
	// creation.
	Type MemoryType `json:"type"`

	// Importance is the retention priority in [0,1]. Lower values are
	// evicted first when the store is over capacity.
	Importance float64 `json:"importance"`

	// Tags are short user-visible labels. Duplicates are collapsed on
	// write; order is preserved but irrelevant for equality.
	Tags []string `json:"tags,omitempty"`

	// Pinned memories are exempt from automatic capacity eviction.
	Pinned bool `json:"pinned"`

	// CreatedAt is set once at creation.
	CreatedAt time.Time `json:"created_at"`

	// LastAccessedAt starts equal to CreatedAt and is bumped whenever the
	// memory is read for use in a response.
	LastAccessedAt time.Time `json:"last_accessed_at"`

	// SourceEntryID is a weak back-reference to the journal entry or
	// conversation turn the memory was extracted from. Empty for
	// user-provided memories. It is a lookup key only: deleting the source
	// entry never cascades here, and deleting the memory never touches the
	// source.
	SourceEntryID string `json:"source_entry_id,omitempty"`
}

// Clone returns a deep copy of the memory. Callers outside the store only
// ever hold clones, never the canonical record.
func (m *Memory) Clone() *Memory {
	cp := *m
	if m.Tags != nil {
		cp.Tags = append([]string(nil), m.Tags...)
	}
	return &cp
}

// MemoryType is the closed set of memory classifications.
type MemoryType string

const (
	// TypeConversation is a whole-conversation summary memory.
	TypeConversation MemoryType = "conversation"

	// TypeConversationFact is a discrete fact extracted from a chat turn.
	TypeConversationFact MemoryType = "conversation_fact"

	// TypeJournalFact is a discrete fact extracted from a journal entry.
	TypeJournalFact MemoryType = "journal_fact"

	// TypeUserProvided is a memory the user entered directly.
	TypeUserProvided MemoryType = "user_provided"

	// TypeReflection is an insight derived across entries rather than
	// stated in any single one.
	TypeReflection MemoryType = "reflection"
)

// AllTypes lists every valid MemoryType.
var AllTypes = []MemoryType{
	TypeConversation,
	TypeConversationFact,
	TypeJournalFact,
	TypeUserProvided,
	TypeReflection,
}

// Valid reports whether t is one of the known memory types.
func (t MemoryType) Valid() bool {
	switch t {
	case TypeConversation, TypeConversationFact, TypeJournalFact, TypeUserProvided, TypeReflection:
		return true
	}
	return false
}

// DisplayName returns the human-readable name used in UIs and searched by
// the query engine.
func (t MemoryType) DisplayName() string {
	switch t {
	case TypeConversation:
		return "Conversation"
	case TypeConversationFact:
		return "Conversation Fact"
	case TypeJournalFact:
		return "Journal Fact"
	case TypeUserProvided:
		return "User Provided"
	case TypeReflection:
		return "Reflection"
	default:
		return string(t)
	}
}

// ParseMemoryType maps a wire/user string to a MemoryType.
//
// Returns the parsed type and true on success. Unknown strings return
// TypeJournalFact and false so extraction can fall back conservatively.
func ParseMemoryType(s string) (MemoryType, bool) {
	t := MemoryType(s)
	if t.Valid() {
		return t, true
	}
	return TypeJournalFact, false
}

// Entry is a unit of source text handed to the extractor by the external
// journal or conversation provider. The subsystem never mutates entries.
type Entry struct {
	// Text is the raw entry body or conversation transcript.
	Text string

	// SourceID identifies the originating entry or turn.
	SourceID string

	// Timestamp is when the entry was authored.
	Timestamp time.Time
}
