package intelligence

import "github.com/lucidnotes/memvault/pkg/memory"

// Deduplicator rejects candidates whose content exactly matches an existing
// memory after whitespace and case normalization.
//
// The policy is deliberately conservative: exact normalized match only.
// A semantic similarity threshold would be a separate, tunable addition and
// must never weaken the exact-match guarantee.
type Deduplicator struct {
	seen map[string]struct{}
}

// NewDeduplicator builds a deduplicator primed with the existing store
// contents.
func NewDeduplicator(existing []*memory.Memory) *Deduplicator {
	d := &Deduplicator{seen: make(map[string]struct{}, len(existing))}
	for _, m := range existing {
		d.seen[memory.NormalizeContent(m.Content)] = struct{}{}
	}
	return d
}

// IsDuplicate reports whether content duplicates a known memory.
func (d *Deduplicator) IsDuplicate(content string) bool {
	_, ok := d.seen[memory.NormalizeContent(content)]
	return ok
}

// Add records content as known, so later candidates in the same batch are
// checked against it too.
func (d *Deduplicator) Add(content string) {
	d.seen[memory.NormalizeContent(content)] = struct{}{}
}
