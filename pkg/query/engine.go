// Package query implements read-only projections over a memory snapshot:
// substring filtering, sorting, calendar grouping, and on-demand statistics.
//
// Every function takes a snapshot slice and returns a fresh result; nothing
// here mutates the store or holds cross-call state. The working set is
// bounded (at most 5000 records), so O(n) recomputation per query is cheap.
package query

import (
	"sort"
	"strings"

	"github.com/lucidnotes/memvault/pkg/memory"
)

// SortMode selects the result ordering.
type SortMode int

const (
	// SortByRecency orders by CreatedAt, newest first.
	SortByRecency SortMode = iota

	// SortByImportance orders by Importance descending, then recency.
	SortByImportance

	// SortByAccess orders by LastAccessedAt, most recently used first.
	SortByAccess
)

// Filter returns the memories matching q: case-insensitive substring match
// over content, tags, and the type display name. An empty or blank q
// returns the full set. The input slice is never modified.
func Filter(snapshot []*memory.Memory, q string) []*memory.Memory {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		out := make([]*memory.Memory, len(snapshot))
		copy(out, snapshot)
		return out
	}

	out := make([]*memory.Memory, 0, len(snapshot))
	for _, m := range snapshot {
		if matches(m, q) {
			out = append(out, m)
		}
	}
	return out
}

func matches(m *memory.Memory, q string) bool {
	if strings.Contains(strings.ToLower(m.Content), q) {
		return true
	}
	if strings.Contains(strings.ToLower(m.Type.DisplayName()), q) {
		return true
	}
	for _, tag := range m.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// FilterByType returns the memories of the given type.
func FilterByType(snapshot []*memory.Memory, t memory.MemoryType) []*memory.Memory {
	out := make([]*memory.Memory, 0, len(snapshot))
	for _, m := range snapshot {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

// FilterByTag returns the memories carrying the tag (case-insensitive exact
// match).
func FilterByTag(snapshot []*memory.Memory, tag string) []*memory.Memory {
	tag = strings.ToLower(tag)
	out := make([]*memory.Memory, 0, len(snapshot))
	for _, m := range snapshot {
		for _, t := range m.Tags {
			if strings.ToLower(t) == tag {
				out = append(out, m)
				break
			}
		}
	}
	return out
}

// Sort returns a sorted copy of the snapshot.
func Sort(snapshot []*memory.Memory, mode SortMode) []*memory.Memory {
	out := make([]*memory.Memory, len(snapshot))
	copy(out, snapshot)

	switch mode {
	case SortByImportance:
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Importance != out[j].Importance {
				return out[i].Importance > out[j].Importance
			}
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
	case SortByAccess:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].LastAccessedAt.After(out[j].LastAccessedAt)
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
	}
	return out
}

// GroupByDay buckets memories by the calendar day of CreatedAt, keyed
// "2006-01-02" in local time. Used for activity summaries.
func GroupByDay(snapshot []*memory.Memory) map[string][]*memory.Memory {
	groups := make(map[string][]*memory.Memory)
	for _, m := range snapshot {
		day := m.CreatedAt.Format("2006-01-02")
		groups[day] = append(groups[day], m)
	}
	return groups
}
