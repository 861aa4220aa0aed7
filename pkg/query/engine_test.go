package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucidnotes/memvault/pkg/memory"
)

func snapshot() []*memory.Memory {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	return []*memory.Memory{
		{
			ID: 1, Content: "Prefers tea over coffee",
			Type: memory.TypeJournalFact, Importance: 0.6,
			Tags:      []string{"preferences"},
			CreatedAt: base, LastAccessedAt: base.Add(3 * time.Hour),
		},
		{
			ID: 2, Content: "Sister Ana lives in Lisbon",
			Type: memory.TypeConversationFact, Importance: 0.8,
			Tags:      []string{"family"},
			CreatedAt: base.Add(time.Hour), LastAccessedAt: base.Add(time.Hour),
		},
		{
			ID: 3, Content: "Started a new pottery class",
			Type: memory.TypeJournalFact, Importance: 0.4,
			Tags:      []string{"hobbies", "Pottery"},
			CreatedAt: base.Add(24 * time.Hour), LastAccessedAt: base.Add(30 * time.Hour),
			Pinned: true,
		},
	}
}

func ids(memories []*memory.Memory) []int64 {
	out := make([]int64, 0, len(memories))
	for _, m := range memories {
		out = append(out, m.ID)
	}
	return out
}

func TestFilterBlankReturnsAll(t *testing.T) {
	snap := snapshot()
	assert.Len(t, Filter(snap, ""), 3)
	assert.Len(t, Filter(snap, "   "), 3)

	// The returned slice is a copy, not the input.
	out := Filter(snap, "")
	out[0] = nil
	assert.NotNil(t, snap[0])
}

func TestFilterContent(t *testing.T) {
	got := Filter(snapshot(), "LISBON")
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].ID)
}

func TestFilterTag(t *testing.T) {
	got := Filter(snapshot(), "pottery")
	assert.Equal(t, []int64{3}, ids(got))
}

func TestFilterTypeDisplayName(t *testing.T) {
	got := Filter(snapshot(), "journal fact")
	assert.Equal(t, []int64{1, 3}, ids(got))
}

func TestFilterNoMatch(t *testing.T) {
	assert.Empty(t, Filter(snapshot(), "submarine"))
}

func TestFilterByType(t *testing.T) {
	got := FilterByType(snapshot(), memory.TypeConversationFact)
	assert.Equal(t, []int64{2}, ids(got))
}

func TestFilterByTag(t *testing.T) {
	got := FilterByTag(snapshot(), "POTTERY")
	assert.Equal(t, []int64{3}, ids(got))

	// Exact match only, no substrings.
	assert.Empty(t, FilterByTag(snapshot(), "pot"))
}

func TestSortModes(t *testing.T) {
	snap := snapshot()

	assert.Equal(t, []int64{3, 2, 1}, ids(Sort(snap, SortByRecency)))
	assert.Equal(t, []int64{2, 1, 3}, ids(Sort(snap, SortByImportance)))
	assert.Equal(t, []int64{3, 1, 2}, ids(Sort(snap, SortByAccess)))

	// Input order is untouched.
	assert.Equal(t, []int64{1, 2, 3}, ids(snap))
}

func TestGroupByDay(t *testing.T) {
	groups := GroupByDay(snapshot())
	require.Len(t, groups, 2)
	assert.Len(t, groups["2026-03-10"], 2)
	assert.Len(t, groups["2026-03-11"], 1)
}
