package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lucidnotes/memvault/pkg/memory"
)

func TestComputeEmpty(t *testing.T) {
	stats := Compute(nil)
	assert.Equal(t, 0, stats.Count)
	assert.Equal(t, 0.0, stats.AverageImportance)
	assert.Empty(t, stats.MostActiveDay)
	assert.Empty(t, stats.ByType)
}

func TestCompute(t *testing.T) {
	stats := Compute(snapshot())

	assert.Equal(t, 3, stats.Count)
	assert.Equal(t, 1, stats.PinnedCount)
	assert.InDelta(t, 0.6, stats.AverageImportance, 1e-9)
	assert.Equal(t, 2, stats.ByType[memory.TypeJournalFact])
	assert.Equal(t, 1, stats.ByType[memory.TypeConversationFact])
	assert.Equal(t, "2026-03-10", stats.MostActiveDay)
}

func TestComputeMostActiveDayTie(t *testing.T) {
	day1 := time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)
	day2 := time.Date(2026, 3, 11, 12, 0, 0, 0, time.Local)
	snap := []*memory.Memory{
		{ID: 1, CreatedAt: day1},
		{ID: 2, CreatedAt: day2},
	}

	stats := Compute(snap)
	assert.Equal(t, "2026-03-11", stats.MostActiveDay)
}
