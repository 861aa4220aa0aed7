package intelligence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lucidnotes/memvault/pkg/memory"
)

func mem(id int64, importance float64, accessed time.Time) *memory.Memory {
	return &memory.Memory{
		ID:             id,
		Content:        "m",
		Type:           memory.TypeJournalFact,
		Importance:     importance,
		CreatedAt:      accessed,
		LastAccessedAt: accessed,
	}
}

func TestPlanEvictionUnderCapacity(t *testing.T) {
	now := time.Now()
	all := []*memory.Memory{mem(1, 0.5, now), mem(2, 0.9, now)}

	plan := PlanEviction(all, 5)
	assert.Empty(t, plan.Evict)
	assert.False(t, plan.PinnedOverflow)
}

func TestPlanEvictionLowestImportanceFirst(t *testing.T) {
	base := time.Now()
	// Two records tie at importance 0.1; the older-accessed one must go.
	all := []*memory.Memory{
		mem(1, 0.9, base),
		mem(2, 0.1, base.Add(1*time.Minute)),
		mem(3, 0.5, base),
		mem(4, 0.1, base.Add(5*time.Minute)),
		mem(5, 0.8, base),
	}

	plan := PlanEviction(all, 4)
	assert.Equal(t, []int64{2}, plan.Evict)
	assert.False(t, plan.PinnedOverflow)
}

func TestPlanEvictionCreatedAtTieBreak(t *testing.T) {
	accessed := time.Now()
	a := mem(1, 0.3, accessed)
	a.CreatedAt = accessed.Add(-2 * time.Hour)
	b := mem(2, 0.3, accessed)
	b.CreatedAt = accessed.Add(-1 * time.Hour)

	plan := PlanEviction([]*memory.Memory{b, a, mem(3, 0.9, accessed)}, 2)
	assert.Equal(t, []int64{1}, plan.Evict)
}

func TestPlanEvictionSkipsPinned(t *testing.T) {
	now := time.Now()
	pinned := mem(1, 0.05, now)
	pinned.Pinned = true
	all := []*memory.Memory{pinned, mem(2, 0.4, now), mem(3, 0.6, now)}

	plan := PlanEviction(all, 2)
	assert.Equal(t, []int64{2}, plan.Evict)
	assert.False(t, plan.PinnedOverflow)
}

func TestPlanEvictionPinnedOverflow(t *testing.T) {
	now := time.Now()
	p1 := mem(1, 0.9, now)
	p1.Pinned = true
	p2 := mem(2, 0.8, now)
	p2.Pinned = true
	p3 := mem(3, 0.7, now)
	p3.Pinned = true
	all := []*memory.Memory{p1, p2, p3, mem(4, 0.2, now)}

	plan := PlanEviction(all, 2)
	assert.True(t, plan.PinnedOverflow)
	assert.Equal(t, []int64{4}, plan.Evict)
}
