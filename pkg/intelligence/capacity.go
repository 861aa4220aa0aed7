package intelligence

import (
	"sort"

	"github.com/lucidnotes/memvault/pkg/memory"
)

// EvictionPlan is the result of a capacity check.
type EvictionPlan struct {
	// Evict lists the IDs to remove, lowest-priority first.
	Evict []int64

	// PinnedOverflow is true when the store exceeds capacity even after
	// every non-pinned memory is evicted. The overflow is left in place;
	// pins are never broken automatically.
	PinnedOverflow bool
}

// PlanEviction decides which memories to evict so the total count drops to
// maxCount or below.
//
// Eviction order among non-pinned memories: lowest importance first; on
// equal importance the oldest LastAccessedAt goes first; if still tied, the
// oldest CreatedAt. Pinned memories are never selected.
func PlanEviction(all []*memory.Memory, maxCount int) EvictionPlan {
	over := len(all) - maxCount
	if over <= 0 {
		return EvictionPlan{}
	}

	candidates := make([]*memory.Memory, 0, len(all))
	for _, m := range all {
		if !m.Pinned {
			candidates = append(candidates, m)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Importance != b.Importance {
			return a.Importance < b.Importance
		}
		if !a.LastAccessedAt.Equal(b.LastAccessedAt) {
			return a.LastAccessedAt.Before(b.LastAccessedAt)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})

	plan := EvictionPlan{}
	if over > len(candidates) {
		plan.PinnedOverflow = true
		over = len(candidates)
	}
	for i := 0; i < over; i++ {
		plan.Evict = append(plan.Evict, candidates[i].ID)
	}
	return plan
}
