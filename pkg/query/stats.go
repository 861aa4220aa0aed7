package query

import "github.com/lucidnotes/memvault/pkg/memory"

// Stats summarizes a memory snapshot. All values are recomputed on demand;
// nothing is cached.
type Stats struct {
	// Count is the total number of memories.
	Count int

	// PinnedCount is the number of pinned memories.
	PinnedCount int

	// AverageImportance is the mean importance, 0 for an empty set.
	AverageImportance float64

	// ByType breaks the count down per memory type.
	ByType map[memory.MemoryType]int

	// MostActiveDay is the "2006-01-02" day with the most created
	// memories, empty for an empty set. Ties resolve to the later day.
	MostActiveDay string
}

// Compute derives statistics from a snapshot.
func Compute(snapshot []*memory.Memory) Stats {
	stats := Stats{ByType: make(map[memory.MemoryType]int)}
	if len(snapshot) == 0 {
		return stats
	}

	var sum float64
	for _, m := range snapshot {
		stats.Count++
		if m.Pinned {
			stats.PinnedCount++
		}
		sum += m.Importance
		stats.ByType[m.Type]++
	}
	stats.AverageImportance = sum / float64(stats.Count)

	best := 0
	for day, group := range GroupByDay(snapshot) {
		if len(group) > best || (len(group) == best && day > stats.MostActiveDay) {
			best = len(group)
			stats.MostActiveDay = day
		}
	}
	return stats
}
