// Package intelligence implements the decision components of the pipeline:
// importance scoring, duplicate rejection, and capacity eviction planning.
package intelligence

import (
	"math"
	"strings"

	"github.com/lucidnotes/memvault/pkg/memory"
)

// Scorer maps candidate content to an importance value in [0,1].
//
// Scoring is a pure function of (content, type, suggested importance):
// identical input always yields the same score. Deduplication and eviction
// tie-breaking depend on that stability, so the scorer uses no randomness
// and no LLM round trip.
type Scorer struct{}

// NewScorer creates a scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// typeBaseline is the starting score when the extractor suggested nothing.
func typeBaseline(t memory.MemoryType) float64 {
	switch t {
	case memory.TypeUserProvided:
		return 0.6
	case memory.TypeReflection:
		return 0.55
	case memory.TypeJournalFact:
		return 0.5
	case memory.TypeConversationFact:
		return 0.45
	case memory.TypeConversation:
		return 0.35
	default:
		return 0.4
	}
}

// Keyword groups that shift the baseline. Matching is case-insensitive
// substring matching, the cheapest signal that works on short fact strings.
var (
	strongSignals = []string{
		"always", "never", "allergic", "diagnos", "birthday", "anniversary",
		"married", "engaged", "divorced", "died", "born", "moved",
		"promoted", "fired", "hired", "graduated",
	}
	preferenceSignals = []string{
		"love", "hate", "favorite", "prefer", "like", "dislike", "enjoy",
	}
	relationSignals = []string{
		"mother", "father", "sister", "brother", "wife", "husband",
		"partner", "daughter", "son", "friend",
	}
	transientSignals = []string{
		"today was", "this morning", "right now", "at the moment",
	}
)

// Score computes the importance of a candidate. When suggested > 0 it is
// used as the base, otherwise the per-type baseline applies; keyword and
// length signals then nudge the result, clamped to [0,1].
func (s *Scorer) Score(content string, t memory.MemoryType, suggested float64) float64 {
	base := typeBaseline(t)
	if suggested > 0 {
		base = math.Min(suggested, 1.0)
	}

	lower := strings.ToLower(content)

	var adj float64
	adj += matchBoost(lower, strongSignals, 0.1, 0.2)
	adj += matchBoost(lower, preferenceSignals, 0.05, 0.1)
	adj += matchBoost(lower, relationSignals, 0.05, 0.1)
	adj -= matchBoost(lower, transientSignals, 0.1, 0.1)

	if len(content) < 15 {
		adj -= 0.05
	}

	return clamp01(base + adj)
}

func matchBoost(lower string, signals []string, per, cap float64) float64 {
	var boost float64
	for _, sig := range signals {
		if strings.Contains(lower, sig) {
			boost += per
		}
	}
	return math.Min(boost, cap)
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
