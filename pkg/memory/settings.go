package memory

import "fmt"

// Settings bounds.
const (
	MinMemoryCount     = 100
	MaxMemoryCount     = 5000
	DefaultMemoryCount = 1000

	DefaultImportanceThreshold = 0.1
)

// Settings is the process-wide subsystem configuration. It is persisted
// across sessions alongside the memories themselves and passed explicitly to
// the components that consume it.
type Settings struct {
	// AutomaticExtraction enables the extraction pipeline. When false,
	// Extract and ProcessEntries are no-ops.
	AutomaticExtraction bool `json:"automatic_extraction"`

	// MaxMemoryCount is the capacity bound enforced by eviction.
	// Range [100, 5000].
	MaxMemoryCount int `json:"max_memory_count"`

	// MinImportanceThreshold discards extracted candidates scoring below
	// it before they ever reach the store. Range [0, 1].
	MinImportanceThreshold float64 `json:"min_importance_threshold"`
}

// DefaultSettings returns the documented defaults: extraction on, capacity
// 1000, threshold 0.1.
func DefaultSettings() Settings {
	return Settings{
		AutomaticExtraction:    true,
		MaxMemoryCount:         DefaultMemoryCount,
		MinImportanceThreshold: DefaultImportanceThreshold,
	}
}

// Validate checks every field against its allowed range.
func (s Settings) Validate() error {
	if s.MaxMemoryCount < MinMemoryCount || s.MaxMemoryCount > MaxMemoryCount {
		return fmt.Errorf("max_memory_count %d out of range [%d, %d]",
			s.MaxMemoryCount, MinMemoryCount, MaxMemoryCount)
	}
	if s.MinImportanceThreshold < 0.0 || s.MinImportanceThreshold > 1.0 {
		return fmt.Errorf("min_importance_threshold %v out of range [0, 1]",
			s.MinImportanceThreshold)
	}
	return nil
}
