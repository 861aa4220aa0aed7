package core

import "time"

// CreateOption configures a Create call.
type CreateOption func(*CreateOptions)

// CreateOptions contains configuration for the user-provided creation path.
type CreateOptions struct {
	// Importance overrides the scorer; clamped to [0,1]. When nil the
	// scorer derives an importance from the content and type.
	Importance *float64

	// Tags are attached to the new memory, duplicates collapsed.
	Tags []string

	// Pinned exempts the new memory from capacity eviction.
	Pinned bool

	// SourceEntryID records the originating entry, if any.
	SourceEntryID string
}

// WithImportance sets an explicit importance for Create.
func WithImportance(importance float64) CreateOption {
	return func(opts *CreateOptions) {
		opts.Importance = &importance
	}
}

// WithTags sets the tags for Create.
func WithTags(tags ...string) CreateOption {
	return func(opts *CreateOptions) {
		opts.Tags = tags
	}
}

// WithPinned marks the new memory as pinned.
func WithPinned() CreateOption {
	return func(opts *CreateOptions) {
		opts.Pinned = true
	}
}

// WithSourceEntry records a weak back-reference to the originating entry.
func WithSourceEntry(sourceID string) CreateOption {
	return func(opts *CreateOptions) {
		opts.SourceEntryID = sourceID
	}
}

func applyCreateOptions(opts []CreateOption) *CreateOptions {
	options := &CreateOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// ProcessOption configures a ProcessEntries call.
type ProcessOption func(*ProcessOptions)

// ProcessOptions contains configuration for batch extraction.
type ProcessOptions struct {
	// UnitDelay is the pause between entries, a backpressure measure for
	// the generation capability rather than a correctness requirement.
	UnitDelay time.Duration
}

// DefaultUnitDelay is the pause inserted between batch entries.
const DefaultUnitDelay = 500 * time.Millisecond

// WithUnitDelay overrides the inter-entry delay. Zero removes it, for
// callers with their own rate limiting.
func WithUnitDelay(d time.Duration) ProcessOption {
	return func(opts *ProcessOptions) {
		opts.UnitDelay = d
	}
}

func applyProcessOptions(opts []ProcessOption) *ProcessOptions {
	options := &ProcessOptions{UnitDelay: DefaultUnitDelay}
	for _, opt := range opts {
		opt(options)
	}
	return options
}
