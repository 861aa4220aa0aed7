package core

import (
	"context"
	"errors"
	"time"

	"github.com/lucidnotes/memvault/pkg/memory"
)

// ProcessResult reports the outcome of a batch extraction run.
type ProcessResult struct {
	// EntriesProcessed is the number of entries handed to the extractor.
	EntriesProcessed int

	// EntriesUnavailable counts entries skipped because the generation
	// capability was unreachable.
	EntriesUnavailable int

	// MemoriesCreated is the total number of memories written.
	MemoriesCreated int

	// PinnedOverflow is true if any insert left the store over capacity
	// with only pinned memories to evict.
	PinnedOverflow bool

	// Cancelled is true when the batch stopped early at an entry boundary
	// because the context was cancelled.
	Cancelled bool
}

// ProcessEntries extracts memories from a batch of entries, strictly one at
// a time, pausing between entries to avoid saturating the generation
// capability.
//
// Cancellation takes effect at entry boundaries: everything extracted
// before the cancel stays intact and the partial result is returned along
// with ctx.Err(). Entries whose extraction fails soft are counted and
// skipped; the batch continues.
func (c *Client) ProcessEntries(ctx context.Context, entries []memory.Entry, opts ...ProcessOption) (*ProcessResult, error) {
	options := applyProcessOptions(opts)
	result := &ProcessResult{}

	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			result.Cancelled = true
			return result, NewMemoryError("ProcessEntries", err)
		}

		ids, err := c.Extract(ctx, entry.Text, entry.SourceID)
		result.EntriesProcessed++
		result.MemoriesCreated += len(ids)
		switch {
		case err == nil:
		case errors.Is(err, ErrExtractionUnavailable):
			result.EntriesUnavailable++
		case errors.Is(err, ErrCapacityExceededByPins):
			result.PinnedOverflow = true
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			result.Cancelled = true
			return result, NewMemoryError("ProcessEntries", err)
		default:
			return result, err
		}

		if options.UnitDelay > 0 && i < len(entries)-1 {
			if !sleepCtx(ctx, options.UnitDelay) {
				result.Cancelled = true
				return result, NewMemoryError("ProcessEntries", ctx.Err())
			}
		}
	}
	return result, nil
}

// sleepCtx pauses for d or until ctx is cancelled. Returns false on
// cancellation.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
