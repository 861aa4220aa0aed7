package query

import (
	"context"
	"sync"
	"time"

	"github.com/lucidnotes/memvault/pkg/memory"
)

// DefaultDebounce is the delay between the last keystroke-equivalent event
// and query execution.
const DefaultDebounce = 300 * time.Millisecond

// SearchFunc runs a query against the current store snapshot.
type SearchFunc func(ctx context.Context, q string) ([]*memory.Memory, error)

// DeliverFunc receives the results of the most recent query. It is never
// called for a query that has been superseded.
type DeliverFunc func(q string, results []*memory.Memory, err error)

// DebouncedSearcher coalesces rapid query updates: each call to Query
// restarts the debounce timer and cancels any in-flight search, so only the
// newest query's results are ever delivered.
//
// The searcher holds no state across calls other than the last query
// string.
type DebouncedSearcher struct {
	search  SearchFunc
	deliver DeliverFunc
	delay   time.Duration

	mu        sync.Mutex
	timer     *time.Timer
	cancel    context.CancelFunc
	gen       uint64
	lastQuery string
	closed    bool
}

// NewDebouncedSearcher creates a searcher. A non-positive delay falls back
// to DefaultDebounce.
func NewDebouncedSearcher(delay time.Duration, search SearchFunc, deliver DeliverFunc) *DebouncedSearcher {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &DebouncedSearcher{
		search:  search,
		deliver: deliver,
		delay:   delay,
	}
}

// Query schedules q for execution after the debounce delay, superseding any
// pending or in-flight query.
func (d *DebouncedSearcher) Query(q string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	d.lastQuery = q
	d.gen++
	gen := d.gen

	if d.timer != nil {
		d.timer.Stop()
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}

	d.timer = time.AfterFunc(d.delay, func() {
		d.run(gen, q)
	})
}

func (d *DebouncedSearcher) run(gen uint64, q string) {
	d.mu.Lock()
	if d.closed || gen != d.gen {
		d.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.mu.Unlock()
	defer cancel()

	results, err := d.search(ctx, q)

	d.mu.Lock()
	superseded := d.closed || gen != d.gen
	if !superseded {
		d.cancel = nil
	}
	d.mu.Unlock()
	if superseded || ctx.Err() != nil {
		return
	}
	d.deliver(q, results, err)
}

// LastQuery returns the most recently submitted query string.
func (d *DebouncedSearcher) LastQuery() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastQuery
}

// Close cancels any pending or in-flight query. The searcher ignores
// further Query calls.
func (d *DebouncedSearcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}
