// Package projector turns peer snapshots into the filtered, sorted rows shown
// by the node table. It owns the snapshot and the rows; both are replaced
// wholesale on every change and never edited in place.
package projector

import (
	"context"
	"log"
	"sync"
	"time"

	"nodeboard/snapshot"
)

// DefaultDebounce is the quiet period before a typed filter query is applied.
const DefaultDebounce = 200 * time.Millisecond

// NetworkNamer maps raw organization names to display names.
type NetworkNamer interface {
	MapOrganizationName(raw string) string
}

// ChangeKind says which input produced a new row set.
type ChangeKind int

const (
	ChangeSnapshot ChangeKind = iota
	ChangeFilter
	ChangeRefresh
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeSnapshot:
		return "snapshot"
	case ChangeFilter:
		return "filter"
	case ChangeRefresh:
		return "refresh"
	default:
		return "unknown"
	}
}

// Change describes a completed recompute. Revision advances on snapshot and
// filter changes but not on clock refreshes.
type Change struct {
	Kind     ChangeKind
	Revision uint64
	Query    string
	Total    int
	Filtered int
	Err      error
}

// Options configures a Projector. Zero values select defaults.
type Options struct {
	// Debounce delays SetFilterQuery. 0 selects DefaultDebounce; negative applies immediately.
	Debounce time.Duration
	Networks NetworkNamer
	// Now is the clock used for relative "since" text.
	Now func() time.Time
	// OnChange runs after every recompute, outside the projector lock, on the
	// goroutine that caused it (a timer goroutine for debounced filters).
	OnChange         func(Change)
	ObserveRecompute func(time.Duration)
}

// Projector is the node list view-model.
type Projector struct {
	ctx      context.Context
	debounce time.Duration
	namer    NetworkNamer
	now      func() time.Time
	onChange func(Change)
	observe  func(time.Duration)

	mu      sync.Mutex
	snap    *snapshot.Snapshot
	base    []PeerRow
	matcher rowMatcher
	view    []PeerRow
	rev     uint64
	stopped bool

	pendingQuery string
	pendingTimer *time.Timer
	pendingGen   uint64
}

// New constructs a Projector with an empty snapshot. Cancelling ctx drops any
// pending filter application.
func New(ctx context.Context, opts Options) *Projector {
	if ctx == nil {
		ctx = context.Background()
	}
	p := &Projector{
		ctx:      ctx,
		debounce: opts.Debounce,
		namer:    opts.Networks,
		now:      opts.Now,
		onChange: opts.OnChange,
		observe:  opts.ObserveRecompute,
	}
	if p.debounce == 0 {
		p.debounce = DefaultDebounce
	}
	if p.namer == nil {
		p.namer = identityNamer{}
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// Purpose: Replace the current snapshot and rebuild rows.
// Key aspects: Base rows are remapped from tuples; the active filter is kept.
// Upstream: snapshot.Watcher delivery, CLI.
// Downstream: mapRows, rebuildLocked, OnChange.
func (p *Projector) SetSnapshot(snap *snapshot.Snapshot) {
	if p == nil {
		return
	}
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.snap = snap
	p.base = mapRows(snap)
	change := p.rebuildLocked(ChangeSnapshot)
	p.mu.Unlock()
	p.notify(change)
}

// Refresh recomputes the rows against the current clock so relative times
// stay current between snapshots.
func (p *Projector) Refresh() {
	if p == nil {
		return
	}
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	change := p.rebuildLocked(ChangeRefresh)
	p.mu.Unlock()
	p.notify(change)
}

// Rows returns a copy of the current filtered, sorted rows.
func (p *Projector) Rows() []PeerRow {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]PeerRow, len(p.view))
	copy(out, p.view)
	return out
}

// TotalCount is the number of rows before filtering.
func (p *Projector) TotalCount() int {
	if p == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.base)
}

// FilteredCount is the number of rows after filtering.
func (p *Projector) FilteredCount() int {
	if p == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.view)
}

// FilterQuery is the query currently applied to the rows.
func (p *Projector) FilterQuery() string {
	if p == nil {
		return ""
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.matcher.query
}

// FilterError reports why the active query matches nothing, or nil.
func (p *Projector) FilterError() error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.matcher.err
}

// Revision counts snapshot and filter changes. Renderers that only care about
// new content compare it instead of the rows, whose relative times move on
// every refresh.
func (p *Projector) Revision() uint64 {
	if p == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rev
}

// CapturedAt is the capture time of the current snapshot (0 when none).
func (p *Projector) CapturedAt() int64 {
	if p == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.snap == nil {
		return 0
	}
	return p.snap.CapturedAt
}

// CapturedAtDisplay formats the snapshot capture time for headers.
func (p *Projector) CapturedAtDisplay(loc *time.Location) string {
	return snapshot.FormatCapturedAt(p.CapturedAt(), loc)
}

// Stop cancels any pending filter application. Later inputs are ignored.
func (p *Projector) Stop() {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.stopped = true
	p.cancelPendingLocked()
	p.mu.Unlock()
}

func (p *Projector) rebuildLocked(kind ChangeKind) Change {
	start := time.Now()
	now := p.now()
	rows := make([]PeerRow, len(p.base))
	for i := range p.base {
		rows[i] = p.base[i].withDisplay(now, p.namer)
	}
	rows = filterRows(rows, p.matcher)
	orderRows(rows)
	p.view = rows
	if kind != ChangeRefresh {
		p.rev++
	}
	if p.observe != nil {
		p.observe(time.Since(start))
	}
	return Change{
		Kind:     kind,
		Revision: p.rev,
		Query:    p.matcher.query,
		Total:    len(p.base),
		Filtered: len(p.view),
		Err:      p.matcher.err,
	}
}

func (p *Projector) notify(change Change) {
	if p.onChange != nil {
		p.onChange(change)
	}
}

// applyQueryLocked installs query and rebuilds. Invalid patterns are logged
// once per distinct query.
func (p *Projector) applyQueryLocked(query string) Change {
	if query != p.matcher.query {
		next := compileMatcher(query)
		if next.err != nil {
			log.Printf("Projector: %v; showing no rows", next.err)
		}
		p.matcher = next
	}
	return p.rebuildLocked(ChangeFilter)
}
