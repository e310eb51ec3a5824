package ui

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"nodeboard/projector"

	"github.com/dustin/go-humanize"
)

// LatencyTracker keeps a bounded ring of durations for percentile estimates.
type LatencyTracker struct {
	mu      sync.Mutex
	samples []time.Duration
	count   int
	idx     int
}

func NewLatencyTracker(size int) *LatencyTracker {
	if size <= 0 {
		size = 256
	}
	return &LatencyTracker{samples: make([]time.Duration, size)}
}

func (t *LatencyTracker) Observe(d time.Duration) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.samples[t.idx] = d
	t.idx = (t.idx + 1) % len(t.samples)
	if t.count < len(t.samples) {
		t.count++
	}
	t.mu.Unlock()
}

type LatencySnapshot struct {
	P50 time.Duration
	P99 time.Duration
	N   int
}

func (t *LatencyTracker) Snapshot() LatencySnapshot {
	if t == nil {
		return LatencySnapshot{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.count == 0 {
		return LatencySnapshot{}
	}
	values := make([]time.Duration, t.count)
	copy(values, t.samples[:t.count])
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
	p50 := values[t.count/2]
	p99 := values[int(float64(t.count-1)*0.99)]
	return LatencySnapshot{P50: p50, P99: p99, N: t.count}
}

// Metrics tracks dashboard latency distributions: projector recompute time
// and scheduler queue-to-draw delay.
type Metrics struct {
	renderLatency    *LatencyTracker
	recomputeLatency *LatencyTracker
	filterChanges    atomic.Uint64
	snapshots        atomic.Uint64
}

func NewMetrics() *Metrics {
	return &Metrics{
		renderLatency:    NewLatencyTracker(512),
		recomputeLatency: NewLatencyTracker(512),
	}
}

func (m *Metrics) ObserveRender(d time.Duration) {
	if m == nil {
		return
	}
	m.renderLatency.Observe(d)
}

// ObserveRecompute is handed to projector.Options.ObserveRecompute.
func (m *Metrics) ObserveRecompute(d time.Duration) {
	if m == nil {
		return
	}
	m.recomputeLatency.Observe(d)
}

// CountChange records which input produced a new row set.
func (m *Metrics) CountChange(kind projector.ChangeKind) {
	if m == nil {
		return
	}
	switch kind {
	case projector.ChangeFilter:
		m.filterChanges.Add(1)
	case projector.ChangeSnapshot:
		m.snapshots.Add(1)
	}
}

func (m *Metrics) RenderSnapshot() LatencySnapshot {
	if m == nil {
		return LatencySnapshot{}
	}
	return m.renderLatency.Snapshot()
}

func (m *Metrics) RecomputeSnapshot() LatencySnapshot {
	if m == nil {
		return LatencySnapshot{}
	}
	return m.recomputeLatency.Snapshot()
}

func (m *Metrics) FilterChanges() uint64 {
	if m == nil {
		return 0
	}
	return m.filterChanges.Load()
}

func (m *Metrics) Snapshots() uint64 {
	if m == nil {
		return 0
	}
	return m.snapshots.Load()
}

// Summary renders the footer latency line.
func (m *Metrics) Summary() string {
	rc := m.RecomputeSnapshot()
	rd := m.RenderSnapshot()
	return fmt.Sprintf("recompute p50 %s p99 %s | draw p50 %s p99 %s | snapshots %s",
		formatLatency(rc.P50), formatLatency(rc.P99),
		formatLatency(rd.P50), formatLatency(rd.P99),
		humanize.Comma(int64(m.Snapshots())))
}

func formatLatency(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Microsecond).String()
}
