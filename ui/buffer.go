package ui

import (
	"sync"
	"sync/atomic"
	"time"
)

// LogLine is one line shown in the dashboard's system pane.
type LogLine struct {
	Timestamp time.Time
	Message   string
}

// DropPolicy defines behavior when buffer limits are exceeded.
type DropPolicy struct {
	MaxMessageBytes  int
	EvictOnByteLimit bool
	LogDrops         bool
}

// DropMetrics holds counters for dropped lines.
type DropMetrics struct {
	Oversized uint64
	Evicted   uint64
	ByteLimit uint64
}

// LineSnapshot is a copy of the buffered lines plus the append sequence at
// the time it was taken.
type LineSnapshot struct {
	Lines []LogLine
	Seq   uint64
}

// BoundedLineBuffer stores log lines in a ring bounded by count and bytes.
// Append may be called from any goroutine (the log writer); SnapshotInto is
// called by the draw loop.
type BoundedLineBuffer struct {
	mu       sync.RWMutex
	lines    []LogLine
	head     int
	count    int
	maxBytes int64
	curBytes int64
	policy   DropPolicy
	seq      atomic.Uint64

	dropOversized atomic.Uint64
	dropEvicted   atomic.Uint64
	dropByteLimit atomic.Uint64

	logMu       sync.Mutex
	lastDropLog time.Time
	logf        func(format string, args ...interface{})
}

// NewBoundedLineBuffer creates a buffer holding at most maxCount lines and,
// when maxBytes > 0, at most maxBytes of message text.
func NewBoundedLineBuffer(maxCount int, maxBytes int64, policy DropPolicy, logf func(format string, args ...interface{})) *BoundedLineBuffer {
	if maxCount <= 0 {
		maxCount = 1
	}
	if maxBytes < 0 {
		maxBytes = 0
	}
	return &BoundedLineBuffer{
		lines:    make([]LogLine, maxCount),
		maxBytes: maxBytes,
		policy:   policy,
		logf:     logf,
	}
}

// Append inserts a line, evicting the oldest when full. Returns false if the
// line was dropped.
func (b *BoundedLineBuffer) Append(l LogLine) bool {
	if b == nil {
		return false
	}
	size := int64(len(l.Message))
	if b.policy.MaxMessageBytes > 0 && len(l.Message) > b.policy.MaxMessageBytes {
		b.dropOversized.Add(1)
		b.logDrop("oversized", len(l.Message), b.policy.MaxMessageBytes)
		return false
	}

	b.mu.Lock()
	for b.count >= len(b.lines) {
		b.evictOldestLocked()
	}

	if b.maxBytes > 0 && b.curBytes+size > b.maxBytes {
		if b.policy.EvictOnByteLimit {
			for b.count > 0 && b.curBytes+size > b.maxBytes {
				b.evictOldestLocked()
			}
		}
		if b.curBytes+size > b.maxBytes {
			b.mu.Unlock()
			b.dropByteLimit.Add(1)
			b.logDrop("byte_limit", len(l.Message), int(b.maxBytes))
			return false
		}
	}

	pos := (b.head + b.count) % len(b.lines)
	b.lines[pos] = l
	b.curBytes += size
	b.count++
	b.seq.Add(1)
	b.mu.Unlock()
	return true
}

// SnapshotInto copies lines oldest first into dst.
func (b *BoundedLineBuffer) SnapshotInto(dst []LogLine) LineSnapshot {
	if b == nil {
		return LineSnapshot{Lines: dst[:0]}
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	if cap(dst) < b.count {
		dst = make([]LogLine, b.count)
	} else {
		dst = dst[:b.count]
	}
	for i := 0; i < b.count; i++ {
		dst[i] = b.lines[(b.head+i)%len(b.lines)]
	}
	return LineSnapshot{Lines: dst, Seq: b.seq.Load()}
}

// Len is the number of buffered lines.
func (b *BoundedLineBuffer) Len() int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

func (b *BoundedLineBuffer) DropSnapshot() DropMetrics {
	if b == nil {
		return DropMetrics{}
	}
	return DropMetrics{
		Oversized: b.dropOversized.Load(),
		Evicted:   b.dropEvicted.Load(),
		ByteLimit: b.dropByteLimit.Load(),
	}
}

func (b *BoundedLineBuffer) evictOldestLocked() {
	if b.count == 0 {
		return
	}
	b.curBytes -= int64(len(b.lines[b.head].Message))
	b.lines[b.head] = LogLine{}
	b.head = (b.head + 1) % len(b.lines)
	b.count--
	b.dropEvicted.Add(1)
}

// logDrop reports at most one drop every 30s. It runs without b.mu held since
// logf may feed back into this buffer through the system pane writer.
func (b *BoundedLineBuffer) logDrop(reason string, size int, limit int) {
	if !b.policy.LogDrops || b.logf == nil {
		return
	}
	now := time.Now().UTC()
	b.logMu.Lock()
	if !b.lastDropLog.IsZero() && now.Sub(b.lastDropLog) < 30*time.Second {
		b.logMu.Unlock()
		return
	}
	b.lastDropLog = now
	b.logMu.Unlock()
	b.logf("UI: dropped %s log line (%d bytes > %d)", reason, size, limit)
}
