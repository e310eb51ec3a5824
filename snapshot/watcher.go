package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"nodeboard/internal/ratelimit"

	"github.com/dustin/go-humanize"
	"github.com/fsnotify/fsnotify"
	"github.com/zeebo/xxh3"
)

// failureLogInterval bounds how often a persistent read or decode failure is logged.
const failureLogInterval = time.Minute

// Fingerprint returns the content hash used to detect unchanged snapshot files.
func Fingerprint(data []byte) uint64 {
	return xxh3.Hash(data)
}

// Watcher polls a snapshot file and delivers each new capture. With file
// events enabled it also reloads as soon as the file is written or replaced.
// Content that hashes the same as the last delivered capture is not re-delivered.
type Watcher struct {
	path       string
	interval   time.Duration
	deliver    func(*Snapshot)
	logf       func(format string, args ...any)
	fileEvents bool
	failures   *ratelimit.Counter
	failing    atomic.Bool

	mu       sync.Mutex
	lastSum  uint64
	haveLast bool
}

// NewWatcher builds a watcher for path. interval <= 0 disables polling.
func NewWatcher(path string, interval time.Duration, deliver func(*Snapshot), logf func(format string, args ...any)) *Watcher {
	return &Watcher{
		path:     strings.TrimSpace(path),
		interval: interval,
		deliver:  deliver,
		logf:     logf,
		failures: ratelimit.NewCounter(failureLogInterval),
	}
}

// SetFileEvents enables fsnotify-driven reloads. Must be called before Run.
func (w *Watcher) SetFileEvents(enabled bool) *Watcher {
	if w != nil {
		w.fileEvents = enabled
	}
	return w
}

// Purpose: Read the snapshot file once and deliver it when its content changed.
// Key aspects: Decode failures leave the last delivered snapshot in place.
// Upstream: Watcher.Run and tests.
// Downstream: os.ReadFile, Fingerprint, Decode, deliver callback.
func (w *Watcher) Poll() (bool, error) {
	if w == nil || w.path == "" {
		return false, fmt.Errorf("snapshot: watcher has no path")
	}
	data, err := os.ReadFile(w.path)
	if err != nil {
		return false, fmt.Errorf("snapshot: read %s: %w", w.path, err)
	}
	sum := Fingerprint(data)
	w.mu.Lock()
	unchanged := w.haveLast && sum == w.lastSum
	w.mu.Unlock()
	if unchanged {
		return false, nil
	}
	snap, err := Decode(data)
	if err != nil {
		return false, fmt.Errorf("snapshot: decode %s: %w", w.path, err)
	}
	w.mu.Lock()
	w.lastSum = sum
	w.haveLast = true
	w.mu.Unlock()

	w.printf("Snapshot: loaded %s peers captured %s (%d skipped, fingerprint %016x)",
		humanize.Comma(int64(snap.Len())), FormatCapturedAt(snap.CapturedAt, time.UTC), snap.Skipped, sum)
	if w.deliver != nil {
		w.deliver(snap)
	}
	return true, nil
}

// Purpose: Load immediately, then reload on file events and on a ticker until ctx is done.
// Key aspects: Errors are logged, never returned. With neither polling nor
// file events there is nothing to wait for, so Run returns after the first load.
// Upstream: main run group.
// Downstream: Watcher.Poll, fsnotify.
func (w *Watcher) Run(ctx context.Context) error {
	if w == nil {
		return nil
	}
	w.pollAndLog()

	var events <-chan fsnotify.Event
	var eventErrs <-chan error
	if w.fileEvents {
		fw, err := w.openFileEvents()
		if err != nil {
			w.printf("Snapshot: file events disabled: %v", err)
		} else {
			defer func() {
				if err := fw.Close(); err != nil {
					w.printf("Snapshot: close file watcher: %v", err)
				}
			}()
			events = fw.Events
			eventErrs = fw.Errors
		}
	}

	var tick <-chan time.Time
	if w.interval > 0 {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		tick = ticker.C
	}
	if tick == nil && events == nil {
		return nil
	}

	base := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick:
			w.pollAndLog()
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Base(ev.Name) != base {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.pollAndLog()
			}
		case err, ok := <-eventErrs:
			if !ok {
				eventErrs = nil
				continue
			}
			w.printf("Snapshot: file watch error: %v", err)
		}
	}
}

// openFileEvents watches the parent directory so atomic replacements (write
// to temp, rename over) are seen as a Create of the snapshot name.
func (w *Watcher) openFileEvents() (*fsnotify.Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		fw.Close()
		return nil, err
	}
	return fw, nil
}

// pollAndLog logs the first failure of a streak right away and then at most
// once per failureLogInterval until a poll succeeds again.
func (w *Watcher) pollAndLog() {
	_, err := w.Poll()
	if err == nil {
		n := w.failures.Reset()
		if !w.failing.Swap(false) {
			return
		}
		if n > 0 {
			w.printf("Snapshot: recovered after %d suppressed failures", n)
			return
		}
		w.printf("Snapshot: recovered")
		return
	}
	w.failing.Store(true)
	ok, suppressed := w.failures.Allow()
	if !ok {
		return
	}
	if suppressed > 0 {
		w.printf("Snapshot: %v (%d similar failures suppressed)", err, suppressed)
		return
	}
	w.printf("Snapshot: %v", err)
}

func (w *Watcher) printf(format string, args ...any) {
	if w.logf != nil {
		w.logf(format, args...)
	}
}
