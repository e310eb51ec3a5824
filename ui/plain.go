package ui

import (
	"bytes"
	"io"
	"log"
	"sync"
	"time"
)

// PlainSurface writes the node table to a writer whenever the projection
// changes. Headless mode logs only the summary line. Clock refreshes do not
// advance the source revision and are not re-printed.
type PlainSurface struct {
	out      io.Writer
	loc      *time.Location
	width    int
	headless bool

	mu       sync.Mutex
	src      NodeSource
	lastRev  uint64
	stopped  bool

	done     chan struct{}
	doneOnce sync.Once
}

// NewPlainSurface renders to out. width selects visible columns (0 shows all).
func NewPlainSurface(out io.Writer, loc *time.Location, width int, headless bool) *PlainSurface {
	if loc == nil {
		loc = time.Local
	}
	return &PlainSurface{
		out:      out,
		loc:      loc,
		width:    width,
		headless: headless,
		done:     make(chan struct{}),
	}
}

func (p *PlainSurface) Bind(src NodeSource) {
	p.mu.Lock()
	p.src = src
	p.mu.Unlock()
}

func (p *PlainSurface) WaitReady() {}

// Refresh renders synchronously on the caller's goroutine.
func (p *PlainSurface) Refresh() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped || p.src == nil {
		return
	}
	rev := p.src.Revision()
	if rev == p.lastRev {
		return
	}
	p.lastRev = rev
	head := headerLines(p.src, p.loc)
	if p.headless {
		log.Printf("Nodes: %s; %s", head[0], head[1])
		return
	}
	var buf bytes.Buffer
	if err := WriteReport(&buf, p.src, p.loc, p.width); err != nil {
		log.Printf("UI: render failed: %v", err)
		return
	}
	buf.WriteByte('\n')
	if _, err := p.out.Write(buf.Bytes()); err != nil {
		log.Printf("UI: write failed: %v", err)
	}
}

func (p *PlainSurface) Stop() {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
	p.doneOnce.Do(func() { close(p.done) })
}

func (p *PlainSurface) Done() <-chan struct{} {
	return p.done
}

// SystemWriter passes log output straight through to the same writer.
func (p *PlainSurface) SystemWriter() io.Writer {
	return p.out
}
