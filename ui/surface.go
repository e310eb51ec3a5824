package ui

import (
	"io"
	"time"

	"nodeboard/projector"
)

// NodeSource is the projector surface the renderers read from and feed the
// filter text back into.
type NodeSource interface {
	Rows() []projector.PeerRow
	TotalCount() int
	FilteredCount() int
	FilterQuery() string
	FilterError() error
	Revision() uint64
	CapturedAtDisplay(loc *time.Location) string
	SetFilterQuery(query string)
	ApplyFilterQuery(query string)
}

// Surface abstracts the node table renderer so the console dashboard and the
// plain writer are interchangeable. Refresh may be called from any goroutine.
type Surface interface {
	Bind(src NodeSource)
	WaitReady()
	Refresh()
	Stop()
	// Done is closed once the surface has stopped, including when the user quits.
	Done() <-chan struct{}
	SystemWriter() io.Writer
}
