package ui

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"nodeboard/config"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const paneWriterMaxBytes = 64 * 1024

const (
	accentTag   = "[#ff69b4]"
	accentReset = "[-]"
)

var (
	uiBorderColor = tcell.ColorGray
	uiTitleColor  = tcell.ColorHotPink
	stripeColor   = tcell.NewRGBColor(30, 30, 40)
	detailColor   = tcell.ColorDarkGray
)

// Dashboard renders the node table, a filter input and the system log pane.
type Dashboard struct {
	app       *tview.Application
	pages     *tview.Pages
	scheduler *frameScheduler
	metrics   *Metrics
	loc       *time.Location

	header *tview.TextView
	filter *tview.InputField
	table  *tview.Table
	system *tview.TextView
	footer *tview.TextView

	logs       *BoundedLineBuffer
	logScratch []LogLine

	srcMu sync.RWMutex
	src   NodeSource

	// UI goroutine only.
	breakpoint    string
	helpShown     bool
	syncingFilter bool

	ready     chan struct{}
	readyOnce sync.Once
	done      chan struct{}
	doneOnce  sync.Once
	stopOnce  sync.Once
}

// Purpose: Build the tview dashboard without starting it.
// Key aspects: screen may be nil (real terminal) or a simulation screen in tests.
// Upstream: main when ui.mode is tview.
// Downstream: tview widgets, frameScheduler, BoundedLineBuffer.
func NewDashboard(cfg config.UIConfig, metrics *Metrics, loc *time.Location, screen tcell.Screen) *Dashboard {
	if loc == nil {
		loc = time.Local
	}
	app := tview.NewApplication().EnableMouse(cfg.EnableMouse)
	if screen != nil {
		app.SetScreen(screen)
	}
	d := &Dashboard{
		app:        app,
		pages:      tview.NewPages(),
		metrics:    metrics,
		loc:        loc,
		breakpoint: breakpointForWidth(desktopMinWidth),
		ready:      make(chan struct{}),
		done:       make(chan struct{}),
	}
	d.logs = NewBoundedLineBuffer(cfg.LogLines, int64(cfg.LogMaxBytes), DropPolicy{
		MaxMessageBytes:  cfg.LogLineMaxBytes,
		EvictOnByteLimit: true,
		LogDrops:         true,
	}, logDropAsync)

	d.header = tview.NewTextView().SetDynamicColors(true).SetWrap(false)
	d.header.SetText("Waiting for snapshot...")

	d.filter = tview.NewInputField().
		SetLabel(accentText("Filter: ")).
		SetFieldWidth(0).
		SetPlaceholder("regular expression on address or user agent")
	d.filter.SetChangedFunc(d.onFilterChanged)
	d.filter.SetDoneFunc(d.onFilterDone)

	d.table = tview.NewTable().SetFixed(1, 0).SetSelectable(false, false)
	d.table.SetBorder(true).SetTitle(accentText("Nodes")).SetTitleAlign(tview.AlignLeft)
	d.table.SetBorderColor(uiBorderColor)
	d.table.SetTitleColor(uiTitleColor)

	d.system = newBoxedTextView("System")
	d.system.SetScrollable(true)

	d.footer = tview.NewTextView().SetDynamicColors(true).SetWrap(false)
	d.renderFooter()

	root := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(d.header, 2, 0, false).
		AddItem(d.filter, 1, 0, false).
		AddItem(d.table, 0, 1, true).
		AddItem(d.system, 8, 0, false).
		AddItem(d.footer, 1, 0, false)
	d.pages.AddPage("nodes", root, true, true)
	d.pages.AddPage("help", buildHelpOverlay(), true, false)

	app.SetBeforeDrawFunc(d.beforeDraw)
	d.installKeybindings()
	app.SetRoot(d.pages, true).SetFocus(d.table)

	d.scheduler = newFrameScheduler(app, cfg.TargetFPS, 100*time.Millisecond, metrics.ObserveRender)
	return d
}

// Start runs the application loop on its own goroutine.
func (d *Dashboard) Start() {
	if d == nil {
		return
	}
	d.scheduler.Start()
	go func() {
		defer d.markDone()
		if err := d.app.Run(); err != nil {
			log.Printf("UI: tview error: %v", err)
		}
	}()
}

// Bind attaches the node source and renders it on the next frame.
func (d *Dashboard) Bind(src NodeSource) {
	if d == nil {
		return
	}
	d.srcMu.Lock()
	d.src = src
	d.srcMu.Unlock()
	if src != nil {
		if q := src.FilterQuery(); q != "" {
			d.syncingFilter = true
			d.filter.SetText(q)
			d.syncingFilter = false
		}
	}
	d.Refresh()
}

func (d *Dashboard) WaitReady() {
	if d == nil {
		return
	}
	select {
	case <-d.ready:
	case <-d.done:
	}
}

// Refresh schedules a table redraw; bursts coalesce into one frame.
func (d *Dashboard) Refresh() {
	if d == nil {
		return
	}
	d.scheduler.Schedule("nodes", d.renderNodes)
}

func (d *Dashboard) Stop() {
	if d == nil {
		return
	}
	d.stopOnce.Do(func() {
		d.scheduler.Stop()
		d.app.Stop()
		d.markDone()
	})
}

func (d *Dashboard) Done() <-chan struct{} {
	return d.done
}

func (d *Dashboard) AppendSystem(line string) {
	if d == nil {
		return
	}
	d.logs.Append(LogLine{Timestamp: time.Now().UTC(), Message: line})
	d.scheduler.Schedule("system", d.renderSystem)
}

func (d *Dashboard) SystemWriter() io.Writer {
	if d == nil {
		return nil
	}
	return &paneWriter{dash: d}
}

func (d *Dashboard) source() NodeSource {
	d.srcMu.RLock()
	defer d.srcMu.RUnlock()
	return d.src
}

func (d *Dashboard) markDone() {
	d.readyOnce.Do(func() { close(d.ready) })
	d.doneOnce.Do(func() { close(d.done) })
}

func (d *Dashboard) beforeDraw(screen tcell.Screen) bool {
	d.readyOnce.Do(func() { close(d.ready) })
	width, _ := screen.Size()
	if bp := breakpointForWidth(width); bp != d.breakpoint {
		d.breakpoint = bp
		d.renderNodes()
	}
	return false
}

func (d *Dashboard) onFilterChanged(text string) {
	if d.syncingFilter {
		return
	}
	if src := d.source(); src != nil {
		src.SetFilterQuery(text)
	}
}

func (d *Dashboard) onFilterDone(key tcell.Key) {
	switch key {
	case tcell.KeyEnter:
		if src := d.source(); src != nil {
			src.ApplyFilterQuery(d.filter.GetText())
		}
	case tcell.KeyEscape:
		d.clearFilter()
	}
	d.app.SetFocus(d.table)
}

func (d *Dashboard) clearFilter() {
	d.syncingFilter = true
	d.filter.SetText("")
	d.syncingFilter = false
	if src := d.source(); src != nil {
		src.ApplyFilterQuery("")
	}
}

func (d *Dashboard) installKeybindings() {
	d.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyCtrlC {
			d.Stop()
			return nil
		}
		if d.helpShown {
			if event.Key() == tcell.KeyEsc || event.Key() == tcell.KeyF1 || event.Rune() == '?' {
				d.toggleHelp(false)
				return nil
			}
			return event
		}
		if d.app.GetFocus() == d.filter {
			return event
		}
		switch event.Key() {
		case tcell.KeyF1:
			d.toggleHelp(true)
			return nil
		case tcell.KeyEsc:
			d.clearFilter()
			return nil
		}
		switch event.Rune() {
		case 'q', 'Q':
			d.Stop()
			return nil
		case '/':
			d.app.SetFocus(d.filter)
			return nil
		case '?':
			d.toggleHelp(true)
			return nil
		}
		return event
	})
}

func (d *Dashboard) toggleHelp(show bool) {
	d.helpShown = show
	if show {
		d.pages.ShowPage("help")
		d.pages.SendToFront("help")
		return
	}
	d.pages.HidePage("help")
	d.app.SetFocus(d.table)
}

// Purpose: Redraw the header and node table from the bound source.
// Key aspects: Three table rows per peer; stripes follow DisplayIndex;
// columns follow the current breakpoint. Runs on the UI goroutine.
// Upstream: frameScheduler ("nodes"), beforeDraw on resize.
// Downstream: NodeSource reads, headerLines, visibleColumns.
func (d *Dashboard) renderNodes() {
	cols := visibleColumns(d.breakpoint)
	d.table.Clear()
	for i, c := range cols {
		d.table.SetCell(0, i, tview.NewTableCell(accentText(c.Label)).
			SetSelectable(false).
			SetExpansion(1))
	}

	src := d.source()
	if src == nil {
		d.header.SetText("Waiting for snapshot...")
		return
	}
	header := headerLines(src, d.loc)
	d.header.SetText(tview.Escape(header[0]) + "\n" + tview.Escape(header[1]))

	for _, r := range src.Rows() {
		bg := rowBackground(r.DisplayIndex)
		base := 1 + r.DisplayIndex*3
		for i, c := range cols {
			lines := c.Value(r)
			for line := range lines {
				cell := tview.NewTableCell(tview.Escape(lines[line])).
					SetBackgroundColor(bg).
					SetExpansion(1)
				if line > 0 {
					cell.SetTextColor(detailColor)
				}
				d.table.SetCell(base+line, i, cell)
			}
		}
	}
	d.renderFooter()
}

func rowBackground(displayIndex int) tcell.Color {
	if displayIndex%2 == 1 {
		return stripeColor
	}
	return tcell.ColorDefault
}

func (d *Dashboard) renderSystem() {
	snap := d.logs.SnapshotInto(d.logScratch)
	d.logScratch = snap.Lines
	var b strings.Builder
	for i, l := range snap.Lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(l.Timestamp.In(d.loc).Format("15:04:05"))
		b.WriteByte(' ')
		b.WriteString(tview.Escape(l.Message))
	}
	d.system.SetText(b.String())
	d.system.ScrollToEnd()
	d.renderFooter()
}

func (d *Dashboard) renderFooter() {
	status := d.metrics.Summary()
	if drops := d.logs.DropSnapshot(); drops.Oversized+drops.ByteLimit > 0 {
		status += fmt.Sprintf(" | log drops %d", drops.Oversized+drops.ByteLimit)
	}
	d.footer.SetText(accentText("/") + " Filter  " + accentText("Esc") + " Clear  " +
		accentText("?") + " Help  " + accentText("q") + " Quit  " + tview.Escape(status))
}

// logDropAsync reports buffer drops through the standard logger. The logger's
// output is this dashboard's system pane, so the report must not run inside
// the Append that triggered it.
func logDropAsync(format string, args ...interface{}) {
	go log.Printf(format, args...)
}

type paneWriter struct {
	dash *Dashboard
	// buf holds any partial line; it is bounded to avoid unbounded growth when no newline arrives.
	buf          []byte
	mu           sync.Mutex
	droppedBytes uint64
}

func (w *paneWriter) Write(p []byte) (int, error) {
	if w == nil || w.dash == nil {
		return len(p), nil
	}
	w.mu.Lock()
	w.buf = append(w.buf, p...)
	if excess := len(w.buf) - paneWriterMaxBytes; excess > 0 {
		w.buf = w.buf[excess:]
		w.droppedBytes += uint64(excess)
	}
	var lines []string
	for {
		idx := bytes.IndexByte(w.buf, '\n')
		if idx == -1 {
			break
		}
		lines = append(lines, string(bytes.TrimRight(w.buf[:idx], "\r")))
		w.buf = w.buf[idx+1:]
	}
	w.mu.Unlock()

	for _, line := range lines {
		w.dash.AppendSystem(line)
	}
	return len(p), nil
}

func newBoxedTextView(title string) *tview.TextView {
	tv := tview.NewTextView().SetDynamicColors(true).SetWrap(false)
	tv.SetBorder(true)
	if title != "" {
		tv.SetTitle(accentText(title)).SetTitleAlign(tview.AlignLeft)
	}
	tv.SetBorderColor(uiBorderColor)
	tv.SetTitleColor(uiTitleColor)
	return tv
}

func buildHelpOverlay() tview.Primitive {
	help := tview.NewTextView().SetDynamicColors(true).SetWrap(false)
	help.SetText(strings.TrimSpace(fmt.Sprintf(`
KEYBOARD HELP

  %s/%s      Edit filter (regular expression on address or user agent)
  %sEnter%s  Apply filter now
  %sEsc%s    Clear filter
  %s?%s      Toggle this help
  %sq%s      Quit (Ctrl+C anywhere)

Rows are newest connection first. Narrow terminals hide
the Location and Network columns.
`, accentTag, accentReset, accentTag, accentReset, accentTag, accentReset,
		accentTag, accentReset, accentTag, accentReset)))
	help.SetBorder(true).SetTitle("Help")
	help.SetBorderColor(uiBorderColor)
	help.SetTitleColor(uiTitleColor)
	return tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(help, 13, 1, true).
			AddItem(nil, 0, 1, false),
			64, 1, true).
		AddItem(nil, 0, 1, false)
}

func accentText(text string) string {
	if text == "" {
		return ""
	}
	return accentTag + text + accentReset
}
