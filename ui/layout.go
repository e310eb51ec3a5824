package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"nodeboard/projector"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
)

// Minimum terminal widths for each breakpoint.
const (
	tabletMinWidth  = 80
	desktopMinWidth = 120
	jumboMinWidth   = 160
)

const columnGap = "  "

func breakpointForWidth(width int) string {
	switch {
	case width >= jumboMinWidth:
		return projector.BreakpointJumbo
	case width >= desktopMinWidth:
		return projector.BreakpointDesktop
	case width >= tabletMinWidth:
		return projector.BreakpointTablet
	default:
		return projector.BreakpointMobile
	}
}

func visibleColumns(breakpoint string) []projector.Column {
	all := projector.Columns()
	out := make([]projector.Column, 0, len(all))
	for _, c := range all {
		if c.VisibleAt(breakpoint) {
			out = append(out, c)
		}
	}
	return out
}

// summaryLine renders "Showing 12 of 1,024 nodes".
func summaryLine(total, filtered int) string {
	if filtered == total {
		return fmt.Sprintf("Showing %s %s", humanize.Comma(int64(total)), nodesNoun(total))
	}
	return fmt.Sprintf("Showing %s of %s %s", humanize.Comma(int64(filtered)), humanize.Comma(int64(total)), nodesNoun(total))
}

func nodesNoun(n int) string {
	if n == 1 {
		return "node"
	}
	return "nodes"
}

// headerLines is the two-line status block above the table.
func headerLines(src NodeSource, loc *time.Location) [2]string {
	captured := src.CapturedAtDisplay(loc)
	if captured == "" {
		captured = "no snapshot loaded"
		if src.TotalCount() > 0 {
			captured = "capture time unknown"
		}
	}
	status := summaryLine(src.TotalCount(), src.FilteredCount())
	if q := src.FilterQuery(); q != "" {
		status += fmt.Sprintf(" matching %q", q)
	}
	if err := src.FilterError(); err != nil {
		status += " (" + err.Error() + ")"
	}
	return [2]string{"Snapshot: " + captured, status}
}

// columnWidths sizes each column to its widest label or display line.
func columnWidths(rows []projector.PeerRow, cols []projector.Column) []int {
	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = runewidth.StringWidth(c.Label)
	}
	for _, r := range rows {
		for i, c := range cols {
			for _, line := range c.Value(r) {
				if w := runewidth.StringWidth(line); w > widths[i] {
					widths[i] = w
				}
			}
		}
	}
	return widths
}

// formatLine pads cells to widths. The last cell is not padded.
func formatLine(cells []string, widths []int) string {
	var b strings.Builder
	for i, cell := range cells {
		if i > 0 {
			b.WriteString(columnGap)
		}
		if i == len(cells)-1 {
			b.WriteString(cell)
			continue
		}
		b.WriteString(runewidth.FillRight(cell, widths[i]))
	}
	return strings.TrimRight(b.String(), " ")
}

// WriteTable writes rows as a fixed-width text table: one heading line, a
// rule, then three lines per peer separated by blank lines.
func WriteTable(w io.Writer, rows []projector.PeerRow, cols []projector.Column) error {
	bw := bufio.NewWriter(w)
	widths := columnWidths(rows, cols)
	labels := make([]string, len(cols))
	rule := make([]string, len(cols))
	for i, c := range cols {
		labels[i] = c.Label
		rule[i] = strings.Repeat("-", widths[i])
	}
	fmt.Fprintln(bw, formatLine(labels, widths))
	fmt.Fprintln(bw, formatLine(rule, widths))
	cells := make([]string, len(cols))
	for n, r := range rows {
		if n > 0 {
			fmt.Fprintln(bw)
		}
		for line := 0; line < 3; line++ {
			for i, c := range cols {
				cells[i] = c.Value(r)[line]
			}
			fmt.Fprintln(bw, formatLine(cells, widths))
		}
	}
	return bw.Flush()
}

// WriteReport writes the header block followed by the table for a terminal
// of the given width (0 shows every column).
func WriteReport(w io.Writer, src NodeSource, loc *time.Location, width int) error {
	header := headerLines(src, loc)
	if _, err := fmt.Fprintf(w, "%s\n%s\n\n", header[0], header[1]); err != nil {
		return err
	}
	bp := projector.BreakpointJumbo
	if width > 0 {
		bp = breakpointForWidth(width)
	}
	return WriteTable(w, src.Rows(), visibleColumns(bp))
}
