// Command nodeproject prints the projected node table for one snapshot file.
// With -i it reads filter patterns from stdin and reprints after each one.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"nodeboard/config"
	"nodeboard/networks"
	"nodeboard/projector"
	"nodeboard/snapshot"
	"nodeboard/ui"

	"github.com/dustin/go-humanize"
)

type options struct {
	filter string
	width  int
	loc    *time.Location
	namer  projector.NetworkNamer
	now    func() time.Time
}

func main() {
	snapshotPath := flag.String("snapshot", "data/snapshot.json", "Path to the crawler snapshot JSON")
	filterFlag := flag.String("filter", "", "Regular expression matched against address or user agent")
	configDir := flag.String("config", "", "Config directory for network aliases (defaults to built-ins)")
	widthFlag := flag.Int("width", 0, "Terminal width used to pick columns (0 shows all)")
	tzFlag := flag.String("tz", "UTC", "Time zone for the capture timestamp")
	interactive := flag.Bool("i", false, "Read filter patterns from stdin")
	flag.Parse()

	loc, err := time.LoadLocation(*tzFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid time zone %q: %v\n", *tzFlag, err)
		os.Exit(2)
	}
	cfg := config.Default()
	if strings.TrimSpace(*configDir) != "" {
		if cfg, err = config.Load(*configDir); err != nil {
			fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	snap, err := snapshot.LoadFile(*snapshotPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading snapshot: %v\n", err)
		os.Exit(1)
	}

	opts := options{
		filter: *filterFlag,
		width:  *widthFlag,
		loc:    loc,
		namer:  networks.FromConfig(cfg.Networks),
	}
	proj := newProjector(snap, opts)
	defer proj.Stop()

	if !*interactive {
		if err := ui.WriteReport(os.Stdout, proj, loc, opts.width); err != nil {
			fmt.Fprintf(os.Stderr, "write error: %v\n", err)
			os.Exit(1)
		}
		return
	}
	if err := repl(os.Stdin, os.Stdout, proj, opts); err != nil {
		fmt.Fprintf(os.Stderr, "input error: %v\n", err)
		os.Exit(1)
	}
}

func newProjector(snap *snapshot.Snapshot, opts options) *projector.Projector {
	proj := projector.New(context.Background(), projector.Options{
		Debounce: -1,
		Networks: opts.namer,
		Now:      opts.now,
	})
	proj.SetSnapshot(snap)
	if opts.filter != "" {
		proj.ApplyFilterQuery(opts.filter)
	}
	return proj
}

// repl applies each input line as the filter and prints the resulting table.
func repl(in io.Reader, out io.Writer, proj *projector.Projector, opts options) error {
	fmt.Fprintf(out, "loaded %s nodes captured %s\n",
		humanize.Comma(int64(proj.TotalCount())), proj.CapturedAtDisplay(opts.loc))
	fmt.Fprintln(out, "enter filter patterns (empty line clears, Ctrl+D to quit)")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		proj.ApplyFilterQuery(strings.TrimSpace(scanner.Text()))
		if err := proj.FilterError(); err != nil {
			fmt.Fprintf(out, "%v\n", err)
			continue
		}
		if err := ui.WriteReport(out, proj, opts.loc, opts.width); err != nil {
			return err
		}
	}
	return scanner.Err()
}
