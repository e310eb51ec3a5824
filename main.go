// Program nodeboard renders the peer table of a node crawler snapshot as a
// live console dashboard, a plain text report, or a headless log summary.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"nodeboard/config"
	"nodeboard/networks"
	"nodeboard/projector"
	"nodeboard/snapshot"
	"nodeboard/telemetry"
	"nodeboard/ui"

	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

// Version will be set at build time
var Version = "dev"

const (
	envConfigPath     = "NODEBOARD_CONFIG_PATH"
	defaultConfigPath = "data/config"

	// relativeTimeRefresh keeps "since 5 minutes ago" current between snapshots.
	relativeTimeRefresh = 30 * time.Second
)

// starter is implemented by surfaces that own an event loop.
type starter interface {
	Start()
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	fanout, logErr := setupLogging(cfg.Logging, os.Stdout)
	log.SetFlags(0)
	log.SetOutput(fanout)
	if logErr != nil {
		log.Printf("Logging: file sink disabled: %v", logErr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, fanout); err != nil {
		log.Printf("nodeboard: %v", err)
		_ = fanout.Close()
		os.Exit(1)
	}
	_ = fanout.Close()
}

// Purpose: Wire the snapshot watcher, projector, surface and metrics endpoint.
// Key aspects: Runs until ctx is cancelled, the surface quits, or the metrics
// server fails; the console log sink follows the surface.
// Upstream: main.
// Downstream: projector.New, snapshot.Watcher.Run, telemetry.Serve, ui surfaces.
func run(ctx context.Context, cfg *config.Config, fanout *logFanout) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loc := resolveLocation(cfg.UI.TimeZone)
	uiMetrics := ui.NewMetrics()
	surface := selectSurface(cfg.UI, uiMetrics, loc, isStdoutTTY())
	_, interactive := surface.(starter)
	if !interactive {
		cfg.Print()
	}
	log.Printf("nodeboard %s starting (ui=%s)", Version, cfg.UI.Mode)

	var promMetrics *telemetry.Metrics
	registry := telemetry.NewRegistry()
	if cfg.Metrics.Listen != "" {
		promMetrics = telemetry.Register(registry)
	}

	proj := projector.New(ctx, projector.Options{
		Debounce: filterDebounce(cfg.UI.FilterDebounceMS),
		Networks: networks.FromConfig(cfg.Networks),
		OnChange: func(change projector.Change) {
			uiMetrics.CountChange(change.Kind)
			promMetrics.ObserveChange(change)
			surface.Refresh()
		},
		ObserveRecompute: func(d time.Duration) {
			uiMetrics.ObserveRecompute(d)
			promMetrics.ObserveRecompute(d)
		},
	})
	defer proj.Stop()

	if q := strings.TrimSpace(cfg.UI.InitialFilter); q != "" {
		proj.ApplyFilterQuery(q)
		if err := proj.FilterError(); err != nil {
			log.Printf("Filter: initial filter %q matches nothing: %v", q, err)
		}
	}
	surface.Bind(proj)

	if s, ok := surface.(starter); ok {
		s.Start()
		surface.WaitReady()
		fanout.SetConsoleSink(surface.SystemWriter(), false)
	}
	defer func() {
		surface.Stop()
		fanout.SetConsoleSink(os.Stdout, true)
		log.Printf("UI: %s", uiMetrics.Summary())
	}()

	watcher := snapshot.NewWatcher(cfg.Snapshot.File, time.Duration(cfg.Snapshot.PollSeconds)*time.Second, func(snap *snapshot.Snapshot) {
		promMetrics.SetCapturedAt(snap.CapturedAt)
		proj.SetSnapshot(snap)
	}, log.Printf).SetFileEvents(!cfg.Snapshot.DisableFileEvents)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return watcher.Run(gctx)
	})
	g.Go(func() error {
		refreshLoop(gctx, proj, relativeTimeRefresh)
		return nil
	})
	if cfg.Metrics.Listen != "" {
		g.Go(func() error {
			return telemetry.Serve(gctx, cfg.Metrics.Listen, cfg.Metrics.Path, registry)
		})
	}
	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-surface.Done():
			log.Printf("UI: closed by user")
			cancel()
		}
		return nil
	})

	err := g.Wait()
	log.Printf("Shutting down")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// terminalWidth reports the stdout width, or 0 when it is not a terminal.
func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0
	}
	return width
}

// Purpose: Load configuration from env/default locations.
// Key aspects: Tries env override first, then the default config dir; when
// neither exists the built-in defaults are used.
// Upstream: main startup.
// Downstream: config.Load and os.IsNotExist.
func loadConfig() (*config.Config, error) {
	candidates := make([]string, 0, 2)
	if envPath := strings.TrimSpace(os.Getenv(envConfigPath)); envPath != "" {
		candidates = append(candidates, envPath)
	}
	candidates = append(candidates, defaultConfigPath)

	for _, path := range candidates {
		cfg, err := config.Load(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return cfg, nil
	}
	return config.Default(), nil
}

// resolveLocation maps the configured zone name to a location, falling back
// to the host zone on unknown names.
func resolveLocation(name string) *time.Location {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "local":
		return time.Local
	case "utc":
		return time.UTC
	}
	loc, err := time.LoadLocation(strings.TrimSpace(name))
	if err != nil {
		log.Printf("UI: unknown time zone %q, using local time: %v", name, err)
		return time.Local
	}
	return loc
}

// filterDebounce converts the configured delay; 0 keeps the projector default.
func filterDebounce(ms int) time.Duration {
	if ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

// Purpose: Pick the render surface for the configured mode.
// Key aspects: tview needs an interactive stdout; otherwise it degrades to
// the plain report sized to the terminal.
// Upstream: run.
// Downstream: ui.NewDashboard and ui.NewPlainSurface.
func selectSurface(cfg config.UIConfig, metrics *ui.Metrics, loc *time.Location, tty bool) ui.Surface {
	switch cfg.Mode {
	case config.UIModeTview:
		if tty {
			return ui.NewDashboard(cfg, metrics, loc, nil)
		}
		log.Printf("UI: tview mode needs an interactive terminal; using plain output")
		return ui.NewPlainSurface(os.Stdout, loc, 0, false)
	case config.UIModeHeadless:
		return ui.NewPlainSurface(os.Stdout, loc, 0, true)
	default:
		width := 0
		if tty {
			width = terminalWidth()
		}
		return ui.NewPlainSurface(os.Stdout, loc, width, false)
	}
}

func refreshLoop(ctx context.Context, proj *projector.Projector, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			proj.Refresh()
		}
	}
}
