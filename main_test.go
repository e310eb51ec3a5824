package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"nodeboard/config"
	"nodeboard/projector"
	"nodeboard/ui"
)

func TestLoadConfigPrefersEnvPath(t *testing.T) {
	dir := t.TempDir()
	body := "ui:\n  mode: headless\nsnapshot:\n  file: /tmp/peers.json\n"
	if err := os.WriteFile(filepath.Join(dir, "app.yaml"), []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(envConfigPath, dir)

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.LoadedFrom != dir || cfg.UI.Mode != config.UIModeHeadless || cfg.Snapshot.File != "/tmp/peers.json" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestLoadConfigFallsBackToDefaults(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv(envConfigPath, filepath.Join(t.TempDir(), "missing"))

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.LoadedFrom != "" || cfg.UI.FilterDebounceMS != 200 {
		t.Fatalf("expected built-in defaults, got %+v", cfg)
	}
}

func TestLoadConfigReportsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "app.yaml"), []byte("ui:\n  mode: fancy\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(envConfigPath, dir)
	if _, err := loadConfig(); err == nil {
		t.Fatalf("expected invalid ui.mode to fail")
	}
}

func TestResolveLocation(t *testing.T) {
	if resolveLocation("") != time.Local || resolveLocation("Local") != time.Local {
		t.Fatalf("expected empty and Local to use the host zone")
	}
	if resolveLocation("UTC") != time.UTC {
		t.Fatalf("expected UTC")
	}
	if resolveLocation("Nowhere/Special") != time.Local {
		t.Fatalf("expected unknown zone to fall back to local")
	}
}

func TestFilterDebounce(t *testing.T) {
	if got := filterDebounce(0); got != 0 {
		t.Fatalf("expected 0 to keep projector default, got %s", got)
	}
	if got := filterDebounce(350); got != 350*time.Millisecond {
		t.Fatalf("unexpected debounce %s", got)
	}
}

func TestSelectSurfaceWithoutTerminal(t *testing.T) {
	metrics := ui.NewMetrics()
	for _, mode := range []string{config.UIModeTview, config.UIModePlain, config.UIModeHeadless} {
		surface := selectSurface(config.UIConfig{Mode: mode}, metrics, time.UTC, false)
		if _, ok := surface.(*ui.PlainSurface); !ok {
			t.Fatalf("mode %s: expected plain surface without a terminal, got %T", mode, surface)
		}
		if _, ok := surface.(starter); ok {
			t.Fatalf("mode %s: plain surface should not need Start", mode)
		}
		surface.Stop()
	}
}

func TestRefreshLoopRecomputes(t *testing.T) {
	refreshes := make(chan struct{}, 8)
	proj := projector.New(context.Background(), projector.Options{
		Debounce: -1,
		OnChange: func(c projector.Change) {
			if c.Kind == projector.ChangeRefresh {
				select {
				case refreshes <- struct{}{}:
				default:
				}
			}
		},
	})
	defer proj.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		refreshLoop(ctx, proj, 10*time.Millisecond)
		close(done)
	}()
	select {
	case <-refreshes:
	case <-time.After(time.Second):
		t.Fatalf("expected a refresh tick")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("refresh loop did not stop")
	}
}
