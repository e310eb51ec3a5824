package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, dir, name, text string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(text), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadDirectoryMergesFiles(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "app.yaml", `ui:
  mode: plain
snapshot:
  file: "/var/lib/crawler/latest.json"
`)
	writeConfigFile(t, dir, "networks.yaml", `ui:
  initial_filter: "Satoshi"
networks:
  fuzzy_distance: 1
  aliases:
    - match: "Example Hosting Ltd"
      name: "ExampleHost"
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got := filepath.Clean(cfg.LoadedFrom); got != filepath.Clean(dir) {
		t.Fatalf("expected LoadedFrom=%s, got %s", dir, got)
	}
	if cfg.UI.Mode != UIModePlain {
		t.Fatalf("expected ui.mode=plain from app.yaml, got %q", cfg.UI.Mode)
	}
	if cfg.UI.InitialFilter != "Satoshi" {
		t.Fatalf("expected ui.initial_filter to merge from networks.yaml, got %q", cfg.UI.InitialFilter)
	}
	if cfg.Snapshot.File != "/var/lib/crawler/latest.json" {
		t.Fatalf("unexpected snapshot file %q", cfg.Snapshot.File)
	}
	if cfg.Networks.FuzzyDistance != 1 || len(cfg.Networks.Aliases) != 1 {
		t.Fatalf("unexpected networks config: %+v", cfg.Networks)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "ui.yaml", "ui:\n  enable_mouse: true\n")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.UI.Mode != UIModeTview {
		t.Fatalf("expected default mode tview, got %q", cfg.UI.Mode)
	}
	if cfg.UI.FilterDebounceMS != 200 {
		t.Fatalf("expected filter debounce default 200, got %d", cfg.UI.FilterDebounceMS)
	}
	if cfg.UI.TargetFPS != 30 || cfg.UI.LogLines != 200 || cfg.UI.LogMaxBytes != 256*1024 || cfg.UI.LogLineMaxBytes != 4096 {
		t.Fatalf("unexpected ui defaults: %+v", cfg.UI)
	}
	if cfg.Snapshot.PollSeconds != 30 || cfg.Snapshot.File == "" {
		t.Fatalf("unexpected snapshot defaults: %+v", cfg.Snapshot)
	}
	if cfg.Logging.RetentionDays != 7 {
		t.Fatalf("expected retention default 7, got %d", cfg.Logging.RetentionDays)
	}
	if !cfg.UI.EnableMouse {
		t.Fatalf("expected enable_mouse=true from ui.yaml")
	}
}

func TestLoadRejectsSingleFilePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runtime.yaml")
	writeConfigFile(t, dir, "runtime.yaml", "ui:\n  mode: plain\n")

	if _, err := Load(path); err == nil {
		t.Fatalf("expected Load() to reject non-directory config path")
	}
}

func TestLoadMissingDirIsNotExist(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing"))
	if err == nil || !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestLoadRejectsUnknownMode(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "ui.yaml", "ui:\n  mode: curses\n")
	if _, err := Load(dir); err == nil {
		t.Fatalf("expected invalid mode error")
	}
}

func TestLoadRejectsIncompleteAlias(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "networks.yaml", `networks:
  aliases:
    - match: "Example"
`)
	if _, err := Load(dir); err == nil {
		t.Fatalf("expected alias validation error")
	}
}

func TestLoadIgnoresNonYAMLFiles(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "README.txt", "not: [valid")
	writeConfigFile(t, dir, "ui.yml", "ui:\n  mode: headless\n")
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.UI.Mode != UIModeHeadless {
		t.Fatalf("expected headless mode from ui.yml, got %q", cfg.UI.Mode)
	}
}

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.LoadedFrom != "" {
		t.Fatalf("expected empty LoadedFrom for defaults, got %q", cfg.LoadedFrom)
	}
}

func TestLoadMetricsSection(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "metrics.yaml", "metrics:\n  listen: \" 127.0.0.1:9464 \"\nsnapshot:\n  disable_file_events: true\n")
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Metrics.Listen != "127.0.0.1:9464" || cfg.Metrics.Path != "/metrics" {
		t.Fatalf("unexpected metrics config: %+v", cfg.Metrics)
	}
	if !cfg.Snapshot.DisableFileEvents {
		t.Fatalf("expected file events disabled")
	}

	writeConfigFile(t, dir, "metrics.yaml", "metrics:\n  path: metrics\n")
	if _, err := Load(dir); err == nil {
		t.Fatalf("expected relative metrics path to be rejected")
	}
}
