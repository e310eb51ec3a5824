package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// UI modes understood by main.
const (
	UIModeTview    = "tview"
	UIModePlain    = "plain"
	UIModeHeadless = "headless"
)

// Config represents the complete dashboard configuration.
type Config struct {
	UI       UIConfig       `yaml:"ui"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Networks NetworksConfig `yaml:"networks"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`

	// LoadedFrom is the directory the config was merged from ("" for defaults).
	LoadedFrom string `yaml:"-"`
}

// UIConfig controls the console renderer and the node filter input.
type UIConfig struct {
	Mode             string `yaml:"mode"`
	TargetFPS        int    `yaml:"target_fps"`
	FilterDebounceMS int    `yaml:"filter_debounce_ms"`
	EnableMouse      bool   `yaml:"enable_mouse"`
	InitialFilter    string `yaml:"initial_filter"`
	LogLines         int    `yaml:"log_lines"`
	LogMaxBytes      int    `yaml:"log_max_bytes"`
	LogLineMaxBytes  int    `yaml:"log_line_max_bytes"`
	TimeZone         string `yaml:"time_zone"`
}

// SnapshotConfig points at the peer snapshot file maintained by the crawler.
type SnapshotConfig struct {
	File              string `yaml:"file"`
	PollSeconds       int    `yaml:"poll_seconds"`
	DisableFileEvents bool   `yaml:"disable_file_events"`
}

// NetworksConfig tunes organization-name normalization.
type NetworksConfig struct {
	FuzzyDistance   int           `yaml:"fuzzy_distance"`
	DisableDefaults bool          `yaml:"disable_defaults"`
	Aliases         []AliasConfig `yaml:"aliases"`
}

// AliasConfig maps a raw organization name (or prefix) to a display name.
type AliasConfig struct {
	Match  string `yaml:"match"`
	Name   string `yaml:"name"`
	Prefix bool   `yaml:"prefix"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Dir           string `yaml:"dir"`
	RetentionDays int    `yaml:"retention_days"`

	// ConsoleExclude lists subsystems ("Snapshot", "Metrics", ...) whose lines
	// go to the log file only.
	ConsoleExclude []string `yaml:"console_exclude"`
}

// MetricsConfig exposes projector counters for Prometheus scraping. An empty
// Listen address disables the endpoint.
type MetricsConfig struct {
	Listen string `yaml:"listen"`
	Path   string `yaml:"path"`
}

// Default returns a fully populated config used when no config directory exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load merges every YAML file in dir (lexical order) into one Config.
// Later files override scalar keys set by earlier ones; lists are replaced.
func Load(dir string) (*Config, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("config path %s is not a directory", dir)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".yaml", ".yml":
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var cfg Config
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", name, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", name, err)
		}
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.LoadedFrom = dir
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	c.UI.Mode = strings.ToLower(strings.TrimSpace(c.UI.Mode))
	if c.UI.Mode == "" {
		c.UI.Mode = UIModeTview
	}
	if c.UI.TargetFPS == 0 {
		c.UI.TargetFPS = 30
	}
	if c.UI.FilterDebounceMS == 0 {
		c.UI.FilterDebounceMS = 200
	}
	if c.UI.LogLines == 0 {
		c.UI.LogLines = 200
	}
	if c.UI.LogMaxBytes == 0 {
		c.UI.LogMaxBytes = 256 * 1024
	}
	if c.UI.LogLineMaxBytes == 0 {
		c.UI.LogLineMaxBytes = 4096
	}
	if strings.TrimSpace(c.UI.TimeZone) == "" {
		c.UI.TimeZone = "Local"
	}
	if strings.TrimSpace(c.Snapshot.File) == "" {
		c.Snapshot.File = "data/snapshot.json"
	}
	if c.Snapshot.PollSeconds == 0 {
		c.Snapshot.PollSeconds = 30
	}
	if c.Networks.FuzzyDistance == 0 {
		c.Networks.FuzzyDistance = 2
	}
	if strings.TrimSpace(c.Logging.Dir) == "" {
		c.Logging.Dir = "data/logs"
	}
	if c.Logging.RetentionDays == 0 {
		c.Logging.RetentionDays = 7
	}
	c.Metrics.Listen = strings.TrimSpace(c.Metrics.Listen)
	if strings.TrimSpace(c.Metrics.Path) == "" {
		c.Metrics.Path = "/metrics"
	}
}

// Validate rejects settings the runtime cannot honor.
func (c *Config) Validate() error {
	var errs []error
	switch c.UI.Mode {
	case UIModeTview, UIModePlain, UIModeHeadless:
	default:
		errs = append(errs, fmt.Errorf("ui.mode %q not recognized (want tview, plain or headless)", c.UI.Mode))
	}
	if c.UI.TargetFPS < 0 {
		errs = append(errs, fmt.Errorf("ui.target_fps must be >= 0, got %d", c.UI.TargetFPS))
	}
	if c.UI.FilterDebounceMS < 0 {
		errs = append(errs, fmt.Errorf("ui.filter_debounce_ms must be >= 0, got %d", c.UI.FilterDebounceMS))
	}
	if c.UI.LogLines < 0 {
		errs = append(errs, fmt.Errorf("ui.log_lines must be >= 0, got %d", c.UI.LogLines))
	}
	if c.UI.LogMaxBytes < 0 {
		errs = append(errs, fmt.Errorf("ui.log_max_bytes must be >= 0, got %d", c.UI.LogMaxBytes))
	}
	if c.UI.LogLineMaxBytes < 0 {
		errs = append(errs, fmt.Errorf("ui.log_line_max_bytes must be >= 0, got %d", c.UI.LogLineMaxBytes))
	}
	if c.Snapshot.PollSeconds < 0 {
		errs = append(errs, fmt.Errorf("snapshot.poll_seconds must be >= 0, got %d", c.Snapshot.PollSeconds))
	}
	if c.Networks.FuzzyDistance < 0 {
		errs = append(errs, fmt.Errorf("networks.fuzzy_distance must be >= 0, got %d", c.Networks.FuzzyDistance))
	}
	for i, alias := range c.Networks.Aliases {
		if strings.TrimSpace(alias.Match) == "" || strings.TrimSpace(alias.Name) == "" {
			errs = append(errs, fmt.Errorf("networks.aliases[%d] needs both match and name", i))
		}
	}
	if c.Logging.RetentionDays < 0 {
		errs = append(errs, fmt.Errorf("logging.retention_days must be >= 0, got %d", c.Logging.RetentionDays))
	}
	if !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("metrics.path must start with /, got %q", c.Metrics.Path))
	}
	return errors.Join(errs...)
}

// Print displays the configuration.
func (c *Config) Print() {
	source := c.LoadedFrom
	if source == "" {
		source = "built-in defaults"
	}
	fmt.Printf("Config: %s\n", source)
	fmt.Printf("UI: mode=%s fps=%d filter_debounce=%dms\n", c.UI.Mode, c.UI.TargetFPS, c.UI.FilterDebounceMS)
	if c.UI.InitialFilter != "" {
		fmt.Printf("UI: initial filter %q\n", c.UI.InitialFilter)
	}
	fmt.Printf("Snapshot: %s (poll every %ds, file events=%t)\n", c.Snapshot.File, c.Snapshot.PollSeconds, !c.Snapshot.DisableFileEvents)
	fmt.Printf("Networks: %d aliases (defaults disabled=%t, fuzzy distance=%d)\n",
		len(c.Networks.Aliases), c.Networks.DisableDefaults, c.Networks.FuzzyDistance)
	if c.Logging.Enabled {
		fmt.Printf("Logging: %s (retention %d days)\n", c.Logging.Dir, c.Logging.RetentionDays)
	}
	if c.Metrics.Listen != "" {
		fmt.Printf("Metrics: http://%s%s\n", c.Metrics.Listen, c.Metrics.Path)
	}
}
