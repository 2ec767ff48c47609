package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/xswitcher/internal/logging"
	"github.com/1broseidon/xswitcher/internal/snapshot"
)

// Palette backends accepted by palette_backend.
const (
	PaletteAuto   = "auto"
	PaletteRofi   = "rofi"
	PaletteFuzzel = "fuzzel"
	PaletteWofi   = "wofi"
	PaletteDmenu  = "dmenu"
)

const (
	DefaultIconSize    = 48
	DefaultStickyLabel = "All workspaces"
	DefaultHotkey      = "Mod4-grave"
)

// Config is the effective xswitcher configuration.
type Config struct {
	// Display is the X display to connect to. Empty uses $DISPLAY.
	Display string `yaml:"display,omitempty"`
	// XAuthority is exported as XAUTHORITY before connecting, if set.
	XAuthority string `yaml:"xauthority,omitempty"`

	// CacheDir holds the icon store. Empty uses $XDG_CACHE_HOME/xswitcher/icons.
	CacheDir string `yaml:"cache_dir,omitempty"`
	// CacheTTL bounds snapshot reuse. Zero disables the snapshot cache.
	CacheTTL time.Duration `yaml:"cache_ttl"`
	// IconSize is the edge length, in pixels, of stored icons.
	IconSize int `yaml:"icon_size"`
	// PartialSnapshots skips windows that fail to resolve instead of failing
	// the whole listing.
	PartialSnapshots bool `yaml:"partial_snapshots"`
	// StickyLabel is the workspace shown for windows on all desktops.
	StickyLabel string `yaml:"sticky_label"`

	PaletteBackend       string `yaml:"palette_backend"`
	PaletteFuzzyMatching bool   `yaml:"palette_fuzzy_matching"`
	// Hotkey opens the palette while the daemon runs. Empty disables it.
	Hotkey string `yaml:"hotkey"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	// MetricsAddr is the listen address for /metrics. Empty disables it.
	MetricsAddr string `yaml:"metrics_addr,omitempty"`
	// PrewarmInterval rebuilds the snapshot in the background on this period
	// so launcher queries hit a warm cache. Zero disables it.
	PrewarmInterval time.Duration `yaml:"prewarm_interval"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		CacheTTL:             snapshot.DefaultTTL,
		IconSize:             DefaultIconSize,
		StickyLabel:          DefaultStickyLabel,
		PaletteBackend:       PaletteAuto,
		PaletteFuzzyMatching: true,
		Hotkey:               DefaultHotkey,
		LogLevel:             "info",
		LogFormat:            "console",
	}
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if c.CacheTTL < 0 {
		return &ValidationError{Path: "cache_ttl", Err: fmt.Errorf("cache_ttl must be >= 0")}
	}
	if c.IconSize < 8 || c.IconSize > 512 {
		return &ValidationError{Path: "icon_size", Err: fmt.Errorf("icon_size must be between 8 and 512")}
	}
	if strings.TrimSpace(c.StickyLabel) == "" {
		return &ValidationError{Path: "sticky_label", Err: fmt.Errorf("sticky_label must not be empty")}
	}
	switch c.PaletteBackend {
	case PaletteAuto, PaletteRofi, PaletteFuzzel, PaletteWofi, PaletteDmenu:
	default:
		return &ValidationError{Path: "palette_backend", Err: fmt.Errorf("palette_backend must be one of: auto, rofi, fuzzel, dmenu, wofi")}
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return &ValidationError{Path: "log_level", Err: err}
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return &ValidationError{Path: "log_format", Err: fmt.Errorf("log_format must be one of: console, json")}
	}
	if c.PrewarmInterval < 0 {
		return &ValidationError{Path: "prewarm_interval", Err: fmt.Errorf("prewarm_interval must be >= 0")}
	}
	if c.PrewarmInterval > 0 && c.PrewarmInterval < 100*time.Millisecond {
		return &ValidationError{Path: "prewarm_interval", Err: fmt.Errorf("prewarm_interval must be at least 100ms")}
	}
	return nil
}

// LoggingConfig converts the log settings for logging.New.
func (c *Config) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = c.LogLevel
	cfg.Format = c.LogFormat
	return cfg
}

// fileConfig is the on-disk shape written by Marshal. Durations use their
// string form so the output loads back unchanged.
type fileConfig struct {
	Display              string `yaml:"display,omitempty"`
	XAuthority           string `yaml:"xauthority,omitempty"`
	CacheDir             string `yaml:"cache_dir,omitempty"`
	CacheTTL             string `yaml:"cache_ttl"`
	IconSize             int    `yaml:"icon_size"`
	PartialSnapshots     bool   `yaml:"partial_snapshots"`
	StickyLabel          string `yaml:"sticky_label"`
	PaletteBackend       string `yaml:"palette_backend"`
	PaletteFuzzyMatching bool   `yaml:"palette_fuzzy_matching"`
	Hotkey               string `yaml:"hotkey"`
	LogLevel             string `yaml:"log_level"`
	LogFormat            string `yaml:"log_format"`
	MetricsAddr          string `yaml:"metrics_addr,omitempty"`
	PrewarmInterval      string `yaml:"prewarm_interval"`
}

// Marshal renders the config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(fileConfig{
		Display:              c.Display,
		XAuthority:           c.XAuthority,
		CacheDir:             c.CacheDir,
		CacheTTL:             c.CacheTTL.String(),
		IconSize:             c.IconSize,
		PartialSnapshots:     c.PartialSnapshots,
		StickyLabel:          c.StickyLabel,
		PaletteBackend:       c.PaletteBackend,
		PaletteFuzzyMatching: c.PaletteFuzzyMatching,
		Hotkey:               c.Hotkey,
		LogLevel:             c.LogLevel,
		LogFormat:            c.LogFormat,
		MetricsAddr:          c.MetricsAddr,
		PrewarmInterval:      c.PrewarmInterval.String(),
	})
}

// Save writes the config to path, creating parent directories.
func (c *Config) Save(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
