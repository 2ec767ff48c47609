package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.CacheTTL != 2*time.Second {
		t.Fatalf("expected 2s cache_ttl, got %v", cfg.CacheTTL)
	}
	if cfg.StickyLabel != DefaultStickyLabel {
		t.Fatalf("unexpected sticky_label %q", cfg.StickyLabel)
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.IconSize != DefaultIconSize {
		t.Fatalf("expected icon_size %d, got %d", DefaultIconSize, res.Config.IconSize)
	}
	if len(res.Files) != 0 {
		t.Fatalf("expected no files, got %v", res.Files)
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "# empty\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.PaletteBackend != PaletteAuto {
		t.Fatalf("expected palette_backend auto, got %q", res.Config.PaletteBackend)
	}
}

func TestLoadFromPath_AllKeys(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", strings.Join([]string{
		`display: ":1"`,
		`xauthority: "/tmp/test-xauth"`,
		`cache_dir: /tmp/icons`,
		`cache_ttl: 500ms`,
		`icon_size: 64`,
		`partial_snapshots: true`,
		`sticky_label: Everywhere`,
		`palette_backend: Fuzzel`,
		`palette_fuzzy_matching: false`,
		`hotkey: Mod4-space`,
		`log_level: debug`,
		`log_format: json`,
		`metrics_addr: 127.0.0.1:9464`,
		`prewarm_interval: 1s`,
		``,
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config
	want := Config{
		Display:              ":1",
		XAuthority:           "/tmp/test-xauth",
		CacheDir:             "/tmp/icons",
		CacheTTL:             500 * time.Millisecond,
		IconSize:             64,
		PartialSnapshots:     true,
		StickyLabel:          "Everywhere",
		PaletteBackend:       PaletteFuzzel,
		PaletteFuzzyMatching: false,
		Hotkey:               "Mod4-space",
		LogLevel:             "debug",
		LogFormat:            "json",
		MetricsAddr:          "127.0.0.1:9464",
		PrewarmInterval:      time.Second,
	}
	if *cfg != want {
		t.Fatalf("config mismatch:\n got %+v\nwant %+v", *cfg, want)
	}
}

func TestLoadFromPath_ZeroTTLDisablesCache(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "cache_ttl: 0s\n")
	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.CacheTTL != 0 {
		t.Fatalf("expected zero ttl, got %v", res.Config.CacheTTL)
	}
}

func TestLoadFromPath_StrictUnknownKeyErrors(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "nope: 1\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "nope") {
		t.Fatalf("expected error to mention unknown key, got %v", err)
	}
}

func TestLoadFromPath_ValidationErrorHasSourceContext(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "log_level: info\npalette_backend: kitty\n")

	_, err := LoadFromPath(path)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
	if verr.Path != "palette_backend" {
		t.Fatalf("expected path palette_backend, got %q", verr.Path)
	}
	if verr.Source.Kind != SourceFile || verr.Source.Line != 2 {
		t.Fatalf("expected file source on line 2, got %+v", verr.Source)
	}
	if !strings.Contains(err.Error(), ":2:") {
		t.Fatalf("expected line number in error, got %q", err.Error())
	}
}

func TestLoadFromPath_InvalidValues(t *testing.T) {
	tests := []struct {
		body string
		path string
	}{
		{"cache_ttl: -1s\n", "cache_ttl"},
		{"icon_size: 4\n", "icon_size"},
		{"sticky_label: \"  \"\n", "sticky_label"},
		{"log_level: loud\n", "log_level"},
		{"log_format: xml\n", "log_format"},
		{"prewarm_interval: 10ms\n", "prewarm_interval"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), "config.yaml", tt.body)
			_, err := LoadFromPath(path)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Path != tt.path {
				t.Fatalf("expected path %q, got %q", tt.path, verr.Path)
			}
		})
	}
}

func TestLoadFromPath_IncludeDirectoryOrderAndMainOverrides(t *testing.T) {
	dir := t.TempDir()
	incDir := filepath.Join(dir, "conf.d")
	if err := os.MkdirAll(incDir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeConfig(t, incDir, "10-a.yaml", "icon_size: 32\nsticky_label: A\n")
	writeConfig(t, incDir, "20-b.yaml", "icon_size: 40\n")
	writeConfig(t, incDir, "ignored.txt", "icon_size: 99\n")
	path := writeConfig(t, dir, "config.yaml", "include: conf.d\nsticky_label: Main\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.IconSize != 40 {
		t.Fatalf("expected later include to win, got icon_size %d", res.Config.IconSize)
	}
	if res.Config.StickyLabel != "Main" {
		t.Fatalf("expected main file to win, got %q", res.Config.StickyLabel)
	}
	if len(res.Files) != 3 {
		t.Fatalf("expected 3 loaded files, got %v", res.Files)
	}
	if !strings.HasSuffix(res.Sources["icon_size"].File, "20-b.yaml") {
		t.Fatalf("expected icon_size sourced from 20-b.yaml, got %+v", res.Sources["icon_size"])
	}
}

func TestLoadFromPath_IncludeMissingPathHasContext(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "include: missing.yaml\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), `include "missing.yaml"`) {
		t.Fatalf("expected include context, got %v", err)
	}
}

func TestLoadFromPath_IncludeCycleDetection(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "a.yaml", "include: b.yaml\n")
	writeConfig(t, dir, "b.yaml", "include: a.yaml\n")

	_, err := LoadFromPath(filepath.Join(dir, "a.yaml"))
	if err == nil || !strings.Contains(err.Error(), "include cycle") {
		t.Fatalf("expected include cycle error, got %v", err)
	}
}

func TestLoadFromPath_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "cache_ttl: 5s\nicon_size: 32\n")
	t.Setenv("XSWITCHER_CACHE_TTL", "750ms")
	t.Setenv("XSWITCHER_PARTIAL_SNAPSHOTS", "true")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.CacheTTL != 750*time.Millisecond {
		t.Fatalf("expected env ttl, got %v", res.Config.CacheTTL)
	}
	if !res.Config.PartialSnapshots {
		t.Fatalf("expected partial_snapshots from env")
	}
	if res.Config.IconSize != 32 {
		t.Fatalf("expected file icon_size, got %d", res.Config.IconSize)
	}

	_, src, err := Explain(res, "cache_ttl")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if src.Kind != SourceEnv || src.Name != "XSWITCHER_CACHE_TTL" {
		t.Fatalf("expected env source, got %+v", src)
	}
}

func TestLoadFromPath_EnvValidationError(t *testing.T) {
	t.Setenv("XSWITCHER_LOG_FORMAT", "xml")

	_, err := LoadFromPath(filepath.Join(t.TempDir(), "config.yaml"))
	if err == nil || !strings.Contains(err.Error(), "XSWITCHER_LOG_FORMAT") {
		t.Fatalf("expected env var in error, got %v", err)
	}
}

func TestLoadFromPath_BadEnvValue(t *testing.T) {
	t.Setenv("XSWITCHER_ICON_SIZE", "big")

	_, err := LoadFromPath(filepath.Join(t.TempDir(), "config.yaml"))
	if err == nil || !strings.Contains(err.Error(), "environment") {
		t.Fatalf("expected environment error, got %v", err)
	}
}

func TestExplain(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "hotkey: Mod4-space\n")
	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	value, src, err := Explain(res, "hotkey")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if value != "Mod4-space" || src.Kind != SourceFile || src.Line != 1 {
		t.Fatalf("unexpected explain result %v %+v", value, src)
	}

	value, src, err = Explain(res, "icon_size")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if value != DefaultIconSize || src.Kind != SourceDefault {
		t.Fatalf("unexpected default explain %v %+v", value, src)
	}

	if _, _, err := Explain(res, "layouts"); err == nil {
		t.Fatalf("expected unknown key error")
	}
	if len(Keys()) != 14 {
		t.Fatalf("expected 14 keys, got %v", Keys())
	}
}

func TestSave_RoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CacheTTL = 1500 * time.Millisecond
	cfg.PrewarmInterval = 3 * time.Second
	cfg.MetricsAddr = ":9464"

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if *res.Config != *cfg {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", *res.Config, *cfg)
	}
}
