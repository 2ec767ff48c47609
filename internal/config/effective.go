package config

import (
	"fmt"
	"strings"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch {
	case e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0:
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	case e.Source.Kind == SourceEnv && e.Source.Name != "":
		return fmt.Sprintf("%s: %s: %v", e.Source.Name, e.Path, e.Err)
	case e.Path != "":
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// BuildEffectiveConfig applies raw on top of DefaultConfig. String values
// are trimmed; enumerations are lowercased.
func BuildEffectiveConfig(raw RawConfig) *Config {
	cfg := DefaultConfig()

	if raw.Display != nil {
		cfg.Display = strings.TrimSpace(*raw.Display)
	}
	if raw.XAuthority != nil {
		cfg.XAuthority = strings.TrimSpace(*raw.XAuthority)
	}
	if raw.CacheDir != nil {
		cfg.CacheDir = strings.TrimSpace(*raw.CacheDir)
	}
	if raw.CacheTTL != nil {
		cfg.CacheTTL = *raw.CacheTTL
	}
	if raw.IconSize != nil {
		cfg.IconSize = *raw.IconSize
	}
	if raw.PartialSnapshots != nil {
		cfg.PartialSnapshots = *raw.PartialSnapshots
	}
	if raw.StickyLabel != nil {
		cfg.StickyLabel = *raw.StickyLabel
	}
	if raw.PaletteBackend != nil {
		cfg.PaletteBackend = strings.ToLower(strings.TrimSpace(*raw.PaletteBackend))
	}
	if raw.PaletteFuzzyMatching != nil {
		cfg.PaletteFuzzyMatching = *raw.PaletteFuzzyMatching
	}
	if raw.Hotkey != nil {
		cfg.Hotkey = strings.TrimSpace(*raw.Hotkey)
	}
	if raw.LogLevel != nil {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(*raw.LogLevel))
	}
	if raw.LogFormat != nil {
		cfg.LogFormat = strings.ToLower(strings.TrimSpace(*raw.LogFormat))
	}
	if raw.MetricsAddr != nil {
		cfg.MetricsAddr = strings.TrimSpace(*raw.MetricsAddr)
	}
	if raw.PrewarmInterval != nil {
		cfg.PrewarmInterval = *raw.PrewarmInterval
	}
	return cfg
}
