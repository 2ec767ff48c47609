package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

// RawConfig is one layer of configuration: a file, an included file or the
// environment. Nil fields are unset and leave the layer below untouched.
//
// The envconfig tags name the variables read with the XSWITCHER_ prefix,
// e.g. XSWITCHER_CACHE_TTL.
type RawConfig struct {
	Include IncludeList `yaml:"include,omitempty" ignored:"true"`

	Display              *string        `yaml:"display" envconfig:"display"`
	XAuthority           *string        `yaml:"xauthority" envconfig:"xauthority"`
	CacheDir             *string        `yaml:"cache_dir" envconfig:"cache_dir"`
	CacheTTL             *time.Duration `yaml:"cache_ttl" envconfig:"cache_ttl"`
	IconSize             *int           `yaml:"icon_size" envconfig:"icon_size"`
	PartialSnapshots     *bool          `yaml:"partial_snapshots" envconfig:"partial_snapshots"`
	StickyLabel          *string        `yaml:"sticky_label" envconfig:"sticky_label"`
	PaletteBackend       *string        `yaml:"palette_backend" envconfig:"palette_backend"`
	PaletteFuzzyMatching *bool          `yaml:"palette_fuzzy_matching" envconfig:"palette_fuzzy_matching"`
	Hotkey               *string        `yaml:"hotkey" envconfig:"hotkey"`
	LogLevel             *string        `yaml:"log_level" envconfig:"log_level"`
	LogFormat            *string        `yaml:"log_format" envconfig:"log_format"`
	MetricsAddr          *string        `yaml:"metrics_addr" envconfig:"metrics_addr"`
	PrewarmInterval      *time.Duration `yaml:"prewarm_interval" envconfig:"prewarm_interval"`
}

// merge returns c with every field set in overlay replaced.
func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c
	out.Include = nil
	setIf(&out.Display, overlay.Display)
	setIf(&out.XAuthority, overlay.XAuthority)
	setIf(&out.CacheDir, overlay.CacheDir)
	setIf(&out.CacheTTL, overlay.CacheTTL)
	setIf(&out.IconSize, overlay.IconSize)
	setIf(&out.PartialSnapshots, overlay.PartialSnapshots)
	setIf(&out.StickyLabel, overlay.StickyLabel)
	setIf(&out.PaletteBackend, overlay.PaletteBackend)
	setIf(&out.PaletteFuzzyMatching, overlay.PaletteFuzzyMatching)
	setIf(&out.Hotkey, overlay.Hotkey)
	setIf(&out.LogLevel, overlay.LogLevel)
	setIf(&out.LogFormat, overlay.LogFormat)
	setIf(&out.MetricsAddr, overlay.MetricsAddr)
	setIf(&out.PrewarmInterval, overlay.PrewarmInterval)
	return out
}

// setPaths lists the keys this layer sets.
func (c RawConfig) setPaths() []string {
	var paths []string
	add := func(set bool, key string) {
		if set {
			paths = append(paths, key)
		}
	}
	add(c.Display != nil, "display")
	add(c.XAuthority != nil, "xauthority")
	add(c.CacheDir != nil, "cache_dir")
	add(c.CacheTTL != nil, "cache_ttl")
	add(c.IconSize != nil, "icon_size")
	add(c.PartialSnapshots != nil, "partial_snapshots")
	add(c.StickyLabel != nil, "sticky_label")
	add(c.PaletteBackend != nil, "palette_backend")
	add(c.PaletteFuzzyMatching != nil, "palette_fuzzy_matching")
	add(c.Hotkey != nil, "hotkey")
	add(c.LogLevel != nil, "log_level")
	add(c.LogFormat != nil, "log_format")
	add(c.MetricsAddr != nil, "metrics_addr")
	add(c.PrewarmInterval != nil, "prewarm_interval")
	return paths
}

func setIf[T any](dst **T, src *T) {
	if src != nil {
		v := *src
		*dst = &v
	}
}
