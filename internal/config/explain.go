package config

import (
	"fmt"
	"sort"
)

// Keys returns every configuration key in sorted order.
func Keys() []string {
	keys := make([]string, 0, 14)
	for key := range values(DefaultConfig()) {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Explain returns the effective value of key and where it came from.
func Explain(res *LoadResult, key string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if key == "" {
		return nil, Source{}, fmt.Errorf("key is empty")
	}

	value, ok := values(res.Config)[key]
	if !ok {
		return nil, Source{}, fmt.Errorf("unknown key: %s", key)
	}
	if src, ok := res.Sources[key]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault}, nil
}

func values(cfg *Config) map[string]any {
	return map[string]any{
		"display":                cfg.Display,
		"xauthority":             cfg.XAuthority,
		"cache_dir":              cfg.CacheDir,
		"cache_ttl":              cfg.CacheTTL,
		"icon_size":              cfg.IconSize,
		"partial_snapshots":      cfg.PartialSnapshots,
		"sticky_label":           cfg.StickyLabel,
		"palette_backend":        cfg.PaletteBackend,
		"palette_fuzzy_matching": cfg.PaletteFuzzyMatching,
		"hotkey":                 cfg.Hotkey,
		"log_level":              cfg.LogLevel,
		"log_format":             cfg.LogFormat,
		"metrics_addr":           cfg.MetricsAddr,
		"prewarm_interval":       cfg.PrewarmInterval,
	}
}
