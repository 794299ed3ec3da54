package main

import (
	"fmt"
	"slices"

	"github.com/BurntSushi/toml"

	"github.com/johannst/fun-with-elf/dynlink"
)

type config struct {
	Inspect inspectConfig `toml:"inspect"`
	Query   queryConfig   `toml:"query"`
}

type inspectConfig struct {
	VirtualDSOMarkers []string `toml:"vdso_markers"`
	SkipMissing       bool     `toml:"skip_missing"`
}

type queryConfig struct {
	Symbols []string `toml:"symbols"`
}

func defaultConfig() config {
	return config{
		Inspect: inspectConfig{
			// decoding reuses the backing array of a long enough slice
			VirtualDSOMarkers: slices.Clone(dynlink.DefaultVirtualDSOMarkers),
		},
		Query: queryConfig{
			Symbols: []string{"recv"},
		},
	}
}

// loadConfig overlays the file at path on the defaults. An empty path keeps
// the defaults.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) != 0 {
		return config{}, fmt.Errorf("%s: unknown keys %v", path, undecoded)
	}
	return cfg, nil
}

func (c config) inspectOptions() dynlink.InspectOptions {
	return dynlink.InspectOptions{
		VirtualDSOMarkers: c.Inspect.VirtualDSOMarkers,
		SkipMissing:       c.Inspect.SkipMissing,
	}
}
