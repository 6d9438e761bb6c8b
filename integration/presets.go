package integration

import "fmt"

// Package integration provides deployment presets and the assembly of a
// complete rollup engine. Presets bundle the settings that vary between
// environments (rules, validator count, cache and input limits) into named
// profiles so operators can start an engine without tuning every flag.
//
// Usage:
//   cfg := integration.DevPreset()  // accelerated timers, deferred disputes
//   cfg := integration.TestPreset() // mainnet timers, open dispute resolution
//   cfg := integration.MainPreset() // production rules, permissioned
//
// Each preset returns a PresetConfig that the launcher merges into its config.

// PresetConfig captures the tunable parameters that vary across presets.
type PresetConfig struct {
	Name          string // human-readable identifier (e.g., "dev", "main")
	Rules         string // rollup rules preset: "fake", "test" or "main"
	Validators    int    // size of the generated validator set
	CacheSize     int    // finalized epochs kept decoded in memory
	MaxInputs     int    // capacity of one input buffer
	EnableMetrics bool   // whether to expose Prometheus metrics
}

func DefaultPreset() PresetConfig {
	return PresetConfig{
		Name:          "default",
		Rules:         "test",
		Validators:    3,
		CacheSize:     128,
		MaxInputs:     1024,
		EnableMetrics: false,
	}
}

// DevPreset is for local development: one-minute input windows, disputes
// left open until resolved by hand.
func DevPreset() PresetConfig {
	cfg := DefaultPreset()
	cfg.Name = "dev"
	cfg.Rules = "fake"
	cfg.CacheSize = 16
	cfg.MaxInputs = 64
	cfg.EnableMetrics = true
	return cfg
}

// TestPreset runs production timers without permissioned entry points.
func TestPreset() PresetConfig {
	cfg := DefaultPreset()
	cfg.Name = "test"
	cfg.Rules = "test"
	cfg.Validators = 5
	cfg.EnableMetrics = true
	return cfg
}

// MainPreset runs production rules with a larger history cache.
func MainPreset() PresetConfig {
	cfg := DefaultPreset()
	cfg.Name = "main"
	cfg.Rules = "main"
	cfg.Validators = 7
	cfg.CacheSize = 1024
	cfg.MaxInputs = 4096
	cfg.EnableMetrics = true
	return cfg
}

// GetPresetByName looks up a preset by its identifier.
//
// Example:
//
//	preset, err := integration.GetPresetByName("dev")
//	if err != nil {
//	    log.Fatal(err)
//	}
func GetPresetByName(name string) (PresetConfig, error) {
	switch name {
	case "dev":
		return DevPreset(), nil
	case "test":
		return TestPreset(), nil
	case "main":
		return MainPreset(), nil
	case "default":
		return DefaultPreset(), nil
	default:
		return PresetConfig{}, fmt.Errorf("unknown preset: %q (valid: dev, test, main, default)", name)
	}
}

// ApplyPreset merges a preset into target. Zero-valued preset fields leave
// target untouched; the metrics toggle is always applied.
func ApplyPreset(target *PresetConfig, preset PresetConfig) {
	if preset.Rules != "" {
		target.Rules = preset.Rules
	}
	if preset.Validators > 0 {
		target.Validators = preset.Validators
	}
	if preset.CacheSize > 0 {
		target.CacheSize = preset.CacheSize
	}
	if preset.MaxInputs > 0 {
		target.MaxInputs = preset.MaxInputs
	}
	target.EnableMetrics = preset.EnableMetrics
	if preset.Name != "" {
		target.Name = preset.Name
	}
}
