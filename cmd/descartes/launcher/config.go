// This file maps the config file and CLI context to the Config struct.

package launcher

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"reflect"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/naoina/toml"
	"gopkg.in/urfave/cli.v1"

	"github.com/rony4d/descartes-rollups/integration"
	"github.com/rony4d/descartes-rollups/inter"
	"github.com/rony4d/descartes-rollups/rollup"
	"github.com/rony4d/descartes-rollups/rollup/genesis"
)

// Config aggregates everything the launcher needs.
type Config struct {
	Node    NodeConfig
	Rollup  RollupConfig
	Store   StoreConfig
	Keeper  KeeperConfig
	Logging LoggingConfig
	Metrics MetricsConfig
	Sentry  SentryConfig
}

type NodeConfig struct {
	Name string
}

// RollupConfig selects a preset and optionally overrides its rules.
// Empty or zero fields keep the preset's value.
type RollupConfig struct {
	Preset          string
	Rules           string
	Validators      int
	InputDuration   string
	ChallengePeriod string
	DisputeMode     string
	Permissioned    bool
}

type StoreConfig struct {
	CacheSize int
	MaxInputs int
}

type KeeperConfig struct {
	Interval string
}

type LoggingConfig struct {
	Verbosity int
	Format    string
	Color     bool
}

type MetricsConfig struct {
	Enable   bool
	HTTPAddr string
	HTTPPort int
}

type SentryConfig struct {
	DSN string
}

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		return fmt.Errorf("field '%s' is not defined in %s", field, rt.String())
	},
}

// -----------------------------------------------------------------------------
// Default config + builders
// -----------------------------------------------------------------------------

func defaultConfig() Config {
	d := DefaultConfig()
	return Config{
		Node:   NodeConfig{Name: d.Node.Name},
		Rollup: RollupConfig{Preset: d.Rollup.Preset},
		Store: StoreConfig{
			CacheSize: d.Store.CacheSize,
			MaxInputs: d.Store.MaxInputs,
		},
		Keeper: KeeperConfig{Interval: d.Keeper.Interval},
		Logging: LoggingConfig{
			Verbosity: d.Logging.Verbosity,
			Format:    d.Logging.Format,
			Color:     d.Logging.Color,
		},
		Metrics: MetricsConfig{
			Enable:   d.Metrics.Enable,
			HTTPAddr: d.Metrics.HTTPAddr,
			HTTPPort: d.Metrics.HTTPPort,
		},
	}
}

// MakeAllConfigs merges defaults, the optional config file, then CLI overrides.
func MakeAllConfigs(ctx *cli.Context) (Config, error) {
	cfg := defaultConfig()

	if file := ctx.GlobalString("config"); file != "" {
		if err := loadConfigFile(file, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to load config file %s: %w", file, err)
		}
	}

	applyCLIOverrides(ctx, &cfg)
	return cfg, nil
}

// makeDeployment resolves the preset and applies the rollup overrides.
func makeDeployment(cfg Config) (genesis.Genesis, integration.PresetConfig, error) {
	preset, err := integration.GetPresetByName(cfg.Rollup.Preset)
	if err != nil {
		return genesis.Genesis{}, preset, err
	}
	integration.ApplyPreset(&preset, integration.PresetConfig{
		Rules:         cfg.Rollup.Rules,
		Validators:    cfg.Rollup.Validators,
		CacheSize:     cfg.Store.CacheSize,
		MaxInputs:     cfg.Store.MaxInputs,
		EnableMetrics: preset.EnableMetrics || cfg.Metrics.Enable,
	})

	gen, err := integration.MakeGenesis(preset)
	if err != nil {
		return gen, preset, err
	}

	var errs *multierror.Error
	if cfg.Rollup.InputDuration != "" {
		d, err := parseDuration("input duration", cfg.Rollup.InputDuration)
		errs = multierror.Append(errs, err)
		gen.Rules.Epochs.InputDuration = d
	}
	if cfg.Rollup.ChallengePeriod != "" {
		d, err := parseDuration("challenge period", cfg.Rollup.ChallengePeriod)
		errs = multierror.Append(errs, err)
		gen.Rules.Epochs.ChallengePeriod = d
	}
	if cfg.Rollup.DisputeMode != "" {
		gen.Rules.Disputes.Mode = rollup.DisputeMode(cfg.Rollup.DisputeMode)
	}
	if cfg.Rollup.Permissioned {
		gen.Rules.Disputes.Permissioned = true
	}
	errs = multierror.Append(errs, gen.Validate())
	return gen, preset, errs.ErrorOrNil()
}

func parseDuration(what, raw string) (inter.Timestamp, error) {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", what, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", what, raw)
	}
	return inter.Timestamp(d), nil
}

func keeperInterval(cfg Config) (time.Duration, error) {
	d, err := time.ParseDuration(cfg.Keeper.Interval)
	if err != nil {
		return 0, fmt.Errorf("invalid keeper interval %q: %w", cfg.Keeper.Interval, err)
	}
	if d <= 0 {
		return 0, errors.New("keeper interval must be positive")
	}
	return d, nil
}

// -----------------------------------------------------------------------------
// Config-file / CLI wiring
// -----------------------------------------------------------------------------

func loadConfigFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(path + ", " + err.Error())
	}
	return err
}

func applyCLIOverrides(ctx *cli.Context, cfg *Config) {
	if ctx.GlobalIsSet("identity") {
		cfg.Node.Name = ctx.GlobalString("identity")
	}

	if ctx.GlobalIsSet("preset") {
		cfg.Rollup.Preset = ctx.GlobalString("preset")
	}
	if ctx.GlobalIsSet("rules") {
		cfg.Rollup.Rules = ctx.GlobalString("rules")
	}
	if ctx.GlobalIsSet("fakenet") {
		cfg.Rollup.Validators = ctx.GlobalInt("fakenet")
	}
	if ctx.GlobalIsSet("rollup.inputduration") {
		cfg.Rollup.InputDuration = ctx.GlobalString("rollup.inputduration")
	}
	if ctx.GlobalIsSet("rollup.challengeperiod") {
		cfg.Rollup.ChallengePeriod = ctx.GlobalString("rollup.challengeperiod")
	}
	if ctx.GlobalIsSet("rollup.disputes") {
		cfg.Rollup.DisputeMode = ctx.GlobalString("rollup.disputes")
	}
	if ctx.GlobalIsSet("rollup.permissioned") {
		cfg.Rollup.Permissioned = ctx.GlobalBool("rollup.permissioned")
	}

	if ctx.GlobalIsSet("cache") {
		cfg.Store.CacheSize = ctx.GlobalInt("cache")
	}
	if ctx.GlobalIsSet("inputs.max") {
		cfg.Store.MaxInputs = ctx.GlobalInt("inputs.max")
	}
	if ctx.GlobalIsSet("keeper.interval") {
		cfg.Keeper.Interval = ctx.GlobalDuration("keeper.interval").String()
	}

	if ctx.GlobalIsSet("log.format") {
		cfg.Logging.Format = ctx.GlobalString("log.format")
	}
	if ctx.GlobalIsSet("log.verbosity") {
		cfg.Logging.Verbosity = ctx.GlobalInt("log.verbosity")
	}
	if ctx.GlobalIsSet("log.color") {
		cfg.Logging.Color = ctx.GlobalBool("log.color")
	}

	if ctx.GlobalIsSet("metrics") {
		cfg.Metrics.Enable = ctx.GlobalBool("metrics")
	}
	if ctx.GlobalIsSet("metrics.addr") {
		cfg.Metrics.HTTPAddr = ctx.GlobalString("metrics.addr")
	}
	if ctx.GlobalIsSet("metrics.port") {
		cfg.Metrics.HTTPPort = ctx.GlobalInt("metrics.port")
	}

	if ctx.GlobalIsSet("sentry.dsn") {
		cfg.Sentry.DSN = ctx.GlobalString("sentry.dsn")
	}
}
