package launcher

// Defaults bundles the baseline configuration values the launcher uses
// before the config file and flags override them.

type Defaults struct {
	Node    NodeDefaults
	Rollup  RollupDefaults
	Store   StoreDefaults
	Keeper  KeeperDefaults
	Metrics MetricsDefaults
	Logging LoggingDefaults
}

// NodeDefaults captures top-level engine settings.
type NodeDefaults struct {
	Name string //	Human-readable identity attached to every log line; helps operators tell engines apart.
}

// RollupDefaults selects the deployment.
type RollupDefaults struct {
	Preset string //	Deployment preset (dev, test, main, default). Supplies rules, validator count and store limits.
}

// StoreDefaults configures the collaborators' storage.
type StoreDefaults struct {
	CacheSize int //	Finalized epochs kept decoded in memory; 0 takes the preset value.
	MaxInputs int //	Capacity of one input buffer; 0 takes the preset value.
}

// KeeperDefaults tunes the loop that closes input windows and finalizes epochs.
type KeeperDefaults struct {
	Interval string //	Tick of the keeper loop, as a duration string.
}

type MetricsDefaults struct {
	Enable   bool   //	Toggle for the metrics server; when true Prometheus metrics are served on HTTPAddr:HTTPPort.
	HTTPAddr string //	IP/interface the metrics server binds to (e.g., 0.0.0.0 for all interfaces or 127.0.0.1 for local-only).
	HTTPPort int    //	TCP port of the metrics server; default 6060.
}

// LoggingDefaults controls log verbosity/format.
type LoggingDefaults struct {
	Verbosity int    //	Log level numeric (0=fatal, 1=error, 2=warn, 3=info, 4=debug, 5=trace).
	Format    string //	Log output format (text vs json).
	Color     bool   //	Whether to use ANSI color codes in logs (helpful on terminals, best disabled when piping to files).
}

// DefaultConfig returns a fully populated Defaults instance.

func DefaultConfig() Defaults {
	return Defaults{
		Node: NodeDefaults{
			Name: "descartes",
		},
		Rollup: RollupDefaults{
			Preset: "default",
		},
		Keeper: KeeperDefaults{
			Interval: "10s",
		},
		Metrics: MetricsDefaults{
			Enable:   false,
			HTTPAddr: "127.0.0.1",
			HTTPPort: 6060,
		},
		Logging: LoggingDefaults{
			Verbosity: 3,
			Format:    "text",
			Color:     false,
		},
	}
}
