package launcher

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/Fantom-foundation/lachesis-base/kvdb/memorydb"
	"gopkg.in/urfave/cli.v1"

	"github.com/rony4d/descartes-rollups/descartes"
	"github.com/rony4d/descartes-rollups/flags"
	"github.com/rony4d/descartes-rollups/integration"
)

var dumpConfigCommand = cli.Command{
	Action:      dumpConfig,
	Name:        "dumpconfig",
	Usage:       "Show configuration values",
	ArgsUsage:   "",
	Description: `The dumpconfig command shows configuration values in TOML format.`,
}

func newApp() *cli.App {
	app := flags.NewApp()
	app.Action = run
	app.Commands = []cli.Command{
		replayCommand,
		dumpConfigCommand,
	}
	return app
}

// Launch parses args and runs the selected command.
func Launch(args []string) error {
	return newApp().Run(args)
}

// run assembles an engine and keeps it going until interrupted.
func run(ctx *cli.Context) error {
	cfg, err := MakeAllConfigs(ctx)
	if err != nil {
		return err
	}
	log, err := setupLogging(os.Stderr, cfg.Logging, cfg.Sentry, cfg.Node.Name)
	if err != nil {
		return err
	}
	gen, preset, err := makeDeployment(cfg)
	if err != nil {
		return err
	}
	interval, err := keeperInterval(cfg)
	if err != nil {
		return err
	}

	var opts []descartes.Option
	if preset.EnableMetrics {
		reg := newRegistry()
		opts = append(opts, descartes.WithMetrics(reg))
		srv := startMetrics(cfg.Metrics, reg, log)
		defer srv.Close()
	}

	engine, err := integration.MakeEngine(gen, preset, memorydb.New(), log, opts...)
	if err != nil {
		return err
	}
	defer engine.Close()

	quit := make(chan struct{})
	w := newWatcher(engine.Descartes)
	defer w.close()
	go w.loop(quit, func(ev interface{}) { logNotification(log, ev) })

	k := &keeper{d: engine.Descartes, gen: gen, interval: interval, log: log.WithField("module", "keeper")}
	go k.loop(quit)

	log.WithField("preset", preset.Name).Info("Engine started")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	close(quit)
	log.Info("Shutting down")
	return nil
}

func dumpConfig(ctx *cli.Context) error {
	cfg, err := MakeAllConfigs(ctx)
	if err != nil {
		return err
	}
	out, err := tomlSettings.Marshal(&cfg)
	if err != nil {
		return err
	}
	_, err = ctx.App.Writer.Write(out)
	return err
}
