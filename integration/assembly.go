package integration

import (
	"fmt"

	"github.com/Fantom-foundation/lachesis-base/kvdb"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/descartes-rollups/descartes"
	"github.com/rony4d/descartes-rollups/input"
	"github.com/rony4d/descartes-rollups/output"
	"github.com/rony4d/descartes-rollups/rollup"
	"github.com/rony4d/descartes-rollups/rollup/genesis"
)

// Engine is an assembled deployment: the coordinator and its collaborators.
type Engine struct {
	Genesis   genesis.Genesis
	Descartes *descartes.Descartes
	Input     *input.Box
	Output    *output.Store

	db kvdb.Store
}

// MakeGenesis builds the deterministic deployment a preset describes.
func MakeGenesis(preset PresetConfig) (genesis.Genesis, error) {
	rules, err := rollup.RulesByName(preset.Rules)
	if err != nil {
		return genesis.Genesis{}, err
	}
	return genesis.FakeGenesis(preset.Validators, rules), nil
}

// MakeEngine wires the coordinator to an input box and to an output store over db.
// Extra options are applied after the collaborators, so they may replace them.
func MakeEngine(gen genesis.Genesis, preset PresetConfig, db kvdb.Store, log logrus.FieldLogger, opts ...descartes.Option) (*Engine, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	out, err := output.New(db, preset.CacheSize, log.WithField("module", "output"))
	if err != nil {
		return nil, fmt.Errorf("failed to open output store: %w", err)
	}
	box := input.New(gen.Input, preset.MaxInputs, log.WithField("module", "input"))

	opts = append([]descartes.Option{
		descartes.WithInput(box),
		descartes.WithOutput(out),
		descartes.WithLogger(log.WithField("module", "descartes")),
	}, opts...)
	d, err := descartes.New(gen, opts...)
	if err != nil {
		return nil, err
	}
	box.SetNotifier(d)

	return &Engine{
		Genesis:   gen,
		Descartes: d,
		Input:     box,
		Output:    out,
		db:        db,
	}, nil
}

// Close ends subscriptions and closes the database.
func (e *Engine) Close() error {
	e.Descartes.Close()
	return e.db.Close()
}
