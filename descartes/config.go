package descartes

import (
	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common/mclock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/descartes-rollups/dispute"
	"github.com/rony4d/descartes-rollups/inter/ier"
	"github.com/rony4d/descartes-rollups/output"
	"github.com/rony4d/descartes-rollups/rollup"
)

// Input is the input collaborator.
type Input interface {
	// OnNewInputAccumulation is called when the accumulation window closes.
	OnNewInputAccumulation()
	// OnNewEpoch is called when an epoch is finalized.
	OnNewEpoch()
}

// Output is the output collaborator. It owns the finalized history.
type Output interface {
	NumberOfFinalizedEpochs() idx.Epoch
	OnNewEpoch(rec ier.FinalizedEpoch) error
}

type nopInput struct{}

func (nopInput) OnNewInputAccumulation() {}
func (nopInput) OnNewEpoch()             {}

type options struct {
	clock   mclock.Clock
	log     logrus.FieldLogger
	input   Input
	output  Output
	arbiter dispute.Arbiter
	metrics prometheus.Registerer
}

// Option customizes New.
type Option func(*options)

// WithClock sets the time source. Tests use *mclock.Simulated.
func WithClock(c mclock.Clock) Option {
	return func(o *options) { o.clock = c }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(o *options) { o.log = log }
}

func WithInput(in Input) Option {
	return func(o *options) { o.input = in }
}

func WithOutput(out Output) Option {
	return func(o *options) { o.output = out }
}

// WithArbiter overrides the arbiter chosen by the dispute mode of the rules.
func WithArbiter(a dispute.Arbiter) Option {
	return func(o *options) { o.arbiter = a }
}

// WithMetrics registers the coordinator metrics with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) { o.metrics = reg }
}

func defaultArbiter(mode rollup.DisputeMode) dispute.Arbiter {
	if mode == rollup.DeferredDisputes {
		return dispute.NewDeferred()
	}
	return dispute.FirstClaimWins{}
}

func buildOptions(rules rollup.Rules, opts []Option) options {
	o := options{
		clock: mclock.System{},
		log:   logrus.StandardLogger(),
		input: nopInput{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.output == nil {
		o.output = output.NewMem()
	}
	if o.arbiter == nil {
		o.arbiter = defaultArbiter(rules.Disputes.Mode)
	}
	return o
}
