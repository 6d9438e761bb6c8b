// Package descartes is the epoch coordinator of a Descartes rollup.
//
// It gates operations by phase and time, feeds claims to the validator
// manager, drives disputes through the resolver and hands finalized epochs
// to the output collaborator. Every operation runs under one lock against a
// working copy of the state and either commits as a whole or leaves no trace.
// Notifications are published after commit.
package descartes

import (
	"sync"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/mclock"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/descartes-rollups/dispute"
	"github.com/rony4d/descartes-rollups/inter"
	"github.com/rony4d/descartes-rollups/inter/iepoch"
	"github.com/rony4d/descartes-rollups/rollup"
	"github.com/rony4d/descartes-rollups/rollup/genesis"
	"github.com/rony4d/descartes-rollups/validatormgr"
)

// Descartes is the coordinator. It is safe for concurrent use; operations
// are serialized.
type Descartes struct {
	mu sync.RWMutex
	// pubMu keeps notifications in commit order without holding mu while sending.
	pubMu sync.Mutex

	gen     genesis.Genesis
	rules   rollup.Rules
	created CreatedEvent

	state iepoch.State
	mgr   *validatormgr.Manager

	clock    mclock.Clock
	input    Input
	output   Output
	arbiter  dispute.Arbiter
	resolver *dispute.Resolver

	feeds   feeds
	metrics *metrics
	log     logrus.FieldLogger
}

// txn is the working copy an operation mutates.
type txn struct {
	now     inter.Timestamp
	state   iepoch.State
	mgr     *validatormgr.Manager
	events  []interface{}
	effects []func()
}

func (tx *txn) emit(ev interface{}) {
	tx.events = append(tx.events, ev)
}

func (tx *txn) after(f func()) {
	tx.effects = append(tx.effects, f)
}

// New deploys a coordinator. Input accumulation for the first epoch starts now.
func New(gen genesis.Genesis, opts ...Option) (*Descartes, error) {
	if err := gen.Validate(); err != nil {
		return nil, err
	}
	o := buildOptions(gen.Rules, opts)
	mgr, err := validatormgr.New(gen.Validators)
	if err != nil {
		return nil, err
	}

	d := &Descartes{
		gen:      gen,
		rules:    gen.Rules,
		mgr:      mgr,
		clock:    o.clock,
		input:    o.input,
		output:   o.output,
		arbiter:  o.arbiter,
		resolver: dispute.NewResolver(o.arbiter, o.log),
		metrics:  newMetrics(o.metrics),
		log:      o.log,
	}
	d.state = iepoch.State{
		Phase:                  inter.InputAccumulation,
		InputAccumulationStart: d.now(),
	}
	d.created = CreatedEvent{
		Input:            gen.Input,
		Output:           gen.Output,
		ValidatorManager: gen.ValidatorManager,
		Dispute:          gen.Dispute,
		InputDuration:    gen.Rules.Epochs.InputDuration,
		ChallengePeriod:  gen.Rules.Epochs.ChallengePeriod,
	}
	d.updateGauges()

	d.log.WithFields(logrus.Fields{
		"rules":           gen.Rules.Name,
		"validators":      len(gen.Validators),
		"inputDuration":   gen.Rules.Epochs.InputDuration,
		"challengePeriod": gen.Rules.Epochs.ChallengePeriod,
		"disputes":        gen.Rules.Disputes.Mode,
	}).Info("DescartesV2 created")
	return d, nil
}

// Created returns the creation notification.
func (d *Descartes) Created() CreatedEvent {
	return d.created
}

func (d *Descartes) Rules() rollup.Rules {
	return d.rules
}

// Arbiter is the dispute collaborator in use.
func (d *Descartes) Arbiter() dispute.Arbiter {
	return d.arbiter
}

// CurrentPhase is the phase an operation would observe now.
func (d *Descartes) CurrentPhase() inter.Phase {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.effectivePhase(d.state, d.now())
}

// CurrentEpoch is the number of finalized epochs, plus one while a claim
// round is open.
func (d *Descartes) CurrentEpoch() idx.Epoch {
	d.mu.RLock()
	defer d.mu.RUnlock()
	epoch := d.output.NumberOfFinalizedEpochs()
	if d.effectivePhase(d.state, d.now()) != inter.InputAccumulation {
		epoch++
	}
	return epoch
}

func (d *Descartes) InputAccumulationStart() inter.Timestamp {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state.InputAccumulationStart
}

// OpenDispute returns the dispute waiting for ResolveDispute, if any.
func (d *Descartes) OpenDispute() (inter.Dispute, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.state.Dispute == nil {
		return inter.Dispute{}, false
	}
	return *d.state.Dispute, true
}

// Validators is the active validator set.
func (d *Descartes) Validators() []common.Address {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.mgr.Validators()
}

// CurrentClaim is the leading claim of the open round.
func (d *Descartes) CurrentClaim() common.Hash {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.mgr.CurrentClaim()
}

// StateHash fingerprints the committed state.
func (d *Descartes) StateHash() common.Hash {
	d.mu.RLock()
	defer d.mu.RUnlock()
	finalized := d.output.NumberOfFinalizedEpochs()
	return iepoch.Snapshot{
		State:           d.state.Copy(),
		FinalizedEpochs: finalized,
		Validators:      d.mgr.Validators(),
		Round:           d.mgr.Round(finalized),
	}.Hash()
}

// Close ends all subscriptions.
func (d *Descartes) Close() {
	d.feeds.scope.Close()
}

func (d *Descartes) now() inter.Timestamp {
	return inter.FromAbsTime(d.clock.Now())
}

// exec runs fn against a working copy and commits it if fn succeeds.
func (d *Descartes) exec(op string, fn func(tx *txn) error) error {
	d.mu.Lock()
	tx := &txn{
		now:   d.now(),
		state: d.state.Copy(),
		mgr:   d.mgr.Copy(),
	}
	if err := fn(tx); err != nil {
		d.mu.Unlock()
		d.metrics.reject(op, err)
		d.log.WithField("op", op).WithError(err).Debug("Operation rejected")
		return err
	}
	d.state = tx.state
	d.mgr = tx.mgr
	for _, f := range tx.effects {
		f()
	}
	d.updateGauges()

	d.pubMu.Lock()
	d.mu.Unlock()
	for _, ev := range tx.events {
		d.feeds.send(ev)
	}
	d.pubMu.Unlock()
	return nil
}

func (d *Descartes) updateGauges() {
	d.metrics.phase.Set(float64(d.state.Phase))
	d.metrics.validators.Set(float64(len(d.mgr.Validators())))
}
