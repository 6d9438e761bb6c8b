package descartes

import (
	"fmt"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/descartes-rollups/dispute"
	"github.com/rony4d/descartes-rollups/inter"
	"github.com/rony4d/descartes-rollups/inter/iepoch"
	"github.com/rony4d/descartes-rollups/inter/ier"
)

// Claim submits caller's result hash for the epoch being claimed. The first
// claim after the input window closes also closes the window. Conflicts are
// arbitrated before Claim returns unless the arbiter defers them.
func (d *Descartes) Claim(caller common.Address, h common.Hash) error {
	return d.exec("claim", func(tx *txn) error {
		if h == inter.EmptyClaim {
			return inter.ErrEmptyClaim
		}
		if !tx.mgr.IsValidator(caller) {
			return inter.ErrNotValidator
		}
		d.commitPending(tx)
		if tx.state.Phase != inter.AwaitingConsensus {
			return inter.ErrClaimPhase
		}

		epoch := d.output.NumberOfFinalizedEpochs()
		leader := tx.mgr.CurrentClaim()
		out, err := tx.mgr.OnClaim(caller, h)
		if err != nil {
			return err
		}
		tx.emit(ClaimEvent{Epoch: epoch, Claimant: caller, Hash: h})
		tx.after(func() { d.metrics.claims.WithLabelValues(out.Result.String()).Inc() })
		d.log.WithFields(logrus.Fields{
			"epoch":    epoch,
			"claimant": caller.Hex(),
			"hash":     h.Hex(),
			"result":   out.Result,
		}).Debug("Claim accepted")

		res, err := d.resolver.Run(tx.mgr, epoch, out)
		if err != nil {
			return err
		}
		return d.settle(tx, epoch, leader, res, false)
	})
}

// FinalizeEpoch delivers the leading claim once its challenge period is over.
func (d *Descartes) FinalizeEpoch() error {
	return d.exec("finalizeEpoch", func(tx *txn) error {
		d.commitPending(tx)
		if tx.state.Phase != inter.AwaitingConsensus {
			return inter.ErrFinalizePhase
		}
		if tx.mgr.CurrentClaim() == inter.EmptyClaim {
			return inter.ErrNoClaim
		}
		if !d.challengeOver(tx.state, tx.now) {
			return inter.ErrChallengePeriod
		}
		return d.finalize(tx, d.output.NumberOfFinalizedEpochs())
	})
}

// NotifyInput closes the input window if it is due and reports whether it did.
func (d *Descartes) NotifyInput(caller common.Address) (bool, error) {
	var changed bool
	err := d.exec("notifyInput", func(tx *txn) error {
		if d.rules.Disputes.Permissioned && caller != d.gen.Input {
			return inter.ErrNotInput
		}
		changed = d.commitPending(tx)
		return nil
	})
	return changed, err
}

// ResolveDispute applies the decision for the open dispute between
// claimantA and claimantB (in either order).
func (d *Descartes) ResolveDispute(caller, claimantA, claimantB common.Address, winning common.Hash) error {
	return d.exec("resolveDispute", func(tx *txn) error {
		if d.rules.Disputes.Permissioned && caller != d.gen.Dispute {
			return inter.ErrNotDisputeManager
		}
		d.commitPending(tx)
		if tx.state.Phase != inter.AwaitingDispute {
			return inter.ErrResolvePhase
		}
		open := tx.state.Dispute
		if open == nil || !open.Involves(claimantA, claimantB) {
			return inter.ErrUnknownDispute
		}

		closed := *open
		leader := tx.mgr.CurrentClaim()
		res, err := d.resolver.Resume(tx.mgr, closed, winning)
		if err != nil {
			return err
		}
		tx.after(func() { d.resolver.Closed(closed) })
		return d.settle(tx, closed.Epoch, leader, res, true)
	})
}

// settle applies where the resolver stopped: a deferred dispute parks the
// round in AwaitingDispute, Consensus finalizes it, NoConflict keeps it open.
func (d *Descartes) settle(tx *txn, epoch idx.Epoch, leader common.Hash, res dispute.Result, resumed bool) error {
	for _, r := range res.Resolutions {
		tx.emit(ResolveDisputeEvent{
			ClaimantA: r.Dispute.Pair[0].Claimant,
			ClaimantB: r.Dispute.Pair[1].Claimant,
			Winning:   r.Winning,
		})
		d.log.WithFields(logrus.Fields{
			"epoch":   epoch,
			"winner":  r.Winner.Hex(),
			"loser":   r.Loser.Hex(),
			"winning": r.Winning.Hex(),
		}).Info("Dispute resolved")
	}

	initiated := len(res.Resolutions)
	if resumed {
		initiated--
	}
	if res.Open != nil {
		initiated++
	}
	resolutions := len(res.Resolutions)
	tx.after(func() {
		d.metrics.disputes.Add(float64(initiated))
		d.metrics.resolutions.Add(float64(resolutions))
	})

	if res.Open != nil {
		setPhase(tx, inter.AwaitingDispute)
		open := *res.Open
		tx.state.Dispute = &open
		return nil
	}
	tx.state.Dispute = nil

	if res.Outcome.Result == inter.Consensus {
		return d.finalize(tx, epoch)
	}
	setPhase(tx, inter.AwaitingConsensus)
	if tx.mgr.CurrentClaim() != leader {
		tx.state.ClaimStart = tx.now
	}
	return nil
}

// finalize closes the round with its leading claim and opens the next
// input window. Both the consensus path and FinalizeEpoch end here.
func (d *Descartes) finalize(tx *txn, epoch idx.Epoch) error {
	h, claimants := tx.mgr.OnNewEpoch()
	rec := ier.FinalizedEpoch{
		Epoch:     epoch,
		Hash:      h,
		Claimants: claimants,
		Time:      tx.now,
	}
	if err := d.output.OnNewEpoch(rec); err != nil {
		return fmt.Errorf("failed to hand epoch %d to output: %w", epoch, err)
	}
	tx.after(d.input.OnNewEpoch)
	tx.after(d.metrics.finalized.Inc)

	tx.state = iepoch.State{
		Phase:                  tx.state.Phase,
		InputAccumulationStart: tx.now,
	}
	tx.emit(FinalizeEpochEvent{Epoch: epoch, Hash: h})
	setPhase(tx, inter.InputAccumulation)

	d.log.WithFields(logrus.Fields{
		"epoch":     epoch,
		"hash":      h.Hex(),
		"claimants": len(claimants),
	}).Info("Epoch finalized")
	return nil
}
