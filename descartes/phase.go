package descartes

import (
	"github.com/sirupsen/logrus"

	"github.com/rony4d/descartes-rollups/inter"
	"github.com/rony4d/descartes-rollups/inter/iepoch"
)

// effectivePhase reports a stored InputAccumulation whose window has
// strictly passed as AwaitingConsensus.
func (d *Descartes) effectivePhase(s iepoch.State, now inter.Timestamp) inter.Phase {
	if s.Phase == inter.InputAccumulation && now > s.Deadline(d.rules.Epochs.InputDuration) {
		return inter.AwaitingConsensus
	}
	return s.Phase
}

// commitPending stores the accumulation->claiming transition when it is due.
func (d *Descartes) commitPending(tx *txn) bool {
	if tx.state.Phase != inter.InputAccumulation || d.effectivePhase(tx.state, tx.now) == inter.InputAccumulation {
		return false
	}
	tx.state.Phase = inter.AwaitingConsensus
	tx.emit(PhaseChangeEvent{Phase: inter.AwaitingConsensus})
	tx.after(d.input.OnNewInputAccumulation)

	d.log.WithFields(logrus.Fields{
		"epoch": d.output.NumberOfFinalizedEpochs() + 1,
		"at":    tx.now,
	}).Info("Input accumulation closed")
	return true
}

// setPhase stores p and emits the change if it is one.
func setPhase(tx *txn, p inter.Phase) {
	if tx.state.Phase == p {
		return
	}
	tx.state.Phase = p
	tx.emit(PhaseChangeEvent{Phase: p})
}

func (d *Descartes) challengeOver(s iepoch.State, now inter.Timestamp) bool {
	return now > s.ClaimStart.Add(d.rules.Epochs.ChallengePeriod)
}
