// Package iepoch holds the coordinator's owned per-epoch state: the phase,
// the timers that gate it and the dispute that is waiting for arbitration.
//
// State is the single mutable struct of the coordinator. Operations work on
// it by exclusive reference and restore a Copy when they abort.
package iepoch

import (
	"crypto/sha256"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/rony4d/descartes-rollups/inter"
)

// State is the coordinator's phase bookkeeping.
type State struct {
	// Phase is the stored phase. A stored InputAccumulation whose deadline
	// has passed is reported as AwaitingConsensus until an operation commits it.
	Phase inter.Phase
	// InputAccumulationStart is when the current accumulation window opened.
	InputAccumulationStart inter.Timestamp
	// ClaimStart is when the leading claim of the open round was accepted;
	// the challenge period runs from here.
	ClaimStart inter.Timestamp
	// Dispute is the conflict waiting for an external resolution, if any.
	Dispute *inter.Dispute `rlp:"nil"`
}

// Copy returns a deep copy.
func (s State) Copy() State {
	cp := s
	if s.Dispute != nil {
		d := *s.Dispute
		cp.Dispute = &d
	}
	return cp
}

// Deadline is the end of the current input accumulation window.
func (s State) Deadline(inputDuration inter.Timestamp) inter.Timestamp {
	return s.InputAccumulationStart.Add(inputDuration)
}

// Snapshot is everything that determines the protocol's future behavior.
// Two code paths that must agree on the final state must produce equal snapshots.
type Snapshot struct {
	State           State
	FinalizedEpochs idx.Epoch
	Validators      []common.Address
	Round           []inter.Claim
}

// Hash fingerprints the snapshot (RLP, SHA256).
func (s Snapshot) Hash() common.Hash {
	hasher := sha256.New()
	if err := rlp.Encode(hasher, &s); err != nil {
		panic("can't hash: " + err.Error())
	}
	return common.BytesToHash(hasher.Sum(nil))
}
