package inter

import (
	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
)

// Dispute is the evidence of a conflict: two claims for the same epoch held
// by two different active validators. Pair[0] is claim A, the one submitted
// first in the round.
type Dispute struct {
	Epoch idx.Epoch
	Pair  [2]Claim
}

// DisputeFromOutcome builds the dispute described by a Conflict outcome.
func DisputeFromOutcome(epoch idx.Epoch, o Outcome) Dispute {
	return Dispute{
		Epoch: epoch,
		Pair: [2]Claim{
			{Epoch: epoch, Claimant: o.Claimants[0], Hash: o.Claims[0]},
			{Epoch: epoch, Claimant: o.Claimants[1], Hash: o.Claims[1]},
		},
	}
}

// Involves reports whether the dispute is between claimants a and b, in either order.
func (d Dispute) Involves(a, b common.Address) bool {
	x, y := d.Pair[0].Claimant, d.Pair[1].Claimant
	return (x == a && y == b) || (x == b && y == a)
}

// Loser returns the claimant of the pair that does not hold winning.
// ok is false when winning is not one of the disputed hashes.
func (d Dispute) Loser(winning common.Hash) (loser common.Address, ok bool) {
	switch winning {
	case d.Pair[0].Hash:
		return d.Pair[1].Claimant, true
	case d.Pair[1].Hash:
		return d.Pair[0].Claimant, true
	default:
		return common.Address{}, false
	}
}
