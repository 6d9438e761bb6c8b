package inter

import (
	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
)

// EmptyClaim is the degenerate claim value. It is never accepted.
var EmptyClaim = common.Hash{}

// Claim is a validator's assertion of the result hash of an epoch.
type Claim struct {
	Epoch    idx.Epoch
	Claimant common.Address
	Hash     common.Hash
}

// Outcome is what the validator manager reports after a claim or a dispute.
//
// For Conflict both slots are set: Claims[0] is claim A (the earlier one),
// Claims[1] is claim B, and Claimants holds one representative of each.
// For Consensus slot 0 holds the agreed hash and one of its claimants.
// For NoConflict both slots are empty.
type Outcome struct {
	Result    Result
	Claims    [2]common.Hash
	Claimants [2]common.Address
}

// NoConflictOutcome is the empty NoConflict outcome.
func NoConflictOutcome() Outcome {
	return Outcome{Result: NoConflict}
}

// ConsensusOutcome reports agreement on h.
func ConsensusOutcome(h common.Hash, claimant common.Address) Outcome {
	return Outcome{
		Result:    Consensus,
		Claims:    [2]common.Hash{h},
		Claimants: [2]common.Address{claimant},
	}
}

// ConflictOutcome reports a disagreement between claim a and claim b.
func ConflictOutcome(a, b Claim) Outcome {
	return Outcome{
		Result:    Conflict,
		Claims:    [2]common.Hash{a.Hash, b.Hash},
		Claimants: [2]common.Address{a.Claimant, b.Claimant},
	}
}
