// Package inter defines the protocol data shared by the consensus core:
// phases, claims, round outcomes, disputes and the error taxonomy.
//
// Key concepts:
//   - Phase: where the coordinator is in the accumulate/claim/dispute cycle
//   - Claim: a validator's assertion of an epoch's result hash
//   - Outcome: what the validator manager concluded after a claim or a dispute
//   - Dispute: two conflicting claims waiting for arbitration
package inter

import "fmt"

// Phase is the coordinator phase. Exactly one is current at any time.
type Phase uint8

const (
	// InputAccumulation: inputs for the next epoch are being collected.
	InputAccumulation Phase = iota
	// AwaitingConsensus: the claim round for the closed epoch is open.
	AwaitingConsensus
	// AwaitingDispute: two claims conflict and arbitration is pending.
	AwaitingDispute
)

func (p Phase) String() string {
	switch p {
	case InputAccumulation:
		return "InputAccumulation"
	case AwaitingConsensus:
		return "AwaitingConsensus"
	case AwaitingDispute:
		return "AwaitingDispute"
	default:
		return fmt.Sprintf("Phase(%d)", uint8(p))
	}
}

// Result is the outcome class of a claim or of a dispute resolution.
type Result uint8

const (
	// NoConflict: the claim was recorded, but not every active validator has claimed.
	NoConflict Result = iota
	// Consensus: every active validator agrees on one hash.
	Consensus
	// Conflict: two active validators hold different hashes.
	Conflict
)

func (r Result) String() string {
	switch r {
	case NoConflict:
		return "NoConflict"
	case Consensus:
		return "Consensus"
	case Conflict:
		return "Conflict"
	default:
		return fmt.Sprintf("Result(%d)", uint8(r))
	}
}
