// Package dispute arbitrates conflicting claims.
//
// An Arbiter decides which claim of a pair is correct, either on the spot
// (inline arbiters) or later through the coordinator's ResolveDispute entry
// point (Deferred). The Resolver feeds the decisions back into the validator
// manager until the round stops conflicting.
package dispute

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/rony4d/descartes-rollups/inter"
)

// Arbiter is the dispute collaborator.
type Arbiter interface {
	// InitiateDispute starts arbitration of d. decided is false when the
	// result will be delivered later.
	InitiateDispute(d inter.Dispute) (winning common.Hash, decided bool)
}

// Tracker is implemented by arbiters that keep their own view of open disputes.
type Tracker interface {
	DisputeClosed(d inter.Dispute)
}

// FirstClaimWins always upholds claim A, the claim that was submitted first.
type FirstClaimWins struct{}

func (FirstClaimWins) InitiateDispute(d inter.Dispute) (common.Hash, bool) {
	return d.Pair[0].Hash, true
}

// ArbiterFunc is an inline arbiter backed by a function.
type ArbiterFunc func(d inter.Dispute) common.Hash

func (f ArbiterFunc) InitiateDispute(d inter.Dispute) (common.Hash, bool) {
	return f(d), true
}

// Deferred queues disputes for an external party. Results come back through
// the coordinator, which keeps the round in AwaitingDispute meanwhile.
type Deferred struct {
	mu      sync.Mutex
	pending []inter.Dispute
}

func NewDeferred() *Deferred {
	return &Deferred{}
}

func (a *Deferred) InitiateDispute(d inter.Dispute) (common.Hash, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending = append(a.pending, d)
	return inter.EmptyClaim, false
}

// DisputeClosed forgets d once it has been resolved.
func (a *Deferred) DisputeClosed(d inter.Dispute) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, p := range a.pending {
		if p == d {
			a.pending = append(a.pending[:i], a.pending[i+1:]...)
			return
		}
	}
}

// Pending returns the disputes waiting for a decision, oldest first.
func (a *Deferred) Pending() []inter.Dispute {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]inter.Dispute(nil), a.pending...)
}
