// Package validatormgr keeps the active validator set and the claims of the
// open round. It detects agreement and disagreement; it never decides who is
// right. Arbitration results are fed back through OnDisputeEnd.
package validatormgr

import (
	"fmt"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/go-multierror"

	"github.com/rony4d/descartes-rollups/inter"
)

// entry is one distinct claim of the round with everyone who holds it.
type entry struct {
	hash      common.Hash
	claimants []common.Address
}

// Manager is not safe for concurrent use. The coordinator serializes access.
type Manager struct {
	validators []common.Address
	active     map[common.Address]bool

	// round holds distinct claims in order of first appearance, except that
	// an arbitrated winner is moved to the front.
	round   []entry
	claimed map[common.Address]common.Hash
}

// New creates a manager over an ordered, non-empty set of distinct identities.
func New(validators []common.Address) (*Manager, error) {
	var errs *multierror.Error
	if len(validators) == 0 {
		errs = multierror.Append(errs, fmt.Errorf("validator set is empty"))
	}
	active := make(map[common.Address]bool, len(validators))
	for i, v := range validators {
		if v == (common.Address{}) {
			errs = multierror.Append(errs, fmt.Errorf("validator %d is the zero address", i))
			continue
		}
		if active[v] {
			errs = multierror.Append(errs, fmt.Errorf("validator %s listed twice", v.Hex()))
			continue
		}
		active[v] = true
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return &Manager{
		validators: append([]common.Address(nil), validators...),
		active:     active,
		claimed:    make(map[common.Address]common.Hash),
	}, nil
}

// Validators returns the active set in its original order.
func (m *Manager) Validators() []common.Address {
	return append([]common.Address(nil), m.validators...)
}

func (m *Manager) IsValidator(addr common.Address) bool {
	return m.active[addr]
}

func (m *Manager) HasClaimed(addr common.Address) bool {
	_, ok := m.claimed[addr]
	return ok
}

// CurrentClaim is the leading claim of the round, EmptyClaim if there is none.
func (m *Manager) CurrentClaim() common.Hash {
	if len(m.round) == 0 {
		return inter.EmptyClaim
	}
	return m.round[0].hash
}

// Claimants returns the active validators holding h in this round.
func (m *Manager) Claimants(h common.Hash) []common.Address {
	if i := m.find(h); i >= 0 {
		return append([]common.Address(nil), m.round[i].claimants...)
	}
	return nil
}

// Round lists the claims of the open round, grouped by hash.
func (m *Manager) Round(epoch idx.Epoch) []inter.Claim {
	var claims []inter.Claim
	for _, e := range m.round {
		for _, c := range e.claimants {
			claims = append(claims, inter.Claim{Epoch: epoch, Claimant: c, Hash: e.hash})
		}
	}
	return claims
}

// OnClaim records a claim and reports what the round looks like after it.
//
// A second distinct hash yields Conflict between the leading claim (A) and
// the new one (B). Consensus is reached once every active validator holds
// the same hash.
func (m *Manager) OnClaim(claimant common.Address, h common.Hash) (inter.Outcome, error) {
	if h == inter.EmptyClaim {
		return inter.Outcome{}, inter.ErrEmptyClaim
	}
	if !m.active[claimant] {
		return inter.Outcome{}, inter.ErrNotValidator
	}
	if m.HasClaimed(claimant) {
		return inter.Outcome{}, inter.ErrAlreadyClaimed
	}

	i := m.find(h)
	if i < 0 {
		m.round = append(m.round, entry{hash: h})
		i = len(m.round) - 1
	}
	m.round[i].claimants = append(m.round[i].claimants, claimant)
	m.claimed[claimant] = h

	if len(m.round) > 1 {
		b := inter.Claim{Claimant: claimant, Hash: h}
		if i == 0 {
			b = m.representative(1)
		}
		return inter.ConflictOutcome(m.representative(0), b), nil
	}
	return m.settled(claimant), nil
}

// OnDisputeEnd applies an arbitration result between claimantA and
// claimantB. The one not holding winning loses its validator seat and its
// claim. The winning hash becomes the leading claim.
func (m *Manager) OnDisputeEnd(claimantA, claimantB common.Address, winning common.Hash) (inter.Outcome, error) {
	ha, okA := m.claimed[claimantA]
	hb, okB := m.claimed[claimantB]
	if !okA || !okB || ha == hb || (winning != ha && winning != hb) {
		return inter.Outcome{}, inter.ErrUnknownDispute
	}
	winner, loser := claimantA, claimantB
	if winning == hb {
		winner, loser = claimantB, claimantA
	}

	m.remove(loser)

	i := m.find(winning)
	if i > 0 {
		w := m.round[i]
		copy(m.round[1:i+1], m.round[:i])
		m.round[0] = w
	}

	if len(m.round) > 1 {
		a := inter.Claim{Claimant: winner, Hash: winning}
		return inter.ConflictOutcome(a, m.representative(1)), nil
	}
	return m.settled(winner), nil
}

// OnNewEpoch closes the round and returns the claim it settled on together
// with its holders. The validator set carries over.
func (m *Manager) OnNewEpoch() (common.Hash, []common.Address) {
	var (
		h         = inter.EmptyClaim
		claimants []common.Address
	)
	if len(m.round) > 0 {
		h = m.round[0].hash
		claimants = m.round[0].claimants
	}
	m.round = nil
	m.claimed = make(map[common.Address]common.Hash)
	return h, claimants
}

// Copy returns an independent manager, used to roll back aborted operations.
func (m *Manager) Copy() *Manager {
	cp := &Manager{
		validators: append([]common.Address(nil), m.validators...),
		active:     make(map[common.Address]bool, len(m.active)),
		round:      make([]entry, len(m.round)),
		claimed:    make(map[common.Address]common.Hash, len(m.claimed)),
	}
	for k, v := range m.active {
		cp.active[k] = v
	}
	for k, v := range m.claimed {
		cp.claimed[k] = v
	}
	for i, e := range m.round {
		cp.round[i] = entry{hash: e.hash, claimants: append([]common.Address(nil), e.claimants...)}
	}
	return cp
}

// settled reports Consensus when the round has a single hash held by every
// active validator, NoConflict otherwise.
func (m *Manager) settled(claimant common.Address) inter.Outcome {
	if len(m.round) == 1 && len(m.round[0].claimants) == len(m.validators) {
		return inter.ConsensusOutcome(m.round[0].hash, claimant)
	}
	return inter.NoConflictOutcome()
}

func (m *Manager) representative(i int) inter.Claim {
	return inter.Claim{Claimant: m.round[i].claimants[0], Hash: m.round[i].hash}
}

func (m *Manager) find(h common.Hash) int {
	for i, e := range m.round {
		if e.hash == h {
			return i
		}
	}
	return -1
}

func (m *Manager) remove(addr common.Address) {
	delete(m.active, addr)
	for i, v := range m.validators {
		if v == addr {
			m.validators = append(m.validators[:i], m.validators[i+1:]...)
			break
		}
	}
	h, ok := m.claimed[addr]
	if !ok {
		return
	}
	delete(m.claimed, addr)
	i := m.find(h)
	e := &m.round[i]
	for j, c := range e.claimants {
		if c == addr {
			e.claimants = append(e.claimants[:j], e.claimants[j+1:]...)
			break
		}
	}
	if len(e.claimants) == 0 {
		m.round = append(m.round[:i], m.round[i+1:]...)
	}
}
