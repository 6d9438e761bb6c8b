// Package genesis defines how a rollup deployment starts: its rules, the
// initial validator set and the identities of the collaborators that the
// coordinator trusts.
//
// Usage:
//
//	gen := genesis.Genesis{
//	    Rules:      rollup.MainNetRules(),
//	    Validators: []common.Address{v0, v1, v2},
//	    Input:      inputAddr,
//	    Output:     outputAddr,
//	    Dispute:    disputeAddr,
//	}
//	if err := gen.Validate(); err != nil { ... }
package genesis

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/go-multierror"

	"github.com/rony4d/descartes-rollups/rollup"
)

// Genesis is the immutable starting point of a deployment.
type Genesis struct {
	Rules rollup.Rules

	// Validators is the ordered initial validator set.
	Validators []common.Address

	// Collaborator identities, reported in the creation notification and
	// checked by permissioned entry points.
	Input            common.Address
	Output           common.Address
	ValidatorManager common.Address
	Dispute          common.Address
}

// Validate reports every problem at once.
func (g Genesis) Validate() error {
	var result *multierror.Error
	if err := g.Rules.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	if len(g.Validators) == 0 {
		result = multierror.Append(result, fmt.Errorf("validator set is empty"))
	}
	seen := make(map[common.Address]bool, len(g.Validators))
	for i, v := range g.Validators {
		if v == (common.Address{}) {
			result = multierror.Append(result, fmt.Errorf("validator %d is the zero address", i))
		}
		if seen[v] {
			result = multierror.Append(result, fmt.Errorf("validator %s listed twice", v.Hex()))
		}
		seen[v] = true
	}
	if g.Rules.Disputes.Permissioned {
		if g.Input == (common.Address{}) {
			result = multierror.Append(result, fmt.Errorf("permissioned deployment needs an input identity"))
		}
		if g.Dispute == (common.Address{}) {
			result = multierror.Append(result, fmt.Errorf("permissioned deployment needs a dispute identity"))
		}
	}
	return result.ErrorOrNil()
}

// FakeGenesis builds a deterministic deployment with n validators for tests
// and local networks. Validator i has address 0x..(i+1); collaborators use
// the 0xf0.. range.
func FakeGenesis(n int, rules rollup.Rules) Genesis {
	validators := make([]common.Address, n)
	for i := range validators {
		validators[i] = FakeValidator(i)
	}
	return Genesis{
		Rules:            rules,
		Validators:       validators,
		Input:            common.HexToAddress("0xf001"),
		Output:           common.HexToAddress("0xf002"),
		ValidatorManager: common.HexToAddress("0xf003"),
		Dispute:          common.HexToAddress("0xf004"),
	}
}

// FakeValidator is the address of validator i in FakeGenesis.
func FakeValidator(i int) common.Address {
	return common.BigToAddress(big.NewInt(int64(i + 1)))
}
