// Package rollup defines the protocol rules of a Descartes rollup deployment.
//
// This package provides:
//   - Network identification constants (MainNet, TestNet, FakeNet)
//   - Epoch timing rules (input duration, challenge period)
//   - Dispute rules (who may resolve disputes and when)
//
// The Rules type is the central configuration structure for the consensus core.
package rollup

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/rony4d/descartes-rollups/inter"
)

// Network identification constants
const (
	MainNetworkID uint64 = 0xdc
	TestNetworkID uint64 = 0xdc2
	FakeNetworkID uint64 = 0xdc3
)

// DisputeMode selects how conflicts are arbitrated.
type DisputeMode string

const (
	// InlineDisputes: conflicts are arbitrated within the call that raised them,
	// so AwaitingDispute is never observed between operations.
	InlineDisputes DisputeMode = "inline"
	// DeferredDisputes: conflicts are handed to the dispute collaborator and the
	// coordinator stays in AwaitingDispute until it calls back.
	DeferredDisputes DisputeMode = "deferred"
)

// Rules describes the configuration of one deployment.
type Rules struct {
	Name      string
	NetworkID uint64

	Epochs   EpochsRules
	Disputes DisputeRules
}

// EpochsRules are the timers of the epoch lifecycle.
type EpochsRules struct {
	// InputDuration is how long inputs accumulate before claims open.
	InputDuration inter.Timestamp
	// ChallengePeriod is the wait after the leading claim before
	// FinalizeEpoch may deliver it.
	ChallengePeriod inter.Timestamp
}

// DisputeRules configure arbitration.
type DisputeRules struct {
	Mode DisputeMode
	// Permissioned restricts NotifyInput to the input collaborator and
	// ResolveDispute to the dispute collaborator.
	Permissioned bool
}

// MainNetRules uses the production timers: one day of input, seven days of challenge.
func MainNetRules() Rules {
	return Rules{
		Name:      "main",
		NetworkID: MainNetworkID,
		Epochs:    DefaultEpochsRules(),
		Disputes: DisputeRules{
			Mode:         InlineDisputes,
			Permissioned: true,
		},
	}
}

// TestNetRules mirrors mainnet but opens resolution to anyone.
func TestNetRules() Rules {
	return Rules{
		Name:      "test",
		NetworkID: TestNetworkID,
		Epochs:    DefaultEpochsRules(),
		Disputes: DisputeRules{
			Mode:         InlineDisputes,
			Permissioned: false,
		},
	}
}

// FakeNetRules returns accelerated rules for local networks:
//   - 1 minute input duration
//   - 5 minute challenge period
//   - deferred disputes, so AwaitingDispute can be exercised
func FakeNetRules() Rules {
	return Rules{
		Name:      "fake",
		NetworkID: FakeNetworkID,
		Epochs:    FakeNetEpochsRules(),
		Disputes: DisputeRules{
			Mode:         DeferredDisputes,
			Permissioned: false,
		},
	}
}

// DefaultEpochsRules returns the mainnet timers.
func DefaultEpochsRules() EpochsRules {
	return EpochsRules{
		InputDuration:   inter.Timestamp(24 * time.Hour),
		ChallengePeriod: inter.Timestamp(7 * 24 * time.Hour),
	}
}

// FakeNetEpochsRules returns accelerated timers.
func FakeNetEpochsRules() EpochsRules {
	return EpochsRules{
		InputDuration:   inter.Timestamp(time.Minute),
		ChallengePeriod: inter.Timestamp(5 * time.Minute),
	}
}

// RulesByName resolves a preset name.
func RulesByName(name string) (Rules, error) {
	switch name {
	case "main":
		return MainNetRules(), nil
	case "test":
		return TestNetRules(), nil
	case "fake":
		return FakeNetRules(), nil
	default:
		return Rules{}, fmt.Errorf("unknown rules preset: %q (valid: main, test, fake)", name)
	}
}

// Validate reports every inconsistency at once.
func (r Rules) Validate() error {
	var result *multierror.Error
	if r.Epochs.InputDuration == 0 {
		result = multierror.Append(result, fmt.Errorf("input duration must be positive"))
	}
	if r.Epochs.ChallengePeriod == 0 {
		result = multierror.Append(result, fmt.Errorf("challenge period must be positive"))
	}
	switch r.Disputes.Mode {
	case InlineDisputes, DeferredDisputes:
	default:
		result = multierror.Append(result, fmt.Errorf("unknown dispute mode %q", r.Disputes.Mode))
	}
	return result.ErrorOrNil()
}

// String returns a JSON representation of Rules for logging.
func (r Rules) String() string {
	b, _ := json.Marshal(&r)
	return string(b)
}
