package rollup

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/descartes-rollups/inter"
)

// TestNetworkConstants verifies the network identifiers.
func TestNetworkConstants(t *testing.T) {
	tests := []struct {
		name     string
		constant uint64
		want     uint64
	}{
		{"MainNetworkID", MainNetworkID, 0xdc},
		{"TestNetworkID", TestNetworkID, 0xdc2},
		{"FakeNetworkID", FakeNetworkID, 0xdc3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.constant != tt.want {
				t.Errorf("%s = %d, want %d", tt.name, tt.constant, tt.want)
			}
		})
	}
}

// TestMainNetRules checks the production timers: 1 day input, 7 days challenge.
func TestMainNetRules(t *testing.T) {
	rules := MainNetRules()
	require.Equal(t, "main", rules.Name)
	require.Equal(t, MainNetworkID, rules.NetworkID)
	require.Equal(t, inter.Timestamp(86400*time.Second), rules.Epochs.InputDuration)
	require.Equal(t, inter.Timestamp(604800*time.Second), rules.Epochs.ChallengePeriod)
	require.Equal(t, InlineDisputes, rules.Disputes.Mode)
	require.True(t, rules.Disputes.Permissioned)
	require.NoError(t, rules.Validate())
}

func TestTestNetRules(t *testing.T) {
	rules := TestNetRules()
	require.Equal(t, "test", rules.Name)
	require.Equal(t, MainNetRules().Epochs, rules.Epochs)
	require.False(t, rules.Disputes.Permissioned)
	require.NoError(t, rules.Validate())
}

func TestFakeNetRules(t *testing.T) {
	rules := FakeNetRules()
	require.Equal(t, FakeNetworkID, rules.NetworkID)
	require.Less(t, uint64(rules.Epochs.InputDuration), uint64(MainNetRules().Epochs.InputDuration))
	require.Equal(t, DeferredDisputes, rules.Disputes.Mode)
	require.NoError(t, rules.Validate())
}

func TestRulesByName(t *testing.T) {
	for _, name := range []string{"main", "test", "fake"} {
		rules, err := RulesByName(name)
		require.NoError(t, err)
		require.Equal(t, name, rules.Name)
	}
	_, err := RulesByName("moon")
	require.Error(t, err)
}

// TestRulesValidate checks that every problem is reported, not just the first.
func TestRulesValidate(t *testing.T) {
	err := Rules{Disputes: DisputeRules{Mode: "coinflip"}}.Validate()
	require.Error(t, err)

	merr, ok := err.(*multierror.Error)
	require.True(t, ok)
	require.Len(t, merr.Errors, 3)
}

func TestRulesString(t *testing.T) {
	var decoded Rules
	require.NoError(t, json.Unmarshal([]byte(MainNetRules().String()), &decoded))
	require.Equal(t, MainNetRules(), decoded)
}
