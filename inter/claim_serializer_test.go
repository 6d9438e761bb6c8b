package inter

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/descartes-rollups/utils/cser"
)

func TestClaimSerialization(t *testing.T) {
	claim := Claim{
		Epoch:    42,
		Claimant: common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8"),
		Hash:     crypto.Keccak256Hash([]byte("hello")),
	}
	raw, err := claim.MarshalBinary()
	require.NoError(t, err)

	var got Claim
	require.NoError(t, got.UnmarshalBinary(raw))
	require.Equal(t, claim, got)

	// the encoding is canonical: one extra byte is rejected
	require.Error(t, got.UnmarshalBinary(append([]byte{0}, raw...)))
}

func TestClaimSerializationRejectsEmpty(t *testing.T) {
	claim := Claim{Epoch: 1, Claimant: common.HexToAddress("0x01")}
	_, err := claim.MarshalBinary()
	require.ErrorIs(t, err, ErrSerEmptyClaim)
}

func TestClaimantsSerialization(t *testing.T) {
	claimants := []common.Address{
		common.HexToAddress("0x01"),
		common.HexToAddress("0x02"),
		common.HexToAddress("0x03"),
	}
	raw, err := cser.MarshalBinaryAdapter(func(w *cser.Writer) error {
		MarshalClaimants(w, claimants)
		MarshalClaimants(w, nil)
		return nil
	})
	require.NoError(t, err)

	err = cser.UnmarshalBinaryAdapter(raw, func(r *cser.Reader) error {
		require.Equal(t, claimants, UnmarshalClaimants(r))
		require.Nil(t, UnmarshalClaimants(r))
		return nil
	})
	require.NoError(t, err)
}

func TestDisputeFromOutcome(t *testing.T) {
	a, b := common.HexToAddress("0xa"), common.HexToAddress("0xb")
	ha, hb := crypto.Keccak256Hash([]byte("a")), crypto.Keccak256Hash([]byte("b"))
	d := DisputeFromOutcome(3, ConflictOutcome(Claim{Claimant: a, Hash: ha}, Claim{Claimant: b, Hash: hb}))

	require.True(t, d.Involves(a, b))
	require.True(t, d.Involves(b, a))
	require.False(t, d.Involves(a, a))

	loser, ok := d.Loser(ha)
	require.True(t, ok)
	require.Equal(t, b, loser)
	loser, ok = d.Loser(hb)
	require.True(t, ok)
	require.Equal(t, a, loser)
	_, ok = d.Loser(common.Hash{1})
	require.False(t, ok)
}
