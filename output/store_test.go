package output

import (
	"testing"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/Fantom-foundation/lachesis-base/kvdb/memorydb"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/descartes-rollups/inter"
	"github.com/rony4d/descartes-rollups/inter/ier"
)

func record(epoch uint32, b byte) ier.FinalizedEpoch {
	return ier.FinalizedEpoch{
		Epoch:     idx.Epoch(epoch),
		Hash:      common.Hash{b},
		Claimants: []common.Address{common.HexToAddress("0x01")},
		Time:      inter.Timestamp(epoch) * 1000,
	}
}

func TestStoreAppend(t *testing.T) {
	s := NewMem()
	require.Equal(t, idx.Epoch(0), s.NumberOfFinalizedEpochs())

	last, err := s.Last()
	require.NoError(t, err)
	require.Nil(t, last)

	require.NoError(t, s.OnNewEpoch(record(0, 1)))
	require.NoError(t, s.OnNewEpoch(record(1, 2)))
	require.Equal(t, idx.Epoch(2), s.NumberOfFinalizedEpochs())

	err = s.OnNewEpoch(record(3, 3))
	require.ErrorIs(t, err, ErrOutOfOrder)
	require.Equal(t, idx.Epoch(2), s.NumberOfFinalizedEpochs())

	rec, err := s.FinalizedEpoch(1)
	require.NoError(t, err)
	require.Equal(t, record(1, 2), *rec)

	rec, err = s.FinalizedEpoch(2)
	require.NoError(t, err)
	require.Nil(t, rec)

	last, err = s.Last()
	require.NoError(t, err)
	require.Equal(t, common.Hash{2}, last.Hash)
}

func TestStoreRejectsEmptyHash(t *testing.T) {
	s := NewMem()
	rec := record(0, 0)
	require.ErrorIs(t, s.OnNewEpoch(rec), ier.ErrEmptyRecord)
	require.Equal(t, idx.Epoch(0), s.NumberOfFinalizedEpochs())
}

func TestStoreReopen(t *testing.T) {
	db := memorydb.New()
	s, err := New(db, 1, nil)
	require.NoError(t, err)
	for i := uint32(0); i < 3; i++ {
		require.NoError(t, s.OnNewEpoch(record(i, byte(i+1))))
	}

	reopened, err := New(db, 1, nil)
	require.NoError(t, err)
	require.Equal(t, idx.Epoch(3), reopened.NumberOfFinalizedEpochs())
	for i := uint32(0); i < 3; i++ {
		rec, err := reopened.FinalizedEpoch(idx.Epoch(i))
		require.NoError(t, err)
		require.Equal(t, record(i, byte(i+1)), *rec)
	}
}
