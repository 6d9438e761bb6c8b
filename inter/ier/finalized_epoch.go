// Package ier (inter-epoch records) defines the append-only history of
// finalized epochs. A record is produced once per epoch when its claim round
// resolves and is owned by the output collaborator afterwards.
package ier

import (
	"crypto/sha256"
	"errors"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/rony4d/descartes-rollups/inter"
	"github.com/rony4d/descartes-rollups/utils/cser"
)

// ErrEmptyRecord is returned for records without a finalized hash.
var ErrEmptyRecord = errors.New("finalized epoch without hash")

// FinalizedEpoch is the settled result of one epoch.
type FinalizedEpoch struct {
	// Epoch is the number of the epoch that was claimed.
	Epoch idx.Epoch
	// Hash is the agreed (or arbitrated) claim.
	Hash common.Hash
	// Claimants are the active validators that held Hash when the epoch settled.
	Claimants []common.Address
	// Time is when the epoch was finalized.
	Time inter.Timestamp
}

// Fingerprint identifies the record, RLP-encoded and hashed with SHA256.
func (fe FinalizedEpoch) Fingerprint() common.Hash {
	hasher := sha256.New()
	if err := rlp.Encode(hasher, &fe); err != nil {
		panic("can't hash: " + err.Error())
	}
	return common.BytesToHash(hasher.Sum(nil))
}

// Copy returns a record that shares no memory with fe.
func (fe FinalizedEpoch) Copy() FinalizedEpoch {
	cp := fe
	cp.Claimants = append([]common.Address(nil), fe.Claimants...)
	return cp
}

func (fe *FinalizedEpoch) MarshalCSER(w *cser.Writer) error {
	if fe.Hash == inter.EmptyClaim {
		return ErrEmptyRecord
	}
	w.U32(uint32(fe.Epoch))
	w.FixedBytes(fe.Hash.Bytes())
	inter.MarshalClaimants(w, fe.Claimants)
	w.U64(uint64(fe.Time))
	return nil
}

func (fe *FinalizedEpoch) UnmarshalCSER(r *cser.Reader) error {
	fe.Epoch = idx.Epoch(r.U32())
	r.FixedBytes(fe.Hash[:])
	fe.Claimants = inter.UnmarshalClaimants(r)
	fe.Time = inter.Timestamp(r.U64())
	if fe.Hash == inter.EmptyClaim {
		return ErrEmptyRecord
	}
	return nil
}

func (fe *FinalizedEpoch) MarshalBinary() ([]byte, error) {
	return cser.MarshalBinaryAdapter(fe.MarshalCSER)
}

func (fe *FinalizedEpoch) UnmarshalBinary(raw []byte) error {
	return cser.UnmarshalBinaryAdapter(raw, fe.UnmarshalCSER)
}
