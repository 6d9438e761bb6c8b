package inter

import (
	"errors"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"

	"github.com/rony4d/descartes-rollups/utils/cser"
)

// ErrSerEmptyClaim is returned when encoding a claim that could never have been accepted.
var ErrSerEmptyClaim = errors.New("serialization of empty claim")

// MarshalCSER writes the claim as [epoch u32][claimant 20B][hash 32B].
func (c *Claim) MarshalCSER(w *cser.Writer) error {
	if c.Hash == EmptyClaim {
		return ErrSerEmptyClaim
	}
	w.U32(uint32(c.Epoch))
	w.FixedBytes(c.Claimant.Bytes())
	w.FixedBytes(c.Hash.Bytes())
	return nil
}

// UnmarshalCSER is the inverse of MarshalCSER.
func (c *Claim) UnmarshalCSER(r *cser.Reader) error {
	c.Epoch = idx.Epoch(r.U32())
	r.FixedBytes(c.Claimant[:])
	r.FixedBytes(c.Hash[:])
	if c.Hash == EmptyClaim {
		return ErrSerEmptyClaim
	}
	return nil
}

func (c *Claim) MarshalBinary() ([]byte, error) {
	return cser.MarshalBinaryAdapter(c.MarshalCSER)
}

func (c *Claim) UnmarshalBinary(raw []byte) error {
	return cser.UnmarshalBinaryAdapter(raw, c.UnmarshalCSER)
}

// MarshalClaimants writes a length-prefixed list of addresses.
func MarshalClaimants(w *cser.Writer, claimants []common.Address) {
	w.U56(uint64(len(claimants)))
	for _, a := range claimants {
		w.FixedBytes(a.Bytes())
	}
}

// UnmarshalClaimants reads what MarshalClaimants wrote.
func UnmarshalClaimants(r *cser.Reader) []common.Address {
	n := r.U56()
	if n*common.AddressLength > cser.MaxAlloc {
		panic(cser.ErrTooLargeAlloc)
	}
	if n == 0 {
		return nil
	}
	out := make([]common.Address, n)
	for i := range out {
		r.FixedBytes(out[i][:])
	}
	return out
}
