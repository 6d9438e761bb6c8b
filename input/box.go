// Package input is the input collaborator. It accumulates raw inputs in one
// of two buffers while the other holds the inputs of the epoch being claimed.
package input

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Fantom-foundation/lachesis-base/common/bigendian"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"
)

// DefaultMaxInputs bounds one accumulation buffer.
const DefaultMaxInputs = 1024

var (
	ErrEmptyInput = errors.New("input is empty")
	ErrBoxFull    = errors.New("input box is full")
)

// Notifier is the coordinator entry point the box calls before accepting an input.
type Notifier interface {
	NotifyInput(caller common.Address) (bool, error)
}

// Input is one accepted input.
type Input struct {
	Sender  common.Address
	Payload []byte
	Hash    common.Hash
}

// Box holds the two input buffers.
type Box struct {
	mu        sync.Mutex
	boxes     [2][]Input
	current   int
	maxInputs int

	notifier Notifier
	self     common.Address

	log logrus.FieldLogger
}

// New creates a box that identifies itself as self when notifying.
func New(self common.Address, maxInputs int, log logrus.FieldLogger) *Box {
	if maxInputs <= 0 {
		maxInputs = DefaultMaxInputs
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Box{self: self, maxInputs: maxInputs, log: log}
}

// SetNotifier connects the box to the coordinator. The coordinator also
// holds the box, so the link is made after both exist.
func (b *Box) SetNotifier(n Notifier) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notifier = n
}

// AddInput notifies the coordinator, which may close the accumulation window
// and swap buffers, then stores payload in the accumulating buffer.
func (b *Box) AddInput(sender common.Address, payload []byte) (common.Hash, error) {
	if len(payload) == 0 {
		return common.Hash{}, ErrEmptyInput
	}

	// The coordinator calls back into OnNewInputAccumulation, so b.mu must not be held here.
	b.mu.Lock()
	n := b.notifier
	b.mu.Unlock()
	if n != nil {
		if _, err := n.NotifyInput(b.self); err != nil {
			return common.Hash{}, fmt.Errorf("failed to notify coordinator: %w", err)
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	box := b.boxes[b.current]
	if len(box) >= b.maxInputs {
		return common.Hash{}, ErrBoxFull
	}
	in := Input{
		Sender:  sender,
		Payload: append([]byte(nil), payload...),
	}
	in.Hash = crypto.Keccak256Hash(sender.Bytes(), bigendian.Uint32ToBytes(uint32(len(box))), payload)
	b.boxes[b.current] = append(box, in)

	b.log.WithFields(logrus.Fields{
		"box":    b.current,
		"index":  len(box),
		"sender": sender.Hex(),
		"hash":   in.Hash.Hex(),
	}).Debug("Input added")
	return in.Hash, nil
}

// OnNewInputAccumulation closes the accumulating buffer: it becomes the
// buffer of the epoch being claimed and new inputs go to the other one.
func (b *Box) OnNewInputAccumulation() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current ^= 1
	b.boxes[b.current] = nil
}

// OnNewEpoch drops the inputs of the finalized epoch.
func (b *Box) OnNewEpoch() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.boxes[b.current^1] = nil
}

// CurrentBox is the index of the accumulating buffer.
func (b *Box) CurrentBox() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Inputs returns a copy of buffer i (0 or 1).
func (b *Box) Inputs(i int) []Input {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Input(nil), b.boxes[i&1]...)
}
