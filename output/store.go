// Package output is the output collaborator: the append-only history of
// finalized epochs, kept in a key-value store.
package output

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Fantom-foundation/lachesis-base/common/bigendian"
	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/Fantom-foundation/lachesis-base/kvdb"
	"github.com/Fantom-foundation/lachesis-base/kvdb/memorydb"
	lru "github.com/hashicorp/golang-lru"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/descartes-rollups/inter/ier"
)

// DefaultCacheSize is the number of decoded records kept in memory.
const DefaultCacheSize = 128

var (
	recordPrefix = []byte("e")
	counterKey   = []byte("c")
)

// ErrOutOfOrder is returned when a record does not extend the history by exactly one epoch.
var ErrOutOfOrder = errors.New("finalized epoch out of order")

// Store keeps finalized epochs keyed by epoch number.
type Store struct {
	mu    sync.RWMutex
	db    kvdb.Store
	cache *lru.Cache
	count idx.Epoch

	log logrus.FieldLogger
}

// New opens a store over db, resuming from the history it already holds.
func New(db kvdb.Store, cacheSize int, log logrus.FieldLogger) (*Store, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db, cache: cache, log: log}

	raw, err := db.Get(counterKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read epoch counter: %w", err)
	}
	if raw != nil {
		s.count = idx.Epoch(bigendian.BytesToUint32(raw))
	}
	return s, nil
}

// NewMem returns an empty store backed by memory.
func NewMem() *Store {
	s, err := New(memorydb.New(), DefaultCacheSize, nil)
	if err != nil {
		panic(err)
	}
	return s
}

// NumberOfFinalizedEpochs is the length of the history.
func (s *Store) NumberOfFinalizedEpochs() idx.Epoch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

// OnNewEpoch appends rec. The record and the counter are written in one batch.
func (s *Store) OnNewEpoch(rec ier.FinalizedEpoch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.Epoch != s.count {
		return fmt.Errorf("%w: got %d, want %d", ErrOutOfOrder, rec.Epoch, s.count)
	}
	raw, err := rec.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to encode epoch %d: %w", rec.Epoch, err)
	}

	batch := s.db.NewBatch()
	if err := batch.Put(recordKey(rec.Epoch), raw); err != nil {
		return err
	}
	if err := batch.Put(counterKey, bigendian.Uint32ToBytes(uint32(rec.Epoch+1))); err != nil {
		return err
	}
	if err := batch.Write(); err != nil {
		return fmt.Errorf("failed to write epoch %d: %w", rec.Epoch, err)
	}

	s.count++
	s.cache.Add(rec.Epoch, rec.Copy())
	s.log.WithFields(logrus.Fields{
		"epoch": rec.Epoch,
		"hash":  rec.Hash.Hex(),
	}).Debug("Stored finalized epoch")
	return nil
}

// FinalizedEpoch returns the record of epoch, or nil if it was never finalized.
func (s *Store) FinalizedEpoch(epoch idx.Epoch) (*ier.FinalizedEpoch, error) {
	if c, ok := s.cache.Get(epoch); ok {
		rec := c.(ier.FinalizedEpoch).Copy()
		return &rec, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if epoch >= s.count {
		return nil, nil
	}
	raw, err := s.db.Get(recordKey(epoch))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("epoch %d is missing from the store", epoch)
	}
	rec := &ier.FinalizedEpoch{}
	if err := rec.UnmarshalBinary(raw); err != nil {
		return nil, fmt.Errorf("failed to decode epoch %d: %w", epoch, err)
	}
	s.cache.Add(epoch, rec.Copy())
	return rec, nil
}

// Last returns the most recent record, or nil for an empty history.
func (s *Store) Last() (*ier.FinalizedEpoch, error) {
	n := s.NumberOfFinalizedEpochs()
	if n == 0 {
		return nil, nil
	}
	return s.FinalizedEpoch(n - 1)
}

func recordKey(epoch idx.Epoch) []byte {
	return append(append([]byte(nil), recordPrefix...), bigendian.Uint32ToBytes(uint32(epoch))...)
}
