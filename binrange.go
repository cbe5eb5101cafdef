package binrange

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/hupe1980/binrange/ingest"
	"github.com/hupe1980/binrange/interval"
	"github.com/hupe1980/binrange/model"
)

// Store is a thread-safe, memory-resident card range lookup store.
//
// All state lives in one augmented interval tree; there is no persistence
// and no background work. Lookups take shared access and run fully in
// parallel; Insert, InsertBatch, StorePResMessage and Reset take exclusive
// access and serialize against everything else.
type Store struct {
	tree    *interval.Tree
	logger  *Logger
	metrics MetricsCollector

	shuffle bool
	rngMu   sync.Mutex
	rng     *rand.Rand
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	o := options{
		logger:  NoopLogger(),
		metrics: NoopMetricsCollector{},
		shuffle: true,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Store{
		tree: interval.New(func(to *interval.Options) {
			to.ChunkSize = o.chunkSize
		}),
		logger:  o.logger,
		metrics: o.metrics,
		shuffle: o.shuffle,
		rng:     o.rng,
	}
}

// Insert validates and stores a single card range.
//
// Inserting the same (start, end) pair twice retains both entries; which
// one a lookup returns for an equal-width tie depends on traversal order.
func (s *Store) Insert(r model.CardRange) error {
	start := time.Now()

	err := r.Validate()
	if err == nil {
		s.tree.Insert(r)
	}

	s.metrics.RecordInsert(time.Since(start), err)
	return err
}

// InsertBatch validates and stores a batch of card ranges under a single
// write lock.
//
// The batch is all-or-nothing: every range is validated before the first
// one is inserted, so the index never observes a partially valid batch.
// Unless shuffling was disabled, a permuted copy of the batch is inserted
// so sorted feeds cannot degenerate the tree; the caller's slice order is
// never modified.
func (s *Store) InsertBatch(rs []model.CardRange) error {
	start := time.Now()

	err := s.insertBatch(rs)

	s.metrics.RecordBatchInsert(len(rs), time.Since(start), err)
	s.logger.LogBatchInsert(context.Background(), len(rs), time.Since(start), err)
	return err
}

func (s *Store) insertBatch(rs []model.CardRange) error {
	if rs == nil {
		return ErrNilRanges
	}

	for i := range rs {
		if err := rs[i].Validate(); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}

	if !s.shuffle {
		return s.tree.InsertAll(rs)
	}

	shuffled := make([]model.CardRange, len(rs))
	copy(shuffled, rs)

	if s.rng != nil {
		s.rngMu.Lock()
		ingest.Shuffle(shuffled, s.rng)
		s.rngMu.Unlock()
	} else {
		ingest.Shuffle(shuffled, nil)
	}

	return s.tree.InsertAll(shuffled)
}

// StorePResMessage validates a PRes envelope and stores its card ranges.
func (s *Store) StorePResMessage(m *model.PResMessage) error {
	if m == nil {
		return ErrNilMessage
	}
	if err := m.Validate(); err != nil {
		return err
	}
	return s.InsertBatch(m.CardRangeData)
}

// FindByPAN returns the most specific stored range containing pan.
//
// It fails with *ErrNegativePAN for negative input and with ErrNotFound
// when no stored range contains the PAN. The returned CardRange is a
// copy; mutating it does not affect the store.
func (s *Store) FindByPAN(pan int64) (model.CardRange, error) {
	start := time.Now()

	if pan < 0 {
		err := &ErrNegativePAN{PAN: pan}
		s.metrics.RecordLookup(time.Since(start), false, err)
		return model.CardRange{}, err
	}

	r, found := s.tree.Find(pan)

	s.metrics.RecordLookup(time.Since(start), found, nil)
	s.logger.LogLookup(context.Background(), time.Since(start), found)

	if !found {
		return model.CardRange{}, fmt.Errorf("pan %d: %w", pan, ErrNotFound)
	}
	return r, nil
}

// Reset discards every stored range. Used for administrative resets and
// test isolation.
func (s *Store) Reset() {
	s.tree.Clear()
	s.metrics.RecordReset()
}

// Len returns the number of stored ranges, duplicates included.
func (s *Store) Len() int {
	return s.tree.Len()
}
