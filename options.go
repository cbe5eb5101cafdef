package binrange

import (
	"math/rand"
)

type options struct {
	logger    *Logger
	metrics   MetricsCollector
	chunkSize int
	shuffle   bool
	rng       *rand.Rand
}

// Option configures a Store.
type Option func(*options)

// WithLogger configures the logger used for operational records.
// If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
func WithMetricsCollector(m MetricsCollector) Option {
	return func(o *options) {
		if m == nil {
			m = NoopMetricsCollector{}
		}
		o.metrics = m
	}
}

// WithChunkSize configures how many records each InsertBatch chunk
// carries. Chunking bounds transient allocations during huge loads; it
// does not change the one-lock-per-batch behavior. Values < 1 fall back
// to interval.DefaultChunkSize.
func WithChunkSize(n int) Option {
	return func(o *options) {
		o.chunkSize = n
	}
}

// WithShuffle toggles insertion-order randomization on batch inserts.
//
// Shuffling is on by default and should stay on in production: it is the
// only defense against sorted feeds degenerating the tree into a list.
// Turning it off is intended for tests that need a deterministic shape.
func WithShuffle(enabled bool) Option {
	return func(o *options) {
		o.shuffle = enabled
	}
}

// WithShuffleSeed pins the shuffle order to a fixed seed, for
// reproducible loads in tests and benchmarks.
func WithShuffleSeed(seed int64) Option {
	return func(o *options) {
		o.rng = rand.New(rand.NewSource(seed))
	}
}
