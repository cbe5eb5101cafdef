package binrange

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus.
type MetricsCollector interface {
	// RecordInsert is called after each single insert.
	RecordInsert(duration time.Duration, err error)

	// RecordBatchInsert is called after each batch insert. count is the
	// number of ranges in the batch; on error none of them were stored.
	RecordBatchInsert(count int, duration time.Duration, err error)

	// RecordLookup is called after each lookup. found is false for a
	// clean miss; err covers validation failures only.
	RecordLookup(duration time.Duration, found bool, err error)

	// RecordReset is called after each reset.
	RecordReset()
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordInsert(time.Duration, error)           {}
func (NoopMetricsCollector) RecordBatchInsert(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordLookup(time.Duration, bool, error)     {}
func (NoopMetricsCollector) RecordReset()                                {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	InsertCount      atomic.Int64
	InsertErrors     atomic.Int64
	BatchInsertCount atomic.Int64
	BatchInsertItems atomic.Int64
	BatchInsertFails atomic.Int64
	LookupCount      atomic.Int64
	LookupMisses     atomic.Int64
	LookupErrors     atomic.Int64
	LookupTotalNanos atomic.Int64
	ResetCount       atomic.Int64
}

// RecordInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInsert(_ time.Duration, err error) {
	b.InsertCount.Add(1)
	if err != nil {
		b.InsertErrors.Add(1)
	}
}

// RecordBatchInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBatchInsert(count int, _ time.Duration, err error) {
	b.BatchInsertCount.Add(1)
	if err != nil {
		b.BatchInsertFails.Add(1)
		return
	}
	b.BatchInsertItems.Add(int64(count))
}

// RecordLookup implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLookup(duration time.Duration, found bool, err error) {
	b.LookupCount.Add(1)
	b.LookupTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.LookupErrors.Add(1)
		return
	}
	if !found {
		b.LookupMisses.Add(1)
	}
}

// RecordReset implements MetricsCollector.
func (b *BasicMetricsCollector) RecordReset() {
	b.ResetCount.Add(1)
}

// AverageLookupLatency returns the mean lookup latency so far, or zero if
// nothing was recorded.
func (b *BasicMetricsCollector) AverageLookupLatency() time.Duration {
	n := b.LookupCount.Load()
	if n == 0 {
		return 0
	}
	return time.Duration(b.LookupTotalNanos.Load() / n)
}
