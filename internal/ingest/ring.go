// Package ingest carries raw feed records from a producer thread into the
// batching stage without blocking. The ring is single-producer
// single-consumer: one goroutine calls TryEnqueue, one calls TryDequeue.
package ingest

import (
	"sync/atomic"

	"github.com/orbitcex/priceladder/internal/book"
	"github.com/orbitcex/priceladder/pkg/metrics"
)

// RecordKind tags which union member of Record is populated.
type RecordKind uint8

const (
	KindPriceLevel RecordKind = iota
	KindOrderUpdate
)

// Record is one in-flight feed update. It is pooled; callers must not hold a
// reference after handing it back.
type Record struct {
	Kind  RecordKind
	Level book.PriceLevel
	Order book.OrderUpdate
	Type  book.OrderUpdateType
}

// Ring is a fixed-capacity SPSC ring buffer. Capacity is rounded up to a
// power of two; head/tail are monotonically increasing and masked on access.
type Ring struct {
	buffer []*Record
	mask   uint64
	head   atomic.Uint64
	tail   atomic.Uint64
}

const DefaultRingCapacity = 4096

func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultRingCapacity
	}
	size := 1
	for size < capacity {
		size <<= 1
	}
	return &Ring{
		buffer: make([]*Record, size),
		mask:   uint64(size - 1),
	}
}

// TryEnqueue appends rec, reporting false when the ring is full. The
// producer never blocks; full-ring drops are counted.
func (r *Ring) TryEnqueue(rec *Record) bool {
	tail := r.tail.Load()
	head := r.head.Load()
	if tail-head >= uint64(len(r.buffer)) {
		metrics.RingDropped.Inc()
		return false
	}
	r.buffer[tail&r.mask] = rec
	r.tail.Add(1)
	return true
}

// TryDequeue removes the oldest record, reporting false when empty.
func (r *Ring) TryDequeue() (*Record, bool) {
	head := r.head.Load()
	tail := r.tail.Load()
	if head == tail {
		return nil, false
	}
	rec := r.buffer[head&r.mask]
	r.buffer[head&r.mask] = nil
	r.head.Add(1)
	return rec, true
}

// Len reports the number of buffered records.
func (r *Ring) Len() int {
	return int(r.tail.Load() - r.head.Load())
}

// Cap reports the ring's fixed capacity.
func (r *Ring) Cap() int { return len(r.buffer) }
