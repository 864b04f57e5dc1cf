// Package batch coalesces bursts of market-data updates into
// snapshot-producing flushes. The pending buffer, the book, and the active
// manager form one unit of shared state serialized by the batcher's mutex;
// there is no hidden timer, flush cadence belongs to the caller.
package batch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/orbitcex/priceladder/internal/book"
	"github.com/orbitcex/priceladder/pkg/metrics"
)

// Manager applies updates of either data mode onto the book. The inactive
// kind fails with book.ErrInvalidMode.
type Manager interface {
	ApplyLevel(book.PriceLevel) error
	ApplyOrder(book.OrderUpdate, book.OrderUpdateType) error
	Reset()
}

// SnapshotFunc receives each flushed snapshot, invoked synchronously at
// flush time on the flushing goroutine.
type SnapshotFunc func(*book.Snapshot)

// Stats is a point-in-time copy of batching counters.
type Stats struct {
	TotalUpdates       uint64
	BatchCount         uint64
	AvgUpdatesPerBatch float64
	LastFlush          time.Duration
}

// pendingUpdate is one queued-but-unapplied update, tagged by kind.
type pendingUpdate struct {
	isOrder bool
	level   book.PriceLevel
	order   book.OrderUpdate
	typ     book.OrderUpdateType
}

// Batcher owns the pending buffer and the flush discipline.
type Batcher struct {
	mu      sync.Mutex
	ob      *book.OrderBook
	mgr     Manager
	pending []pendingUpdate
	paused  bool
	stopped bool

	// flushing is the single-writer guard: a flush arriving while another
	// is in progress is dropped, not queued.
	flushing atomic.Bool

	center    decimal.Decimal
	visible   int
	fillEmpty bool
	tickSize  decimal.Decimal

	onSnapshot SnapshotFunc
	seq        uint64

	totalUpdates uint64
	batchCount   uint64
	lastFlush    time.Duration

	modeLabel string
	logger    *zap.Logger
}

func NewBatcher(ob *book.OrderBook, mgr Manager, visibleLevels int, logger *zap.Logger) *Batcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if visibleLevels <= 0 {
		visibleLevels = 20
	}
	return &Batcher{
		ob:        ob,
		mgr:       mgr,
		visible:   visibleLevels,
		modeLabel: "price_level",
		logger:    logger,
	}
}

// OnSnapshot registers the single consumer callback for flushed snapshots.
func (b *Batcher) OnSnapshot(fn SnapshotFunc) {
	b.mu.Lock()
	b.onSnapshot = fn
	b.mu.Unlock()
}

// SetViewport configures the snapshot window. A zero center price tracks the
// mid price.
func (b *Batcher) SetViewport(center decimal.Decimal, visibleLevels int) {
	b.mu.Lock()
	b.center = center
	if visibleLevels > 0 {
		b.visible = visibleLevels
	}
	b.mu.Unlock()
}

// SetFillEmptyLevels toggles placeholder rows for empty viewport prices.
// Tick size must be positive for the option to take effect.
func (b *Batcher) SetFillEmptyLevels(fill bool, tickSize decimal.Decimal) {
	b.mu.Lock()
	b.fillEmpty = fill
	b.tickSize = tickSize
	b.mu.Unlock()
}

// QueueLevel buffers one aggregated update and immediately flushes.
func (b *Batcher) QueueLevel(lvl book.PriceLevel) (*book.Snapshot, error) {
	if err := b.QueueLevelNoFlush(lvl); err != nil {
		return nil, err
	}
	return b.FlushBatch(context.Background())
}

// QueueLevelNoFlush buffers one aggregated update for a later flush.
func (b *Batcher) QueueLevelNoFlush(lvl book.PriceLevel) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.acceptLocked(); err != nil {
		return err
	}
	b.pending = append(b.pending, pendingUpdate{level: lvl})
	return nil
}

// QueueOrder buffers one per-order update and immediately flushes.
func (b *Batcher) QueueOrder(u book.OrderUpdate, t book.OrderUpdateType) (*book.Snapshot, error) {
	if err := b.QueueOrderNoFlush(u, t); err != nil {
		return nil, err
	}
	return b.FlushBatch(context.Background())
}

// QueueOrderNoFlush buffers one per-order update for a later flush.
func (b *Batcher) QueueOrderNoFlush(u book.OrderUpdate, t book.OrderUpdateType) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.acceptLocked(); err != nil {
		return err
	}
	b.pending = append(b.pending, pendingUpdate{isOrder: true, order: u, typ: t})
	return nil
}

func (b *Batcher) acceptLocked() error {
	if b.stopped {
		return book.ErrStopped
	}
	if b.paused {
		return book.ErrPaused
	}
	return nil
}

// FlushBatch applies every pending update through the active manager, then
// produces one snapshot and hands it to the registered consumer. A flush
// arriving while another is mid-flight returns (nil, nil): dropped by the
// single-writer guard. An apply error aborts the rest of that batch; the
// book keeps every update applied before the failure, never a partial
// record.
func (b *Batcher) FlushBatch(ctx context.Context) (*book.Snapshot, error) {
	if !b.flushing.CompareAndSwap(false, true) {
		return nil, nil
	}
	defer b.flushing.Store(false)

	start := time.Now()

	b.mu.Lock()
	if b.stopped {
		b.pending = nil
		b.mu.Unlock()
		return nil, book.ErrStopped
	}
	batch := b.pending
	b.pending = nil

	var applyErr error
	applied := 0
	for i := range batch {
		u := &batch[i]
		var err error
		if u.isOrder {
			err = b.mgr.ApplyOrder(u.order, u.typ)
		} else {
			err = b.mgr.ApplyLevel(u.level)
		}
		if err != nil {
			applyErr = err
			break
		}
		applied++
	}

	b.totalUpdates += uint64(applied)
	b.batchCount++
	snap := b.ob.Snapshot(b.center, b.visible, book.SnapshotOptions{
		FillEmpty: b.fillEmpty,
		TickSize:  b.tickSize,
	})
	b.seq++
	snap.Seq = b.seq
	b.lastFlush = time.Since(start)
	cb := b.onSnapshot
	mode := b.modeLabel
	b.mu.Unlock()

	metrics.UpdatesProcessed.WithLabelValues(mode).Add(float64(applied))
	metrics.BatchesFlushed.Inc()
	metrics.BatchSize.Observe(float64(applied))
	metrics.FlushLatency.Observe(time.Since(start).Seconds())

	if applyErr != nil {
		b.logger.Error("batch aborted mid-apply",
			zap.String("trace_id", traceIDFromContext(ctx)),
			zap.Int("applied", applied),
			zap.Int("dropped", len(batch)-applied),
			zap.Error(applyErr))
	}

	if cb != nil {
		cb(snap)
	}
	return snap, applyErr
}

// Pause gates queueing during a mode transition. Queue calls made while
// paused are rejected without mutating the book.
func (b *Batcher) Pause() {
	b.mu.Lock()
	b.paused = true
	b.mu.Unlock()
}

// Resume reopens the batcher after a Pause.
func (b *Batcher) Resume() {
	b.mu.Lock()
	b.paused = false
	b.mu.Unlock()
}

// ClearPending discards buffered-but-unflushed updates.
func (b *Batcher) ClearPending() {
	b.mu.Lock()
	b.pending = nil
	b.mu.Unlock()
}

// PendingCount reports buffered updates awaiting a flush.
func (b *Batcher) PendingCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// SetManager atomically swaps the active manager. Callers pause the batcher
// before and resume after, so no in-flight queue call races the swap.
func (b *Batcher) SetManager(mgr Manager, modeLabel string) {
	b.mu.Lock()
	b.mgr = mgr
	b.modeLabel = modeLabel
	b.mu.Unlock()
}

// Stop permanently closes the batcher and discards any pending buffer. Once
// Stop returns no further book mutation can occur: applies run under the
// mutex Stop acquires, and a flush that takes the mutex afterwards sees the
// stopped flag and discards its cycle.
func (b *Batcher) Stop() {
	b.mu.Lock()
	b.stopped = true
	b.pending = nil
	b.mu.Unlock()
}

// Statistics returns a copy of the batching counters.
func (b *Batcher) Statistics() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := Stats{
		TotalUpdates: b.totalUpdates,
		BatchCount:   b.batchCount,
		LastFlush:    b.lastFlush,
	}
	if b.batchCount > 0 {
		s.AvgUpdatesPerBatch = float64(b.totalUpdates) / float64(b.batchCount)
	}
	return s
}

// ResetStatistics zeroes the batching counters.
func (b *Batcher) ResetStatistics() {
	b.mu.Lock()
	b.totalUpdates = 0
	b.batchCount = 0
	b.lastFlush = 0
	b.mu.Unlock()
}

// traceIDKey is the context key for trace ID propagation.
type traceIDKey struct{}

// WithTraceID returns ctx carrying the given trace id.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, id)
}

func traceIDFromContext(ctx context.Context) string {
	if ctx != nil {
		if s, ok := ctx.Value(traceIDKey{}).(string); ok && s != "" {
			return s
		}
	}
	return uuid.New().String()
}
