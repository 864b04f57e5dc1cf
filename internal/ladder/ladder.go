// Package ladder is the public face of the price ladder core: it composes
// the order book, the update batcher and the two data-mode managers, and
// owns the mode state machine.
package ladder

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/orbitcex/priceladder/internal/batch"
	"github.com/orbitcex/priceladder/internal/book"
	"github.com/orbitcex/priceladder/internal/ingest"
	"github.com/orbitcex/priceladder/internal/mbo"
	"github.com/orbitcex/priceladder/internal/pricelevel"
)

// Mode selects how incoming updates are interpreted.
type Mode int32

const (
	ModePriceLevel Mode = iota
	ModeMBO
)

func (m Mode) String() string {
	if m == ModeMBO {
		return "mbo"
	}
	return "price_level"
}

// Options configures a Core.
type Options struct {
	MaxLevels     int
	VisibleLevels int
	RingCapacity  int
	FillEmpty     bool
	TickSize      decimal.Decimal
	StrictOrders  bool
	Logger        *zap.Logger
}

// Core wires the book, batcher and managers together behind one API used by
// both the feed producer and the snapshot consumer.
type Core struct {
	mu      sync.Mutex // serializes mode transitions and Stop
	ob      *book.OrderBook
	batcher *batch.Batcher
	levels  *pricelevel.Manager
	orders  *mbo.Manager
	ring    *ingest.Ring
	pool    *ingest.Pool
	mode    Mode
	logger  *zap.Logger
}

func New(opts Options) *Core {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ob := book.NewOrderBook(opts.MaxLevels, logger)
	levels := pricelevel.NewManager(ob, logger)
	orders := mbo.NewManager(ob, logger)
	orders.SetStrict(opts.StrictOrders)

	b := batch.NewBatcher(ob, levels, opts.VisibleLevels, logger)
	if opts.FillEmpty {
		b.SetFillEmptyLevels(true, opts.TickSize)
	}
	return &Core{
		ob:      ob,
		batcher: b,
		levels:  levels,
		orders:  orders,
		ring:    ingest.NewRing(opts.RingCapacity),
		pool:    ingest.NewPool(opts.RingCapacity),
		mode:    ModePriceLevel,
		logger:  logger,
	}
}

// Mode returns the active data mode.
func (c *Core) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// ProcessPriceLevelUpdate queues one aggregated update and flushes.
func (c *Core) ProcessPriceLevelUpdate(lvl book.PriceLevel) error {
	if err := c.requireMode(ModePriceLevel); err != nil {
		return err
	}
	_, err := c.batcher.QueueLevel(lvl)
	return err
}

// ProcessPriceLevelUpdateNoFlush queues one aggregated update for a later
// explicit Flush.
func (c *Core) ProcessPriceLevelUpdateNoFlush(lvl book.PriceLevel) error {
	if err := c.requireMode(ModePriceLevel); err != nil {
		return err
	}
	return c.batcher.QueueLevelNoFlush(lvl)
}

// ProcessOrderUpdate queues one per-order update and flushes.
func (c *Core) ProcessOrderUpdate(u book.OrderUpdate, t book.OrderUpdateType) error {
	if err := c.requireMode(ModeMBO); err != nil {
		return err
	}
	_, err := c.batcher.QueueOrder(u, t)
	return err
}

// ProcessOrderUpdateNoFlush queues one per-order update for a later Flush.
func (c *Core) ProcessOrderUpdateNoFlush(u book.OrderUpdate, t book.OrderUpdateType) error {
	if err := c.requireMode(ModeMBO); err != nil {
		return err
	}
	return c.batcher.QueueOrderNoFlush(u, t)
}

// ProcessBatch queues a slice of aggregated updates and flushes once. It
// returns the number of updates accepted into the batch.
func (c *Core) ProcessBatch(levels []book.PriceLevel) (int, error) {
	if err := c.requireMode(ModePriceLevel); err != nil {
		return 0, err
	}
	accepted := 0
	for _, lvl := range levels {
		if err := c.batcher.QueueLevelNoFlush(lvl); err != nil {
			return accepted, err
		}
		accepted++
	}
	_, err := c.batcher.FlushBatch(context.Background())
	return accepted, err
}

func (c *Core) requireMode(want Mode) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != want {
		return fmt.Errorf("%w: need %s, active %s", book.ErrInvalidMode, want, c.mode)
	}
	return nil
}

// Flush applies all pending updates and emits one snapshot.
func (c *Core) Flush(ctx context.Context) (*book.Snapshot, error) {
	return c.batcher.FlushBatch(ctx)
}

// ClearPendingUpdates discards buffered-but-unflushed updates, used when
// stopping a feed so stale updates are not applied after the stop.
func (c *Core) ClearPendingUpdates() {
	c.batcher.ClearPending()
}

// SetDataMode transitions between aggregated and per-order processing.
// The transition is stop-the-world: pause, drop pending, clear all book and
// order state, swap the manager, resume. No partial batch survives it.
func (c *Core) SetDataMode(mode Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode == mode {
		return
	}
	c.batcher.Pause()
	c.batcher.ClearPending()
	c.orders.Reset()
	c.levels.Reset()
	if mode == ModeMBO {
		c.batcher.SetManager(c.orders, mode.String())
	} else {
		c.batcher.SetManager(c.levels, mode.String())
	}
	c.mode = mode
	c.batcher.Resume()
	c.logger.Info("data mode switched", zap.String("mode", mode.String()))
}

// Reset drops pending updates and empties all book and order state without
// changing the active mode.
func (c *Core) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batcher.Pause()
	c.batcher.ClearPending()
	c.orders.Reset()
	c.levels.Reset()
	c.batcher.ResetStatistics()
	c.batcher.Resume()
}

// Stop permanently halts update processing. After Stop returns no further
// book mutation occurs; an in-flight pending buffer is discarded.
func (c *Core) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batcher.Stop()
	c.logger.Info("price ladder stopped")
}

// OnSnapshot registers the consumer callback fired once per completed flush.
func (c *Core) OnSnapshot(fn batch.SnapshotFunc) {
	c.batcher.OnSnapshot(fn)
}

// SetViewport configures the snapshot window.
func (c *Core) SetViewport(center decimal.Decimal, visibleLevels int) {
	c.batcher.SetViewport(center, visibleLevels)
}

// SetFillEmptyLevels toggles placeholder rows on the snapshot tick grid.
func (c *Core) SetFillEmptyLevels(fill bool, tickSize decimal.Decimal) {
	c.batcher.SetFillEmptyLevels(fill, tickSize)
}

// GetSnapshot windows the current book without flushing pending updates.
func (c *Core) GetSnapshot(center decimal.Decimal, visibleLevels int) *book.Snapshot {
	return c.ob.Snapshot(center, visibleLevels, book.SnapshotOptions{})
}

// MarkOwnOrder flags a price row as carrying the caller's own order.
func (c *Core) MarkOwnOrder(price decimal.Decimal, side book.Side, flag bool) {
	c.ob.MarkOwnOrder(price, side, flag)
}

// Best-of-book accessors.
func (c *Core) BestBid() (decimal.Decimal, bool)  { return c.ob.BestBid() }
func (c *Core) BestAsk() (decimal.Decimal, bool)  { return c.ob.BestAsk() }
func (c *Core) MidPrice() (decimal.Decimal, bool) { return c.ob.MidPrice() }
func (c *Core) Spread() (decimal.Decimal, bool)   { return c.ob.Spread() }

// Statistics exposes the batcher counters.
func (c *Core) Statistics() batch.Stats {
	return c.batcher.Statistics()
}

// ResetStatistics zeroes the batcher counters.
func (c *Core) ResetStatistics() {
	c.batcher.ResetStatistics()
}
