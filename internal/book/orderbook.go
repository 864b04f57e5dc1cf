package book

import (
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/orbitcex/priceladder/pkg/metrics"
)

// OrderBook owns both sides of the ladder. All mutation goes through
// UpdateLevel so the sorted invariant and the maxLevels bound hold at every
// call boundary. Reads and writes are guarded by a single RWMutex; the hot
// path is short enough that finer locking buys nothing.
type OrderBook struct {
	mu        sync.RWMutex
	bids      *SortedLevelArray
	asks      *SortedLevelArray
	maxLevels int
	logger    *zap.Logger
}

// DefaultMaxLevels bounds each side when the caller does not configure one.
const DefaultMaxLevels = 1024

func NewOrderBook(maxLevels int, logger *zap.Logger) *OrderBook {
	if maxLevels <= 0 {
		maxLevels = DefaultMaxLevels
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderBook{
		bids:      NewSortedLevelArray(Bid),
		asks:      NewSortedLevelArray(Ask),
		maxLevels: maxLevels,
		logger:    logger,
	}
}

func (ob *OrderBook) sideArray(s Side) *SortedLevelArray {
	if s == Bid {
		return ob.bids
	}
	return ob.asks
}

// UpdateLevel upserts the row for lvl.Price, or removes it when the
// quantity is zero. Inserting beyond maxLevels evicts the worst-priced row
// on that side.
func (ob *OrderBook) UpdateLevel(lvl PriceLevel) {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	ob.updateLevelLocked(lvl)
}

func (ob *OrderBook) updateLevelLocked(lvl PriceLevel) {
	arr := ob.sideArray(lvl.Side)
	if lvl.Quantity <= 0 {
		arr.Remove(lvl.Price)
		return
	}
	if row, ok := arr.Find(lvl.Price); ok {
		row.Quantity = lvl.Quantity
		row.NumOrders = lvl.NumOrders
		row.Dirty = true
		return
	}
	arr.Upsert(&BookLevel{
		Price:     lvl.Price,
		Quantity:  lvl.Quantity,
		NumOrders: lvl.NumOrders,
		Side:      lvl.Side,
		Dirty:     true,
	})
	if arr.Len() > ob.maxLevels {
		if worst, ok := arr.DropWorst(); ok {
			metrics.LevelsEvicted.WithLabelValues(lvl.Side.String()).Inc()
			ob.logger.Debug("evicted worst level",
				zap.String("side", lvl.Side.String()),
				zap.String("price", worst.Price.String()))
		}
	}
}

// TryGetLevel returns a copy of the row at price, reporting whether it exists.
func (ob *OrderBook) TryGetLevel(price decimal.Decimal, side Side) (BookLevel, bool) {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	row, ok := ob.sideArray(side).Find(price)
	if !ok {
		return BookLevel{}, false
	}
	return *row, true
}

// MarkOwnOrder flags a row as carrying the caller's own order. No-op when
// the price is absent.
func (ob *OrderBook) MarkOwnOrder(price decimal.Decimal, side Side, flag bool) {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	if row, ok := ob.sideArray(side).Find(price); ok && row.HasOwnOrders != flag {
		row.HasOwnOrders = flag
		row.Dirty = true
	}
}

// Clear empties both sides without destroying the structure.
func (ob *OrderBook) Clear() {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	ob.bids.Clear()
	ob.asks.Clear()
}

// BidCount and AskCount report side sizes.
func (ob *OrderBook) BidCount() int {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	return ob.bids.Len()
}

func (ob *OrderBook) AskCount() int {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	return ob.asks.Len()
}

// BestBid returns the highest bid price, if any.
func (ob *OrderBook) BestBid() (decimal.Decimal, bool) {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	return ob.bestLocked(Bid)
}

// BestAsk returns the lowest ask price, if any.
func (ob *OrderBook) BestAsk() (decimal.Decimal, bool) {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	return ob.bestLocked(Ask)
}

func (ob *OrderBook) bestLocked(s Side) (decimal.Decimal, bool) {
	row, ok := ob.sideArray(s).Best()
	if !ok {
		return decimal.Decimal{}, false
	}
	return row.Price, true
}

// MidPrice returns the midpoint of best bid and best ask.
func (ob *OrderBook) MidPrice() (decimal.Decimal, bool) {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	return ob.midLocked()
}

func (ob *OrderBook) midLocked() (decimal.Decimal, bool) {
	bb, okB := ob.bestLocked(Bid)
	ba, okA := ob.bestLocked(Ask)
	if !okB || !okA {
		return decimal.Decimal{}, false
	}
	return bb.Add(ba).Div(decimal.NewFromInt(2)), true
}

// Spread returns best ask minus best bid.
func (ob *OrderBook) Spread() (decimal.Decimal, bool) {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	bb, okB := ob.bestLocked(Bid)
	ba, okA := ob.bestLocked(Ask)
	if !okB || !okA {
		return decimal.Decimal{}, false
	}
	return ba.Sub(bb), true
}
