package book

import (
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot is an immutable view of the book windowed around a center price.
// Bids run best-first (descending price), asks best-first (ascending).
type Snapshot struct {
	Bids []BookLevel
	Asks []BookLevel

	BestBid    decimal.Decimal
	HasBestBid bool
	BestAsk    decimal.Decimal
	HasBestAsk bool
	MidPrice   decimal.Decimal
	HasMid     bool

	CenterPrice decimal.Decimal
	Seq         uint64
	Taken       time.Time
}

// SnapshotOptions controls viewport synthesis. When FillEmpty is set the
// window is generated on a tick grid and prices with no resting level come
// back as zero-quantity placeholder rows.
type SnapshotOptions struct {
	FillEmpty bool
	TickSize  decimal.Decimal
}

// Snapshot copies up to visibleLevels/2 rows per side nearest center. A zero
// center means "center on mid", falling back to whichever best price exists.
// Out-of-range centers return fewer rows, never an error. Rows carry their
// dirty flag as of this snapshot; the book's dirty state is reset afterwards.
func (ob *OrderBook) Snapshot(center decimal.Decimal, visibleLevels int, opts SnapshotOptions) *Snapshot {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	if visibleLevels <= 0 {
		visibleLevels = 20
	}
	half := visibleLevels / 2
	if half < 1 {
		half = 1
	}

	if center.IsZero() {
		if mid, ok := ob.midLocked(); ok {
			center = mid
		} else if bb, ok := ob.bestLocked(Bid); ok {
			center = bb
		} else if ba, ok := ob.bestLocked(Ask); ok {
			center = ba
		}
	}

	snap := &Snapshot{CenterPrice: center, Taken: time.Now()}
	if opts.FillEmpty && opts.TickSize.IsPositive() {
		snap.Bids = ob.fillSideLocked(ob.bids, center, half, opts.TickSize)
		snap.Asks = ob.fillSideLocked(ob.asks, center, half, opts.TickSize)
	} else {
		snap.Bids = ob.windowSideLocked(ob.bids, center, half)
		snap.Asks = ob.windowSideLocked(ob.asks, center, half)
	}

	if bb, ok := ob.bestLocked(Bid); ok {
		snap.BestBid, snap.HasBestBid = bb, true
	}
	if ba, ok := ob.bestLocked(Ask); ok {
		snap.BestAsk, snap.HasBestAsk = ba, true
	}
	if mid, ok := ob.midLocked(); ok {
		snap.MidPrice, snap.HasMid = mid, true
	}

	ob.clearDirtyLocked()
	return snap
}

// windowSideLocked copies up to half rows starting at the row nearest center.
func (ob *OrderBook) windowSideLocked(arr *SortedLevelArray, center decimal.Decimal, half int) []BookLevel {
	n := arr.Len()
	if n == 0 {
		return nil
	}
	from := arr.windowFrom(center)
	if from >= n {
		from = n - 1
	}
	to := from + half
	if to > n {
		to = n
	}
	out := make([]BookLevel, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, *arr.At(i))
	}
	return out
}

// fillSideLocked walks a tick grid away from center and synthesizes
// placeholder rows for prices with no resting level. Center is aligned to
// the grid rounding half away from zero.
func (ob *OrderBook) fillSideLocked(arr *SortedLevelArray, center decimal.Decimal, half int, tick decimal.Decimal) []BookLevel {
	price := alignToTick(center, tick)
	// The first bid row sits at or below center, the first ask row above it.
	if arr.side == Bid && price.GreaterThan(center) {
		price = price.Sub(tick)
	}
	if arr.side == Ask && !price.GreaterThan(center) {
		price = price.Add(tick)
	}
	out := make([]BookLevel, 0, half)
	for i := 0; i < half; i++ {
		if row, ok := arr.Find(price); ok {
			out = append(out, *row)
		} else {
			out = append(out, BookLevel{Price: price, Side: arr.side})
		}
		if arr.side == Bid {
			price = price.Sub(tick)
		} else {
			price = price.Add(tick)
		}
	}
	return out
}

// alignToTick snaps price to the nearest multiple of tick, rounding half
// away from zero.
func alignToTick(price, tick decimal.Decimal) decimal.Decimal {
	return price.Div(tick).Round(0).Mul(tick)
}

func (ob *OrderBook) clearDirtyLocked() {
	for _, arr := range []*SortedLevelArray{ob.bids, ob.asks} {
		for i := 0; i < arr.Len(); i++ {
			arr.At(i).Dirty = false
		}
	}
}
