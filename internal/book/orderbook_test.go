package book

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderBook_UpdateAndLookup(t *testing.T) {
	ob := NewOrderBook(0, nil)
	ob.UpdateLevel(PriceLevel{Side: Bid, Price: dec("100.50"), Quantity: 500, NumOrders: 3})

	row, ok := ob.TryGetLevel(dec("100.50"), Bid)
	require.True(t, ok)
	assert.Equal(t, int64(500), row.Quantity)
	assert.Equal(t, int32(3), row.NumOrders)
	assert.True(t, row.Dirty)

	_, ok = ob.TryGetLevel(dec("100.50"), Ask)
	assert.False(t, ok, "lookup is per side")
}

func TestOrderBook_ZeroQuantityRemoves(t *testing.T) {
	ob := NewOrderBook(0, nil)
	ob.UpdateLevel(PriceLevel{Side: Bid, Price: dec("100.50"), Quantity: 500, NumOrders: 1})
	ob.UpdateLevel(PriceLevel{Side: Bid, Price: dec("100.50"), Quantity: 0})

	_, ok := ob.TryGetLevel(dec("100.50"), Bid)
	assert.False(t, ok, "zero quantity removes the row")

	// Removing an absent price is a no-op.
	ob.UpdateLevel(PriceLevel{Side: Bid, Price: dec("55"), Quantity: 0})
	assert.Equal(t, 0, ob.BidCount())
}

func TestOrderBook_BestMidSpread(t *testing.T) {
	ob := NewOrderBook(0, nil)

	_, ok := ob.MidPrice()
	assert.False(t, ok, "no mid with an empty side")

	ob.UpdateLevel(PriceLevel{Side: Bid, Price: dec("100"), Quantity: 1})
	ob.UpdateLevel(PriceLevel{Side: Bid, Price: dec("99"), Quantity: 1})
	ob.UpdateLevel(PriceLevel{Side: Ask, Price: dec("101"), Quantity: 1})
	ob.UpdateLevel(PriceLevel{Side: Ask, Price: dec("102"), Quantity: 1})

	bb, ok := ob.BestBid()
	require.True(t, ok)
	assert.True(t, bb.Equal(dec("100")))
	ba, ok := ob.BestAsk()
	require.True(t, ok)
	assert.True(t, ba.Equal(dec("101")))
	assert.True(t, bb.LessThan(ba), "best bid below best ask")

	mid, ok := ob.MidPrice()
	require.True(t, ok)
	assert.True(t, mid.Equal(dec("100.5")))
	spread, ok := ob.Spread()
	require.True(t, ok)
	assert.True(t, spread.Equal(dec("1")))
}

func TestOrderBook_EvictsWorstBeyondMaxLevels(t *testing.T) {
	ob := NewOrderBook(5, nil)
	for i := 0; i < 6; i++ {
		ob.UpdateLevel(PriceLevel{Side: Bid, Price: dec(fmt.Sprintf("%d", 100+i)), Quantity: 1})
	}
	assert.Equal(t, 5, ob.BidCount())
	_, ok := ob.TryGetLevel(dec("100"), Bid)
	assert.False(t, ok, "worst (lowest) bid evicted")
	_, ok = ob.TryGetLevel(dec("105"), Bid)
	assert.True(t, ok, "best bid kept")
}

func TestOrderBook_MarkOwnOrder(t *testing.T) {
	ob := NewOrderBook(0, nil)
	ob.UpdateLevel(PriceLevel{Side: Ask, Price: dec("101"), Quantity: 10})

	ob.MarkOwnOrder(dec("101"), Ask, true)
	row, ok := ob.TryGetLevel(dec("101"), Ask)
	require.True(t, ok)
	assert.True(t, row.HasOwnOrders)

	// Absent price is a no-op, not an error.
	ob.MarkOwnOrder(dec("999"), Ask, true)

	ob.MarkOwnOrder(dec("101"), Ask, false)
	row, _ = ob.TryGetLevel(dec("101"), Ask)
	assert.False(t, row.HasOwnOrders)
}

func TestOrderBook_Clear(t *testing.T) {
	ob := NewOrderBook(0, nil)
	ob.UpdateLevel(PriceLevel{Side: Bid, Price: dec("100"), Quantity: 1})
	ob.UpdateLevel(PriceLevel{Side: Ask, Price: dec("101"), Quantity: 1})
	ob.Clear()
	assert.Equal(t, 0, ob.BidCount())
	assert.Equal(t, 0, ob.AskCount())

	// The structure survives a clear.
	ob.UpdateLevel(PriceLevel{Side: Bid, Price: dec("100"), Quantity: 1})
	assert.Equal(t, 1, ob.BidCount())
}

func BenchmarkOrderBook_UpdateLevel(b *testing.B) {
	ob := NewOrderBook(1024, nil)
	levels := make([]PriceLevel, 512)
	for i := range levels {
		levels[i] = PriceLevel{
			Side:      Side(i % 2),
			Price:     dec(fmt.Sprintf("%d.25", 100+i)),
			Quantity:  int64(i + 1),
			NumOrders: 1,
		}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ob.UpdateLevel(levels[i%len(levels)])
	}
}
