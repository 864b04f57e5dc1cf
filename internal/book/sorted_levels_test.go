package book

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestSortedLevelArray_AskOrdering(t *testing.T) {
	arr := NewSortedLevelArray(Ask)
	for _, p := range []string{"101.5", "100.25", "103", "100.75", "102"} {
		arr.Upsert(&BookLevel{Price: dec(p), Quantity: 10, Side: Ask})
	}
	require.Equal(t, 5, arr.Len())
	for i := 1; i < arr.Len(); i++ {
		assert.True(t, arr.At(i-1).Price.LessThan(arr.At(i).Price),
			"ask prices must be strictly increasing")
	}
	best, ok := arr.Best()
	require.True(t, ok)
	assert.True(t, best.Price.Equal(dec("100.25")))
}

func TestSortedLevelArray_BidOrdering(t *testing.T) {
	arr := NewSortedLevelArray(Bid)
	for _, p := range []string{"99.5", "100.25", "97", "99.75", "98"} {
		arr.Upsert(&BookLevel{Price: dec(p), Quantity: 10, Side: Bid})
	}
	for i := 1; i < arr.Len(); i++ {
		assert.True(t, arr.At(i-1).Price.GreaterThan(arr.At(i).Price),
			"bid prices must be strictly decreasing")
	}
	best, ok := arr.Best()
	require.True(t, ok)
	assert.True(t, best.Price.Equal(dec("100.25")))
}

func TestSortedLevelArray_UpsertReplacesDuplicate(t *testing.T) {
	arr := NewSortedLevelArray(Ask)
	arr.Upsert(&BookLevel{Price: dec("100"), Quantity: 10, Side: Ask})
	arr.Upsert(&BookLevel{Price: dec("100"), Quantity: 25, Side: Ask})
	require.Equal(t, 1, arr.Len())
	row, ok := arr.Find(dec("100"))
	require.True(t, ok)
	assert.Equal(t, int64(25), row.Quantity)
}

func TestSortedLevelArray_RemoveAndFind(t *testing.T) {
	arr := NewSortedLevelArray(Bid)
	arr.Upsert(&BookLevel{Price: dec("100"), Quantity: 10, Side: Bid})
	arr.Upsert(&BookLevel{Price: dec("99"), Quantity: 10, Side: Bid})

	assert.False(t, arr.Remove(dec("98")), "removing absent price reports false")
	assert.True(t, arr.Remove(dec("100")))
	assert.Equal(t, 1, arr.Len())
	_, ok := arr.Find(dec("100"))
	assert.False(t, ok)
}

func TestSortedLevelArray_DropWorst(t *testing.T) {
	bids := NewSortedLevelArray(Bid)
	asks := NewSortedLevelArray(Ask)
	for _, p := range []string{"100", "101", "102"} {
		bids.Upsert(&BookLevel{Price: dec(p), Quantity: 1, Side: Bid})
		asks.Upsert(&BookLevel{Price: dec(p), Quantity: 1, Side: Ask})
	}
	worstBid, ok := bids.DropWorst()
	require.True(t, ok)
	assert.True(t, worstBid.Price.Equal(dec("100")), "lowest bid is worst")
	worstAsk, ok := asks.DropWorst()
	require.True(t, ok)
	assert.True(t, worstAsk.Price.Equal(dec("102")), "highest ask is worst")
}
