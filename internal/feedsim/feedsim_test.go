package feedsim

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbitcex/priceladder/internal/book"
)

func TestGenerator_DeterministicForSeed(t *testing.T) {
	base := decimal.RequireFromString("100")
	tick := decimal.RequireFromString("0.25")

	a := New(7, base, tick, 10)
	b := New(7, base, tick, 10)
	for i := 0; i < 500; i++ {
		la, lb := a.NextLevel(), b.NextLevel()
		assert.True(t, la.Price.Equal(lb.Price))
		assert.Equal(t, la.Quantity, lb.Quantity)
		assert.Equal(t, la.Side, lb.Side)
	}
}

func TestGenerator_OrderStreamIsConsistent(t *testing.T) {
	g := New(3, decimal.RequireFromString("100"), decimal.RequireFromString("0.25"), 10)
	live := map[uint64]bool{}
	for i := 0; i < 2000; i++ {
		u, typ := g.NextOrder()
		switch typ {
		case book.OrderAdd:
			require.False(t, live[u.OrderID], "generator never re-adds a live id")
			live[u.OrderID] = true
		case book.OrderModify:
			require.True(t, live[u.OrderID], "modify only targets live orders")
		case book.OrderDelete:
			require.True(t, live[u.OrderID], "delete only targets live orders")
			delete(live, u.OrderID)
		}
	}
	assert.Equal(t, len(live), g.LiveOrders())
}
