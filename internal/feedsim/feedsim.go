// Package feedsim generates a synthetic market-data stream. It is a client
// of the ladder's public update API only, used as the producer harness in
// cmd and in load tests. Given the same seed it emits the same sequence.
package feedsim

import (
	"math/rand"

	"github.com/shopspring/decimal"

	"github.com/orbitcex/priceladder/internal/book"
)

// Generator random-walks a mid price and emits updates around it.
type Generator struct {
	rng      *rand.Rand
	mid      decimal.Decimal
	tick     decimal.Decimal
	depth    int
	nextID   uint64
	nextPrio uint64
	live     []book.OrderUpdate
}

func New(seed int64, basePrice, tickSize decimal.Decimal, depth int) *Generator {
	if depth <= 0 {
		depth = 20
	}
	return &Generator{
		rng:   rand.New(rand.NewSource(seed)),
		mid:   basePrice,
		tick:  tickSize,
		depth: depth,
	}
}

// step drifts the mid by up to two ticks.
func (g *Generator) step() {
	drift := int64(g.rng.Intn(5)) - 2
	g.mid = g.mid.Add(g.tick.Mul(decimal.NewFromInt(drift)))
}

// NextLevel emits one aggregated level update near the mid. Roughly one in
// twelve updates is a removal (zero quantity).
func (g *Generator) NextLevel() book.PriceLevel {
	g.step()
	side := book.Bid
	offset := int64(g.rng.Intn(g.depth)) + 1
	price := g.mid.Sub(g.tick.Mul(decimal.NewFromInt(offset)))
	if g.rng.Intn(2) == 1 {
		side = book.Ask
		price = g.mid.Add(g.tick.Mul(decimal.NewFromInt(offset)))
	}
	lvl := book.PriceLevel{Side: side, Price: price}
	if g.rng.Intn(12) != 0 {
		lvl.Quantity = int64(g.rng.Intn(900) + 100)
		lvl.NumOrders = int32(g.rng.Intn(9) + 1)
	}
	return lvl
}

// NextOrder emits one per-order event. Adds dominate until a pool of live
// orders builds up, then modifies and deletes mix in.
func (g *Generator) NextOrder() (book.OrderUpdate, book.OrderUpdateType) {
	g.step()
	if len(g.live) < 8 || g.rng.Intn(10) < 5 {
		g.nextID++
		g.nextPrio++
		side := book.Bid
		offset := int64(g.rng.Intn(g.depth)) + 1
		price := g.mid.Sub(g.tick.Mul(decimal.NewFromInt(offset)))
		if g.rng.Intn(2) == 1 {
			side = book.Ask
			price = g.mid.Add(g.tick.Mul(decimal.NewFromInt(offset)))
		}
		u := book.OrderUpdate{
			OrderID:  g.nextID,
			Side:     side,
			Price:    price,
			Quantity: int64(g.rng.Intn(900) + 100),
			Priority: g.nextPrio,
		}
		g.live = append(g.live, u)
		return u, book.OrderAdd
	}

	i := g.rng.Intn(len(g.live))
	u := g.live[i]
	if g.rng.Intn(3) == 0 {
		g.live = append(g.live[:i], g.live[i+1:]...)
		return u, book.OrderDelete
	}
	u.Quantity = int64(g.rng.Intn(900) + 100)
	g.live[i] = u
	return u, book.OrderModify
}

// Mid reports the generator's current mid price.
func (g *Generator) Mid() decimal.Decimal { return g.mid }

// LiveOrders reports how many synthetic orders are resting.
func (g *Generator) LiveOrders() int { return len(g.live) }
