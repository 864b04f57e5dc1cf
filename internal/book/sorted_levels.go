package book

import (
	"sort"

	"github.com/shopspring/decimal"
)

// SortedLevelArray keeps one side of the book as a dense slice ordered from
// best to worst price: ascending for asks, descending for bids. Upsert,
// Remove and Find are O(log n) binary searches plus an O(n) memmove; the
// slice stays small enough (bounded by maxLevels) that the move is cheaper
// than pointer-chasing a tree.
type SortedLevelArray struct {
	side   Side
	levels []*BookLevel
}

func NewSortedLevelArray(side Side) *SortedLevelArray {
	return &SortedLevelArray{side: side}
}

// before reports whether price a ranks ahead of price b on this side.
func (a *SortedLevelArray) before(x, y decimal.Decimal) bool {
	if a.side == Ask {
		return x.LessThan(y)
	}
	return x.GreaterThan(y)
}

// search returns the index where price belongs and whether it is present.
func (a *SortedLevelArray) search(price decimal.Decimal) (int, bool) {
	i := sort.Search(len(a.levels), func(i int) bool {
		return !a.before(a.levels[i].Price, price)
	})
	if i < len(a.levels) && a.levels[i].Price.Equal(price) {
		return i, true
	}
	return i, false
}

// Upsert inserts or replaces the row for lvl.Price and returns it.
func (a *SortedLevelArray) Upsert(lvl *BookLevel) *BookLevel {
	i, ok := a.search(lvl.Price)
	if ok {
		a.levels[i] = lvl
		return lvl
	}
	a.levels = append(a.levels, nil)
	copy(a.levels[i+1:], a.levels[i:])
	a.levels[i] = lvl
	return lvl
}

// Remove deletes the row at price, reporting whether it existed.
func (a *SortedLevelArray) Remove(price decimal.Decimal) bool {
	i, ok := a.search(price)
	if !ok {
		return false
	}
	copy(a.levels[i:], a.levels[i+1:])
	a.levels[len(a.levels)-1] = nil
	a.levels = a.levels[:len(a.levels)-1]
	return true
}

// Find returns the row at price, if any.
func (a *SortedLevelArray) Find(price decimal.Decimal) (*BookLevel, bool) {
	i, ok := a.search(price)
	if !ok {
		return nil, false
	}
	return a.levels[i], true
}

// Best returns the first row: highest bid or lowest ask.
func (a *SortedLevelArray) Best() (*BookLevel, bool) {
	if len(a.levels) == 0 {
		return nil, false
	}
	return a.levels[0], true
}

// DropWorst removes the last row, the price furthest from best.
func (a *SortedLevelArray) DropWorst() (*BookLevel, bool) {
	n := len(a.levels)
	if n == 0 {
		return nil, false
	}
	worst := a.levels[n-1]
	a.levels[n-1] = nil
	a.levels = a.levels[:n-1]
	return worst, true
}

func (a *SortedLevelArray) Len() int { return len(a.levels) }

func (a *SortedLevelArray) At(i int) *BookLevel { return a.levels[i] }

func (a *SortedLevelArray) Clear() {
	for i := range a.levels {
		a.levels[i] = nil
	}
	a.levels = a.levels[:0]
}

// windowFrom returns the index of the first row at or behind center in this
// side's ordering: for asks the first price >= center, for bids the first
// price <= center.
func (a *SortedLevelArray) windowFrom(center decimal.Decimal) int {
	return sort.Search(len(a.levels), func(i int) bool {
		return !a.before(a.levels[i].Price, center)
	})
}
