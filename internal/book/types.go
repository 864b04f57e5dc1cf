package book

import (
	"github.com/shopspring/decimal"
)

// Side identifies which half of the book a price belongs to.
type Side uint8

const (
	Bid Side = iota
	Ask
)

func (s Side) String() string {
	if s == Bid {
		return "bid"
	}
	return "ask"
}

// PriceLevel is a single aggregated update: one row per price. A zero
// quantity removes the row.
type PriceLevel struct {
	Side      Side
	Price     decimal.Decimal
	Quantity  int64
	NumOrders int32
}

// OrderUpdateType discriminates per-order events in MBO mode.
type OrderUpdateType uint8

const (
	OrderAdd OrderUpdateType = iota
	OrderModify
	OrderDelete
)

func (t OrderUpdateType) String() string {
	switch t {
	case OrderAdd:
		return "add"
	case OrderModify:
		return "modify"
	case OrderDelete:
		return "delete"
	}
	return "unknown"
}

// OrderUpdate is one per-order event. Priority is a monotonic arrival key;
// orders at the same price stack in priority order.
type OrderUpdate struct {
	OrderID    uint64
	Side       Side
	Price      decimal.Decimal
	Quantity   int64
	Priority   uint64
	IsOwnOrder bool
}

// BookLevel is an aggregated row held by the book. Rows with zero quantity
// are never stored; a zero-quantity row only appears in snapshots produced
// with the fill-empty-levels option.
type BookLevel struct {
	Price        decimal.Decimal
	Quantity     int64
	NumOrders    int32
	Side         Side
	Dirty        bool
	HasOwnOrders bool
}
