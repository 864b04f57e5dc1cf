// Package mbo applies Market-By-Order updates and keeps the aggregated book
// derived from the live order set.
package mbo

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/tidwall/btree"
	"go.uber.org/zap"

	"github.com/orbitcex/priceladder/internal/book"
)

// queuedOrder is one live order inside a level queue.
type queuedOrder struct {
	id       uint64
	quantity int64
	priority uint64
	own      bool
}

// levelQueue holds the live orders resting at one price, in arrival order.
// The aggregate fields are maintained incrementally so deriving the book row
// is O(1).
type levelQueue struct {
	side     book.Side
	price    decimal.Decimal
	orders   []queuedOrder
	quantity int64
	ownCount int
}

func (q *levelQueue) remove(id uint64) bool {
	for i := range q.orders {
		if q.orders[i].id == id {
			q.orders = append(q.orders[:i], q.orders[i+1:]...)
			return true
		}
	}
	return false
}

// orderRef locates a tracked order for O(1) Modify/Delete.
type orderRef struct {
	key      string
	side     book.Side
	price    decimal.Decimal
	quantity int64
	own      bool
}

// Manager tracks individual orders and pushes derived aggregate rows into
// the order book after every mutation.
type Manager struct {
	mu     sync.Mutex
	ob     *book.OrderBook
	levels *btree.Map[string, *levelQueue]
	index  map[uint64]orderRef
	strict bool
	logger *zap.Logger
}

const levelTreeDegree = 32

func NewManager(ob *book.OrderBook, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		ob:     ob,
		levels: btree.NewMap[string, *levelQueue](levelTreeDegree),
		index:  make(map[uint64]orderRef),
		logger: logger,
	}
}

// SetStrict makes Modify/Delete of an unknown order an error instead of a
// silent no-op.
func (m *Manager) SetStrict(strict bool) {
	m.mu.Lock()
	m.strict = strict
	m.mu.Unlock()
}

func levelKey(side book.Side, price decimal.Decimal) string {
	return side.String() + "@" + price.String()
}

// Apply dispatches one order event.
func (m *Manager) Apply(u book.OrderUpdate, t book.OrderUpdateType) error {
	switch t {
	case book.OrderAdd:
		return m.add(u)
	case book.OrderModify:
		return m.modify(u)
	case book.OrderDelete:
		return m.delete(u)
	}
	return fmt.Errorf("mbo: unhandled update type %d", t)
}

func (m *Manager) add(u book.OrderUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.index[u.OrderID]; ok {
		return fmt.Errorf("%w: %d", book.ErrDuplicateOrder, u.OrderID)
	}
	key := levelKey(u.Side, u.Price)
	q, ok := m.levels.Get(key)
	if !ok {
		q = &levelQueue{side: u.Side, price: u.Price}
		m.levels.Set(key, q)
	}
	q.orders = append(q.orders, queuedOrder{
		id:       u.OrderID,
		quantity: u.Quantity,
		priority: u.Priority,
		own:      u.IsOwnOrder,
	})
	q.quantity += u.Quantity
	if u.IsOwnOrder {
		q.ownCount++
	}
	m.index[u.OrderID] = orderRef{
		key:      key,
		side:     u.Side,
		price:    u.Price,
		quantity: u.Quantity,
		own:      u.IsOwnOrder,
	}
	m.syncLevelLocked(q)
	return nil
}

func (m *Manager) modify(u book.OrderUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ref, ok := m.index[u.OrderID]
	if !ok {
		return m.unknownLocked(u.OrderID, "modify")
	}
	q, ok := m.levels.Get(ref.key)
	if !ok {
		return m.unknownLocked(u.OrderID, "modify")
	}
	delta := u.Quantity - ref.quantity
	if delta == 0 {
		return nil
	}
	// Quantity changes keep queue position; only the aggregate moves.
	for i := range q.orders {
		if q.orders[i].id == u.OrderID {
			q.orders[i].quantity = u.Quantity
			break
		}
	}
	q.quantity += delta
	ref.quantity = u.Quantity
	m.index[u.OrderID] = ref
	m.syncLevelLocked(q)
	return nil
}

func (m *Manager) delete(u book.OrderUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ref, ok := m.index[u.OrderID]
	if !ok {
		return m.unknownLocked(u.OrderID, "delete")
	}
	delete(m.index, u.OrderID)
	q, ok := m.levels.Get(ref.key)
	if !ok {
		return nil
	}
	if q.remove(u.OrderID) {
		q.quantity -= ref.quantity
		if ref.own {
			q.ownCount--
		}
	}
	if len(q.orders) == 0 {
		m.levels.Delete(ref.key)
		// An empty level leaves the book entirely, never a zero row.
		m.ob.UpdateLevel(book.PriceLevel{Side: ref.side, Price: ref.price, Quantity: 0})
		return nil
	}
	m.syncLevelLocked(q)
	return nil
}

func (m *Manager) unknownLocked(id uint64, op string) error {
	if m.strict {
		return fmt.Errorf("%w: %s %d", book.ErrUnknownOrder, op, id)
	}
	m.logger.Debug("ignoring update for unknown order",
		zap.String("op", op), zap.Uint64("order_id", id))
	return nil
}

// syncLevelLocked writes the derived aggregate row for q into the book.
func (m *Manager) syncLevelLocked(q *levelQueue) {
	m.ob.UpdateLevel(book.PriceLevel{
		Side:      q.side,
		Price:     q.price,
		Quantity:  q.quantity,
		NumOrders: int32(len(q.orders)),
	})
	m.ob.MarkOwnOrder(q.price, q.side, q.ownCount > 0)
}

// OrdersAt returns the ids resting at price in priority order. Consumers
// stacking individual orders per row rely on this ordering.
func (m *Manager) OrdersAt(price decimal.Decimal, side book.Side) []uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.levels.Get(levelKey(side, price))
	if !ok {
		return nil
	}
	ids := make([]uint64, len(q.orders))
	for i, o := range q.orders {
		ids[i] = o.id
	}
	return ids
}

// OrderCount reports the number of tracked live orders.
func (m *Manager) OrderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.index)
}

// ApplyOrder satisfies the batcher's manager contract.
func (m *Manager) ApplyOrder(u book.OrderUpdate, t book.OrderUpdateType) error {
	return m.Apply(u, t)
}

// ApplyLevel rejects aggregated updates: this manager only handles the
// per-order data mode.
func (m *Manager) ApplyLevel(book.PriceLevel) error {
	return book.ErrInvalidMode
}

// Reset drops all order tracking and clears the book.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.levels = btree.NewMap[string, *levelQueue](levelTreeDegree)
	m.index = make(map[uint64]orderRef)
	m.ob.Clear()
}
