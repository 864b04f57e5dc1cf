// Package pricelevel applies aggregated one-row-per-price updates, either as
// decoded structs or raw fixed-layout binary records.
package pricelevel

import (
	"go.uber.org/zap"

	"github.com/orbitcex/priceladder/internal/book"
	"github.com/orbitcex/priceladder/internal/wire"
)

// Manager routes aggregated level updates onto the order book.
type Manager struct {
	ob     *book.OrderBook
	logger *zap.Logger
}

func NewManager(ob *book.OrderBook, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{ob: ob, logger: logger}
}

// Apply upserts or removes one aggregated row.
func (m *Manager) Apply(lvl book.PriceLevel) error {
	m.ob.UpdateLevel(lvl)
	return nil
}

// ApplyBinary parses one 29-byte record and applies it. A short or malformed
// buffer fails without touching the book.
func (m *Manager) ApplyBinary(buf []byte) error {
	lvl, err := wire.DecodePriceLevel(buf)
	if err != nil {
		return err
	}
	m.ob.UpdateLevel(lvl)
	return nil
}

// ApplyBatchBinary slices buf into consecutive 29-byte records and applies
// each in order. It returns the number applied; a malformed record aborts
// the remainder but already-applied rows stand.
func (m *Manager) ApplyBatchBinary(buf []byte) (int, error) {
	applied := 0
	for off := 0; off+wire.PriceLevelSize <= len(buf); off += wire.PriceLevelSize {
		lvl, err := wire.DecodePriceLevel(buf[off : off+wire.PriceLevelSize])
		if err != nil {
			return applied, err
		}
		m.ob.UpdateLevel(lvl)
		applied++
	}
	return applied, nil
}

// Reset clears the book.
func (m *Manager) Reset() {
	m.ob.Clear()
}

// ApplyLevel satisfies the batcher's manager contract.
func (m *Manager) ApplyLevel(lvl book.PriceLevel) error {
	return m.Apply(lvl)
}

// ApplyOrder rejects per-order updates: this manager only handles the
// aggregated data mode.
func (m *Manager) ApplyOrder(book.OrderUpdate, book.OrderUpdateType) error {
	return book.ErrInvalidMode
}
