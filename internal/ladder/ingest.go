package ladder

import (
	"github.com/orbitcex/priceladder/internal/book"
	"github.com/orbitcex/priceladder/internal/ingest"
	"github.com/orbitcex/priceladder/internal/wire"
)

// The ring path lets a latency-sensitive producer hand raw wire records to
// the core without blocking: OfferLevelRecord/OfferOrderRecord run on the
// producer goroutine, DrainRing on the consumer goroutine that owns the
// flush cadence.

// OfferLevelRecord parses one 29-byte aggregated record and enqueues it.
// It reports false, without error, when the ring is full.
func (c *Core) OfferLevelRecord(buf []byte) (bool, error) {
	lvl, err := wire.DecodePriceLevel(buf)
	if err != nil {
		return false, err
	}
	rec := c.pool.Get()
	rec.Kind = ingest.KindPriceLevel
	rec.Level = lvl
	if !c.ring.TryEnqueue(rec) {
		c.pool.Put(rec)
		return false, nil
	}
	return true, nil
}

// OfferOrderRecord parses one 42-byte per-order record and enqueues it with
// its update type.
func (c *Core) OfferOrderRecord(buf []byte, t book.OrderUpdateType) (bool, error) {
	u, err := wire.DecodeOrderUpdate(buf)
	if err != nil {
		return false, err
	}
	rec := c.pool.Get()
	rec.Kind = ingest.KindOrderUpdate
	rec.Order = u
	rec.Type = t
	if !c.ring.TryEnqueue(rec) {
		c.pool.Put(rec)
		return false, nil
	}
	return true, nil
}

// DrainRing moves up to max buffered records into the batcher's pending
// list. It returns the number drained; a record for the inactive mode stops
// the drain with its error. The caller flushes afterwards.
func (c *Core) DrainRing(max int) (int, error) {
	drained := 0
	for max <= 0 || drained < max {
		rec, ok := c.ring.TryDequeue()
		if !ok {
			break
		}
		var err error
		if rec.Kind == ingest.KindOrderUpdate {
			err = c.ProcessOrderUpdateNoFlush(rec.Order, rec.Type)
		} else {
			err = c.ProcessPriceLevelUpdateNoFlush(rec.Level)
		}
		c.pool.Put(rec)
		if err != nil {
			return drained, err
		}
		drained++
	}
	return drained, nil
}

// RingLen reports records waiting in the ingestion ring.
func (c *Core) RingLen() int { return c.ring.Len() }
