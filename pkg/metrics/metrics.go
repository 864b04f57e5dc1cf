package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// UpdatesProcessed counts updates applied to the book by data mode.
var UpdatesProcessed = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "priceladder_updates_processed_total",
		Help: "Total number of market-data updates applied to the order book",
	},
	[]string{"mode"},
)

// BatchesFlushed counts completed flush cycles.
var BatchesFlushed = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "priceladder_batches_flushed_total",
		Help: "Total number of completed batch flushes",
	},
)

// BatchSize records the number of updates coalesced into each flush.
var BatchSize = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "priceladder_batch_size_updates",
		Help:    "Updates applied per flushed batch",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	},
)

// FlushLatency records end-to-end flush duration.
var FlushLatency = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "priceladder_flush_duration_seconds",
		Help:    "Latency in seconds to apply a batch and produce a snapshot",
		Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
	},
)

// LevelsEvicted counts rows dropped by the per-side maxLevels bound.
var LevelsEvicted = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "priceladder_levels_evicted_total",
		Help: "Rows evicted because a book side exceeded its configured depth",
	},
	[]string{"side"},
)

// RingDropped counts records the ingestion ring rejected while full.
var RingDropped = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "priceladder_ring_dropped_total",
		Help: "Records dropped because the ingestion ring buffer was full",
	},
)

func init() {
	prometheus.MustRegister(UpdatesProcessed, BatchesFlushed, BatchSize, FlushLatency)
	prometheus.MustRegister(LevelsEvicted, RingDropped)
}
