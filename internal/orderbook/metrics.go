package orderbook

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// MessagesTotal tracks processed book messages by event type.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polyshark_orderbook_messages_total",
			Help: "Total number of order book messages processed",
		},
		[]string{"event_type"},
	)

	// ActiveBooks tracks the number of books held in memory.
	ActiveBooks = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polyshark_orderbook_active_books",
		Help: "Number of order books tracked in memory",
	})

	// BookDepth tracks the combined level count of applied book snapshots.
	BookDepth = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polyshark_orderbook_book_depth_levels",
		Help:    "Combined bid and ask level count per applied book snapshot",
		Buckets: []float64{1, 2, 5, 10, 20, 50, 100, 200},
	})

	// UpdateProcessingDuration tracks how long message handling takes.
	UpdateProcessingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polyshark_orderbook_update_processing_seconds",
		Help:    "Duration of order book message handling",
		Buckets: prometheus.ExponentialBuckets(0.000001, 10, 6),
	})

	// UpdatesDroppedTotal tracks update notifications dropped on the floor.
	UpdatesDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polyshark_orderbook_updates_dropped_total",
			Help: "Total number of dropped book update notifications",
		},
		[]string{"reason"},
	)

	// FetchErrorsTotal tracks REST book fetch failures.
	FetchErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polyshark_orderbook_fetch_errors_total",
		Help: "Total number of CLOB book fetch failures",
	})
)
