package discovery

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// MarketsDiscoveredTotal tracks total markets seen across all polls.
	MarketsDiscoveredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polyshark_discovery_markets_total",
		Help: "Total number of markets fetched from the Gamma API",
	})

	// NewMarketsTotal tracks new markets subscribed.
	NewMarketsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polyshark_discovery_new_markets_total",
		Help: "Total number of new markets subscribed",
	})

	// MarketsFilteredTotal tracks markets rejected by the discovery filters.
	MarketsFilteredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polyshark_discovery_markets_filtered_total",
		Help: "Total number of markets rejected by discovery filters",
	}, []string{"reason"})

	// PollDurationSeconds tracks API poll latency.
	PollDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polyshark_discovery_poll_duration_seconds",
		Help:    "Duration of Gamma API poll requests",
		Buckets: prometheus.DefBuckets,
	})

	// PollErrorsTotal tracks API poll failures.
	PollErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polyshark_discovery_poll_errors_total",
		Help: "Total number of Gamma API poll failures",
	})
)
