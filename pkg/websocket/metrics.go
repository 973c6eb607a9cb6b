package websocket

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// ActiveConnections tracks whether this manager holds a live connection.
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polyshark_ws_active_connections",
		Help: "Number of active WebSocket connections",
	})

	// ConnectionDuration tracks how long connections lived before dropping.
	ConnectionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polyshark_ws_connection_duration_seconds",
		Help:    "Duration of WebSocket connections before disconnect",
		Buckets: []float64{60, 300, 600, 1800, 3600, 7200, 14400, 28800, 43200, 86400},
	})

	// ReconnectAttemptsTotal tracks reconnection attempts.
	ReconnectAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polyshark_ws_reconnect_attempts_total",
		Help: "Total number of WebSocket reconnection attempts",
	})

	// ReconnectFailuresTotal tracks failed reconnection attempts.
	ReconnectFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polyshark_ws_reconnect_failures_total",
		Help: "Total number of failed WebSocket reconnection attempts",
	})

	// MessagesReceivedTotal tracks received feed messages by event type.
	MessagesReceivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polyshark_ws_messages_received_total",
			Help: "Total number of WebSocket messages received",
		},
		[]string{"event_type"},
	)

	// MessagesDroppedTotal tracks messages dropped instead of delivered.
	MessagesDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polyshark_ws_messages_dropped_total",
			Help: "Total number of WebSocket messages dropped",
		},
		[]string{"reason"},
	)

	// FrameDispatchDuration tracks time spent decoding and fanning out one frame.
	FrameDispatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polyshark_ws_frame_dispatch_seconds",
		Help:    "Time spent decoding and dispatching one WebSocket frame",
		Buckets: prometheus.ExponentialBuckets(0.000001, 10, 6),
	})

	// SubscriptionCount tracks active token subscriptions on this connection.
	SubscriptionCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polyshark_ws_subscription_count",
		Help: "Number of active market subscriptions",
	})

	// UnsubscriptionsTotal tracks completed unsubscribe operations.
	UnsubscriptionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polyshark_ws_unsubscriptions_total",
		Help: "Total number of market unsubscriptions",
	})

	// PoolActiveConnections tracks connections the pool currently runs.
	PoolActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polyshark_ws_pool_active_connections",
		Help: "Number of active connections in the WebSocket pool",
	})

	// PoolSubscriptionDistribution tracks per-connection subscription counts.
	PoolSubscriptionDistribution = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polyshark_ws_pool_subscription_distribution",
		Help:    "Distribution of subscriptions across pool connections",
		Buckets: prometheus.LinearBuckets(0, 100, 10),
	})
)
