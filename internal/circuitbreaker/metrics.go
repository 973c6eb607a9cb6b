package circuitbreaker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// CircuitBreakerOpen indicates whether the breaker currently blocks entries.
	CircuitBreakerOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polyshark_circuit_breaker_open",
		Help: "Whether the circuit breaker is open (1=simulated entries halted)",
	})

	// CircuitBreakerLastEquity tracks the most recent equity reading.
	CircuitBreakerLastEquity = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polyshark_circuit_breaker_last_equity_usdc",
		Help: "Most recent wallet equity fed to the circuit breaker",
	})

	// CircuitBreakerEquityFloor tracks the configured floor below which the breaker opens.
	CircuitBreakerEquityFloor = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polyshark_circuit_breaker_equity_floor_usdc",
		Help: "Equity floor below which the circuit breaker opens",
	})

	// CircuitBreakerReenableThreshold tracks the recovery level at which the breaker closes.
	CircuitBreakerReenableThreshold = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polyshark_circuit_breaker_reenable_threshold_usdc",
		Help: "Equity level at which an open circuit breaker closes again (with hysteresis)",
	})

	// CircuitBreakerTripsTotal tracks how many times the breaker has opened.
	CircuitBreakerTripsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polyshark_circuit_breaker_trips_total",
		Help: "Total number of times the circuit breaker has opened",
	})

	// CircuitBreakerStateChanges tracks the number of times the circuit breaker changed state.
	CircuitBreakerStateChanges = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polyshark_circuit_breaker_state_changes_total",
		Help: "Total number of times circuit breaker changed state (opened/closed)",
	})
)
