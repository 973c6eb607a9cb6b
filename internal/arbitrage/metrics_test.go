package arbitrage

import (
	"testing"
)

// TestMetrics_Registration tests all metrics are initialized
func TestMetrics_Registration(t *testing.T) {
	if SignalsDetectedTotal == nil {
		t.Error("SignalsDetectedTotal not registered")
	}

	if SignalSpread == nil {
		t.Error("SignalSpread not registered")
	}

	if ScanDurationSeconds == nil {
		t.Error("ScanDurationSeconds not registered")
	}

	if SignalsRejectedTotal == nil {
		t.Error("SignalsRejectedTotal not registered")
	}

	if ExpectedProfitUSD == nil {
		t.Error("ExpectedProfitUSD not registered")
	}
}

// TestMetrics_CounterIncrement tests counters can be incremented
func TestMetrics_CounterIncrement(t *testing.T) {
	SignalsDetectedTotal.Inc()
	SignalsRejectedTotal.WithLabelValues("below_min_profit").Inc()
}

// TestMetrics_HistogramObserve tests histograms can observe values
func TestMetrics_HistogramObserve(t *testing.T) {
	SignalSpread.Observe(0.05)
	ScanDurationSeconds.Observe(0.001)
	ExpectedProfitUSD.Observe(1.5)
}
