package circuitbreaker

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Breaker is an operational kill switch for simulated trading. The trader
// feeds it the ledger's equity after every wallet mutation; once equity
// drops below the configured floor the breaker opens and entries stop. It
// closes again only when equity recovers past floor * ReenableRatio, so a
// value hovering around the floor cannot flap the state.
type Breaker struct {
	open atomic.Bool // atomic for lock-free reads on the hot path

	equityFloor float64
	reenableAt  float64
	logger      *zap.Logger

	// Protected by mutex
	mu             sync.RWMutex
	lastEquity     float64
	lastTransition time.Time
	trips          int
}

// Config holds circuit breaker configuration.
type Config struct {
	EquityFloor   float64 // equity below this opens the breaker
	ReenableRatio float64 // close again at EquityFloor * ReenableRatio
	Logger        *zap.Logger
}

// Status holds the current breaker state for debugging and HTTP endpoints.
type Status struct {
	Open           bool
	LastEquity     float64
	EquityFloor    float64
	ReenableAt     float64
	Trips          int
	LastTransition time.Time
}

// New creates a circuit breaker with the given configuration.
func New(cfg *Config) (*Breaker, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if cfg.EquityFloor <= 0 {
		return nil, fmt.Errorf("equity floor must be positive")
	}
	if cfg.ReenableRatio < 1.0 {
		return nil, fmt.Errorf("reenable ratio must be >= 1.0")
	}

	breaker := &Breaker{
		equityFloor: cfg.EquityFloor,
		reenableAt:  cfg.EquityFloor * cfg.ReenableRatio,
		logger:      cfg.Logger,
	}

	// Trading starts allowed
	breaker.open.Store(false)

	CircuitBreakerOpen.Set(0)
	CircuitBreakerEquityFloor.Set(breaker.equityFloor)
	CircuitBreakerReenableThreshold.Set(breaker.reenableAt)

	return breaker, nil
}

// Allow reports whether simulated entries may proceed.
// This is lock-free and safe to call from hot paths.
func (b *Breaker) Allow() bool {
	return !b.open.Load()
}

// Observe feeds the breaker a fresh equity reading and applies the state
// transition rules. Each transition is logged exactly once; repeated
// readings on the same side of the thresholds stay quiet.
func (b *Breaker) Observe(equity float64) {
	b.mu.Lock()
	b.lastEquity = equity
	b.mu.Unlock()

	CircuitBreakerLastEquity.Set(equity)

	currentlyOpen := b.open.Load()

	switch {
	case !currentlyOpen && equity < b.equityFloor:
		b.open.Store(true)
		CircuitBreakerOpen.Set(1)
		CircuitBreakerTripsTotal.Inc()
		CircuitBreakerStateChanges.Inc()

		b.mu.Lock()
		b.trips++
		b.lastTransition = time.Now()
		b.mu.Unlock()

		b.logger.Warn("circuit-breaker-opened",
			zap.Float64("equity", equity),
			zap.Float64("equity-floor", b.equityFloor),
			zap.Float64("reenable-at", b.reenableAt))

	case currentlyOpen && equity >= b.reenableAt:
		b.open.Store(false)
		CircuitBreakerOpen.Set(0)
		CircuitBreakerStateChanges.Inc()

		b.mu.Lock()
		b.lastTransition = time.Now()
		b.mu.Unlock()

		b.logger.Info("circuit-breaker-closed",
			zap.Float64("equity", equity),
			zap.Float64("equity-floor", b.equityFloor),
			zap.Float64("reenable-at", b.reenableAt))
	}
}

// GetStatus returns the current breaker state.
func (b *Breaker) GetStatus() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return Status{
		Open:           b.open.Load(),
		LastEquity:     b.lastEquity,
		EquityFloor:    b.equityFloor,
		ReenableAt:     b.reenableAt,
		Trips:          b.trips,
		LastTransition: b.lastTransition,
	}
}
