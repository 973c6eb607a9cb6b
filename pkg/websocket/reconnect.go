package websocket

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ReconnectConfig holds the exponential backoff settings for reconnection.
type ReconnectConfig struct {
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
	JitterPercent     float64 // 0.2 adds up to 20% on top of the base delay
}

// ReconnectManager retries a connect function with exponential backoff and
// jitter until it succeeds or the context is cancelled.
type ReconnectManager struct {
	cfg     ReconnectConfig
	logger  *zap.Logger
	mu      sync.Mutex
	current time.Duration
}

// NewReconnectManager creates a reconnection manager with the given config.
func NewReconnectManager(cfg ReconnectConfig, logger *zap.Logger) *ReconnectManager {
	return &ReconnectManager{
		cfg:     cfg,
		logger:  logger,
		current: cfg.InitialDelay,
	}
}

// Reconnect calls connectFunc until it returns nil, waiting a growing delay
// between attempts. The backoff resets on success so the next outage starts
// from the initial delay again.
func (rm *ReconnectManager) Reconnect(ctx context.Context, connectFunc func(context.Context) error) error {
	attempt := 0

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		attempt++
		delay := rm.nextDelay()

		rm.logger.Info("attempting-reconnection",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay))

		ReconnectAttemptsTotal.Inc()

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}

		err := connectFunc(ctx)
		if err == nil {
			rm.Reset()
			rm.logger.Info("reconnection-successful", zap.Int("attempts", attempt))
			return nil
		}

		rm.logger.Warn("reconnection-failed", zap.Int("attempt", attempt), zap.Error(err))
		ReconnectFailuresTotal.Inc()
	}
}

// Reset restores the backoff to the initial delay.
func (rm *ReconnectManager) Reset() {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	rm.current = rm.cfg.InitialDelay
}

// nextDelay returns the jittered delay for the upcoming attempt and advances
// the base delay for the one after it, capped at MaxDelay. Jitter keeps a
// fleet of connections from redialing in lockstep after a shared outage.
func (rm *ReconnectManager) nextDelay() time.Duration {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	jittered := time.Duration(float64(rm.current) * (1.0 + rand.Float64()*rm.cfg.JitterPercent))

	next := time.Duration(float64(rm.current) * rm.cfg.BackoffMultiplier)
	if next > rm.cfg.MaxDelay {
		next = rm.cfg.MaxDelay
	}
	rm.current = next

	return jittered
}
