package websocket

import (
	"context"
	"fmt"
	"hash/crc32"
	"reflect"
	"sync"
	"time"

	"github.com/mselser95/polyshark/pkg/types"
	"go.uber.org/zap"
)

// PoolConfig holds WebSocket pool configuration.
type PoolConfig struct {
	Size                  int // number of connections
	URL                   string
	DialTimeout           time.Duration
	PongTimeout           time.Duration
	PingInterval          time.Duration
	ReconnectInitialDelay time.Duration
	ReconnectMaxDelay     time.Duration
	ReconnectBackoffMult  float64
	MessageBufferSize     int // per-connection buffer size
	Logger                *zap.Logger
}

// Pool spreads token subscriptions across several connections and merges
// their message streams into one channel. A token always lands on the same
// connection, so its event order is preserved across subscribe calls.
type Pool struct {
	cfg                PoolConfig
	managers           []*Manager
	tokenToIndex       map[string]int // token ID to manager index
	totalSubscriptions int
	mu                 sync.RWMutex // protects tokenToIndex and totalSubscriptions
	messageChan        chan *types.BookMessage
	ctx                context.Context
	cancel             context.CancelFunc
	wg                 sync.WaitGroup
	logger             *zap.Logger
}

// NewPool creates a pool of cfg.Size WebSocket managers.
func NewPool(cfg PoolConfig) *Pool {
	ctx, cancel := context.WithCancel(context.Background())

	pool := &Pool{
		cfg:          cfg,
		managers:     make([]*Manager, cfg.Size),
		tokenToIndex: make(map[string]int),
		messageChan:  make(chan *types.BookMessage, cfg.Size*cfg.MessageBufferSize),
		ctx:          ctx,
		cancel:       cancel,
		logger:       cfg.Logger,
	}

	for i := 0; i < cfg.Size; i++ {
		managerCfg := Config{
			URL:                   cfg.URL,
			DialTimeout:           cfg.DialTimeout,
			PongTimeout:           cfg.PongTimeout,
			PingInterval:          cfg.PingInterval,
			ReconnectInitialDelay: cfg.ReconnectInitialDelay,
			ReconnectMaxDelay:     cfg.ReconnectMaxDelay,
			ReconnectBackoffMult:  cfg.ReconnectBackoffMult,
			MessageBufferSize:     cfg.MessageBufferSize,
			Logger:                cfg.Logger.With(zap.Int("manager-id", i)),
		}

		pool.managers[i] = New(managerCfg)
	}

	return pool
}

// Start connects all managers and launches the multiplexer. It fails if any
// manager cannot establish its initial connection.
func (p *Pool) Start() error {
	p.logger.Info("websocket-pool-starting", zap.Int("pool-size", p.cfg.Size))

	errChan := make(chan error, p.cfg.Size)
	var startWg sync.WaitGroup

	for i, mgr := range p.managers {
		startWg.Add(1)
		go func(index int, manager *Manager) {
			defer startWg.Done()

			err := manager.Start()
			if err != nil {
				p.logger.Error("manager-start-failed",
					zap.Int("manager-id", index),
					zap.Error(err))
				errChan <- fmt.Errorf("manager %d start failed: %w", index, err)
			}
		}(i, mgr)
	}

	startWg.Wait()
	close(errChan)

	var startErrors []error
	for err := range errChan {
		startErrors = append(startErrors, err)
	}

	if len(startErrors) > 0 {
		return fmt.Errorf("failed to start %d managers: %v", len(startErrors), startErrors)
	}

	p.wg.Add(1)
	go p.multiplexMessages()

	PoolActiveConnections.Set(float64(p.cfg.Size))

	p.logger.Info("websocket-pool-started", zap.Int("active-managers", p.cfg.Size))

	return nil
}

// managerError is a per-manager failure from a fanned-out subscribe or
// unsubscribe call, kept so the failed managers' tokens can be rolled back.
type managerError struct {
	index int
	err   error
}

// Subscribe shards the given token IDs across managers and subscribes each
// group on its assigned connection. Already-subscribed tokens are skipped.
// Tokens of managers whose write failed are rolled back, keeping the pool's
// index in step with each manager's own subscription set.
func (p *Pool) Subscribe(ctx context.Context, tokenIDs []string) error {
	if len(tokenIDs) == 0 {
		return nil
	}

	tokensByManager := make(map[int][]string)
	newTokensCount := 0

	p.mu.Lock()
	for _, tokenID := range tokenIDs {
		if _, exists := p.tokenToIndex[tokenID]; exists {
			continue
		}

		managerIndex := p.managerIndex(tokenID)
		p.tokenToIndex[tokenID] = managerIndex
		tokensByManager[managerIndex] = append(tokensByManager[managerIndex], tokenID)
		newTokensCount++
	}
	p.mu.Unlock()

	errChan := make(chan managerError, len(tokensByManager))
	var subWg sync.WaitGroup

	for managerIndex, tokens := range tokensByManager {
		subWg.Add(1)
		go func(idx int, toks []string) {
			defer subWg.Done()

			err := p.managers[idx].Subscribe(ctx, toks)
			if err != nil {
				p.logger.Error("manager-subscribe-failed",
					zap.Int("manager-id", idx),
					zap.Int("token-count", len(toks)),
					zap.Error(err))
				errChan <- managerError{index: idx, err: err}
			}
		}(managerIndex, tokens)
	}

	subWg.Wait()
	close(errChan)

	var subscribeErrors []error
	rolledBack := 0

	p.mu.Lock()
	for me := range errChan {
		subscribeErrors = append(subscribeErrors, fmt.Errorf("manager %d subscribe failed: %w", me.index, me.err))
		for _, tokenID := range tokensByManager[me.index] {
			delete(p.tokenToIndex, tokenID)
			rolledBack++
		}
	}
	p.totalSubscriptions += newTokensCount - rolledBack
	totalSubs := p.totalSubscriptions
	p.mu.Unlock()

	SubscriptionCount.Set(float64(totalSubs))

	if len(subscribeErrors) > 0 {
		return fmt.Errorf("failed to subscribe on %d managers: %v", len(subscribeErrors), subscribeErrors)
	}

	p.updateDistributionMetrics()

	p.logger.Info("pool-subscribed-to-tokens",
		zap.Int("new-tokens", newTokensCount),
		zap.Int("total-subscriptions", totalSubs),
		zap.Int("managers-used", len(tokensByManager)))

	return nil
}

// Unsubscribe removes token subscriptions from their assigned managers.
// Tokens of managers whose write failed are restored in the pool index, the
// same way the manager restores them in its own set.
func (p *Pool) Unsubscribe(ctx context.Context, tokenIDs []string) error {
	if len(tokenIDs) == 0 {
		return nil
	}

	tokensByManager := make(map[int][]string)
	removedTokensCount := 0

	p.mu.Lock()
	for _, tokenID := range tokenIDs {
		if managerIndex, exists := p.tokenToIndex[tokenID]; exists {
			tokensByManager[managerIndex] = append(tokensByManager[managerIndex], tokenID)
			delete(p.tokenToIndex, tokenID)
			removedTokensCount++
		}
	}
	p.mu.Unlock()

	errChan := make(chan managerError, len(tokensByManager))
	var unsubWg sync.WaitGroup

	for managerIndex, tokens := range tokensByManager {
		unsubWg.Add(1)
		go func(idx int, toks []string) {
			defer unsubWg.Done()

			err := p.managers[idx].Unsubscribe(ctx, toks)
			if err != nil {
				p.logger.Error("manager-unsubscribe-failed",
					zap.Int("manager-id", idx),
					zap.Int("token-count", len(toks)),
					zap.Error(err))
				errChan <- managerError{index: idx, err: err}
			}
		}(managerIndex, tokens)
	}

	unsubWg.Wait()
	close(errChan)

	var unsubscribeErrors []error
	restored := 0

	p.mu.Lock()
	for me := range errChan {
		unsubscribeErrors = append(unsubscribeErrors, fmt.Errorf("manager %d unsubscribe failed: %w", me.index, me.err))
		for _, tokenID := range tokensByManager[me.index] {
			p.tokenToIndex[tokenID] = me.index
			restored++
		}
	}
	p.totalSubscriptions -= removedTokensCount - restored
	totalSubs := p.totalSubscriptions
	p.mu.Unlock()

	SubscriptionCount.Set(float64(totalSubs))

	if len(unsubscribeErrors) > 0 {
		return fmt.Errorf("failed to unsubscribe on %d managers: %v", len(unsubscribeErrors), unsubscribeErrors)
	}

	p.logger.Info("pool-unsubscribed-from-tokens",
		zap.Int("removed-tokens", removedTokensCount),
		zap.Int("total-subscriptions", totalSubs),
		zap.Int("managers-used", len(tokensByManager)))

	return nil
}

// MessageChan returns the merged message channel for all managers.
func (p *Pool) MessageChan() <-chan *types.BookMessage {
	return p.messageChan
}

// Close stops the multiplexer and closes all managers.
func (p *Pool) Close() error {
	p.logger.Info("closing-websocket-pool")

	p.cancel()

	var closeWg sync.WaitGroup
	for i, mgr := range p.managers {
		closeWg.Add(1)
		go func(index int, manager *Manager) {
			defer closeWg.Done()

			err := manager.Close()
			if err != nil {
				p.logger.Error("manager-close-failed",
					zap.Int("manager-id", index),
					zap.Error(err))
			}
		}(i, mgr)
	}

	closeWg.Wait()
	p.wg.Wait()

	close(p.messageChan)

	PoolActiveConnections.Set(0)

	p.logger.Info("websocket-pool-closed")

	return nil
}

// multiplexMessages forwards messages from every manager onto the pool
// channel until the pool context is cancelled.
func (p *Pool) multiplexMessages() {
	defer p.wg.Done()

	cases := make([]reflect.SelectCase, len(p.managers)+1)

	// Case 0 is context cancellation, cases 1..N are manager channels.
	cases[0] = reflect.SelectCase{
		Dir:  reflect.SelectRecv,
		Chan: reflect.ValueOf(p.ctx.Done()),
	}

	for i, mgr := range p.managers {
		cases[i+1] = reflect.SelectCase{
			Dir:  reflect.SelectRecv,
			Chan: reflect.ValueOf(mgr.MessageChan()),
		}
	}

	p.logger.Info("message-multiplexer-started", zap.Int("manager-count", len(p.managers)))

	for {
		chosen, value, ok := reflect.Select(cases)

		if chosen == 0 {
			p.logger.Info("message-multiplexer-stopped")
			return
		}

		if !ok {
			// A zero Chan makes reflect.Select skip the case, removing the
			// closed channel from the rotation.
			p.logger.Warn("manager-channel-closed", zap.Int("manager-id", chosen-1))
			cases[chosen].Chan = reflect.Value{}
			continue
		}

		msg, ok := value.Interface().(*types.BookMessage)
		if !ok {
			p.logger.Error("invalid-message-type",
				zap.Int("manager-id", chosen-1),
				zap.String("type", fmt.Sprintf("%T", value.Interface())))
			continue
		}

		select {
		case p.messageChan <- msg:
		default:
			p.logger.Warn("pool-message-dropped",
				zap.Int("manager-id", chosen-1),
				zap.String("asset-id", msg.AssetID))
			MessagesDroppedTotal.WithLabelValues("multiplexer_full").Inc()
		}
	}
}

// managerIndex maps a token ID onto a manager slot using a CRC32 hash, so
// the same token always lands on the same connection.
func (p *Pool) managerIndex(tokenID string) int {
	hash := crc32.ChecksumIEEE([]byte(tokenID))
	return int(hash % uint32(p.cfg.Size))
}

// updateDistributionMetrics records how many subscriptions each manager holds.
func (p *Pool) updateDistributionMetrics() {
	subscriptionsPerManager := make(map[int]int)

	p.mu.RLock()
	for _, managerIndex := range p.tokenToIndex {
		subscriptionsPerManager[managerIndex]++
	}
	p.mu.RUnlock()

	for _, count := range subscriptionsPerManager {
		PoolSubscriptionDistribution.Observe(float64(count))
	}
}
