package orderbook

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/mselser95/polyshark/pkg/types"
)

// Manager maintains full-depth order books for all subscribed tokens, fed
// by the market WebSocket channel.
type Manager struct {
	books      map[string]*types.OrderBook // key: token_id
	mu         sync.RWMutex
	logger     *zap.Logger
	msgChan    <-chan *types.BookMessage
	updateChan chan string
	wg         sync.WaitGroup
}

// Config holds order book manager configuration.
type Config struct {
	Logger         *zap.Logger
	MessageChannel <-chan *types.BookMessage
}

// New creates a new order book manager.
func New(cfg *Config) *Manager {
	return &Manager{
		books:      make(map[string]*types.OrderBook),
		logger:     cfg.Logger,
		msgChan:    cfg.MessageChannel,
		updateChan: make(chan string, 100000), // Buffer for high update rate
	}
}

// Start starts the order book manager.
func (m *Manager) Start(ctx context.Context) error {
	m.logger.Info("orderbook-manager-starting")

	m.wg.Add(1)
	go m.processMessages(ctx)

	return nil
}

// processMessages consumes incoming book messages until the context is
// cancelled or the feed channel closes.
func (m *Manager) processMessages(ctx context.Context) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("orderbook-manager-stopping")
			return
		case msg, ok := <-m.msgChan:
			if !ok {
				m.logger.Info("message-channel-closed")
				return
			}

			err := m.handleMessage(msg)
			if err != nil {
				m.logger.Warn("handle-message-error",
					zap.Error(err),
					zap.String("event-type", msg.EventType),
					zap.String("asset-id", msg.AssetID))
			}
		}
	}
}

// handleMessage applies a single book message.
func (m *Manager) handleMessage(msg *types.BookMessage) error {
	timer := prometheus.NewTimer(UpdateProcessingDuration)
	defer timer.ObserveDuration()

	MessagesTotal.WithLabelValues(msg.EventType).Inc()

	switch msg.EventType {
	case types.EventBook:
		return m.applyBook(msg)
	case types.EventPriceChange:
		return m.applyPriceChange(msg)
	default:
		// Ignore other message types (last_trade_price, etc.)
		return nil
	}
}

// applyBook replaces a token's book wholesale from a snapshot message.
func (m *Manager) applyBook(msg *types.BookMessage) error {
	// Parse levels outside the lock
	book := &types.OrderBook{
		TokenID:   msg.AssetID,
		Timestamp: messageTime(msg),
	}

	for _, raw := range msg.Bids {
		level, err := raw.Level()
		if err != nil {
			return fmt.Errorf("parse bid level: %w", err)
		}
		book.Bids = append(book.Bids, level)
	}

	for _, raw := range msg.Asks {
		level, err := raw.Level()
		if err != nil {
			return fmt.Errorf("parse ask level: %w", err)
		}
		book.Asks = append(book.Asks, level)
	}

	sortBook(book)

	m.mu.Lock()
	m.books[msg.AssetID] = book
	ActiveBooks.Set(float64(len(m.books)))
	m.mu.Unlock()

	BookDepth.Observe(float64(len(book.Bids) + len(book.Asks)))

	m.logger.Debug("book-snapshot-applied",
		zap.String("token-id", msg.AssetID),
		zap.Int("bid-levels", len(book.Bids)),
		zap.Int("ask-levels", len(book.Asks)))

	m.notifyUpdate(msg.AssetID)

	return nil
}

// applyPriceChange mutates individual levels of an existing book. Changes
// for tokens without a book snapshot yet are dropped; the next full book
// message establishes the baseline.
func (m *Manager) applyPriceChange(msg *types.BookMessage) error {
	// Parse changes outside the lock
	type parsedChange struct {
		side  string
		level types.PriceLevel
	}

	changes := make([]parsedChange, 0, len(msg.Changes))
	for _, change := range msg.Changes {
		price, err := strconv.ParseFloat(change.Price, 64)
		if err != nil {
			return fmt.Errorf("parse change price: %w", err)
		}

		size, err := strconv.ParseFloat(change.Size, 64)
		if err != nil {
			return fmt.Errorf("parse change size: %w", err)
		}

		changes = append(changes, parsedChange{
			side:  change.Side,
			level: types.PriceLevel{Price: price, Size: size},
		})
	}

	m.mu.Lock()

	book, exists := m.books[msg.AssetID]
	if !exists {
		m.mu.Unlock()
		UpdatesDroppedTotal.WithLabelValues("no_book").Inc()
		m.logger.Debug("price-change-without-book",
			zap.String("asset-id", msg.AssetID))
		return nil
	}

	for _, change := range changes {
		switch change.side {
		case "BUY":
			book.Bids = setLevel(book.Bids, change.level.Price, change.level.Size)
		case "SELL":
			book.Asks = setLevel(book.Asks, change.level.Price, change.level.Size)
		default:
			m.logger.Debug("price-change-unknown-side",
				zap.String("side", change.side),
				zap.String("asset-id", msg.AssetID))
		}
	}

	sortBook(book)
	book.Timestamp = messageTime(msg)

	bidLevels, askLevels := book.Depth()

	m.mu.Unlock()

	m.logger.Debug("book-levels-updated",
		zap.String("token-id", msg.AssetID),
		zap.Int("changes", len(changes)),
		zap.Int("bid-levels", bidLevels),
		zap.Int("ask-levels", askLevels))

	m.notifyUpdate(msg.AssetID)

	return nil
}

// setLevel sets the size quoted at a price, removing the level when the new
// size is zero. Returns the updated slice.
func setLevel(levels []types.PriceLevel, price, size float64) []types.PriceLevel {
	for i := range levels {
		if levels[i].Price == price {
			if size == 0 {
				return append(levels[:i], levels[i+1:]...)
			}
			levels[i].Size = size
			return levels
		}
	}

	if size == 0 {
		return levels
	}

	return append(levels, types.PriceLevel{Price: price, Size: size})
}

// messageTime converts the wire timestamp (milliseconds) to a time.Time,
// falling back to the local clock when absent.
func messageTime(msg *types.BookMessage) time.Time {
	if msg.Timestamp > 0 {
		return time.UnixMilli(msg.Timestamp)
	}
	return time.Now()
}

// notifyUpdate emits the token ID of an applied change (non-blocking).
func (m *Manager) notifyUpdate(tokenID string) {
	select {
	case m.updateChan <- tokenID:
	default:
		UpdatesDroppedTotal.WithLabelValues("channel_full").Inc()
		m.logger.Error("book-update-channel-full-dropping",
			zap.String("token-id", tokenID),
			zap.Int("buffer-size", cap(m.updateChan)))
	}
}

// Book returns a deep copy of the book for a token.
func (m *Manager) Book(tokenID string) (*types.OrderBook, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	book, exists := m.books[tokenID]
	if !exists {
		return nil, false
	}

	return book.Clone(), true
}

// Books returns the token IDs of all tracked books, sorted.
func (m *Manager) Books() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tokenIDs := make([]string, 0, len(m.books))
	for tokenID := range m.books {
		tokenIDs = append(tokenIDs, tokenID)
	}
	sort.Strings(tokenIDs)

	return tokenIDs
}

// UpdatesChan returns the channel emitting token IDs of applied changes.
func (m *Manager) UpdatesChan() <-chan string {
	return m.updateChan
}

// Close waits for message processing to finish and closes the update
// channel. Callers must cancel the Start context first.
func (m *Manager) Close() error {
	m.logger.Info("closing-orderbook-manager")
	m.wg.Wait()
	close(m.updateChan)
	m.logger.Info("orderbook-manager-closed")
	return nil
}
