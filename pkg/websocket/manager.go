package websocket

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/mselser95/polyshark/pkg/types"
	"go.uber.org/zap"
)

// errNotConnected is returned when a write is attempted before the initial
// connection has been established.
var errNotConnected = errors.New("websocket not connected")

// Manager maintains a single connection to the CLOB market channel. It keeps
// the subscription set across reconnects and delivers decoded book events on
// a buffered channel, dropping instead of blocking when the consumer lags.
type Manager struct {
	url             string
	conn            *websocket.Conn
	logger          *zap.Logger
	reconnectMgr    *ReconnectManager
	config          Config
	messageChan     chan *types.BookMessage
	ctx             context.Context
	cancel          context.CancelFunc
	wg              sync.WaitGroup
	mu              sync.RWMutex
	subscribed      map[string]bool // token IDs this connection is subscribed to
	connected       atomic.Bool
	lastPongTime    atomic.Int64
	connectionStart atomic.Int64 // Unix timestamp of connection start
}

// Config holds WebSocket manager configuration.
type Config struct {
	URL                   string
	DialTimeout           time.Duration
	PongTimeout           time.Duration
	PingInterval          time.Duration
	ReconnectInitialDelay time.Duration
	ReconnectMaxDelay     time.Duration
	ReconnectBackoffMult  float64
	MessageBufferSize     int
	Logger                *zap.Logger
}

// New creates a WebSocket manager. Start must be called before messages flow.
func New(cfg Config) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	reconnectCfg := ReconnectConfig{
		InitialDelay:      cfg.ReconnectInitialDelay,
		MaxDelay:          cfg.ReconnectMaxDelay,
		BackoffMultiplier: cfg.ReconnectBackoffMult,
		JitterPercent:     0.2,
	}

	return &Manager{
		url:          cfg.URL,
		logger:       cfg.Logger,
		reconnectMgr: NewReconnectManager(reconnectCfg, cfg.Logger),
		config:       cfg,
		messageChan:  make(chan *types.BookMessage, cfg.MessageBufferSize),
		ctx:          ctx,
		cancel:       cancel,
		subscribed:   make(map[string]bool),
	}
}

// Start connects and launches the read, ping and reconnect loops.
func (m *Manager) Start() error {
	m.logger.Info("websocket-manager-starting", zap.String("url", m.url))

	err := m.connect(m.ctx)
	if err != nil {
		return fmt.Errorf("initial connection: %w", err)
	}

	m.wg.Add(3)
	go m.readLoop()
	go m.pingLoop()
	go m.reconnectLoop()

	return nil
}

// connect dials the feed and installs the pong handler. The read deadline is
// pushed out on every pong, so a connection that stops answering pings fails
// its next read within PongTimeout and the reconnect loop takes over.
func (m *Manager) connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: m.config.DialTimeout,
	}

	m.logger.Info("connecting-to-websocket", zap.String("url", m.url))

	conn, _, err := dialer.DialContext(ctx, m.url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	if m.config.PongTimeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(m.config.PongTimeout)); err != nil {
			conn.Close()
			return fmt.Errorf("set read deadline: %w", err)
		}
	}

	conn.SetPongHandler(func(string) error {
		m.lastPongTime.Store(time.Now().Unix())
		if m.config.PongTimeout > 0 {
			return conn.SetReadDeadline(time.Now().Add(m.config.PongTimeout))
		}
		return nil
	})

	m.mu.Lock()
	m.conn = conn
	m.mu.Unlock()

	now := time.Now()
	m.connected.Store(true)
	m.lastPongTime.Store(now.Unix())
	m.connectionStart.Store(now.Unix())
	ActiveConnections.Set(1)

	m.logger.Info("websocket-connected")

	return nil
}

// Subscribe subscribes this connection to the given token IDs. Tokens already
// subscribed are skipped. On write failure the new tokens are rolled back so
// the tracked set matches what the server actually knows about.
func (m *Manager) Subscribe(ctx context.Context, tokenIDs []string) error {
	if len(tokenIDs) == 0 {
		return nil
	}

	m.mu.Lock()

	newTokens := make([]string, 0, len(tokenIDs))
	for _, tokenID := range tokenIDs {
		if !m.subscribed[tokenID] {
			newTokens = append(newTokens, tokenID)
			m.subscribed[tokenID] = true
		}
	}

	if len(newTokens) == 0 {
		m.mu.Unlock()
		m.logger.Debug("all-tokens-already-subscribed")
		return nil
	}

	// The first subscription opens the market channel; later ones add assets
	// to the existing session.
	var subscribeMsg map[string]interface{}
	if len(m.subscribed) == len(newTokens) {
		subscribeMsg = map[string]interface{}{
			"assets_ids": newTokens,
			"type":       "market",
		}
	} else {
		subscribeMsg = map[string]interface{}{
			"assets_ids": newTokens,
			"operation":  "subscribe",
		}
	}

	totalSubscribed := len(m.subscribed)
	conn := m.conn
	m.mu.Unlock()

	// Network I/O without holding the lock.
	err := errNotConnected
	if conn != nil {
		err = conn.WriteJSON(subscribeMsg)
	}

	if err != nil {
		m.mu.Lock()
		for _, tokenID := range newTokens {
			delete(m.subscribed, tokenID)
		}
		totalSubscribed = len(m.subscribed)
		m.mu.Unlock()

		SubscriptionCount.Set(float64(totalSubscribed))
		return fmt.Errorf("write subscribe message: %w", err)
	}

	SubscriptionCount.Set(float64(totalSubscribed))

	m.logger.Info("subscribed-to-tokens",
		zap.Int("new-count", len(newTokens)),
		zap.Int("total-count", totalSubscribed))

	return nil
}

// Unsubscribe removes the given token IDs from this connection. Tokens that
// were never subscribed are ignored; on write failure the removed tokens are
// restored.
func (m *Manager) Unsubscribe(ctx context.Context, tokenIDs []string) error {
	if len(tokenIDs) == 0 {
		return nil
	}

	m.mu.Lock()

	removed := make([]string, 0, len(tokenIDs))
	for _, tokenID := range tokenIDs {
		if m.subscribed[tokenID] {
			removed = append(removed, tokenID)
			delete(m.subscribed, tokenID)
		}
	}

	if len(removed) == 0 {
		m.mu.Unlock()
		m.logger.Debug("no-tokens-to-unsubscribe")
		return nil
	}

	unsubscribeMsg := map[string]interface{}{
		"assets_ids": removed,
		"operation":  "unsubscribe",
	}

	totalSubscribed := len(m.subscribed)
	conn := m.conn
	m.mu.Unlock()

	err := errNotConnected
	if conn != nil {
		err = conn.WriteJSON(unsubscribeMsg)
	}

	if err != nil {
		m.mu.Lock()
		for _, tokenID := range removed {
			m.subscribed[tokenID] = true
		}
		totalSubscribed = len(m.subscribed)
		m.mu.Unlock()

		SubscriptionCount.Set(float64(totalSubscribed))
		return fmt.Errorf("write unsubscribe message: %w", err)
	}

	SubscriptionCount.Set(float64(totalSubscribed))
	UnsubscriptionsTotal.Inc()

	m.logger.Info("unsubscribed-from-tokens",
		zap.Int("count", len(removed)),
		zap.Int("remaining-count", totalSubscribed))

	return nil
}

// readLoop reads frames until the connection errors out, then records the
// disconnect and exits. The reconnect loop restarts it after redialing.
func (m *Manager) readLoop() {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		m.mu.RLock()
		conn := m.conn
		m.mu.RUnlock()

		if conn == nil {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		_, frame, err := conn.ReadMessage()
		if err != nil {
			m.logger.Warn("read-error", zap.Error(err))

			startTime := m.connectionStart.Load()
			if startTime > 0 {
				ConnectionDuration.Observe(time.Since(time.Unix(startTime, 0)).Seconds())
			}

			m.connected.Store(false)
			ActiveConnections.Set(0)
			return
		}

		m.dispatch(frame)
	}
}

// dispatch decodes one frame and forwards each event to the message channel.
func (m *Manager) dispatch(frame []byte) {
	start := time.Now()
	defer func() {
		FrameDispatchDuration.Observe(time.Since(start).Seconds())
	}()

	msgs, err := parseFrame(frame)
	if err != nil {
		preview := string(frame)
		if len(preview) > 100 {
			preview = preview[:100]
		}
		m.logger.Debug("websocket-unparseable-message",
			zap.Error(err),
			zap.Int("bytes", len(frame)),
			zap.String("preview", preview))
		return
	}

	if len(msgs) == 0 {
		m.logger.Debug("websocket-heartbeat-received", zap.Int("bytes", len(frame)))
		return
	}

	for _, msg := range msgs {
		// Subscription confirmations and other control frames carry no
		// event_type and never reach the book manager.
		if msg.EventType == "" {
			m.logger.Debug("websocket-control-message", zap.Int("bytes", len(frame)))
			continue
		}

		MessagesReceivedTotal.WithLabelValues(msg.EventType).Inc()

		select {
		case m.messageChan <- msg:
		default:
			m.logger.Warn("message-channel-full",
				zap.String("event-type", msg.EventType),
				zap.String("asset-id", msg.AssetID))
			MessagesDroppedTotal.WithLabelValues("channel_full").Inc()
		}
	}
}

// parseFrame decodes one WebSocket frame. The market channel batches events
// into top-level JSON arrays but sends single objects as well, so both shapes
// are accepted. An empty array is the server heartbeat and yields no events.
func parseFrame(frame []byte) ([]*types.BookMessage, error) {
	data := bytes.TrimSpace(frame)
	if len(data) == 0 {
		return nil, nil
	}

	if data[0] == '[' {
		var events []types.BookMessage
		if err := json.Unmarshal(data, &events); err != nil {
			return nil, err
		}

		msgs := make([]*types.BookMessage, 0, len(events))
		for i := range events {
			msgs = append(msgs, &events[i])
		}
		return msgs, nil
	}

	var event types.BookMessage
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}

	return []*types.BookMessage{&event}, nil
}

// pingLoop sends a ping every PingInterval so the server keeps answering
// pongs and the read deadline keeps moving.
func (m *Manager) pingLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			if !m.connected.Load() {
				continue
			}

			m.mu.RLock()
			conn := m.conn
			m.mu.RUnlock()

			if conn == nil {
				continue
			}

			err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(time.Second))
			if err != nil {
				m.logger.Warn("ping-error", zap.Error(err))
			}
		}
	}
}

// reconnectLoop watches for disconnects, redials with backoff, resubscribes
// the tracked token set and restarts the read loop.
func (m *Manager) reconnectLoop() {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		if m.connected.Load() {
			time.Sleep(time.Second)
			continue
		}

		m.logger.Warn("connection-lost-initiating-reconnect")

		err := m.reconnectMgr.Reconnect(m.ctx, m.connect)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			m.logger.Error("reconnection-failed", zap.Error(err))
			continue
		}

		err = m.resubscribeAll(m.ctx)
		if err != nil {
			m.logger.Error("resubscribe-failed", zap.Error(err))
			m.connected.Store(false)
			continue
		}

		m.logger.Info("reconnection-complete-restarting-read-loop")

		m.wg.Add(1)
		go m.readLoop()
	}
}

// resubscribeAll replays the tracked subscription set on a fresh connection.
// A new session starts from scratch, so this uses the initial market-channel
// payload rather than the incremental subscribe operation.
func (m *Manager) resubscribeAll(ctx context.Context) error {
	m.mu.RLock()
	tokenIDs := make([]string, 0, len(m.subscribed))
	for tokenID := range m.subscribed {
		tokenIDs = append(tokenIDs, tokenID)
	}
	m.mu.RUnlock()

	if len(tokenIDs) == 0 {
		return nil
	}

	subscribeMsg := map[string]interface{}{
		"assets_ids": tokenIDs,
		"type":       "market",
	}

	m.mu.RLock()
	conn := m.conn
	m.mu.RUnlock()

	err := errNotConnected
	if conn != nil {
		err = conn.WriteJSON(subscribeMsg)
	}

	if err != nil {
		return fmt.Errorf("write resubscribe message: %w", err)
	}

	m.logger.Info("resubscribed-to-all-markets", zap.Int("count", len(tokenIDs)))

	return nil
}

// MessageChan returns the channel delivering decoded book events.
func (m *Manager) MessageChan() <-chan *types.BookMessage {
	return m.messageChan
}

// Close stops all loops, closes the connection and the message channel.
func (m *Manager) Close() error {
	m.logger.Info("closing-websocket-manager")

	m.cancel()

	m.mu.RLock()
	if m.conn != nil {
		m.conn.Close()
	}
	m.mu.RUnlock()

	m.wg.Wait()

	close(m.messageChan)

	ActiveConnections.Set(0)

	m.logger.Info("websocket-manager-closed")

	return nil
}
