package websocket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mselser95/polyshark/pkg/types"
	"go.uber.org/zap"
)

func testConfig() Config {
	return Config{
		URL:                   "wss://ws-subscriptions-clob.polymarket.com/ws/market",
		DialTimeout:           10 * time.Second,
		PongTimeout:           time.Minute,
		PingInterval:          time.Minute,
		ReconnectInitialDelay: 10 * time.Millisecond,
		ReconnectMaxDelay:     100 * time.Millisecond,
		ReconnectBackoffMult:  2.0,
		MessageBufferSize:     64,
		Logger:                zap.NewNop(),
	}
}

// newWSServer starts a test WebSocket server and returns its ws:// URL. The
// handler runs once per accepted connection.
func newWSServer(t *testing.T, handler func(*websocket.Conn)) string {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handler(conn)
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func waitForJSON(t *testing.T, ch <-chan map[string]interface{}) map[string]interface{} {
	t.Helper()

	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the server to receive a message")
		return nil
	}
}

func waitForBookMessage(t *testing.T, ch <-chan *types.BookMessage) *types.BookMessage {
	t.Helper()

	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a book message")
		return nil
	}
}

func assetIDs(msg map[string]interface{}) []string {
	raw, _ := msg["assets_ids"].([]interface{})
	ids := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			ids = append(ids, s)
		}
	}
	return ids
}

func TestNew(t *testing.T) {
	cfg := testConfig()
	mgr := New(cfg)

	if mgr == nil {
		t.Fatal("expected non-nil manager")
	}

	if mgr.url != cfg.URL {
		t.Errorf("expected URL %q, got %q", cfg.URL, mgr.url)
	}

	if mgr.reconnectMgr == nil {
		t.Error("expected non-nil reconnect manager")
	}

	if cap(mgr.messageChan) != cfg.MessageBufferSize {
		t.Errorf("expected message channel capacity %d, got %d", cfg.MessageBufferSize, cap(mgr.messageChan))
	}

	if mgr.subscribed == nil {
		t.Error("expected non-nil subscribed map")
	}

	if mgr.connected.Load() {
		t.Error("expected manager to not be connected initially")
	}
}

func TestSubscribe_EmptyTokens(t *testing.T) {
	mgr := New(testConfig())

	err := mgr.Subscribe(context.Background(), []string{})
	if err != nil {
		t.Errorf("expected no error for empty tokens, got %v", err)
	}
}

func TestSubscribe_AlreadySubscribed(t *testing.T) {
	mgr := New(testConfig())

	mgr.mu.Lock()
	mgr.subscribed["token1"] = true
	mgr.subscribed["token2"] = true
	mgr.mu.Unlock()

	// Every token is already tracked, so no write happens and no connection
	// is needed.
	err := mgr.Subscribe(context.Background(), []string{"token1", "token2"})
	if err != nil {
		t.Errorf("expected no error for duplicate tokens, got %v", err)
	}

	mgr.mu.RLock()
	count := len(mgr.subscribed)
	mgr.mu.RUnlock()

	if count != 2 {
		t.Errorf("expected 2 subscribed tokens, got %d", count)
	}
}

func TestSubscribe_NotConnectedRollsBack(t *testing.T) {
	mgr := New(testConfig())

	err := mgr.Subscribe(context.Background(), []string{"token1", "token2"})
	if !errors.Is(err, errNotConnected) {
		t.Fatalf("expected errNotConnected, got %v", err)
	}

	mgr.mu.RLock()
	count := len(mgr.subscribed)
	mgr.mu.RUnlock()

	if count != 0 {
		t.Errorf("expected failed subscribe to roll back tracking, got %d tokens", count)
	}
}

func TestUnsubscribe_NotConnectedRollsBack(t *testing.T) {
	mgr := New(testConfig())

	mgr.mu.Lock()
	mgr.subscribed["token1"] = true
	mgr.subscribed["token2"] = true
	mgr.mu.Unlock()

	err := mgr.Unsubscribe(context.Background(), []string{"token1"})
	if !errors.Is(err, errNotConnected) {
		t.Fatalf("expected errNotConnected, got %v", err)
	}

	mgr.mu.RLock()
	defer mgr.mu.RUnlock()

	if !mgr.subscribed["token1"] {
		t.Error("expected token1 to be restored after failed unsubscribe")
	}

	if len(mgr.subscribed) != 2 {
		t.Errorf("expected 2 tracked tokens, got %d", len(mgr.subscribed))
	}
}

func TestUnsubscribe_UnknownTokens(t *testing.T) {
	mgr := New(testConfig())

	// Nothing is subscribed, so there is nothing to write.
	err := mgr.Unsubscribe(context.Background(), []string{"token1"})
	if err != nil {
		t.Errorf("expected no error for unknown tokens, got %v", err)
	}
}

func TestManager_SubscribePayloads(t *testing.T) {
	received := make(chan map[string]interface{}, 8)

	url := newWSServer(t, func(conn *websocket.Conn) {
		for {
			var msg map[string]interface{}
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			received <- msg
		}
	})

	cfg := testConfig()
	cfg.URL = url

	mgr := New(cfg)
	if err := mgr.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer mgr.Close()

	ctx := context.Background()

	if err := mgr.Subscribe(ctx, []string{"token1", "token2"}); err != nil {
		t.Fatalf("Subscribe() error: %v", err)
	}

	msg := waitForJSON(t, received)
	if msg["type"] != "market" {
		t.Errorf(`expected initial subscription type "market", got %v`, msg["type"])
	}
	if ids := assetIDs(msg); len(ids) != 2 || ids[0] != "token1" || ids[1] != "token2" {
		t.Errorf("unexpected assets_ids %v", ids)
	}

	if err := mgr.Subscribe(ctx, []string{"token3"}); err != nil {
		t.Fatalf("Subscribe() error: %v", err)
	}

	msg = waitForJSON(t, received)
	if msg["operation"] != "subscribe" {
		t.Errorf(`expected dynamic subscription operation "subscribe", got %v`, msg["operation"])
	}
	if ids := assetIDs(msg); len(ids) != 1 || ids[0] != "token3" {
		t.Errorf("unexpected assets_ids %v", ids)
	}

	if err := mgr.Unsubscribe(ctx, []string{"token1"}); err != nil {
		t.Fatalf("Unsubscribe() error: %v", err)
	}

	msg = waitForJSON(t, received)
	if msg["operation"] != "unsubscribe" {
		t.Errorf(`expected operation "unsubscribe", got %v`, msg["operation"])
	}
	if ids := assetIDs(msg); len(ids) != 1 || ids[0] != "token1" {
		t.Errorf("unexpected assets_ids %v", ids)
	}

	mgr.mu.RLock()
	remaining := len(mgr.subscribed)
	mgr.mu.RUnlock()

	if remaining != 2 {
		t.Errorf("expected 2 tracked tokens after unsubscribe, got %d", remaining)
	}
}

func TestManager_MessageFlow(t *testing.T) {
	frames := []string{
		`[{"event_type":"book","asset_id":"token1","market":"0xabc","timestamp":"1700000000000","bids":[{"price":"0.48","size":"100"}],"asks":[{"price":"0.52","size":"150"}]}]`,
		`[]`,
		`{"event_type":"price_change","asset_id":"token1","market":"0xabc","timestamp":"1700000000500","changes":[{"price":"0.49","side":"BUY","size":"200"}]}`,
	}

	url := newWSServer(t, func(conn *websocket.Conn) {
		for _, frame := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				return
			}
		}
		// Keep the connection open until the client closes it.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	cfg := testConfig()
	cfg.URL = url

	mgr := New(cfg)
	if err := mgr.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer mgr.Close()

	first := waitForBookMessage(t, mgr.MessageChan())
	if first.EventType != types.EventBook {
		t.Errorf("EventType = %q, want %q", first.EventType, types.EventBook)
	}
	if first.AssetID != "token1" {
		t.Errorf("AssetID = %q, want token1", first.AssetID)
	}
	if first.Timestamp != 1700000000000 {
		t.Errorf("Timestamp = %d, want 1700000000000", first.Timestamp)
	}
	if len(first.Bids) != 1 || first.Bids[0].Price != "0.48" {
		t.Errorf("unexpected bids %v", first.Bids)
	}

	// The empty-array heartbeat yields nothing, so the single-object frame
	// is the next delivered message.
	second := waitForBookMessage(t, mgr.MessageChan())
	if second.EventType != types.EventPriceChange {
		t.Errorf("EventType = %q, want %q", second.EventType, types.EventPriceChange)
	}
	if len(second.Changes) != 1 || second.Changes[0].Side != "BUY" {
		t.Errorf("unexpected changes %v", second.Changes)
	}
}

func TestManager_ReconnectAndResubscribe(t *testing.T) {
	var dials atomic.Int32
	resubscribed := make(chan map[string]interface{}, 1)

	url := newWSServer(t, func(conn *websocket.Conn) {
		dial := dials.Add(1)

		var msg map[string]interface{}
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}

		if dial == 1 {
			// Drop the first connection right after the subscription.
			return
		}

		resubscribed <- msg
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	cfg := testConfig()
	cfg.URL = url

	mgr := New(cfg)
	if err := mgr.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer mgr.Close()

	if err := mgr.Subscribe(context.Background(), []string{"token1"}); err != nil {
		t.Fatalf("Subscribe() error: %v", err)
	}

	// The reconnect loop polls the connection state once a second, so the
	// full cycle can take a little over that.
	select {
	case msg := <-resubscribed:
		if msg["type"] != "market" {
			t.Errorf(`expected resubscription type "market", got %v`, msg["type"])
		}
		if ids := assetIDs(msg); len(ids) != 1 || ids[0] != "token1" {
			t.Errorf("unexpected assets_ids %v", ids)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for resubscription after reconnect")
	}

	if dials.Load() < 2 {
		t.Errorf("expected at least 2 dials, got %d", dials.Load())
	}
}

func TestParseFrame(t *testing.T) {
	tests := []struct {
		name      string
		frame     string
		wantCount int
		wantErr   bool
		check     func(*testing.T, []*types.BookMessage)
	}{
		{
			name: "array of events",
			frame: `[{"event_type":"book","asset_id":"token1","timestamp":"1700000000000","bids":[{"price":"0.48","size":"100"}]},` +
				`{"event_type":"price_change","asset_id":"token2","changes":[{"price":"0.50","side":"SELL","size":"0"}]}]`,
			wantCount: 2,
			check: func(t *testing.T, msgs []*types.BookMessage) {
				if msgs[0].EventType != types.EventBook {
					t.Errorf("EventType = %q, want %q", msgs[0].EventType, types.EventBook)
				}
				if msgs[0].Timestamp != 1700000000000 {
					t.Errorf("Timestamp = %d, want 1700000000000", msgs[0].Timestamp)
				}
				if msgs[1].EventType != types.EventPriceChange {
					t.Errorf("EventType = %q, want %q", msgs[1].EventType, types.EventPriceChange)
				}
			},
		},
		{
			name:      "single object",
			frame:     `{"event_type":"book","asset_id":"token1","asks":[{"price":"0.55","size":"10"}]}`,
			wantCount: 1,
			check: func(t *testing.T, msgs []*types.BookMessage) {
				if msgs[0].AssetID != "token1" {
					t.Errorf("AssetID = %q, want token1", msgs[0].AssetID)
				}
				if len(msgs[0].Asks) != 1 {
					t.Errorf("expected 1 ask, got %d", len(msgs[0].Asks))
				}
			},
		},
		{
			name:      "empty array heartbeat",
			frame:     `[]`,
			wantCount: 0,
		},
		{
			name:      "empty frame",
			frame:     ``,
			wantCount: 0,
		},
		{
			name:      "control frame without event type",
			frame:     `{"type":"subscribed"}`,
			wantCount: 1,
			check: func(t *testing.T, msgs []*types.BookMessage) {
				if msgs[0].EventType != "" {
					t.Errorf("EventType = %q, want empty", msgs[0].EventType)
				}
			},
		},
		{
			name:    "truncated json",
			frame:   `{"event_type":"book`,
			wantErr: true,
		},
		{
			name:    "not json",
			frame:   `not json at all`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs, err := parseFrame([]byte(tt.frame))

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Fatalf("parseFrame() error: %v", err)
			}

			if len(msgs) != tt.wantCount {
				t.Fatalf("expected %d messages, got %d", tt.wantCount, len(msgs))
			}

			if tt.check != nil {
				tt.check(t, msgs)
			}
		})
	}
}

func TestDispatch_DropsWhenChannelFull(t *testing.T) {
	cfg := testConfig()
	cfg.MessageBufferSize = 2

	mgr := New(cfg)

	frame := []byte(`[{"event_type":"book","asset_id":"a"},{"event_type":"book","asset_id":"b"},{"event_type":"book","asset_id":"c"}]`)
	mgr.dispatch(frame)

	if len(mgr.messageChan) != 2 {
		t.Errorf("expected 2 buffered messages, got %d", len(mgr.messageChan))
	}
}

func TestDispatch_SkipsNonEventFrames(t *testing.T) {
	mgr := New(testConfig())

	mgr.dispatch([]byte(`{"type":"subscribed"}`))
	mgr.dispatch([]byte(`[]`))
	mgr.dispatch([]byte(`not json`))

	if len(mgr.messageChan) != 0 {
		t.Errorf("expected no delivered messages, got %d", len(mgr.messageChan))
	}
}

func TestMessageChan(t *testing.T) {
	mgr := New(testConfig())

	ch := mgr.MessageChan()
	if ch == nil {
		t.Fatal("expected non-nil message channel")
	}

	if ch != (<-chan *types.BookMessage)(mgr.messageChan) {
		t.Error("MessageChan() returned a different channel")
	}
}

func TestResubscribeAll_EmptySubscriptions(t *testing.T) {
	mgr := New(testConfig())

	err := mgr.resubscribeAll(context.Background())
	if err != nil {
		t.Errorf("expected no error with empty subscriptions, got %v", err)
	}
}

func TestManager_CloseWithoutStart(t *testing.T) {
	mgr := New(testConfig())

	err := mgr.Close()
	if err != nil {
		t.Errorf("expected no error on close, got %v", err)
	}

	_, ok := <-mgr.messageChan
	if ok {
		t.Error("expected message channel to be closed")
	}
}
