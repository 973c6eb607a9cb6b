package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/mselser95/polyshark/internal/markets"
	"github.com/mselser95/polyshark/pkg/types"
)

// MockGammaAPI is a mock HTTP server that mimics the Polymarket Gamma API's
// /markets listing, including its stringified array fields, string liquidity
// and limit/offset pagination.
type MockGammaAPI struct {
	*httptest.Server
	mu      sync.RWMutex
	markets []*types.Market
}

// NewMockGammaAPI creates a new mock Gamma API server.
func NewMockGammaAPI(mkts []*types.Market) *MockGammaAPI {
	mock := &MockGammaAPI{
		markets: mkts,
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/markets" {
			http.NotFound(w, r)
			return
		}

		mock.mu.RLock()
		defer mock.mu.RUnlock()

		limit := queryInt(r, "limit", len(mock.markets))
		offset := queryInt(r, "offset", 0)

		page := make([]map[string]interface{}, 0, limit)
		for i := offset; i < len(mock.markets) && len(page) < limit; i++ {
			page = append(page, gammaJSON(mock.markets[i]))
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(page)
	})

	mock.Server = httptest.NewServer(handler)
	return mock
}

// AddMarket adds a market to the mock listing.
func (m *MockGammaAPI) AddMarket(market *types.Market) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markets = append(m.markets, market)
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return value
}

// gammaJSON renders a market the way the Gamma API serves it: the array
// fields are stringified JSON, outcome prices are strings inside that JSON,
// and liquidity is a string.
func gammaJSON(m *types.Market) map[string]interface{} {
	outcomes, _ := json.Marshal(m.Outcomes)
	tokens, _ := json.Marshal(m.ClobTokenIDs)

	prices := make([]string, len(m.OutcomePrices))
	for i, p := range m.OutcomePrices {
		prices[i] = strconv.FormatFloat(p, 'f', -1, 64)
	}
	pricesJSON, _ := json.Marshal(prices)

	return map[string]interface{}{
		"id":              m.ID,
		"question":        m.Question,
		"slug":            m.Slug,
		"outcomes":        string(outcomes),
		"outcomePrices":   string(pricesJSON),
		"clobTokenIds":    string(tokens),
		"bestBid":         m.BestBid,
		"bestAsk":         m.BestAsk,
		"makerBaseFee":    m.MakerFeeBps,
		"takerBaseFee":    m.TakerFeeBps,
		"liquidity":       strconv.FormatFloat(m.Liquidity, 'f', -1, 64),
		"volume24hr":      m.Volume24h,
		"active":          m.Active,
		"closed":          m.Closed,
		"acceptingOrders": m.AcceptingOrders,
		"endDate":         m.EndDate,
	}
}

// MockStorage is an in-memory Storage implementation for tests.
type MockStorage struct {
	mu      sync.Mutex
	signals []*types.ArbitrageSignal
	trades  []*types.Trade
}

// NewMockStorage creates a new mock storage.
func NewMockStorage() *MockStorage {
	return &MockStorage{}
}

// StoreSignal stores a copy of the signal in memory.
func (m *MockStorage) StoreSignal(ctx context.Context, signal *types.ArbitrageSignal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	signalCopy := *signal
	m.signals = append(m.signals, &signalCopy)
	return nil
}

// StoreTrade stores a copy of the trade in memory.
func (m *MockStorage) StoreTrade(ctx context.Context, trade *types.Trade) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tradeCopy := *trade
	m.trades = append(m.trades, &tradeCopy)
	return nil
}

// Close is a no-op for mock storage.
func (m *MockStorage) Close() error {
	return nil
}

// Signals returns a copy of all stored signals.
func (m *MockStorage) Signals() []*types.ArbitrageSignal {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]*types.ArbitrageSignal, len(m.signals))
	copy(result, m.signals)
	return result
}

// Trades returns a copy of all stored trades.
func (m *MockStorage) Trades() []*types.Trade {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]*types.Trade, len(m.trades))
	copy(result, m.trades)
	return result
}

// Clear drops all stored signals and trades.
func (m *MockStorage) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signals = nil
	m.trades = nil
}

// StaticMetadata serves fixed token constraints without any HTTP round trip.
type StaticMetadata struct {
	TickSize     float64
	MinOrderSize float64
}

// Fetch returns the configured constraints for any token.
func (s StaticMetadata) Fetch(ctx context.Context, tokenID string) (markets.TokenMetadata, error) {
	return markets.TokenMetadata{
		TickSize:     s.TickSize,
		MinOrderSize: s.MinOrderSize,
	}, nil
}
