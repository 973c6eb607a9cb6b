package discovery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/polyshark/pkg/cache"
	"github.com/mselser95/polyshark/pkg/types"
)

func newTestCache(t *testing.T) cache.Cache {
	t.Helper()

	logger, _ := zap.NewDevelopment()
	c, err := cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 1000,
		MaxCost:     100,
		BufferItems: 64,
		Logger:      logger,
	})
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	return c
}

func binaryMarket(id, slug string, liquidity float64) types.Market {
	return types.Market{
		ID:              id,
		Slug:            slug,
		Question:        "Will " + id + " resolve yes?",
		Outcomes:        []string{"Yes", "No"},
		OutcomePrices:   []float64{0.48, 0.47},
		ClobTokenIDs:    []string{"yes-" + id, "no-" + id},
		Liquidity:       liquidity,
		Active:          true,
		AcceptingOrders: true,
	}
}

func TestNew(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	marketCache := newTestCache(t)
	client := NewClient("https://api.example.com", logger)

	cfg := &Config{
		Client:       client,
		Cache:        marketCache,
		PollInterval: 30 * time.Second,
		MarketLimit:  50,
		MinLiquidity: 1000,
		Logger:       logger,
	}

	svc := New(cfg)

	if svc == nil {
		t.Fatal("expected non-nil service")
	}

	if svc.client != client {
		t.Error("expected client to match")
	}

	if svc.cache != marketCache {
		t.Error("expected cache to match")
	}

	if svc.pollInterval != cfg.PollInterval {
		t.Errorf("expected poll interval %v, got %v", cfg.PollInterval, svc.pollInterval)
	}

	if svc.marketLimit != cfg.MarketLimit {
		t.Errorf("expected market limit %d, got %d", cfg.MarketLimit, svc.marketLimit)
	}

	if svc.minLiquidity != cfg.MinLiquidity {
		t.Errorf("expected min liquidity %v, got %v", cfg.MinLiquidity, svc.minLiquidity)
	}

	if svc.subscribed == nil {
		t.Error("expected non-nil subscribed map")
	}

	if svc.newMarketsCh == nil {
		t.Error("expected non-nil new markets channel")
	}

	if cap(svc.newMarketsCh) != 100 {
		t.Errorf("expected channel capacity 100, got %d", cap(svc.newMarketsCh))
	}
}

func TestService_IdentifyNewMarkets(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	svc := &Service{
		logger:       logger,
		minLiquidity: 1000,
		subscribed:   make(map[string]*types.Market),
	}

	closed := binaryMarket("market3", "market-3", 50000)
	closed.Closed = true
	closed.AcceptingOrders = false

	nonBinary := binaryMarket("market4", "market-4", 50000)
	nonBinary.Outcomes = []string{"Yes", "No", "Maybe"}

	markets := []types.Market{
		binaryMarket("market1", "market-1", 50000),
		binaryMarket("market2", "market-2", 2500),
		closed,
		nonBinary,
		binaryMarket("market5", "market-5", 250), // below min liquidity
	}

	newMarkets := svc.identifyNewMarkets(markets)

	if len(newMarkets) != 2 {
		t.Fatalf("expected 2 new markets, got %d", len(newMarkets))
	}

	if newMarkets[0].Slug != "market-1" || newMarkets[1].Slug != "market-2" {
		t.Errorf("expected market-1 and market-2, got %s and %s",
			newMarkets[0].Slug, newMarkets[1].Slug)
	}

	svc.mu.RLock()
	defer svc.mu.RUnlock()

	if len(svc.subscribed) != 2 {
		t.Errorf("expected 2 subscribed markets, got %d", len(svc.subscribed))
	}

	for _, slug := range []string{"market-3", "market-4", "market-5"} {
		if _, exists := svc.subscribed[slug]; exists {
			t.Errorf("expected %s to be filtered out", slug)
		}
	}
}

func TestService_IdentifyNewMarkets_Duplicates(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	svc := &Service{
		logger:     logger,
		subscribed: make(map[string]*types.Market),
	}

	// Pre-subscribe to market-1
	existing := binaryMarket("market1", "market-1", 50000)
	svc.subscribed["market-1"] = &existing

	markets := []types.Market{
		binaryMarket("market1", "market-1", 50000),
		binaryMarket("market2", "market-2", 50000),
	}

	newMarkets := svc.identifyNewMarkets(markets)

	if len(newMarkets) != 1 {
		t.Fatalf("expected 1 new market, got %d", len(newMarkets))
	}

	if newMarkets[0].Slug != "market-2" {
		t.Errorf("expected market-2, got %s", newMarkets[0].Slug)
	}
}

func TestService_GetSubscribedMarkets(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	svc := &Service{
		logger:     logger,
		subscribed: make(map[string]*types.Market),
	}

	m1 := binaryMarket("market1", "market-1", 50000)
	m2 := binaryMarket("market2", "market-2", 50000)
	svc.subscribed["market-1"] = &m1
	svc.subscribed["market-2"] = &m2

	markets := svc.GetSubscribedMarkets()

	if len(markets) != 2 {
		t.Fatalf("expected 2 subscribed markets, got %d", len(markets))
	}

	found := 0
	for _, market := range markets {
		if market.Slug == "market-1" || market.Slug == "market-2" {
			found++
		}
	}

	if found != 2 {
		t.Errorf("expected to find both subscribed markets, found %d", found)
	}
}

func TestService_CacheMarket(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	marketCache := newTestCache(t)

	// Cast for Wait() method
	ristrettoCache := marketCache.(*cache.RistrettoCache)

	svc := &Service{
		logger: logger,
		cache:  marketCache,
	}

	market := binaryMarket("market1", "market-1", 50000)

	svc.cacheMarket(&market)
	ristrettoCache.Wait()

	retrieved := svc.GetMarket("market1")
	if retrieved == nil {
		t.Fatal("expected market to be cached")
	}

	if retrieved.ID != market.ID {
		t.Errorf("expected market ID %s, got %s", market.ID, retrieved.ID)
	}

	if retrieved.Question != market.Question {
		t.Errorf("expected question %s, got %s", market.Question, retrieved.Question)
	}
}

func TestService_GetMarket_NotFound(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	svc := &Service{
		logger: logger,
		cache:  newTestCache(t),
	}

	if retrieved := svc.GetMarket("nonexistent"); retrieved != nil {
		t.Error("expected nil for nonexistent market")
	}
}

func TestService_GetMarket_NilCache(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	svc := &Service{
		logger: logger,
		cache:  nil,
	}

	if retrieved := svc.GetMarket("market1"); retrieved != nil {
		t.Error("expected nil when cache is nil")
	}
}

func TestService_NewMarketsChan(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	svc := &Service{
		logger:       logger,
		newMarketsCh: make(chan *types.Market, 100),
	}

	ch := svc.NewMarketsChan()
	if ch == nil {
		t.Fatal("expected non-nil channel")
	}
}

func TestClient_FetchMarkets(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	// Gamma wire format: a bare array with stringified sub-arrays and a
	// string liquidity figure.
	payload := `[
		{
			"id": "market1",
			"slug": "market-1",
			"question": "Will X happen?",
			"outcomes": "[\"Yes\", \"No\"]",
			"outcomePrices": "[\"0.48\", \"0.47\"]",
			"clobTokenIds": "[\"token1\", \"token2\"]",
			"liquidity": "52000.5",
			"volume24hr": 125000.0,
			"active": true,
			"closed": false,
			"acceptingOrders": true
		},
		{
			"id": "market2",
			"slug": "market-2",
			"question": "Will Y happen?",
			"outcomes": "[\"Yes\", \"No\"]",
			"outcomePrices": "[\"0.55\", \"0.48\"]",
			"clobTokenIds": "[\"token3\", \"token4\"]",
			"liquidity": "900",
			"active": true,
			"acceptingOrders": true
		}
	]`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("closed") != "false" {
			t.Error("expected closed=false")
		}
		if r.URL.Query().Get("active") != "true" {
			t.Error("expected active=true")
		}
		if r.URL.Query().Get("limit") != "10" {
			t.Error("expected limit=10")
		}
		if r.URL.Query().Get("order") != "volume24hr" {
			t.Error("expected order=volume24hr")
		}
		if r.URL.Query().Get("ascending") != "false" {
			t.Error("expected ascending=false")
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
	defer server.Close()

	client := NewClient(server.URL, logger)

	markets, err := client.FetchMarkets(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(markets) != 2 {
		t.Fatalf("expected 2 markets, got %d", len(markets))
	}

	first := markets[0]
	if first.ID != "market1" {
		t.Errorf("expected market1, got %s", first.ID)
	}

	if !first.IsBinary() {
		t.Error("expected stringified fields to decode into a binary market")
	}

	if first.YesTokenID() != "token1" || first.NoTokenID() != "token2" {
		t.Errorf("unexpected token IDs: %s / %s", first.YesTokenID(), first.NoTokenID())
	}

	if first.Liquidity != 52000.5 {
		t.Errorf("expected liquidity 52000.5, got %v", first.Liquidity)
	}

	if first.YesPrice() != 0.48 || first.NoPrice() != 0.47 {
		t.Errorf("unexpected prices: %v / %v", first.YesPrice(), first.NoPrice())
	}
}

func TestClient_FetchMarkets_Error(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("internal server error"))
	}))
	defer server.Close()

	client := NewClient(server.URL, logger)

	_, err := client.FetchMarkets(context.Background(), 10, 0)
	if err == nil {
		t.Error("expected error for 500 status")
	}
}

func TestClient_FetchMarketBySlug(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	payload := `[
		{"id": "market1", "slug": "other-market", "question": "Will X happen?"},
		{"id": "market2", "slug": "test-market", "question": "Will Y happen?"}
	]`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/markets" {
			t.Errorf("expected path /markets, got %s", r.URL.Path)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
	defer server.Close()

	client := NewClient(server.URL, logger)

	market, err := client.FetchMarketBySlug(context.Background(), "test-market")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if market.ID != "market2" {
		t.Errorf("expected market2, got %s", market.ID)
	}

	if market.Slug != "test-market" {
		t.Errorf("expected test-market, got %s", market.Slug)
	}
}

func TestClient_FetchMarketBySlug_NotFound(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("[]"))
	}))
	defer server.Close()

	client := NewClient(server.URL, logger)

	_, err := client.FetchMarketBySlug(context.Background(), "nonexistent")
	if err == nil {
		t.Error("expected error for unknown slug")
	}
}

func TestService_Poll_Integration(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	// One market passes the filters, the second is below the liquidity
	// threshold.
	payload := `[
		{
			"id": "market1",
			"slug": "market-1",
			"question": "Will X happen?",
			"outcomes": "[\"Yes\", \"No\"]",
			"outcomePrices": "[\"0.48\", \"0.47\"]",
			"clobTokenIds": "[\"token1\", \"token2\"]",
			"liquidity": "52000.5",
			"active": true,
			"acceptingOrders": true
		},
		{
			"id": "market2",
			"slug": "market-2",
			"question": "Will Y happen?",
			"outcomes": "[\"Yes\", \"No\"]",
			"outcomePrices": "[\"0.55\", \"0.48\"]",
			"clobTokenIds": "[\"token3\", \"token4\"]",
			"liquidity": "900",
			"active": true,
			"acceptingOrders": true
		}
	]`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
	defer server.Close()

	svc := New(&Config{
		Client:       NewClient(server.URL, logger),
		Cache:        newTestCache(t),
		PollInterval: 30 * time.Second,
		MarketLimit:  10,
		MinLiquidity: 1000,
		Logger:       logger,
	})

	err := svc.poll(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	select {
	case market := <-svc.newMarketsCh:
		if market.ID != "market1" {
			t.Errorf("expected market1, got %s", market.ID)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for market")
	}

	select {
	case market := <-svc.newMarketsCh:
		t.Fatalf("expected illiquid market to be filtered, got %s", market.ID)
	default:
	}

	subs := svc.GetSubscribedMarkets()
	if len(subs) != 1 {
		t.Errorf("expected 1 subscribed market, got %d", len(subs))
	}
}
