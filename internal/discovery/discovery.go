package discovery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/polyshark/pkg/cache"
	"github.com/mselser95/polyshark/pkg/types"
)

// Service discovers tradeable binary markets by polling the Gamma API.
type Service struct {
	client       *Client
	cache        cache.Cache
	pollInterval time.Duration
	marketLimit  int
	minLiquidity float64
	logger       *zap.Logger
	subscribed   map[string]*types.Market
	mu           sync.RWMutex
	newMarketsCh chan *types.Market
}

// Config holds discovery service configuration.
type Config struct {
	Client       *Client
	Cache        cache.Cache
	PollInterval time.Duration
	MarketLimit  int
	MinLiquidity float64
	Logger       *zap.Logger
}

// New creates a new discovery service.
func New(cfg *Config) *Service {
	return &Service{
		client:       cfg.Client,
		cache:        cfg.Cache,
		pollInterval: cfg.PollInterval,
		marketLimit:  cfg.MarketLimit,
		minLiquidity: cfg.MinLiquidity,
		logger:       cfg.Logger,
		subscribed:   make(map[string]*types.Market),
		newMarketsCh: make(chan *types.Market, 100),
	}
}

// Run starts the discovery polling loop.
func (s *Service) Run(ctx context.Context) error {
	s.logger.Info("discovery-service-starting",
		zap.Duration("poll-interval", s.pollInterval),
		zap.Int("market-limit", s.marketLimit),
		zap.Float64("min-liquidity", s.minLiquidity))

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	// Initial poll
	err := s.poll(ctx)
	if err != nil {
		s.logger.Error("initial-poll-failed", zap.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("discovery-service-stopping")
			close(s.newMarketsCh)
			return ctx.Err()
		case <-ticker.C:
			err := s.poll(ctx)
			if err != nil {
				s.logger.Error("poll-failed", zap.Error(err))
			}
		}
	}
}

// poll fetches markets from the API and identifies new ones.
func (s *Service) poll(ctx context.Context) error {
	start := time.Now()
	defer func() {
		PollDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	markets, err := s.client.FetchActiveMarkets(ctx, s.marketLimit)
	if err != nil {
		PollErrorsTotal.Inc()
		return fmt.Errorf("fetch active markets: %w", err)
	}

	MarketsDiscoveredTotal.Add(float64(len(markets)))

	newMarkets := s.identifyNewMarkets(markets)

	// Cache and send new markets to the channel (non-blocking)
	for i := range newMarkets {
		s.cacheMarket(newMarkets[i])

		select {
		case s.newMarketsCh <- newMarkets[i]:
			NewMarketsTotal.Inc()
			s.logger.Info("new-market-discovered",
				zap.String("market-id", newMarkets[i].ID),
				zap.String("question", newMarkets[i].Question),
				zap.Float64("liquidity", newMarkets[i].Liquidity))
		default:
			s.logger.Warn("new-markets-channel-full",
				zap.String("market-id", newMarkets[i].ID))
		}
	}

	s.logger.Debug("poll-complete",
		zap.Int("total-markets", len(markets)),
		zap.Int("new-markets", len(newMarkets)),
		zap.Duration("duration", time.Since(start)))

	return nil
}

// identifyNewMarkets filters the fetched markets and returns the ones not
// seen before. Only tradeable binary markets with both CLOB token IDs and
// enough liquidity pass.
func (s *Service) identifyNewMarkets(markets []types.Market) []*types.Market {
	s.mu.Lock()
	defer s.mu.Unlock()

	var newMarkets []*types.Market

	for i := range markets {
		market := &markets[i]

		if _, exists := s.subscribed[market.Slug]; exists {
			continue
		}

		if !market.Tradeable() || !market.IsBinary() {
			MarketsFilteredTotal.WithLabelValues("not-binary-tradeable").Inc()
			s.logger.Debug("skipping-market-not-binary-tradeable",
				zap.String("market-id", market.ID),
				zap.String("question", market.Question))
			continue
		}

		if market.YesTokenID() == "" || market.NoTokenID() == "" {
			MarketsFilteredTotal.WithLabelValues("missing-tokens").Inc()
			s.logger.Debug("skipping-market-missing-tokens",
				zap.String("market-id", market.ID),
				zap.String("question", market.Question))
			continue
		}

		if market.Liquidity < s.minLiquidity {
			MarketsFilteredTotal.WithLabelValues("illiquid").Inc()
			s.logger.Debug("skipping-market-illiquid",
				zap.String("market-id", market.ID),
				zap.Float64("liquidity", market.Liquidity))
			continue
		}

		s.subscribed[market.Slug] = market
		newMarkets = append(newMarkets, market)
	}

	return newMarkets
}

// NewMarketsChan returns the channel for receiving new markets.
func (s *Service) NewMarketsChan() <-chan *types.Market {
	return s.newMarketsCh
}

// GetSubscribedMarkets returns all currently subscribed markets.
func (s *Service) GetSubscribedMarkets() []*types.Market {
	s.mu.RLock()
	defer s.mu.RUnlock()

	markets := make([]*types.Market, 0, len(s.subscribed))
	for _, market := range s.subscribed {
		markets = append(markets, market)
	}

	return markets
}

// cacheMarket stores a market in the cache.
func (s *Service) cacheMarket(market *types.Market) {
	if s.cache == nil {
		return
	}

	// Cache by market ID with 24 hour TTL
	const cacheTTL = 24 * time.Hour
	success := s.cache.Set(market.ID, market, cacheTTL)
	if !success {
		s.logger.Warn("failed-to-cache-market", zap.String("market-id", market.ID))
	}
}

// GetMarket retrieves a market from cache or returns nil if not found.
func (s *Service) GetMarket(marketID string) *types.Market {
	if s.cache == nil {
		return nil
	}

	value, found := s.cache.Get(marketID)
	if !found {
		return nil
	}

	market, ok := value.(*types.Market)
	if !ok {
		s.logger.Warn("invalid-market-type-in-cache",
			zap.String("market-id", marketID))
		return nil
	}

	return market
}
