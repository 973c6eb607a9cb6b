package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mselser95/polyshark/internal/arbitrage"
	"github.com/mselser95/polyshark/internal/circuitbreaker"
	"github.com/mselser95/polyshark/internal/discovery"
	"github.com/mselser95/polyshark/internal/markets"
	"github.com/mselser95/polyshark/internal/orderbook"
	"github.com/mselser95/polyshark/internal/storage"
	"github.com/mselser95/polyshark/internal/trader"
	"github.com/mselser95/polyshark/pkg/cache"
	"github.com/mselser95/polyshark/pkg/config"
	"github.com/mselser95/polyshark/pkg/healthprobe"
	"github.com/mselser95/polyshark/pkg/httpserver"
	"github.com/mselser95/polyshark/pkg/wallet"
	"github.com/mselser95/polyshark/pkg/websocket"
	"go.uber.org/zap"
)

const chainSeedTimeout = 15 * time.Second

// New creates a new application instance.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	probe := healthprobe.New()

	appCache, err := setupCache(logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup cache: %w", err)
	}

	ledger := setupLedger(cfg, logger)

	simStorage, err := setupStorage(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup storage: %w", err)
	}

	discoveryService := setupDiscoveryService(cfg, logger, appCache)
	wsPool := setupWebSocketPool(cfg, logger)
	books := setupBookManager(logger, wsPool)

	breaker, err := setupCircuitBreaker(cfg, logger, ledger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup circuit breaker: %w", err)
	}

	detector := setupDetector(cfg, logger)
	paperTrader := setupTrader(cfg, logger, detector, breaker, ledger, books, discoveryService, simStorage, appCache)
	httpServer := setupHTTPServer(cfg, logger, probe, paperTrader, books)

	return &App{
		cfg:        cfg,
		logger:     logger,
		probe:      probe,
		httpServer: httpServer,
		discovery:  discoveryService,
		wsPool:     wsPool,
		books:      books,
		detector:   detector,
		breaker:    breaker,
		trader:     paperTrader,
		storage:    simStorage,
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

func setupCache(logger *zap.Logger) (cache.Cache, error) {
	return cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 10000, // 10x expected max items (1000 markets)
		MaxCost:     1000,  // Maximum 1000 items in cache
		BufferItems: 64,    // Buffer size for Get operations
		Logger:      logger,
	})
}

// setupLedger creates the paper wallet, optionally seeded from the real
// on-chain USDC balance of the configured address.
func setupLedger(cfg *config.Config, logger *zap.Logger) *wallet.Ledger {
	balance := cfg.SimStartingBalance

	if cfg.SimSeedFromChain {
		seeded, err := chainBalance(cfg, logger)
		if err != nil {
			logger.Warn("chain-seed-failed-using-configured-balance",
				zap.Float64("configured-balance", balance),
				zap.Error(err))
		} else {
			balance = seeded
		}
	}

	logger.Info("ledger-created",
		zap.Float64("starting-balance", balance),
		zap.Bool("seeded-from-chain", cfg.SimSeedFromChain))

	return wallet.NewLedger(balance)
}

func chainBalance(cfg *config.Config, logger *zap.Logger) (float64, error) {
	client, err := wallet.NewChainClient(cfg.PolygonRPCURL, logger)
	if err != nil {
		return 0, fmt.Errorf("create chain client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), chainSeedTimeout)
	defer cancel()

	balances, err := client.Balances(ctx, common.HexToAddress(cfg.WalletAddress))
	if err != nil {
		return 0, fmt.Errorf("fetch balances: %w", err)
	}

	usdc := wallet.USDCFloat(balances.USDC)
	if usdc <= 0 {
		return 0, fmt.Errorf("on-chain USDC balance is %f", usdc)
	}

	return usdc, nil
}

func setupStorage(cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	if cfg.StorageBackend == "postgres" {
		pgStorage, err := storage.NewPostgresStorage(&storage.PostgresConfig{
			DatabaseURL: cfg.DatabaseURL,
			Logger:      logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create postgres storage: %w", err)
		}
		return pgStorage, nil
	}

	return storage.NewConsoleStorage(logger), nil
}

func setupDiscoveryService(cfg *config.Config, logger *zap.Logger, appCache cache.Cache) *discovery.Service {
	client := discovery.NewClient(cfg.GammaAPIURL, logger)
	return discovery.New(&discovery.Config{
		Client:       client,
		Cache:        appCache,
		PollInterval: cfg.DiscoveryPollInterval,
		MarketLimit:  cfg.DiscoveryMarketLimit,
		MinLiquidity: cfg.DiscoveryMinLiquidity,
		Logger:       logger,
	})
}

func setupWebSocketPool(cfg *config.Config, logger *zap.Logger) *websocket.Pool {
	return websocket.NewPool(websocket.PoolConfig{
		Size:                  cfg.WSPoolSize,
		URL:                   cfg.PolymarketWSURL,
		DialTimeout:           cfg.WSDialTimeout,
		PongTimeout:           cfg.WSPongTimeout,
		PingInterval:          cfg.WSPingInterval,
		ReconnectInitialDelay: cfg.WSReconnectInitialDelay,
		ReconnectMaxDelay:     cfg.WSReconnectMaxDelay,
		ReconnectBackoffMult:  cfg.WSReconnectBackoffMult,
		MessageBufferSize:     cfg.WSMessageBufferSize,
		Logger:                logger,
	})
}

func setupBookManager(logger *zap.Logger, wsPool *websocket.Pool) *orderbook.Manager {
	return orderbook.New(&orderbook.Config{
		Logger:         logger,
		MessageChannel: wsPool.MessageChan(),
	})
}

// setupCircuitBreaker derives the equity floor from the actual starting
// balance, so a chain-seeded ledger gets a proportional floor.
func setupCircuitBreaker(cfg *config.Config, logger *zap.Logger, ledger *wallet.Ledger) (*circuitbreaker.Breaker, error) {
	return circuitbreaker.New(&circuitbreaker.Config{
		EquityFloor:   cfg.BreakerEquityFloorRatio * ledger.StartingBalance(),
		ReenableRatio: cfg.BreakerReenableRatio,
		Logger:        logger,
	})
}

func setupDetector(cfg *config.Config, logger *zap.Logger) *arbitrage.Detector {
	return arbitrage.New(arbitrage.Config{
		MinSpread: cfg.ArbMinSpread,
		MinProfit: cfg.ArbMinProfit,
		FeeLegs:   cfg.ArbFeeLegs,
		Logger:    logger,
	})
}

func setupTrader(
	cfg *config.Config,
	logger *zap.Logger,
	detector *arbitrage.Detector,
	breaker *circuitbreaker.Breaker,
	ledger *wallet.Ledger,
	books *orderbook.Manager,
	discoveryService *discovery.Service,
	simStorage storage.Storage,
	appCache cache.Cache,
) *trader.Trader {
	metadataClient := markets.NewMetadataClient(cfg.ClobAPIURL, logger)
	cachedMetadata := markets.NewCachedMetadataClient(metadataClient, appCache)

	return trader.New(&trader.Config{
		TradeSize:     cfg.SimTradeSize,
		MaxTradeSize:  cfg.SimMaxTradeSize,
		ExitSpread:    cfg.SimExitSpread,
		EntryCooldown: cfg.SimEntryCooldown,
		Detector:      detector,
		Breaker:       breaker,
		Ledger:        ledger,
		Books:         books,
		Markets:       discoveryService,
		Metadata:      cachedMetadata,
		Storage:       simStorage,
		Updates:       books.UpdatesChan(),
		Logger:        logger,
	})
}

func setupHTTPServer(
	cfg *config.Config,
	logger *zap.Logger,
	probe *healthprobe.Probe,
	paperTrader *trader.Trader,
	books *orderbook.Manager,
) *httpserver.Server {
	return httpserver.New(&httpserver.Config{
		Port:   cfg.HTTPPort,
		Logger: logger,
		Probe:  probe,
		Trader: paperTrader,
		Books:  books,
	})
}
