package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration, loaded from the environment.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// Polymarket APIs
	GammaAPIURL     string
	ClobAPIURL      string
	PolymarketWSURL string

	// Market discovery
	DiscoveryPollInterval time.Duration
	DiscoveryMarketLimit  int
	DiscoveryMinLiquidity float64

	// WebSocket
	WSPoolSize              int
	WSDialTimeout           time.Duration
	WSPongTimeout           time.Duration
	WSPingInterval          time.Duration
	WSReconnectInitialDelay time.Duration
	WSReconnectMaxDelay     time.Duration
	WSReconnectBackoffMult  float64
	WSMessageBufferSize     int

	// Arbitrage detection
	ArbMinSpread float64 // price-sum deviation from 1.0 before a signal fires
	ArbMinProfit float64 // net USD profit a trade must strictly exceed
	ArbFeeLegs   int     // fee legs charged in the expected-profit model

	// Simulation
	SimStartingBalance float64
	SimTradeSize       float64
	SimMaxTradeSize    float64
	SimExitSpread      float64 // spread at or below which open positions are closed
	SimEntryCooldown   time.Duration
	SimSeedFromChain   bool

	// Circuit breaker
	BreakerEquityFloorRatio float64 // fraction of starting balance
	BreakerReenableRatio    float64 // multiple of the floor required to resume

	// Storage
	StorageBackend string // "postgres" or "console"
	DatabaseURL    string

	// On-chain funding
	PolygonRPCURL string
	WalletAddress string
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		GammaAPIURL:     getEnvOrDefault("GAMMA_API_URL", "https://gamma-api.polymarket.com"),
		ClobAPIURL:      getEnvOrDefault("CLOB_API_URL", "https://clob.polymarket.com"),
		PolymarketWSURL: getEnvOrDefault("POLYMARKET_WS_URL", "wss://ws-subscriptions-clob.polymarket.com/ws/market"),

		DiscoveryPollInterval: getDurationOrDefault("DISCOVERY_POLL_INTERVAL", 60*time.Second),
		DiscoveryMarketLimit:  getIntOrDefault("DISCOVERY_MARKET_LIMIT", 200),
		DiscoveryMinLiquidity: getFloat64OrDefault("DISCOVERY_MIN_LIQUIDITY", 1000.0),

		WSPoolSize:              getIntOrDefault("WS_POOL_SIZE", 3),
		WSDialTimeout:           getDurationOrDefault("WS_DIAL_TIMEOUT", 10*time.Second),
		WSPongTimeout:           getDurationOrDefault("WS_PONG_TIMEOUT", 30*time.Second),
		WSPingInterval:          getDurationOrDefault("WS_PING_INTERVAL", 10*time.Second),
		WSReconnectInitialDelay: getDurationOrDefault("WS_RECONNECT_INITIAL_DELAY", 1*time.Second),
		WSReconnectMaxDelay:     getDurationOrDefault("WS_RECONNECT_MAX_DELAY", 60*time.Second),
		WSReconnectBackoffMult:  getFloat64OrDefault("WS_RECONNECT_BACKOFF_MULTIPLIER", 2.0),
		WSMessageBufferSize:     getIntOrDefault("WS_MESSAGE_BUFFER_SIZE", 1000),

		ArbMinSpread: getFloat64OrDefault("ARB_MIN_SPREAD", 0.02),
		ArbMinProfit: getFloat64OrDefault("ARB_MIN_PROFIT", 0.5),
		ArbFeeLegs:   getIntOrDefault("ARB_FEE_LEGS", 2),

		SimStartingBalance: getFloat64OrDefault("SIM_STARTING_BALANCE", 1000.0),
		SimTradeSize:       getFloat64OrDefault("SIM_TRADE_SIZE", 100.0),
		SimMaxTradeSize:    getFloat64OrDefault("SIM_MAX_TRADE_SIZE", 500.0),
		SimExitSpread:      getFloat64OrDefault("SIM_EXIT_SPREAD", 0.005),
		SimEntryCooldown:   getDurationOrDefault("SIM_ENTRY_COOLDOWN", 30*time.Second),
		SimSeedFromChain:   getBoolOrDefault("SIM_SEED_FROM_CHAIN", false),

		BreakerEquityFloorRatio: getFloat64OrDefault("BREAKER_EQUITY_FLOOR_RATIO", 0.5),
		BreakerReenableRatio:    getFloat64OrDefault("BREAKER_REENABLE_RATIO", 1.1),

		StorageBackend: getEnvOrDefault("STORAGE_BACKEND", "console"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),

		PolygonRPCURL: getEnvOrDefault("POLYGON_RPC_URL", "https://polygon-rpc.com"),
		WalletAddress: os.Getenv("WALLET_ADDRESS"),
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}

	if c.GammaAPIURL == "" {
		return fmt.Errorf("GAMMA_API_URL cannot be empty")
	}

	if c.ClobAPIURL == "" {
		return fmt.Errorf("CLOB_API_URL cannot be empty")
	}

	if c.PolymarketWSURL == "" {
		return fmt.Errorf("POLYMARKET_WS_URL cannot be empty")
	}

	if c.DiscoveryMarketLimit < 0 {
		return fmt.Errorf("DISCOVERY_MARKET_LIMIT must be non-negative (0 = unlimited), got %d", c.DiscoveryMarketLimit)
	}

	if c.WSPoolSize < 1 {
		return fmt.Errorf("WS_POOL_SIZE must be at least 1, got %d", c.WSPoolSize)
	}

	if c.WSPoolSize > 20 {
		return fmt.Errorf("WS_POOL_SIZE must not exceed 20, got %d", c.WSPoolSize)
	}

	if c.ArbMinSpread <= 0 || c.ArbMinSpread >= 1.0 {
		return fmt.Errorf("ARB_MIN_SPREAD must be between 0 and 1.0, got %f", c.ArbMinSpread)
	}

	if c.ArbMinProfit < 0 {
		return fmt.Errorf("ARB_MIN_PROFIT must be non-negative, got %f", c.ArbMinProfit)
	}

	if c.ArbFeeLegs < 1 {
		return fmt.Errorf("ARB_FEE_LEGS must be at least 1, got %d", c.ArbFeeLegs)
	}

	if c.SimStartingBalance <= 0 {
		return fmt.Errorf("SIM_STARTING_BALANCE must be positive, got %f", c.SimStartingBalance)
	}

	if c.SimTradeSize <= 0 {
		return fmt.Errorf("SIM_TRADE_SIZE must be positive, got %f", c.SimTradeSize)
	}

	if c.SimMaxTradeSize < c.SimTradeSize {
		return fmt.Errorf("SIM_MAX_TRADE_SIZE must be at least SIM_TRADE_SIZE, got %f < %f", c.SimMaxTradeSize, c.SimTradeSize)
	}

	if c.SimExitSpread < 0 || c.SimExitSpread >= c.ArbMinSpread {
		return fmt.Errorf("SIM_EXIT_SPREAD must be in [0, ARB_MIN_SPREAD), got %f", c.SimExitSpread)
	}

	if c.BreakerEquityFloorRatio <= 0 || c.BreakerEquityFloorRatio >= 1.0 {
		return fmt.Errorf("BREAKER_EQUITY_FLOOR_RATIO must be between 0 and 1.0, got %f", c.BreakerEquityFloorRatio)
	}

	if c.BreakerReenableRatio < 1.0 {
		return fmt.Errorf("BREAKER_REENABLE_RATIO must be at least 1.0, got %f", c.BreakerReenableRatio)
	}

	if c.StorageBackend != "postgres" && c.StorageBackend != "console" {
		return fmt.Errorf("STORAGE_BACKEND must be 'postgres' or 'console', got %q", c.StorageBackend)
	}

	if c.StorageBackend == "postgres" && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required when STORAGE_BACKEND is 'postgres'")
	}

	if c.SimSeedFromChain && c.WalletAddress == "" {
		return fmt.Errorf("WALLET_ADDRESS is required when SIM_SEED_FROM_CHAIN is true")
	}

	return nil
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}

	return floatVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolVal
}
