package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/mselser95/polyshark/pkg/types"
)

// PostgresStorage implements Storage using PostgreSQL.
type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	DatabaseURL string
	Logger      *zap.Logger
}

const (
	signalsSchema = `
		CREATE TABLE IF NOT EXISTS arbitrage_signals (
			id TEXT PRIMARY KEY,
			market_id TEXT NOT NULL,
			slug TEXT,
			question TEXT,
			spread DOUBLE PRECISION NOT NULL,
			edge DOUBLE PRECISION NOT NULL,
			side TEXT NOT NULL,
			yes_price DOUBLE PRECISION,
			no_price DOUBLE PRECISION,
			detected_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ DEFAULT now()
		)
	`

	tradesSchema = `
		CREATE TABLE IF NOT EXISTS simulated_trades (
			id TEXT PRIMARY KEY,
			market_id TEXT NOT NULL,
			slug TEXT,
			token_id TEXT NOT NULL,
			side TEXT NOT NULL,
			size DOUBLE PRECISION NOT NULL,
			price DOUBLE PRECISION NOT NULL,
			fee DOUBLE PRECISION NOT NULL,
			slippage DOUBLE PRECISION,
			notional DOUBLE PRECISION NOT NULL,
			realized_pnl DOUBLE PRECISION,
			executed_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ DEFAULT now()
		)
	`
)

// NewPostgresStorage opens a PostgreSQL connection and ensures the schema
// exists.
func NewPostgresStorage(cfg *PostgresConfig) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = db.Ping()
	if err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	storage := &PostgresStorage{
		db:     db,
		logger: cfg.Logger,
	}

	err = storage.ensureSchema()
	if err != nil {
		db.Close()
		return nil, err
	}

	cfg.Logger.Info("postgres-storage-connected")

	return storage, nil
}

// ensureSchema creates the signal and trade tables when missing.
func (p *PostgresStorage) ensureSchema() error {
	_, err := p.db.Exec(signalsSchema)
	if err != nil {
		return fmt.Errorf("create arbitrage_signals table: %w", err)
	}

	_, err = p.db.Exec(tradesSchema)
	if err != nil {
		return fmt.Errorf("create simulated_trades table: %w", err)
	}

	return nil
}

// StoreSignal stores an arbitrage signal in PostgreSQL.
func (p *PostgresStorage) StoreSignal(ctx context.Context, signal *types.ArbitrageSignal) error {
	query := `
		INSERT INTO arbitrage_signals (
			id, market_id, slug, question, spread, edge, side,
			yes_price, no_price, detected_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
	`

	_, err := p.db.ExecContext(ctx, query,
		signal.ID,
		signal.MarketID,
		signal.Slug,
		signal.Question,
		signal.Spread,
		signal.Edge,
		signal.RecommendedSide.String(),
		signal.YesPrice,
		signal.NoPrice,
		signal.DetectedAt,
	)

	if err != nil {
		return fmt.Errorf("insert signal: %w", err)
	}

	p.logger.Debug("signal-stored",
		zap.String("signal-id", signal.ID),
		zap.String("market-slug", signal.Slug))

	return nil
}

// StoreTrade stores a simulated trade in PostgreSQL.
func (p *PostgresStorage) StoreTrade(ctx context.Context, trade *types.Trade) error {
	query := `
		INSERT INTO simulated_trades (
			id, market_id, slug, token_id, side, size, price,
			fee, slippage, notional, realized_pnl, executed_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)
	`

	_, err := p.db.ExecContext(ctx, query,
		trade.ID,
		trade.MarketID,
		trade.Slug,
		trade.TokenID,
		trade.Side.String(),
		trade.Size,
		trade.Price,
		trade.Fee,
		trade.Slippage,
		trade.Notional,
		trade.RealizedPnL,
		trade.ExecutedAt,
	)

	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}

	p.logger.Debug("trade-stored",
		zap.String("trade-id", trade.ID),
		zap.String("token-id", trade.TokenID),
		zap.String("side", trade.Side.String()))

	return nil
}

// Close closes the database connection.
func (p *PostgresStorage) Close() error {
	p.logger.Info("closing-postgres-storage")
	return p.db.Close()
}
