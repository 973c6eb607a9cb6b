package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"go.uber.org/zap"

	"github.com/mselser95/polyshark/internal/arbitrage"
	"github.com/mselser95/polyshark/pkg/types"
)

func createTestTrade() *types.Trade {
	return &types.Trade{
		ID:          "trade-123",
		MarketID:    "market-123",
		Slug:        "test-market",
		TokenID:     "yes-token-123",
		Side:        types.Buy,
		Size:        100.0,
		Price:       0.4853,
		Fee:         0.97,
		Slippage:    0.0267,
		Notional:    48.53,
		RealizedPnL: 0,
		ExecutedAt:  time.Now(),
	}
}

func TestConsoleStorage_New(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	storage := NewConsoleStorage(logger)

	if storage == nil {
		t.Fatal("expected non-nil storage")
	}

	if storage.logger == nil {
		t.Error("expected non-nil logger")
	}
}

func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := fn()

	w.Close()
	os.Stdout = oldStdout

	var buf bytes.Buffer
	io.Copy(&buf, r)

	return buf.String(), err
}

func TestConsoleStorage_StoreSignal(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	storage := NewConsoleStorage(logger)

	signal := arbitrage.CreateTestSignal("market-123")
	ctx := context.Background()

	output, err := captureStdout(t, func() error {
		return storage.StoreSignal(ctx, signal)
	})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	if !bytes.Contains([]byte(output), []byte("ARBITRAGE SIGNAL DETECTED")) {
		t.Error("expected output to contain 'ARBITRAGE SIGNAL DETECTED'")
	}

	if !bytes.Contains([]byte(output), []byte(signal.Slug)) {
		t.Errorf("expected output to contain market slug %s", signal.Slug)
	}

	if !bytes.Contains([]byte(output), []byte(signal.Question)) {
		t.Errorf("expected output to contain question %s", signal.Question)
	}
}

func TestConsoleStorage_StoreTrade(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	storage := NewConsoleStorage(logger)

	trade := createTestTrade()
	ctx := context.Background()

	output, err := captureStdout(t, func() error {
		return storage.StoreTrade(ctx, trade)
	})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	if !bytes.Contains([]byte(output), []byte("SIMULATED TRADE EXECUTED")) {
		t.Error("expected output to contain 'SIMULATED TRADE EXECUTED'")
	}

	if !bytes.Contains([]byte(output), []byte(trade.TokenID)) {
		t.Errorf("expected output to contain token ID %s", trade.TokenID)
	}
}

func TestConsoleStorage_Close(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	storage := NewConsoleStorage(logger)

	err := storage.Close()
	if err != nil {
		t.Errorf("expected no error on close, got %v", err)
	}
}

func TestPostgresStorage_StoreSignal(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	storage := &PostgresStorage{
		db:     db,
		logger: logger,
	}

	signal := arbitrage.CreateTestSignal("market-123")
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO arbitrage_signals").
		WithArgs(
			signal.ID,
			signal.MarketID,
			signal.Slug,
			signal.Question,
			signal.Spread,
			signal.Edge,
			signal.RecommendedSide.String(),
			signal.YesPrice,
			signal.NoPrice,
			sqlmock.AnyArg(), // DetectedAt
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = storage.StoreSignal(ctx, signal)
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresStorage_StoreSignal_Error(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	storage := &PostgresStorage{
		db:     db,
		logger: logger,
	}

	signal := arbitrage.CreateTestSignal("market-123")
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO arbitrage_signals").
		WillReturnError(sqlmock.ErrCancelled)

	err = storage.StoreSignal(ctx, signal)
	if err == nil {
		t.Error("expected error, got nil")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresStorage_StoreTrade(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	storage := &PostgresStorage{
		db:     db,
		logger: logger,
	}

	trade := createTestTrade()
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO simulated_trades").
		WithArgs(
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
			sqlmock.AnyArg(), // ExecutedAt
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = storage.StoreTrade(ctx, trade)
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresStorage_EnsureSchema(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	storage := &PostgresStorage{
		db:     db,
		logger: logger,
	}

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS arbitrage_signals").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS simulated_trades").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = storage.ensureSchema()
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresStorage_Close(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	storage := &PostgresStorage{
		db:     db,
		logger: logger,
	}

	mock.ExpectClose()

	err = storage.Close()
	if err != nil {
		t.Errorf("expected no error on close, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestStorage_Interface(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	var _ Storage = NewConsoleStorage(logger)

	db, _, _ := sqlmock.New()
	defer db.Close()

	var _ Storage = &PostgresStorage{db: db, logger: logger}
}
