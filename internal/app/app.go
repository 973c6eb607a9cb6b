package app

import (
	"context"
	"sync"

	"github.com/mselser95/polyshark/internal/arbitrage"
	"github.com/mselser95/polyshark/internal/circuitbreaker"
	"github.com/mselser95/polyshark/internal/discovery"
	"github.com/mselser95/polyshark/internal/orderbook"
	"github.com/mselser95/polyshark/internal/storage"
	"github.com/mselser95/polyshark/internal/trader"
	"github.com/mselser95/polyshark/pkg/config"
	"github.com/mselser95/polyshark/pkg/healthprobe"
	"github.com/mselser95/polyshark/pkg/httpserver"
	"github.com/mselser95/polyshark/pkg/websocket"
	"go.uber.org/zap"
)

// App wires the simulation pipeline together: market discovery feeds the
// WebSocket pool, the pool feeds the book manager, and book updates drive
// the paper trader. The HTTP server exposes health, metrics and the
// read-only wallet and book APIs.
type App struct {
	cfg        *config.Config
	logger     *zap.Logger
	probe      *healthprobe.Probe
	httpServer *httpserver.Server
	discovery  *discovery.Service
	wsPool     *websocket.Pool
	books      *orderbook.Manager
	detector   *arbitrage.Detector
	breaker    *circuitbreaker.Breaker
	trader     *trader.Trader
	storage    storage.Storage
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}
