package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Shutdown gracefully shuts down the application. The trader stops before
// the book manager so the update channel has no reader left when it closes,
// and the WebSocket pool goes down last.
func (a *App) Shutdown() error {
	a.logger.Info("application-shutting-down")

	a.probe.SetReady(false)

	// Cancel context to signal all components
	a.cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	err := a.httpServer.Shutdown(shutdownCtx)
	if err != nil {
		a.logger.Error("http-server-shutdown-error", zap.Error(err))
	}

	err = a.trader.Close()
	if err != nil {
		a.logger.Error("trader-close-error", zap.Error(err))
	}

	err = a.books.Close()
	if err != nil {
		a.logger.Error("book-manager-close-error", zap.Error(err))
	}

	err = a.wsPool.Close()
	if err != nil {
		a.logger.Error("websocket-pool-close-error", zap.Error(err))
	}

	err = a.storage.Close()
	if err != nil {
		a.logger.Error("storage-close-error", zap.Error(err))
	}

	// Wait for all goroutines
	a.wg.Wait()

	a.logger.Info("application-shutdown-complete")

	return nil
}
