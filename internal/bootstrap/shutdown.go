package bootstrap

import (
	"context"
	"log/slog"

	"github.com/osse101/invengine/internal/gateway"
	"github.com/osse101/invengine/internal/server"
	"github.com/osse101/invengine/internal/worker"
)

// ShutdownComponents holds all components that need graceful shutdown.
type ShutdownComponents struct {
	Server      *server.Server
	Gateway     *gateway.Gateway
	DecayWorker *worker.DropDecayWorker
	Pool        *worker.Pool
}

// GracefulShutdown stops components in dependency order:
// 1. HTTP server (stop accepting new requests)
// 2. Websocket sessions (hijacked connections are not covered by the server)
// 3. Drop decay worker (no new expirations)
// 4. Worker pool (run ops already accepted)
//
// Errors are logged and do not stop the sequence.
func GracefulShutdown(ctx context.Context, c ShutdownComponents) {
	slog.Info(LogMsgShuttingDownServer)
	if c.Server != nil {
		if err := c.Server.Stop(ctx); err != nil {
			slog.Error(LogMsgServerForcedShutdown, "error", err)
		}
	}

	if c.Gateway != nil {
		slog.Info(LogMsgClosingSessions)
		c.Gateway.Close()
	}

	if c.DecayWorker != nil {
		if err := c.DecayWorker.Shutdown(ctx); err != nil {
			slog.Error(LogMsgDecayShutdownFailed, "error", err)
		}
	}

	if c.Pool != nil {
		slog.Info(LogMsgDrainingWorkers)
		c.Pool.Stop()
	}

	slog.Info(LogMsgServerStopped)
}
