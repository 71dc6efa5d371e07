// Command server runs the inventory engine: the websocket gateway, the HTTP API
// and the dropped-item decay sweep.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/osse101/invengine/internal/bootstrap"
	"github.com/osse101/invengine/internal/concurrency"
	"github.com/osse101/invengine/internal/config"
	"github.com/osse101/invengine/internal/emitter"
	"github.com/osse101/invengine/internal/gateway"
	"github.com/osse101/invengine/internal/handler"
	"github.com/osse101/invengine/internal/idempotency"
	"github.com/osse101/invengine/internal/inventory"
	"github.com/osse101/invengine/internal/server"
	"github.com/osse101/invengine/internal/worker"
	"github.com/osse101/invengine/internal/world"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "inventory engine: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logFile, err := bootstrap.SetupLogger(cfg)
	if err != nil {
		return err
	}
	defer logFile.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog, err := bootstrap.LoadCatalog(ctx, cfg)
	if err != nil {
		return err
	}

	store := inventory.NewStore(concurrency.NewLockManager())
	registry := emitter.NewRegistry(store, emitter.WithLocks(store.Locks()))
	w := world.New(world.WithPickupRadius(cfg.PickupRadius))
	bus := bootstrap.InitializeEventSystem()

	proc := inventory.NewProcessor(store, idempotency.New(cfg.IdempotencyCacheSize, cfg.IdempotencyTTL), catalog, w,
		inventory.WithEntityDirectory(w),
		inventory.WithReach(w),
		inventory.WithAccessPolicy(registry),
		inventory.WithEmitter(registry),
		inventory.WithEventBus(bus),
		inventory.WithBridgeTimeout(cfg.BridgeTimeout),
		inventory.WithBackpackSize(cfg.BackpackWidth, cfg.BackpackHeight),
	)

	pool := worker.NewPool(cfg.WorkerCount, cfg.WorkerQueueSize)
	pool.Start(ctx)

	decay := worker.NewDropDecayWorker(w, proc, cfg.DropTTL, cfg.DropSweepInterval)
	decay.Start()

	var auth gateway.Authenticator = gateway.DenyAuthenticator{}
	if cfg.DevAuth {
		auth = gateway.DevAuthenticator{}
	}
	gw := gateway.New(proc, registry, pool, w, auth, gateway.Config{
		PacketsPerSecond: cfg.PacketsPerSecond,
	})

	srv := server.NewServer(server.Config{
		Port:           cfg.Port,
		APIKey:         cfg.APIKey,
		TrustedProxies: cfg.TrustedProxies,
		Version:        cfg.Version,
	}, server.Deps{
		Inventory: handler.NewInventoryHandler(proc, store, registry),
		Gateway:   gw,
		Ready:     []handler.HealthChecker{pool},
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	bootstrap.GracefulShutdown(shutdownCtx, bootstrap.ShutdownComponents{
		Server:      srv,
		Gateway:     gw,
		DecayWorker: decay,
		Pool:        pool,
	})

	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		slog.Error("Server exited", "error", serveErr)
		return serveErr
	}
	return nil
}
