package bootstrap

import (
	"log/slog"

	"github.com/osse101/invengine/internal/event"
	"github.com/osse101/invengine/internal/metrics"
)

// InitializeEventSystem creates the in-process event bus and attaches the
// metrics collector to it.
func InitializeEventSystem() *event.MemoryBus {
	bus := event.NewMemoryBus()
	metrics.NewEventMetricsCollector().Register(bus)
	slog.Info(LogMsgEventSystemInitialized)
	slog.Debug(LogMsgMetricsCollectorAttached)
	return bus
}
