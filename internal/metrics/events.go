package metrics

import (
	"context"

	"github.com/osse101/invengine/internal/event"
	"github.com/osse101/invengine/internal/logger"
)

// EventMetricsCollector subscribes to events and records metrics
type EventMetricsCollector struct{}

// NewEventMetricsCollector creates a new event metrics collector
func NewEventMetricsCollector() *EventMetricsCollector {
	return &EventMetricsCollector{}
}

// Register subscribes to all inventory events
func (e *EventMetricsCollector) Register(bus event.Bus) {
	for _, eventType := range event.AllInventoryTypes {
		bus.Subscribe(eventType, e.HandleEvent)
	}
}

// HandleEvent processes events and updates metrics
func (e *EventMetricsCollector) HandleEvent(ctx context.Context, evt event.Event) error {
	log := logger.FromContext(ctx)

	EventsPublished.WithLabelValues(string(evt.Type)).Inc()

	switch evt.Type {
	case event.InventoryOpApplied, event.InventoryOpRejected:
		p, err := event.DecodePayload[event.OpPayloadV1](evt.Payload)
		if err != nil {
			log.Debug(LogMsgPayloadDecode, "type", evt.Type, "error", err)
			EventHandlerErrors.WithLabelValues(string(evt.Type)).Inc()
			return nil
		}
		result := ResultOK
		if p.Error != "" {
			result = p.Error
		}
		InventoryOpsTotal.WithLabelValues(p.Action, result).Inc()
		InventoryOpDuration.WithLabelValues(p.Action).Observe(p.Duration.Seconds())

	case event.InventoryOpReplayed:
		p, err := event.DecodePayload[event.OpPayloadV1](evt.Payload)
		if err != nil {
			EventHandlerErrors.WithLabelValues(string(evt.Type)).Inc()
			return nil
		}
		InventoryOpsReplayed.WithLabelValues(p.Action).Inc()

	case event.ItemDropped:
		ItemsDropped.Inc()

	case event.ItemPickedUp:
		ItemsPickedUp.Inc()

	case event.ItemGranted:
		ItemsGranted.Inc()

	case event.ItemExpired:
		ItemsExpired.Inc()
	}

	log.Debug(LogMsgMetricsRecorded, "type", evt.Type)
	return nil
}
