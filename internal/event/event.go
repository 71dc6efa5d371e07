package event

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/osse101/invengine/internal/domain"
)

// Type represents the type of an event
type Type string

// Metadata defines the type for event metadata
type Metadata interface{}

// Event represents a generic event in the system
type Event struct {
	Version  string      `json:"version"` // Event schema version (e.g., "1.0")
	Type     Type        `json:"type"`
	Payload  interface{} `json:"payload"`
	Metadata Metadata    `json:"metadata"`
}

// GetMetadataValue extracts a value from the event metadata safely
func (e Event) GetMetadataValue(key string) interface{} {
	if m, ok := e.Metadata.(map[string]interface{}); ok {
		return m[key]
	}
	return nil
}

// Inventory event types
const (
	InventoryOpApplied  Type = "inventory.op.applied"
	InventoryOpRejected Type = "inventory.op.rejected"
	InventoryOpReplayed Type = "inventory.op.replayed"
	ItemDropped         Type = "inventory.item.dropped"
	ItemPickedUp        Type = "inventory.item.picked_up"
	ItemGranted         Type = "inventory.item.granted"
	ItemExpired         Type = "inventory.item.expired"
)

// AllInventoryTypes lists every inventory event type, for subscribers that want all of them.
var AllInventoryTypes = []Type{
	InventoryOpApplied,
	InventoryOpRejected,
	InventoryOpReplayed,
	ItemDropped,
	ItemPickedUp,
	ItemGranted,
	ItemExpired,
}

// RevisionV1 is a container ref with the revision it reached.
type RevisionV1 struct {
	Ref      string `json:"ref"`
	Revision uint64 `json:"revision"`
}

// OpPayloadV1 is the typed payload for op outcome events
type OpPayloadV1 struct {
	ActorID   uint64        `json:"actor_id"`
	OpID      uint64        `json:"op_id"`
	Action    string        `json:"action"`
	Error     string        `json:"error,omitempty"`
	Updated   []RevisionV1  `json:"updated,omitempty"`
	Duration  time.Duration `json:"duration_ns"`
	Timestamp int64         `json:"timestamp"`
}

// WorldItemPayloadV1 is the typed payload for drop and pickup events
type WorldItemPayloadV1 struct {
	ActorID   uint64 `json:"actor_id"`
	EntityID  uint64 `json:"entity_id"`
	TypeID    uint32 `json:"type_id"`
	Quantity  uint32 `json:"quantity"`
	Timestamp int64  `json:"timestamp"`
}

// GrantPayloadV1 is the typed payload for admin grants
type GrantPayloadV1 struct {
	Ref       string `json:"ref"`
	ItemID    uint64 `json:"item_id"`
	TypeID    uint32 `json:"type_id"`
	Quantity  uint32 `json:"quantity"`
	Timestamp int64  `json:"timestamp"`
}

func revisions(states []domain.InventoryState) []RevisionV1 {
	out := make([]RevisionV1, 0, len(states))
	for _, st := range states {
		out = append(out, RevisionV1{Ref: st.Ref.String(), Revision: st.Revision})
	}
	return out
}

// NewOpEvent creates an applied, rejected or replayed event from a final result
func NewOpEvent(actorID uint64, action string, result *domain.OpResult, replayed bool, took time.Duration) Event {
	t := InventoryOpApplied
	switch {
	case replayed:
		t = InventoryOpReplayed
	case !result.Success:
		t = InventoryOpRejected
	}
	payload := OpPayloadV1{
		ActorID:   actorID,
		OpID:      result.OpID,
		Action:    action,
		Updated:   revisions(result.Updated),
		Duration:  took,
		Timestamp: time.Now().Unix(),
	}
	if !result.Success {
		payload.Error = result.Error.String()
	}
	return Event{
		Version: EventSchemaVersion,
		Type:    t,
		Payload: payload,
		Metadata: map[string]interface{}{
			MetadataKeyAction: action,
		},
	}
}

// NewItemDroppedEvent creates a new item dropped event
func NewItemDroppedEvent(actorID, entityID uint64, item domain.ItemInstance) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    ItemDropped,
		Payload: WorldItemPayloadV1{
			ActorID:   actorID,
			EntityID:  entityID,
			TypeID:    item.TypeID,
			Quantity:  item.Quantity,
			Timestamp: time.Now().Unix(),
		},
	}
}

// NewItemPickedUpEvent creates a new item picked up event
func NewItemPickedUpEvent(actorID, entityID uint64, item domain.ItemInstance) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    ItemPickedUp,
		Payload: WorldItemPayloadV1{
			ActorID:   actorID,
			EntityID:  entityID,
			TypeID:    item.TypeID,
			Quantity:  item.Quantity,
			Timestamp: time.Now().Unix(),
		},
	}
}

// NewItemGrantedEvent creates a new item granted event
func NewItemGrantedEvent(ref domain.InventoryRef, item domain.ItemInstance) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    ItemGranted,
		Payload: GrantPayloadV1{
			Ref:       ref.String(),
			ItemID:    item.ItemID,
			TypeID:    item.TypeID,
			Quantity:  item.Quantity,
			Timestamp: time.Now().Unix(),
		},
	}
}

// NewItemExpiredEvent creates an event for a dropped item removed by decay
func NewItemExpiredEvent(entityID uint64, item domain.ItemInstance) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    ItemExpired,
		Payload: WorldItemPayloadV1{
			EntityID:  entityID,
			TypeID:    item.TypeID,
			Quantity:  item.Quantity,
			Timestamp: time.Now().Unix(),
		},
	}
}

// Handler is a function that handles an event
type Handler func(ctx context.Context, event Event) error

// Bus defines the interface for an event bus
type Bus interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType Type, handler Handler)
}

// MemoryBus is an in-memory implementation of the Event Bus
type MemoryBus struct {
	handlers map[Type][]Handler
	mu       sync.RWMutex
}

// NewMemoryBus creates a new MemoryBus
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		handlers: make(map[Type][]Handler),
	}
}

// Publish publishes an event to all subscribers.
// Handlers run synchronously in subscription order.
func (b *MemoryBus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers, ok := b.handlers[event.Type]
	b.mu.RUnlock()

	if !ok {
		return nil
	}

	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf(LogMsgHandlerErrorFormat, len(errs), event.Type, errs)
	}

	return nil
}

// Subscribe subscribes a handler to an event type
func (b *MemoryBus) Subscribe(eventType Type, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}
