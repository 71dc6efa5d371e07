package event

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/invengine/internal/domain"
)

func TestMemoryBus_PublishSubscribe(t *testing.T) {
	bus := NewMemoryBus()
	eventType := Type("test_event")
	handled := false

	bus.Subscribe(eventType, func(ctx context.Context, event Event) error {
		assert.Equal(t, eventType, event.Type)
		assert.Equal(t, "payload", event.Payload)
		handled = true
		return nil
	})

	err := bus.Publish(context.Background(), Event{Version: "1.0", Type: eventType, Payload: "payload"})
	require.NoError(t, err)
	assert.True(t, handled, "handler was not called")
}

func TestMemoryBus_PublishMultipleHandlers(t *testing.T) {
	bus := NewMemoryBus()
	eventType := Type("test_event")
	count := 0

	handler := func(ctx context.Context, event Event) error {
		count++
		return nil
	}
	bus.Subscribe(eventType, handler)
	bus.Subscribe(eventType, handler)

	require.NoError(t, bus.Publish(context.Background(), Event{Version: "1.0", Type: eventType}))
	assert.Equal(t, 2, count)
}

func TestMemoryBus_PublishError(t *testing.T) {
	bus := NewMemoryBus()
	eventType := Type("test_event")

	bus.Subscribe(eventType, func(ctx context.Context, event Event) error {
		return errors.New("handler error")
	})

	assert.Error(t, bus.Publish(context.Background(), Event{Version: "1.0", Type: eventType}))
}

func TestMemoryBus_NoSubscribers(t *testing.T) {
	bus := NewMemoryBus()
	assert.NoError(t, bus.Publish(context.Background(), Event{Type: ItemGranted}))
}

func TestNewOpEvent_Type(t *testing.T) {
	ok := &domain.OpResult{OpID: 1, Success: true, Updated: []domain.InventoryState{
		{Ref: domain.InventoryRef{Kind: domain.KindGrid, OwnerEntityID: 7}, Revision: 3},
	}}
	failed := &domain.OpResult{OpID: 2, Error: domain.CodeInventoryFull}

	tests := []struct {
		name     string
		result   *domain.OpResult
		replayed bool
		want     Type
	}{
		{"applied", ok, false, InventoryOpApplied},
		{"rejected", failed, false, InventoryOpRejected},
		{"replayed wins over outcome", failed, true, InventoryOpReplayed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evt := NewOpEvent(9, domain.ActionMove, tt.result, tt.replayed, 0)
			assert.Equal(t, tt.want, evt.Type)
			assert.Equal(t, domain.ActionMove, evt.GetMetadataValue(MetadataKeyAction))
		})
	}

	evt := NewOpEvent(9, domain.ActionMove, ok, false, 0)
	payload, err := DecodePayload[OpPayloadV1](evt.Payload)
	require.NoError(t, err)
	require.Len(t, payload.Updated, 1)
	assert.Equal(t, "GRID:7:0", payload.Updated[0].Ref)
	assert.Equal(t, uint64(3), payload.Updated[0].Revision)
	assert.Empty(t, payload.Error)
}

func TestDecodePayload_JSONFallback(t *testing.T) {
	raw := map[string]interface{}{"actor_id": 5, "entity_id": 11, "type_id": 2, "quantity": 3}
	p, err := DecodePayload[WorldItemPayloadV1](raw)
	require.NoError(t, err)
	assert.Equal(t, uint64(11), p.EntityID)
	assert.Equal(t, uint32(3), p.Quantity)
}

func TestDecodePayload_Nil(t *testing.T) {
	_, err := DecodePayload[OpPayloadV1](nil)
	assert.ErrorIs(t, err, ErrNilPayload)
}
