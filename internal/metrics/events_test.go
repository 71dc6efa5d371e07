package metrics

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/invengine/internal/domain"
	"github.com/osse101/invengine/internal/event"
)

func TestEventMetricsCollector_CountsOps(t *testing.T) {
	bus := event.NewMemoryBus()
	NewEventMetricsCollector().Register(bus)
	ctx := context.Background()

	applied := testutil.ToFloat64(InventoryOpsTotal.WithLabelValues(domain.ActionMove, ResultOK))
	full := testutil.ToFloat64(InventoryOpsTotal.WithLabelValues(domain.ActionMove, domain.CodeInventoryFull.String()))
	replayed := testutil.ToFloat64(InventoryOpsReplayed.WithLabelValues(domain.ActionMove))

	require.NoError(t, bus.Publish(ctx, event.NewOpEvent(1, domain.ActionMove, &domain.OpResult{OpID: 1, Success: true}, false, 0)))
	require.NoError(t, bus.Publish(ctx, event.NewOpEvent(1, domain.ActionMove, &domain.OpResult{OpID: 2, Error: domain.CodeInventoryFull}, false, 0)))
	require.NoError(t, bus.Publish(ctx, event.NewOpEvent(1, domain.ActionMove, &domain.OpResult{OpID: 1, Success: true}, true, 0)))

	assert.Equal(t, applied+1, testutil.ToFloat64(InventoryOpsTotal.WithLabelValues(domain.ActionMove, ResultOK)))
	assert.Equal(t, full+1, testutil.ToFloat64(InventoryOpsTotal.WithLabelValues(domain.ActionMove, domain.CodeInventoryFull.String())))
	assert.Equal(t, replayed+1, testutil.ToFloat64(InventoryOpsReplayed.WithLabelValues(domain.ActionMove)))
}

func TestEventMetricsCollector_WorldItems(t *testing.T) {
	bus := event.NewMemoryBus()
	NewEventMetricsCollector().Register(bus)
	ctx := context.Background()

	dropped := testutil.ToFloat64(ItemsDropped)
	picked := testutil.ToFloat64(ItemsPickedUp)

	item := domain.ItemInstance{ItemID: 1, TypeID: 2, Quantity: 3}
	require.NoError(t, bus.Publish(ctx, event.NewItemDroppedEvent(1, 50, item)))
	require.NoError(t, bus.Publish(ctx, event.NewItemPickedUpEvent(1, 50, item)))

	assert.Equal(t, dropped+1, testutil.ToFloat64(ItemsDropped))
	assert.Equal(t, picked+1, testutil.ToFloat64(ItemsPickedUp))
}
