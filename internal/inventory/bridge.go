package inventory

import (
	"context"

	"github.com/osse101/invengine/internal/domain"
)

// WorldBridge converts between inventory items and world entities.
type WorldBridge interface {
	// SpawnDroppedItem creates a world entity carrying item near the origin entity.
	SpawnDroppedItem(ctx context.Context, item domain.ItemInstance, originEntityID uint64) (uint64, error)
	// DespawnEntity removes a world entity.
	DespawnEntity(ctx context.Context, entityID uint64) error
}

// EntityDirectory answers whether an owner entity still exists.
type EntityDirectory interface {
	EntityExists(entityID uint64) bool
}

// ReachChecker answers whether an actor entity is close enough to a world entity.
type ReachChecker interface {
	WithinReach(actorEntityID, targetEntityID uint64) bool
}

// OpenedChecker answers whether an actor currently has a container open.
type OpenedChecker interface {
	IsOpen(actorID uint64, ref domain.InventoryRef) bool
}

// Emitter fans changes out to observers other than the submitting connection,
// which gets its result from Submit. Both calls are made while the affected
// containers are still locked, so observers see revisions in commit order.
type Emitter interface {
	// Broadcast notifies observers of the changed containers, excluding excludeConn.
	Broadcast(ctx context.Context, excludeConn string, updated []domain.InventoryState)
	// Closed notifies observers that a container no longer exists.
	Closed(ctx context.Context, ref domain.InventoryRef)
}
