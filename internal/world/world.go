package world

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/osse101/invengine/internal/domain"
	"github.com/osse101/invengine/internal/logger"
)

// Position is a point on the world plane.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DroppedItem describes an entity that carries a single dropped item.
type DroppedItem struct {
	Item      domain.ItemInstance
	DropperID uint64
	DroppedAt time.Time
}

type entity struct {
	pos     Position
	dropped *DroppedItem
}

// World is an in-process entity registry. It implements the inventory
// WorldBridge, EntityDirectory and ReachChecker.
type World struct {
	mu       sync.RWMutex
	entities map[uint64]*entity
	nextID   atomic.Uint64
	radiusSq float64
	now      func() time.Time
}

// Option configures a World.
type Option func(*World)

// WithPickupRadius sets the reach distance used by WithinReach.
func WithPickupRadius(r float64) Option {
	return func(w *World) { w.radiusSq = r * r }
}

// WithEntityIDStart sets the first id handed to spawned entities.
func WithEntityIDStart(start uint64) Option {
	return func(w *World) { w.nextID.Store(start) }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(w *World) { w.now = now }
}

// New creates an empty world.
func New(opts ...Option) *World {
	w := &World{
		entities: make(map[uint64]*entity),
		radiusSq: DefaultPickupRadius * DefaultPickupRadius,
		now:      time.Now,
	}
	w.nextID.Store(DefaultEntityIDStart)
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Register adds an entity with a caller-chosen id, typically a player.
// Registering an existing id only updates its position.
func (w *World) Register(id uint64, pos Position) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if e, ok := w.entities[id]; ok {
		e.pos = pos
		return
	}
	w.entities[id] = &entity{pos: pos}
}

// EnsureEntity registers id at the origin unless it already exists.
// It reports whether the entity was created.
func (w *World) EnsureEntity(id uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.entities[id]; ok {
		return false
	}
	w.entities[id] = &entity{}
	return true
}

// Move sets the position of an existing entity.
func (w *World) Move(id uint64, pos Position) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.entities[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrEntityNotFound, id)
	}
	e.pos = pos
	return nil
}

// Remove deletes an entity of any type.
func (w *World) Remove(id uint64) {
	w.mu.Lock()
	delete(w.entities, id)
	w.mu.Unlock()
}

// Position returns where an entity is.
func (w *World) Position(id uint64) (Position, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	e, ok := w.entities[id]
	if !ok {
		return Position{}, false
	}
	return e.pos, true
}

// Dropped returns the record of a dropped-item entity.
func (w *World) Dropped(id uint64) (DroppedItem, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	e, ok := w.entities[id]
	if !ok || e.dropped == nil {
		return DroppedItem{}, false
	}
	return *e.dropped, true
}

// Len counts entities of every type.
func (w *World) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.entities)
}

// EntityExists reports whether id is a live entity.
func (w *World) EntityExists(id uint64) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.entities[id]
	return ok
}

// WithinReach reports whether target is within the pickup radius of actor.
func (w *World) WithinReach(actor, target uint64) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	a, ok := w.entities[actor]
	if !ok {
		return false
	}
	t, ok := w.entities[target]
	if !ok {
		return false
	}
	dx, dy := a.pos.X-t.pos.X, a.pos.Y-t.pos.Y
	return dx*dx+dy*dy <= w.radiusSq
}

// SpawnDroppedItem creates a dropped-item entity at the origin entity's position.
func (w *World) SpawnDroppedItem(ctx context.Context, item domain.ItemInstance, originEntityID uint64) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	w.mu.Lock()
	origin, ok := w.entities[originEntityID]
	if !ok {
		w.mu.Unlock()
		return 0, fmt.Errorf("%w: origin %d", ErrEntityNotFound, originEntityID)
	}
	id := w.nextID.Add(1) - 1
	if _, taken := w.entities[id]; taken {
		w.mu.Unlock()
		return 0, fmt.Errorf("%w: %d", ErrEntityExists, id)
	}
	w.entities[id] = &entity{
		pos:     origin.pos,
		dropped: &DroppedItem{Item: item, DropperID: originEntityID, DroppedAt: w.now()},
	}
	w.mu.Unlock()

	logger.FromContext(ctx).Debug(LogMsgSpawned,
		"entity_id", id, "item_id", item.ItemID, "dropper_id", originEntityID)
	return id, nil
}

// DespawnEntity removes a dropped-item entity.
func (w *World) DespawnEntity(ctx context.Context, entityID uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	e, ok := w.entities[entityID]
	switch {
	case !ok:
		w.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrEntityNotFound, entityID)
	case e.dropped == nil:
		w.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrNotDropped, entityID)
	}
	delete(w.entities, entityID)
	w.mu.Unlock()

	logger.FromContext(ctx).Debug(LogMsgDespawned, "entity_id", entityID)
	return nil
}

// Expired lists dropped entities older than maxAge.
func (w *World) Expired(maxAge time.Duration) []uint64 {
	cutoff := w.now().Add(-maxAge)
	w.mu.RLock()
	defer w.mu.RUnlock()
	var out []uint64
	for id, e := range w.entities {
		if e.dropped != nil && e.dropped.DroppedAt.Before(cutoff) {
			out = append(out, id)
		}
	}
	return out
}
