package inventory

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/osse101/invengine/internal/domain"
	"github.com/osse101/invengine/internal/event"
	"github.com/osse101/invengine/internal/idempotency"
	"github.com/osse101/invengine/internal/itemdefs"
	"github.com/osse101/invengine/internal/logger"
	"github.com/osse101/invengine/internal/metrics"
)

// Processor applies inventory ops exactly once per (actor, op id).
type Processor struct {
	store   *Store
	guard   *RevisionGuard
	planner *Planner
	cache   *idempotency.Cache
	catalog *itemdefs.Catalog
	bridge  WorldBridge
	ids     *IDAllocator

	entities EntityDirectory
	reach    ReachChecker
	opened   OpenedChecker
	emitter  Emitter
	bus      event.Bus

	bridgeTimeout time.Duration
	gridWidth     uint32
	gridHeight    uint32

	flight singleflight.Group
}

// Option configures a Processor.
type Option func(*Processor)

// WithEntityDirectory rejects ops on containers whose owner entity is gone.
func WithEntityDirectory(d EntityDirectory) Option {
	return func(p *Processor) { p.entities = d }
}

// WithReach enforces a pickup distance.
func WithReach(r ReachChecker) Option {
	return func(p *Processor) { p.reach = r }
}

// WithAccessPolicy restricts actors to their own containers, dropped items and
// containers they have opened.
func WithAccessPolicy(o OpenedChecker) Option {
	return func(p *Processor) { p.opened = o }
}

// WithEmitter fans committed changes out to observers.
func WithEmitter(e Emitter) Option {
	return func(p *Processor) { p.emitter = e }
}

// WithEventBus publishes op outcomes.
func WithEventBus(b event.Bus) Option {
	return func(p *Processor) { p.bus = b }
}

// WithBridgeTimeout bounds each world bridge call.
func WithBridgeTimeout(d time.Duration) Option {
	return func(p *Processor) {
		if d > 0 {
			p.bridgeTimeout = d
		}
	}
}

// WithIDAllocator replaces the allocator used for fresh item ids.
func WithIDAllocator(a *IDAllocator) Option {
	return func(p *Processor) { p.ids = a }
}

// WithBackpackSize sets the size of grids created by EnsurePlayer.
func WithBackpackSize(width, height uint32) Option {
	return func(p *Processor) {
		p.gridWidth, p.gridHeight = width, height
	}
}

// NewProcessor wires a processor. A nil catalog accepts every item type.
func NewProcessor(store *Store, cache *idempotency.Cache, catalog *itemdefs.Catalog, bridge WorldBridge, opts ...Option) *Processor {
	p := &Processor{
		store:         store,
		guard:         NewRevisionGuard(store),
		planner:       NewPlanner(catalog),
		cache:         cache,
		catalog:       catalog,
		bridge:        bridge,
		ids:           NewIDAllocator(DefaultFreshItemIDStart),
		bridgeTimeout: DefaultBridgeTimeout,
		gridWidth:     10,
		gridHeight:    10,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Store returns the container store.
func (p *Processor) Store() *Store {
	return p.store
}

// EnsurePlayer creates the default containers of a player entity.
func (p *Processor) EnsurePlayer(entityID uint64) []domain.InventoryRef {
	return p.store.EnsurePlayerContainers(entityID, p.gridWidth, p.gridHeight)
}

// Seed installs a state as-is and keeps fresh ids clear of its items.
func (p *Processor) Seed(state *domain.InventoryState) {
	if state.Container != nil {
		for _, it := range state.Container.Contents() {
			p.ids.Observe(it.ItemID)
		}
	}
	p.store.Load(state)
}

type flightResult struct {
	result   *domain.OpResult
	replayed bool
}

// Submit runs op for actor and returns its final result. A duplicate (actor, op id)
// gets the first result back without touching any container.
//
// The returned error is only non-nil when ctx was cancelled before the op took its
// locks; such an op has no result and is not remembered.
func (p *Processor) Submit(ctx context.Context, actor domain.Actor, op domain.InventoryOp) (*domain.OpResult, error) {
	start := time.Now()
	action := actionName(op.Action)
	ctx = logger.WithAttrs(ctx,
		logger.AttrKeyActorID, actor.ID,
		logger.AttrKeyOpID, op.OpID,
		logger.AttrKeyAction, action,
	)
	log := logger.FromContext(ctx)
	log.Debug(LogMsgOpReceived)

	if cached, ok := p.cache.Lookup(actor.ID, op.OpID); ok {
		log.Debug(LogMsgOpReplayed)
		p.respond(ctx, actor, action, cached, true, start, nil)
		return cached, nil
	}

	key := strconv.FormatUint(actor.ID, 10) + ":" + strconv.FormatUint(op.OpID, 10)
	var (
		events []event.Event
		ran    bool
	)
	v, err, _ := p.flight.Do(key, func() (interface{}, error) {
		ran = true
		if cached, ok := p.cache.Lookup(actor.ID, op.OpID); ok {
			return flightResult{result: cached, replayed: true}, nil
		}
		res, evts, err := p.process(ctx, actor, op)
		if err != nil {
			return nil, err
		}
		events = evts
		p.cache.Store(actor.ID, op.OpID, res)
		return flightResult{result: res}, nil
	})
	if err != nil {
		log.Debug(LogMsgOpDropped, logger.AttrKeyError, err)
		return nil, err
	}

	fr := v.(flightResult)
	// Callers that joined another caller's flight are duplicates too.
	replayed := fr.replayed || !ran
	if replayed {
		log.Debug(LogMsgOpReplayed)
	}
	p.respond(ctx, actor, action, fr.result, replayed, start, events)
	return fr.result, nil
}

// process runs everything between dedupe and respond. The result is final.
func (p *Processor) process(ctx context.Context, actor domain.Actor, op domain.InventoryOp) (*domain.OpResult, []event.Event, error) {
	if err := validateShape(op); err != nil {
		return domain.FailedResult(op.OpID, err), nil, nil
	}

	writes := writeRefs(op.Action)
	reads := make([]domain.InventoryRef, 0, len(op.Expected))
	for _, exp := range op.Expected {
		reads = append(reads, exp.Ref)
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	waitStart := time.Now()
	locks := p.store.Locks().Acquire(writes, reads)
	metrics.InventoryLockWait.Observe(time.Since(waitStart).Seconds())

	t := newTxn(p.store, locks)
	res, err := p.execute(ctx, actor, op, t)
	if err == nil {
		p.fanout(ctx, actor.ConnID, res)
	}
	locks.Release()

	if err != nil {
		return domain.FailedResult(op.OpID, err), nil, nil
	}
	for _, ref := range t.removed {
		p.store.Locks().Forget(ref)
	}
	return res, t.events, nil
}

// execute validates and applies op. Locks are held throughout.
func (p *Processor) execute(ctx context.Context, actor domain.Actor, op domain.InventoryOp, t *txn) (*domain.OpResult, error) {
	if err := p.guard.Check(op.Expected); err != nil {
		return nil, err
	}

	spec := op.Action.MoveSpec()
	res := &domain.OpResult{OpID: op.OpID, Success: true}

	var err error
	switch op.Action.(type) {
	case domain.Move:
		res.Updated, err = p.applyMove(actor, spec, t)
	case domain.DropToWorld:
		var spawned uint64
		res.Updated, spawned, err = p.applyDrop(ctx, actor, spec, t)
		if err == nil {
			res.SpawnedDroppedEntityID = &spawned
		}
	case domain.PickupFromWorld:
		var despawned *uint64
		res.Updated, despawned, err = p.applyPickup(ctx, actor, spec, t)
		res.DespawnedDroppedEntityID = despawned
	default:
		err = fmt.Errorf("%w: unknown action", domain.ErrInvalidRequest)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// fanout notifies observers of a committed op. Locks are still held.
func (p *Processor) fanout(ctx context.Context, connID string, res *domain.OpResult) {
	if p.emitter == nil {
		return
	}
	p.emitter.Broadcast(ctx, connID, res.Updated)
	if res.DespawnedDroppedEntityID != nil {
		p.emitter.Closed(ctx, domain.DroppedItemRef(*res.DespawnedDroppedEntityID))
	}
}

// respond runs after locks are released: logging and events.
func (p *Processor) respond(ctx context.Context, actor domain.Actor, action string, res *domain.OpResult, replayed bool, start time.Time, events []event.Event) {
	log := logger.FromContext(ctx)
	took := time.Since(start)

	switch {
	case replayed:
	case res.Success:
		log.Debug(LogMsgOpApplied, "updated", len(res.Updated), "took", took)
	case res.Error == domain.CodeInternalError:
		log.Error(LogMsgOpInternalError, logger.AttrKeyError, res.Message)
	default:
		log.Warn(LogMsgOpRejected, "code", res.Error.String(), logger.AttrKeyError, res.Message)
	}

	if p.bus == nil {
		return
	}
	p.publish(ctx, event.NewOpEvent(actor.ID, action, res, replayed, took))
	for _, evt := range events {
		p.publish(ctx, evt)
	}
}

func (p *Processor) publish(ctx context.Context, evt event.Event) {
	if err := p.bus.Publish(ctx, evt); err != nil {
		logger.FromContext(ctx).Warn(LogMsgPublishFailed, "type", evt.Type, logger.AttrKeyError, err)
	}
}

func actionName(a domain.Action) string {
	if a == nil {
		return "none"
	}
	return a.Name()
}

// writeRefs lists the containers an action may mutate.
func writeRefs(a domain.Action) []domain.InventoryRef {
	spec := a.MoveSpec()
	if _, ok := a.(domain.DropToWorld); ok {
		return []domain.InventoryRef{spec.Src}
	}
	return []domain.InventoryRef{spec.Src, spec.Dst}
}

// validateShape rejects ops that can never succeed, before any lock is taken.
func validateShape(op domain.InventoryOp) error {
	if op.Action == nil {
		return fmt.Errorf("%w: op carries no action", domain.ErrInvalidRequest)
	}
	spec := op.Action.MoveSpec()

	if !spec.Src.Kind.Valid() {
		return fmt.Errorf("%w: src kind %d", domain.ErrInvalidRequest, spec.Src.Kind)
	}
	for _, exp := range op.Expected {
		if !exp.Ref.Kind.Valid() {
			return fmt.Errorf("%w: expected kind %d", domain.ErrInvalidRequest, exp.Ref.Kind)
		}
	}
	if spec.Quantity != nil && *spec.Quantity == 0 {
		return domain.ErrInvalidQuantity
	}
	if spec.DstEquipSlot != nil && !spec.DstEquipSlot.Valid() {
		return fmt.Errorf("%w: slot %d", domain.ErrInvalidRequest, *spec.DstEquipSlot)
	}

	switch op.Action.(type) {
	case domain.Move:
		if !spec.Dst.Kind.Valid() {
			return fmt.Errorf("%w: dst kind %d", domain.ErrInvalidRequest, spec.Dst.Kind)
		}
		if spec.Src.Kind == domain.KindDroppedItem || spec.Dst.Kind == domain.KindDroppedItem {
			return fmt.Errorf("%w: move cannot touch dropped items", domain.ErrTargetInvalid)
		}
	case domain.DropToWorld:
		if spec.Src.Kind == domain.KindDroppedItem {
			return fmt.Errorf("%w: item is already in the world", domain.ErrTargetInvalid)
		}
	case domain.PickupFromWorld:
		if !spec.Dst.Kind.Valid() {
			return fmt.Errorf("%w: dst kind %d", domain.ErrInvalidRequest, spec.Dst.Kind)
		}
		if spec.Src.Kind != domain.KindDroppedItem {
			return fmt.Errorf("%w: pickup source must be a dropped item", domain.ErrTargetInvalid)
		}
		if spec.Dst.Kind == domain.KindDroppedItem {
			return fmt.Errorf("%w: pickup destination cannot be a dropped item", domain.ErrTargetInvalid)
		}
	}
	return nil
}

// authorize checks ownership and access for every ref the op touches.
func (p *Processor) authorize(actor domain.Actor, refs ...domain.InventoryRef) error {
	for _, ref := range refs {
		if ref.Kind == domain.KindDroppedItem {
			continue
		}
		if p.entities != nil && !p.entities.EntityExists(ref.OwnerEntityID) {
			return fmt.Errorf("%w: owner %d of %s", domain.ErrEntityNotFound, ref.OwnerEntityID, ref)
		}
		if p.opened == nil || ref.OwnerEntityID == actor.EntityID {
			continue
		}
		if !p.opened.IsOpen(actor.ID, ref) {
			return fmt.Errorf("%w: %s", domain.ErrCannotInteract, ref)
		}
	}
	return nil
}

// resolveQuantity returns how much of item moves and whether the stack splits.
func resolveQuantity(item domain.ItemInstance, requested *uint32) (uint32, bool, error) {
	if requested == nil {
		return item.Quantity, false, nil
	}
	q := *requested
	if q == 0 {
		return 0, false, domain.ErrInvalidQuantity
	}
	if q > item.Quantity {
		return 0, false, fmt.Errorf("%w: requested %d, have %d", domain.ErrInsufficientQuantity, q, item.Quantity)
	}
	return q, q < item.Quantity, nil
}

// callBridge runs fn with a deadline detached from the caller's cancellation.
// lateOK reports whether fn succeeded only after its deadline passed.
func (p *Processor) callBridge(ctx context.Context, call string, fn func(context.Context) error) (lateOK bool, err error) {
	if p.bridge == nil {
		return false, fmt.Errorf("%w: no world bridge configured", domain.ErrBridgeFailed)
	}
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.bridgeTimeout)
	defer cancel()

	start := time.Now()
	err = fn(callCtx)
	took := time.Since(start)
	expired := errors.Is(callCtx.Err(), context.DeadlineExceeded)

	switch {
	case err == nil && expired:
		metrics.ObserveBridgeCall(call, metrics.OutcomeTimeout, took)
		return true, nil
	case err == nil:
		metrics.ObserveBridgeCall(call, metrics.OutcomeOK, took)
		return false, nil
	case expired || errors.Is(err, context.DeadlineExceeded):
		metrics.ObserveBridgeCall(call, metrics.OutcomeTimeout, took)
		return false, fmt.Errorf("%w: %s after %s", domain.ErrBridgeTimeout, call, p.bridgeTimeout)
	default:
		metrics.ObserveBridgeCall(call, metrics.OutcomeError, took)
		return false, fmt.Errorf("%w: %s: %v", domain.ErrBridgeFailed, call, err)
	}
}
