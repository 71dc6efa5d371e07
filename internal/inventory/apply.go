package inventory

import (
	"context"
	"fmt"

	"github.com/osse101/invengine/internal/domain"
	"github.com/osse101/invengine/internal/event"
	"github.com/osse101/invengine/internal/logger"
	"github.com/osse101/invengine/internal/metrics"
)

// source is an item resolved inside its source container.
type source struct {
	item    domain.ItemInstance
	from    location
	qty     uint32
	partial bool
}

func (p *Processor) resolveSource(t *txn, spec domain.MoveSpec) (source, error) {
	src, err := t.view(spec.Src)
	if err != nil {
		return source{}, err
	}
	item, from, ok := locate(src.Container, spec.ItemID)
	if !ok {
		return source{}, fmt.Errorf("%w: item %d in %s", domain.ErrItemNotFound, spec.ItemID, spec.Src)
	}
	qty, partial, err := resolveQuantity(item, spec.Quantity)
	if err != nil {
		return source{}, err
	}
	return source{item: item, from: from, qty: qty, partial: partial}, nil
}

// moving is the instance that will land in the destination.
func (s source) moving() domain.ItemInstance {
	m := s.item
	m.Quantity = s.qty
	return m
}

// place writes s into dst according to plan. Split stacks get a fresh id.
func (p *Processor) place(srcC, dstC domain.Container, s source, plan placement) domain.ItemInstance {
	m := s.moving()
	switch plan.mode {
	case placeMerge:
		takeQuantity(srcC, s.item.ItemID, s.qty)
		addQuantity(dstC, plan.occupant.ItemID, s.qty)
	case placeSwap:
		takeQuantity(srcC, s.item.ItemID, s.item.Quantity)
		takeQuantity(dstC, plan.occupant.ItemID, plan.occupant.Quantity)
		putItem(srcC, s.from, plan.occupant)
		putItem(dstC, plan.at, s.item)
	default:
		takeQuantity(srcC, s.item.ItemID, s.qty)
		if s.partial {
			m.ItemID = p.ids.Next()
		}
		putItem(dstC, plan.at, m)
	}
	return m
}

func (p *Processor) applyMove(actor domain.Actor, spec domain.MoveSpec, t *txn) ([]domain.InventoryState, error) {
	if err := p.authorize(actor, spec.Src, spec.Dst); err != nil {
		return nil, err
	}
	s, err := p.resolveSource(t, spec)
	if err != nil {
		return nil, err
	}
	dst, err := t.view(spec.Dst)
	if err != nil {
		return nil, err
	}

	plan, err := p.planner.Plan(dst.Container, placementRequest{
		moving:     s.moving(),
		sourceID:   s.item.ItemID,
		partial:    s.partial,
		sameOrigin: spec.Src == spec.Dst,
		pos:        spec.DstPos,
		slot:       spec.DstEquipSlot,
		allowMerge: spec.AllowSwapOrMerge,
		allowSwap:  spec.AllowSwapOrMerge,
	})
	if err != nil {
		return nil, err
	}
	if plan.mode == placeSwap {
		src, _ := t.view(spec.Src)
		if err := p.planner.CheckSwapBack(src.Container, s.from, plan.occupant, s.item.ItemID); err != nil {
			return nil, err
		}
	}

	srcC, err := t.edit(spec.Src)
	if err != nil {
		return nil, err
	}
	dstC := srcC
	if spec.Dst != spec.Src {
		if dstC, err = t.edit(spec.Dst); err != nil {
			return nil, err
		}
	}
	p.place(srcC, dstC, s, plan)
	return t.commit()
}

func (p *Processor) applyDrop(ctx context.Context, actor domain.Actor, spec domain.MoveSpec, t *txn) ([]domain.InventoryState, uint64, error) {
	if err := p.authorize(actor, spec.Src); err != nil {
		return nil, 0, err
	}
	s, err := p.resolveSource(t, spec)
	if err != nil {
		return nil, 0, err
	}

	srcC, err := t.edit(spec.Src)
	if err != nil {
		return nil, 0, err
	}
	dropped := s.moving()
	if s.partial {
		dropped.ItemID = p.ids.Next()
	}
	takeQuantity(srcC, s.item.ItemID, s.qty)

	var entityID uint64
	late, err := p.callBridge(ctx, metrics.CallSpawn, func(callCtx context.Context) error {
		id, err := p.bridge.SpawnDroppedItem(callCtx, dropped, actor.EntityID)
		entityID = id
		return err
	})
	if err != nil {
		logger.FromContext(ctx).Warn(LogMsgSpawnFailed, logger.AttrKeyError, err)
		return nil, 0, err
	}
	if late {
		p.compensate(ctx, entityID)
		return nil, 0, fmt.Errorf("%w: spawn completed after %s", domain.ErrBridgeTimeout, p.bridgeTimeout)
	}

	ref := domain.DroppedItemRef(entityID)
	t.create(ref, &domain.HandState{Item: &dropped})
	updated, err := t.commit()
	if err != nil {
		p.compensate(ctx, entityID)
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrInternal, err)
	}
	t.publish(event.NewItemDroppedEvent(actor.ID, entityID, dropped))
	return updated, entityID, nil
}

func (p *Processor) applyPickup(ctx context.Context, actor domain.Actor, spec domain.MoveSpec, t *txn) ([]domain.InventoryState, *uint64, error) {
	if err := p.authorize(actor, spec.Dst); err != nil {
		return nil, nil, err
	}
	entityID := spec.Src.OwnerEntityID
	if _, err := t.view(spec.Src); err != nil {
		return nil, nil, err
	}
	if p.reach != nil && !p.reach.WithinReach(actor.EntityID, entityID) {
		return nil, nil, fmt.Errorf("%w: entity %d", domain.ErrOutOfRange, entityID)
	}

	s, err := p.resolveSource(t, spec)
	if err != nil {
		return nil, nil, err
	}
	dst, err := t.view(spec.Dst)
	if err != nil {
		return nil, nil, err
	}
	plan, err := p.planner.Plan(dst.Container, placementRequest{
		moving:     s.moving(),
		sourceID:   s.item.ItemID,
		partial:    s.partial,
		pos:        spec.DstPos,
		slot:       spec.DstEquipSlot,
		allowMerge: spec.AllowSwapOrMerge,
	})
	if err != nil {
		return nil, nil, err
	}

	srcC, err := t.edit(spec.Src)
	if err != nil {
		return nil, nil, err
	}
	dstC, err := t.edit(spec.Dst)
	if err != nil {
		return nil, nil, err
	}
	picked := p.place(srcC, dstC, s, plan)

	var despawned *uint64
	if !s.partial {
		// Placement already succeeded on the working copies; only now may the entity go.
		if _, err := p.callBridge(ctx, metrics.CallDespawn, func(callCtx context.Context) error {
			return p.bridge.DespawnEntity(callCtx, entityID)
		}); err != nil {
			logger.FromContext(ctx).Warn(LogMsgDespawnFailed, logger.AttrKeyError, err)
			return nil, nil, err
		}
		t.remove(spec.Src)
		despawned = &entityID
	}

	updated, err := t.commit()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrInternal, err)
	}
	t.publish(event.NewItemPickedUpEvent(actor.ID, entityID, picked))
	return updated, despawned, nil
}

// compensate undoes a spawn whose result can no longer be committed.
func (p *Processor) compensate(ctx context.Context, entityID uint64) {
	log := logger.FromContext(ctx)
	log.Warn(LogMsgCompensate, "entity_id", entityID)
	if _, err := p.callBridge(ctx, metrics.CallDespawn, func(callCtx context.Context) error {
		return p.bridge.DespawnEntity(callCtx, entityID)
	}); err != nil {
		log.Error(LogMsgCompensateFail, "entity_id", entityID, logger.AttrKeyError, err)
	}
}
