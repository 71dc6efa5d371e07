package inventory

import (
	"context"
	"fmt"

	"github.com/osse101/invengine/internal/domain"
	"github.com/osse101/invengine/internal/event"
	"github.com/osse101/invengine/internal/logger"
	"github.com/osse101/invengine/internal/metrics"
)

// ExpireDropped removes a dropped item that has lain in the world too long.
// It competes with pickups through the same container lock, so an item is
// either picked up or expired, never both.
func (p *Processor) ExpireDropped(ctx context.Context, entityID uint64) error {
	ref := domain.DroppedItemRef(entityID)
	locks := p.store.Locks().Acquire([]domain.InventoryRef{ref}, nil)
	t := newTxn(p.store, locks)
	item, err := p.expireLocked(ctx, t, ref)
	if err == nil && p.emitter != nil {
		p.emitter.Closed(ctx, ref)
	}
	locks.Release()
	if err != nil {
		return err
	}
	p.store.Locks().Forget(ref)

	logger.FromContext(ctx).Info(LogMsgItemExpired, "entity_id", entityID, "item_id", item.ItemID)
	if p.bus != nil {
		p.publish(ctx, event.NewItemExpiredEvent(entityID, item))
	}
	return nil
}

func (p *Processor) expireLocked(ctx context.Context, t *txn, ref domain.InventoryRef) (domain.ItemInstance, error) {
	st, err := t.view(ref)
	if err != nil {
		return domain.ItemInstance{}, err
	}
	var item domain.ItemInstance
	if h, ok := st.Container.(*domain.HandState); ok && h.Item != nil {
		item = *h.Item
	}
	if _, err := p.callBridge(ctx, metrics.CallDespawn, func(callCtx context.Context) error {
		return p.bridge.DespawnEntity(callCtx, ref.OwnerEntityID)
	}); err != nil {
		return domain.ItemInstance{}, err
	}
	t.remove(ref)
	if _, err := t.commit(); err != nil {
		return domain.ItemInstance{}, fmt.Errorf("%w: %v", domain.ErrInternal, err)
	}
	return item, nil
}
