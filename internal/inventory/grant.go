package inventory

import (
	"context"
	"fmt"

	"github.com/osse101/invengine/internal/domain"
	"github.com/osse101/invengine/internal/event"
	"github.com/osse101/invengine/internal/logger"
)

// Grant creates a new item of typeID in the first free spot of ref.
// It bypasses the idempotency cache; callers that retry must check the result first.
func (p *Processor) Grant(ctx context.Context, ref domain.InventoryRef, typeID, quality, quantity uint32) (*domain.InventoryState, error) {
	if ref.Kind != domain.KindGrid && ref.Kind != domain.KindHand {
		return nil, fmt.Errorf("%w: grants go to a grid or hand", domain.ErrTargetInvalid)
	}
	if quantity == 0 {
		return nil, domain.ErrInvalidQuantity
	}
	item, err := p.catalog.Instantiate(typeID, p.ids.Next(), quality, quantity)
	if err != nil {
		return nil, err
	}

	locks := p.store.Locks().Acquire([]domain.InventoryRef{ref}, nil)
	t := newTxn(p.store, locks)
	updated, err := p.grantLocked(t, ref, item)
	if err == nil && p.emitter != nil {
		p.emitter.Broadcast(ctx, "", updated)
	}
	locks.Release()
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info(LogMsgItemGranted,
		"ref", ref.String(), "item_id", item.ItemID, "type_id", typeID, "quantity", quantity)

	if p.bus != nil {
		p.publish(ctx, event.NewItemGrantedEvent(ref, item))
	}
	state := updated[0]
	return &state, nil
}

func (p *Processor) grantLocked(t *txn, ref domain.InventoryRef, item domain.ItemInstance) ([]domain.InventoryState, error) {
	st, err := t.view(ref)
	if err != nil {
		return nil, err
	}
	at, err := p.planner.FirstFree(st.Container, item)
	if err != nil {
		return nil, err
	}
	c, err := t.edit(ref)
	if err != nil {
		return nil, err
	}
	putItem(c, at, item)
	return t.commit()
}
