package inventory

import (
	"fmt"

	"github.com/osse101/invengine/internal/concurrency"
	"github.com/osse101/invengine/internal/domain"
	"github.com/osse101/invengine/internal/event"
)

// txn stages edits on private copies of the locked containers. Nothing is
// visible to other ops until commit publishes every copy in one step.
type txn struct {
	store   *Store
	locks   *concurrency.LockSet
	work    map[domain.InventoryRef]*domain.InventoryState
	order   []domain.InventoryRef
	created []*domain.InventoryState
	removed []domain.InventoryRef
	events  []event.Event
}

func newTxn(store *Store, locks *concurrency.LockSet) *txn {
	return &txn{
		store: store,
		locks: locks,
		work:  make(map[domain.InventoryRef]*domain.InventoryState, 2),
	}
}

// view returns the state of ref as seen by this transaction. It must not be mutated.
func (t *txn) view(ref domain.InventoryRef) (*domain.InventoryState, error) {
	if held, _ := t.locks.Holds(ref); !held {
		return nil, fmt.Errorf("%w: %s read without lock", domain.ErrInternal, ref)
	}
	if st, ok := t.work[ref]; ok {
		return st, nil
	}
	st, ok := t.store.current(ref)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrContainerNotFound, ref)
	}
	return st, nil
}

// edit returns a mutable container for ref, copying it on first use.
func (t *txn) edit(ref domain.InventoryRef) (domain.Container, error) {
	if _, write := t.locks.Holds(ref); !write {
		return nil, fmt.Errorf("%w: %s edited without write lock", domain.ErrInternal, ref)
	}
	if st, ok := t.work[ref]; ok {
		return st.Container, nil
	}
	base, ok := t.store.current(ref)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrContainerNotFound, ref)
	}
	st := base.Clone()
	t.work[ref] = st
	t.order = append(t.order, ref)
	return st.Container, nil
}

// create stages a new container at revision 0.
func (t *txn) create(ref domain.InventoryRef, c domain.Container) {
	t.created = append(t.created, &domain.InventoryState{Ref: ref, Revision: 0, Container: c})
}

// remove stages the destruction of ref.
func (t *txn) remove(ref domain.InventoryRef) {
	t.removed = append(t.removed, ref)
}

// publish queues an event to be sent once the locks are released.
func (t *txn) publish(evt event.Event) {
	t.events = append(t.events, evt)
}

func (t *txn) isRemoved(ref domain.InventoryRef) bool {
	for _, r := range t.removed {
		if r == ref {
			return true
		}
	}
	return false
}

// commit bumps the revision of every edited container and publishes the lot.
// The returned snapshots share containers with the store; both are immutable.
func (t *txn) commit() ([]domain.InventoryState, error) {
	updated := make([]*domain.InventoryState, 0, len(t.order))
	for _, ref := range t.order {
		if t.isRemoved(ref) {
			continue
		}
		st := t.work[ref]
		st.Revision++
		updated = append(updated, st)
	}

	if err := t.store.commit(updated, t.created, t.removed); err != nil {
		return nil, err
	}

	out := make([]domain.InventoryState, 0, len(updated)+len(t.created))
	for _, st := range updated {
		out = append(out, *st)
	}
	for _, st := range t.created {
		out = append(out, *st)
	}
	return out, nil
}
