package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/osse101/invengine/internal/concurrency"
	"github.com/osse101/invengine/internal/domain"
	"github.com/osse101/invengine/internal/idempotency"
	"github.com/osse101/invengine/internal/itemdefs"
)

const (
	typeLog    uint32 = 1
	typeStone  uint32 = 2
	typeSword  uint32 = 3
	typeCap    uint32 = 4
	typeBerry  uint32 = 5
	typeBigBox uint32 = 6

	playerA uint64 = 100
	playerB uint64 = 200
)

func boolPtr(b bool) *bool { return &b }

func u32(v uint32) *uint32 { return &v }

func pos(x, y uint32) *domain.GridPos { return &domain.GridPos{X: x, Y: y} }

func slot(s domain.EquipSlot) *domain.EquipSlot { return &s }

func testCatalog() *itemdefs.Catalog {
	return itemdefs.NewCatalog([]itemdefs.ItemDef{
		{TypeID: typeLog, Key: "wood_log", Size: itemdefs.Size{W: 1, H: 2}, Stack: &itemdefs.Stack{Mode: itemdefs.StackModeStack, Max: 20}},
		{TypeID: typeStone, Key: "stone", Size: itemdefs.Size{W: 1, H: 1}, Stack: &itemdefs.Stack{Mode: itemdefs.StackModeStack, Max: 50}},
		{TypeID: typeSword, Key: "iron_sword", Size: itemdefs.Size{W: 1, H: 3},
			Allowed: itemdefs.Allowed{EquipmentSlots: []string{"right_hand", "back"}}},
		{TypeID: typeCap, Key: "leather_cap", Size: itemdefs.Size{W: 2, H: 2},
			Allowed: itemdefs.Allowed{EquipmentSlots: []string{"head"}}},
		{TypeID: typeBerry, Key: "berry", Size: itemdefs.Size{W: 1, H: 1}, Stack: &itemdefs.Stack{Mode: itemdefs.StackModeStack, Max: 99}},
		{TypeID: typeBigBox, Key: "boulder", Size: itemdefs.Size{W: 2, H: 2},
			Allowed: itemdefs.Allowed{Hand: boolPtr(true), Grid: boolPtr(false)}},
	}, 0)
}

// MockBridge is a testify mock of WorldBridge.
type MockBridge struct {
	mock.Mock
}

func (m *MockBridge) SpawnDroppedItem(ctx context.Context, item domain.ItemInstance, origin uint64) (uint64, error) {
	args := m.Called(ctx, item, origin)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockBridge) DespawnEntity(ctx context.Context, entityID uint64) error {
	args := m.Called(ctx, entityID)
	return args.Error(0)
}

type fixture struct {
	p      *Processor
	store  *Store
	bridge *MockBridge
	cache  *idempotency.Cache
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	store := NewStore(concurrency.NewLockManager())
	cache := idempotency.New(1024, time.Minute)
	bridge := &MockBridge{}
	t.Cleanup(func() { bridge.AssertExpectations(t) })
	return &fixture{
		p:      NewProcessor(store, cache, testCatalog(), bridge, opts...),
		store:  store,
		bridge: bridge,
		cache:  cache,
	}
}

func gridRef(owner uint64) domain.InventoryRef {
	return domain.InventoryRef{Kind: domain.KindGrid, OwnerEntityID: owner, InventoryKey: BackpackKey}
}

func handRef(owner uint64) domain.InventoryRef {
	return domain.InventoryRef{Kind: domain.KindHand, OwnerEntityID: owner}
}

func equipRef(owner uint64) domain.InventoryRef {
	return domain.InventoryRef{Kind: domain.KindEquipment, OwnerEntityID: owner}
}

func item(id uint64, typeID, qty, w, h uint32) domain.ItemInstance {
	return domain.ItemInstance{ItemID: id, TypeID: typeID, Quantity: qty, W: w, H: h}
}

func (f *fixture) seedGrid(owner uint64, w, h uint32, rev uint64, items ...domain.GridItem) {
	f.p.Seed(&domain.InventoryState{
		Ref:       gridRef(owner),
		Revision:  rev,
		Container: &domain.GridState{Width: w, Height: h, Items: items},
	})
}

func (f *fixture) seedHand(owner uint64, it *domain.ItemInstance) {
	f.p.Seed(&domain.InventoryState{Ref: handRef(owner), Container: &domain.HandState{Item: it}})
}

func (f *fixture) seedEquipment(owner uint64, items ...domain.EquipItem) {
	f.p.Seed(&domain.InventoryState{Ref: equipRef(owner), Container: &domain.EquipmentState{Items: items}})
}

func (f *fixture) snapshot(t *testing.T, ref domain.InventoryRef) *domain.InventoryState {
	t.Helper()
	st, err := f.store.Snapshot(ref)
	require.NoError(t, err)
	return st
}

func (f *fixture) submit(t *testing.T, actor domain.Actor, op domain.InventoryOp) *domain.OpResult {
	t.Helper()
	res, err := f.p.Submit(context.Background(), actor, op)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func actorOf(entity uint64) domain.Actor {
	return domain.Actor{ID: entity, EntityID: entity}
}

func moveOp(opID uint64, spec domain.MoveSpec, expected ...domain.Expected) domain.InventoryOp {
	return domain.InventoryOp{OpID: opID, Expected: expected, Action: domain.Move{Spec: spec}}
}

func dropOp(opID uint64, spec domain.MoveSpec) domain.InventoryOp {
	return domain.InventoryOp{OpID: opID, Action: domain.DropToWorld{Spec: spec}}
}

func pickupOp(opID uint64, spec domain.MoveSpec) domain.InventoryOp {
	return domain.InventoryOp{OpID: opID, Action: domain.PickupFromWorld{Spec: spec}}
}

// totalQuantity sums quantities across refs, skipping refs that no longer exist.
func (f *fixture) totalQuantity(refs ...domain.InventoryRef) uint64 {
	var total uint64
	for _, ref := range refs {
		if st, err := f.store.Snapshot(ref); err == nil {
			total += st.TotalQuantity()
		}
	}
	return total
}
