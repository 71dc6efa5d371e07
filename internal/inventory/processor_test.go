package inventory

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/invengine/internal/domain"
)

func TestSubmit_MoveWithinGrid(t *testing.T) {
	f := newFixture(t)
	f.seedGrid(playerA, 4, 4, 5, domain.GridItem{X: 0, Y: 0, Item: item(42, typeStone, 1, 1, 1)})

	res := f.submit(t, actorOf(playerA), moveOp(1, domain.MoveSpec{
		Src: gridRef(playerA), Dst: gridRef(playerA), ItemID: 42, DstPos: pos(1, 1),
	}, domain.Expected{Ref: gridRef(playerA), ExpectedRevision: 5}))

	require.True(t, res.Success, res.Message)
	assert.Equal(t, domain.CodeNone, res.Error)
	require.Len(t, res.Updated, 1)
	assert.Equal(t, uint64(6), res.Updated[0].Revision)

	grid := res.Updated[0].Container.(*domain.GridState)
	require.Len(t, grid.Items, 1)
	assert.Equal(t, domain.GridItem{X: 1, Y: 1, Item: item(42, typeStone, 1, 1, 1)}, grid.Items[0])

	assert.Equal(t, uint64(6), f.snapshot(t, gridRef(playerA)).Revision)
}

func TestSubmit_WholeStackWithExplicitQuantity(t *testing.T) {
	const typeOre uint32 = 7
	f := newFixture(t)
	f.seedGrid(playerA, 4, 4, 5, domain.GridItem{X: 0, Y: 0, Item: item(42, typeOre, 10, 1, 1)})

	res := f.submit(t, actorOf(playerA), moveOp(1001, domain.MoveSpec{
		Src: gridRef(playerA), Dst: gridRef(playerA), ItemID: 42, DstPos: pos(1, 1), Quantity: u32(10),
	}, domain.Expected{Ref: gridRef(playerA), ExpectedRevision: 5}))

	require.True(t, res.Success, res.Message)
	assert.Equal(t, uint64(1001), res.OpID)
	require.Len(t, res.Updated, 1)
	assert.Equal(t, gridRef(playerA), res.Updated[0].Ref)
	assert.Equal(t, uint64(6), res.Updated[0].Revision)

	grid := res.Updated[0].Container.(*domain.GridState)
	require.Len(t, grid.Items, 1, "a whole-stack move does not split")
	assert.Equal(t, domain.GridItem{X: 1, Y: 1, Item: item(42, typeOre, 10, 1, 1)}, grid.Items[0])
	assert.Equal(t, uint64(10), f.totalQuantity(gridRef(playerA)))
}

// lockCheckingEmitter records fan-out calls and whether the containers were
// still locked when they arrived.
type lockCheckingEmitter struct {
	store    *Store
	excluded []string
	locked   []bool
}

func (e *lockCheckingEmitter) Broadcast(_ context.Context, excludeConn string, updated []domain.InventoryState) {
	e.excluded = append(e.excluded, excludeConn)
	for _, st := range updated {
		mu := e.store.Locks().GetLock(st.Ref)
		free := mu.TryLock()
		if free {
			mu.Unlock()
		}
		e.locked = append(e.locked, !free)
	}
}

func (e *lockCheckingEmitter) Closed(context.Context, domain.InventoryRef) {}

func TestSubmit_FansOutUnderLocksExcludingSubmittingConnection(t *testing.T) {
	em := &lockCheckingEmitter{}
	f := newFixture(t, WithEmitter(em))
	em.store = f.store
	f.seedGrid(playerA, 4, 4, 0, domain.GridItem{Item: item(42, typeStone, 5, 1, 1)})
	f.seedHand(playerA, nil)

	actor := actorOf(playerA)
	actor.ConnID = "conn-1"
	res := f.submit(t, actor, moveOp(1, domain.MoveSpec{Src: gridRef(playerA), Dst: handRef(playerA), ItemID: 42}))
	require.True(t, res.Success, res.Message)

	f.submit(t, actor, moveOp(1, domain.MoveSpec{Src: gridRef(playerA), Dst: handRef(playerA), ItemID: 42}))

	assert.Equal(t, []string{"conn-1"}, em.excluded, "replays do not fan out again")
	assert.Equal(t, []bool{true, true}, em.locked)
}

func TestSubmit_RevisionMismatch(t *testing.T) {
	f := newFixture(t)
	f.seedGrid(playerA, 4, 4, 5, domain.GridItem{X: 0, Y: 0, Item: item(42, typeStone, 1, 1, 1)})
	f.seedGrid(playerB, 4, 4, 2)

	res := f.submit(t, actorOf(playerA), moveOp(1, domain.MoveSpec{
		Src: gridRef(playerA), Dst: gridRef(playerB), ItemID: 42,
	},
		domain.Expected{Ref: gridRef(playerA), ExpectedRevision: 5},
		domain.Expected{Ref: gridRef(playerB), ExpectedRevision: 1},
	))

	assert.False(t, res.Success)
	assert.Equal(t, domain.CodeInvalidRequest, res.Error)
	assert.Contains(t, res.Message, domain.ErrMsgRevisionMismatch)
	assert.Empty(t, res.Updated)

	assert.Equal(t, uint64(5), f.snapshot(t, gridRef(playerA)).Revision)
	assert.Equal(t, uint64(2), f.snapshot(t, gridRef(playerB)).Revision)
	assert.Equal(t, uint64(1), f.totalQuantity(gridRef(playerA)))
}

func TestSubmit_ExpectedOnUnknownContainer(t *testing.T) {
	f := newFixture(t)
	f.seedGrid(playerA, 4, 4, 0, domain.GridItem{Item: item(42, typeStone, 1, 1, 1)})

	res := f.submit(t, actorOf(playerA), moveOp(1, domain.MoveSpec{
		Src: gridRef(playerA), Dst: gridRef(playerA), ItemID: 42, DstPos: pos(2, 2),
	}, domain.Expected{Ref: gridRef(999), ExpectedRevision: 0}))

	assert.False(t, res.Success)
	assert.Equal(t, domain.CodeEntityNotFound, res.Error)
}

func TestSubmit_RevisionsAdvanceByOne(t *testing.T) {
	f := newFixture(t)
	f.seedGrid(playerA, 4, 4, 0, domain.GridItem{Item: item(42, typeStone, 1, 1, 1)})

	var last uint64
	for i := uint64(1); i <= 5; i++ {
		res := f.submit(t, actorOf(playerA), moveOp(i, domain.MoveSpec{
			Src: gridRef(playerA), Dst: gridRef(playerA), ItemID: 42, DstPos: pos(uint32(i%4), 0),
		}))
		require.True(t, res.Success, res.Message)
		assert.Equal(t, last+1, res.Updated[0].Revision)
		last = res.Updated[0].Revision
	}

	// A rejected op leaves the revision alone.
	res := f.submit(t, actorOf(playerA), moveOp(99, domain.MoveSpec{
		Src: gridRef(playerA), Dst: gridRef(playerA), ItemID: 7,
	}))
	assert.False(t, res.Success)
	assert.Equal(t, last, f.snapshot(t, gridRef(playerA)).Revision)
}

func TestSubmit_IdempotentReplay(t *testing.T) {
	f := newFixture(t)
	f.seedGrid(playerA, 4, 4, 0, domain.GridItem{Item: item(42, typeStone, 10, 1, 1)})
	f.seedGrid(playerB, 4, 4, 0)

	op := moveOp(77, domain.MoveSpec{Src: gridRef(playerA), Dst: gridRef(playerB), ItemID: 42, Quantity: u32(4)})

	first := f.submit(t, actorOf(playerA), op)
	require.True(t, first.Success, first.Message)
	firstBytes, err := json.Marshal(first)
	require.NoError(t, err)

	second := f.submit(t, actorOf(playerA), op)
	secondBytes, err := json.Marshal(second)
	require.NoError(t, err)

	assert.Equal(t, firstBytes, secondBytes)
	assert.Equal(t, uint64(1), f.snapshot(t, gridRef(playerA)).Revision, "replay must not re-apply")
	assert.Equal(t, uint64(6), f.snapshot(t, gridRef(playerA)).TotalQuantity())
	assert.Equal(t, uint64(4), f.snapshot(t, gridRef(playerB)).TotalQuantity())
}

func TestSubmit_CachedFailureIsReplayed(t *testing.T) {
	f := newFixture(t)
	f.seedGrid(playerA, 2, 1, 0,
		domain.GridItem{X: 0, Y: 0, Item: item(1, typeStone, 1, 1, 1)},
		domain.GridItem{X: 1, Y: 0, Item: item(2, typeBerry, 1, 1, 1)},
	)
	op := moveOp(5, domain.MoveSpec{Src: gridRef(playerA), Dst: gridRef(playerA), ItemID: 1, DstPos: pos(1, 0)})

	first := f.submit(t, actorOf(playerA), op)
	require.False(t, first.Success)
	assert.Equal(t, domain.CodeInventoryFull, first.Error)

	// Clear the obstacle; the same op id still answers with the cached failure.
	f.p.Seed(&domain.InventoryState{
		Ref:       gridRef(playerA),
		Revision:  1,
		Container: &domain.GridState{Width: 2, Height: 1, Items: []domain.GridItem{{Item: item(1, typeStone, 1, 1, 1)}}},
	})
	second := f.submit(t, actorOf(playerA), op)
	assert.Same(t, first, second)
}

func TestSubmit_OpIDScopedPerActor(t *testing.T) {
	f := newFixture(t)
	f.seedGrid(playerA, 4, 4, 0, domain.GridItem{Item: item(1, typeStone, 1, 1, 1)})
	f.seedGrid(playerB, 4, 4, 0, domain.GridItem{Item: item(2, typeStone, 1, 1, 1)})

	resA := f.submit(t, actorOf(playerA), moveOp(1, domain.MoveSpec{Src: gridRef(playerA), Dst: gridRef(playerA), ItemID: 1, DstPos: pos(3, 3)}))
	resB := f.submit(t, actorOf(playerB), moveOp(1, domain.MoveSpec{Src: gridRef(playerB), Dst: gridRef(playerB), ItemID: 2, DstPos: pos(3, 3)}))

	assert.True(t, resA.Success)
	assert.True(t, resB.Success)
	assert.NotSame(t, resA, resB)
}

func TestSubmit_ConcurrentDuplicatesApplyOnce(t *testing.T) {
	f := newFixture(t)
	f.seedGrid(playerA, 4, 4, 0, domain.GridItem{Item: item(42, typeStone, 10, 1, 1)})
	f.seedGrid(playerB, 4, 4, 0)
	op := moveOp(9, domain.MoveSpec{Src: gridRef(playerA), Dst: gridRef(playerB), ItemID: 42, Quantity: u32(1)})

	const n = 16
	results := make([]*domain.OpResult, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := f.p.Submit(context.Background(), actorOf(playerA), op)
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	for _, res := range results {
		assert.Same(t, results[0], res)
	}
	assert.Equal(t, uint64(9), f.snapshot(t, gridRef(playerA)).TotalQuantity())
	assert.Equal(t, uint64(1), f.snapshot(t, gridRef(playerB)).Revision)
}

func TestSubmit_CancelledBeforeLocksIsNotRemembered(t *testing.T) {
	f := newFixture(t)
	f.seedGrid(playerA, 4, 4, 0, domain.GridItem{Item: item(42, typeStone, 1, 1, 1)})
	op := moveOp(3, domain.MoveSpec{Src: gridRef(playerA), Dst: gridRef(playerA), ItemID: 42, DstPos: pos(1, 0)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := f.p.Submit(ctx, actorOf(playerA), op)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)
	assert.Equal(t, 0, f.cache.Len())

	res = f.submit(t, actorOf(playerA), op)
	assert.True(t, res.Success)
}

func TestSubmit_PartialStackSplit(t *testing.T) {
	f := newFixture(t)
	f.seedGrid(playerA, 4, 4, 0, domain.GridItem{Item: item(42, typeStone, 10, 1, 1)})
	f.seedGrid(playerB, 4, 4, 0)

	res := f.submit(t, actorOf(playerA), moveOp(1, domain.MoveSpec{
		Src: gridRef(playerA), Dst: gridRef(playerB), ItemID: 42, Quantity: u32(3),
	}))
	require.True(t, res.Success, res.Message)
	require.Len(t, res.Updated, 2)
	assert.Equal(t, gridRef(playerA), res.Updated[0].Ref)
	assert.Equal(t, gridRef(playerB), res.Updated[1].Ref)

	src := res.Updated[0].Container.(*domain.GridState)
	dst := res.Updated[1].Container.(*domain.GridState)
	require.Len(t, src.Items, 1)
	require.Len(t, dst.Items, 1)

	assert.Equal(t, uint32(7), src.Items[0].Item.Quantity)
	assert.Equal(t, uint64(42), src.Items[0].Item.ItemID)
	assert.Equal(t, uint32(3), dst.Items[0].Item.Quantity)
	assert.NotEqual(t, uint64(42), dst.Items[0].Item.ItemID, "split stack needs a fresh id")
	assert.Equal(t, uint64(10), f.totalQuantity(gridRef(playerA), gridRef(playerB)))
}

func TestSubmit_QuantityChecks(t *testing.T) {
	tests := []struct {
		name     string
		itemID   uint64
		quantity *uint32
		want     domain.ErrorCode
	}{
		{"zero quantity", 42, u32(0), domain.CodeInvalidRequest},
		{"more than available", 42, u32(11), domain.CodeInsufficientResources},
		{"unknown item", 43, nil, domain.CodeEntityNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.seedGrid(playerA, 4, 4, 0, domain.GridItem{Item: item(42, typeStone, 10, 1, 1)})
			f.seedGrid(playerB, 4, 4, 0)

			res := f.submit(t, actorOf(playerA), moveOp(1, domain.MoveSpec{
				Src: gridRef(playerA), Dst: gridRef(playerB), ItemID: tt.itemID, Quantity: tt.quantity,
			}))
			assert.False(t, res.Success)
			assert.Equal(t, tt.want, res.Error)
			assert.Equal(t, uint64(0), f.snapshot(t, gridRef(playerA)).Revision)
		})
	}
}

func TestSubmit_MergeIntoStack(t *testing.T) {
	f := newFixture(t)
	f.seedGrid(playerA, 4, 4, 0,
		domain.GridItem{X: 0, Y: 0, Item: item(1, typeStone, 30, 1, 1)},
		domain.GridItem{X: 1, Y: 0, Item: item(2, typeStone, 15, 1, 1)},
	)

	res := f.submit(t, actorOf(playerA), moveOp(1, domain.MoveSpec{
		Src: gridRef(playerA), Dst: gridRef(playerA), ItemID: 2, DstPos: pos(0, 0), AllowSwapOrMerge: true,
	}))
	require.True(t, res.Success, res.Message)

	grid := res.Updated[0].Container.(*domain.GridState)
	require.Len(t, grid.Items, 1)
	assert.Equal(t, uint64(1), grid.Items[0].Item.ItemID)
	assert.Equal(t, uint32(45), grid.Items[0].Item.Quantity)
}

func TestSubmit_MergeOverflowRejected(t *testing.T) {
	f := newFixture(t)
	f.seedGrid(playerA, 4, 4, 0,
		domain.GridItem{X: 0, Y: 0, Item: item(1, typeStone, 40, 1, 1)},
		domain.GridItem{X: 1, Y: 0, Item: item(2, typeStone, 15, 1, 1)},
	)

	res := f.submit(t, actorOf(playerA), moveOp(1, domain.MoveSpec{
		Src: gridRef(playerA), Dst: gridRef(playerA), ItemID: 2, DstPos: pos(0, 0), AllowSwapOrMerge: true,
	}))
	assert.False(t, res.Success)
	assert.Equal(t, domain.CodeInventoryFull, res.Error)
	assert.Equal(t, uint64(55), f.totalQuantity(gridRef(playerA)))
}

func TestSubmit_CollisionWithoutSwapFlag(t *testing.T) {
	f := newFixture(t)
	f.seedGrid(playerA, 4, 4, 0,
		domain.GridItem{X: 0, Y: 0, Item: item(1, typeStone, 1, 1, 1)},
		domain.GridItem{X: 1, Y: 0, Item: item(2, typeBerry, 1, 1, 1)},
	)

	res := f.submit(t, actorOf(playerA), moveOp(1, domain.MoveSpec{
		Src: gridRef(playerA), Dst: gridRef(playerA), ItemID: 1, DstPos: pos(1, 0),
	}))
	assert.False(t, res.Success)
	assert.Equal(t, domain.CodeInventoryFull, res.Error)
	assert.Equal(t, uint64(0), f.snapshot(t, gridRef(playerA)).Revision)
}

func TestSubmit_SwapSingleCell(t *testing.T) {
	f := newFixture(t)
	f.seedGrid(playerA, 4, 4, 0,
		domain.GridItem{X: 0, Y: 0, Item: item(1, typeStone, 5, 1, 1)},
		domain.GridItem{X: 3, Y: 3, Item: item(2, typeBerry, 7, 1, 1)},
	)

	res := f.submit(t, actorOf(playerA), moveOp(1, domain.MoveSpec{
		Src: gridRef(playerA), Dst: gridRef(playerA), ItemID: 1, DstPos: pos(3, 3), AllowSwapOrMerge: true,
	}))
	require.True(t, res.Success, res.Message)

	grid := res.Updated[0].Container.(*domain.GridState)
	require.Len(t, grid.Items, 2)
	a, ok := grid.Find(1)
	require.True(t, ok)
	b, ok := grid.Find(2)
	require.True(t, ok)
	assert.Equal(t, uint32(5), a.Quantity)
	assert.Equal(t, uint32(7), b.Quantity)
	assert.Equal(t, uint32(3), grid.Items[grid.Index(1)].X)
	assert.Equal(t, uint32(0), grid.Items[grid.Index(2)].X)
}

func TestSubmit_SwapAcrossHandAndGrid(t *testing.T) {
	f := newFixture(t)
	berry := item(2, typeBerry, 3, 1, 1)
	f.seedGrid(playerA, 4, 4, 0, domain.GridItem{X: 2, Y: 2, Item: item(1, typeStone, 5, 1, 1)})
	f.seedHand(playerA, &berry)

	res := f.submit(t, actorOf(playerA), moveOp(1, domain.MoveSpec{
		Src: gridRef(playerA), Dst: handRef(playerA), ItemID: 1, AllowSwapOrMerge: true,
	}))
	require.True(t, res.Success, res.Message)

	hand := f.snapshot(t, handRef(playerA)).Container.(*domain.HandState)
	require.NotNil(t, hand.Item)
	assert.Equal(t, uint64(1), hand.Item.ItemID)

	grid := f.snapshot(t, gridRef(playerA)).Container.(*domain.GridState)
	require.Len(t, grid.Items, 1)
	assert.Equal(t, domain.GridItem{X: 2, Y: 2, Item: berry}, grid.Items[0])
}

func TestSubmit_SwapRequiresExactFootprint(t *testing.T) {
	f := newFixture(t)
	f.seedGrid(playerA, 4, 4, 0,
		domain.GridItem{X: 0, Y: 0, Item: item(1, typeLog, 1, 1, 2)},
		domain.GridItem{X: 2, Y: 0, Item: item(2, typeStone, 1, 1, 1)},
	)

	res := f.submit(t, actorOf(playerA), moveOp(1, domain.MoveSpec{
		Src: gridRef(playerA), Dst: gridRef(playerA), ItemID: 1, DstPos: pos(2, 0), AllowSwapOrMerge: true,
	}))
	assert.False(t, res.Success)
	assert.Equal(t, domain.CodeInventoryFull, res.Error)
}

func TestSubmit_PartialSwapRejected(t *testing.T) {
	f := newFixture(t)
	f.seedGrid(playerA, 4, 4, 0,
		domain.GridItem{X: 0, Y: 0, Item: item(1, typeStone, 5, 1, 1)},
		domain.GridItem{X: 1, Y: 0, Item: item(2, typeBerry, 5, 1, 1)},
	)

	res := f.submit(t, actorOf(playerA), moveOp(1, domain.MoveSpec{
		Src: gridRef(playerA), Dst: gridRef(playerA), ItemID: 1, DstPos: pos(1, 0), Quantity: u32(2), AllowSwapOrMerge: true,
	}))
	assert.False(t, res.Success)
	assert.Equal(t, domain.CodeInvalidRequest, res.Error)
}

func TestSubmit_OverlapWithTwoItems(t *testing.T) {
	f := newFixture(t)
	f.seedGrid(playerA, 4, 4, 0,
		domain.GridItem{X: 0, Y: 0, Item: item(1, typeCap, 1, 2, 2)},
		domain.GridItem{X: 2, Y: 0, Item: item(2, typeStone, 1, 1, 1)},
		domain.GridItem{X: 2, Y: 1, Item: item(3, typeStone, 1, 1, 1)},
	)

	res := f.submit(t, actorOf(playerA), moveOp(1, domain.MoveSpec{
		Src: gridRef(playerA), Dst: gridRef(playerA), ItemID: 1, DstPos: pos(2, 0), AllowSwapOrMerge: true,
	}))
	assert.False(t, res.Success)
	assert.Equal(t, domain.CodeInventoryFull, res.Error)
}

func TestSubmit_FirstFitWhenNoPosition(t *testing.T) {
	f := newFixture(t)
	f.seedGrid(playerA, 4, 4, 0, domain.GridItem{Item: item(1, typeLog, 1, 1, 2)})
	f.seedGrid(playerB, 2, 2, 0, domain.GridItem{X: 0, Y: 0, Item: item(2, typeStone, 1, 1, 1)})

	res := f.submit(t, actorOf(playerA), moveOp(1, domain.MoveSpec{Src: gridRef(playerA), Dst: gridRef(playerB), ItemID: 1}))
	require.True(t, res.Success, res.Message)

	dst := f.snapshot(t, gridRef(playerB)).Container.(*domain.GridState)
	i := dst.Index(1)
	require.GreaterOrEqual(t, i, 0)
	assert.Equal(t, uint32(1), dst.Items[i].X)
	assert.Equal(t, uint32(0), dst.Items[i].Y)
}

func TestSubmit_FirstFitNoSpace(t *testing.T) {
	f := newFixture(t)
	f.seedGrid(playerA, 4, 4, 0, domain.GridItem{Item: item(1, typeCap, 1, 2, 2)})
	f.seedGrid(playerB, 2, 2, 0, domain.GridItem{X: 1, Y: 1, Item: item(2, typeStone, 1, 1, 1)})

	res := f.submit(t, actorOf(playerA), moveOp(1, domain.MoveSpec{Src: gridRef(playerA), Dst: gridRef(playerB), ItemID: 1}))
	assert.False(t, res.Success)
	assert.Equal(t, domain.CodeInventoryFull, res.Error)
}

func TestSubmit_Equipment(t *testing.T) {
	tests := []struct {
		name   string
		itemID uint64
		slot   *domain.EquipSlot
		want   domain.ErrorCode
	}{
		{"sword to right hand", 1, slot(domain.EquipSlotRightHand), domain.CodeNone},
		{"slot required", 1, nil, domain.CodeInvalidRequest},
		{"slot NONE", 1, slot(domain.EquipSlotNone), domain.CodeInvalidRequest},
		{"sword on head", 1, slot(domain.EquipSlotHead), domain.CodeInvalidRequest},
		{"cap on head", 2, slot(domain.EquipSlotHead), domain.CodeNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.seedGrid(playerA, 4, 4, 0,
				domain.GridItem{X: 0, Y: 0, Item: item(1, typeSword, 1, 1, 3)},
				domain.GridItem{X: 1, Y: 0, Item: item(2, typeCap, 1, 2, 2)},
			)
			f.seedEquipment(playerA)

			res := f.submit(t, actorOf(playerA), moveOp(1, domain.MoveSpec{
				Src: gridRef(playerA), Dst: equipRef(playerA), ItemID: tt.itemID, DstEquipSlot: tt.slot,
			}))
			assert.Equal(t, tt.want, res.Error, res.Message)
			assert.Equal(t, tt.want == domain.CodeNone, res.Success)
		})
	}
}

func TestSubmit_EquipmentSwap(t *testing.T) {
	f := newFixture(t)
	f.seedGrid(playerA, 4, 4, 0, domain.GridItem{X: 0, Y: 0, Item: item(1, typeSword, 1, 1, 3)})
	f.seedEquipment(playerA, domain.EquipItem{Slot: domain.EquipSlotRightHand, Item: item(2, typeSword, 1, 1, 3)})

	res := f.submit(t, actorOf(playerA), moveOp(1, domain.MoveSpec{
		Src: gridRef(playerA), Dst: equipRef(playerA), ItemID: 1,
		DstEquipSlot: slot(domain.EquipSlotRightHand), AllowSwapOrMerge: true,
	}))
	require.True(t, res.Success, res.Message)

	eq := f.snapshot(t, equipRef(playerA)).Container.(*domain.EquipmentState)
	got, ok := eq.InSlot(domain.EquipSlotRightHand)
	require.True(t, ok)
	assert.Equal(t, uint64(1), got.ItemID)

	grid := f.snapshot(t, gridRef(playerA)).Container.(*domain.GridState)
	require.Len(t, grid.Items, 1)
	assert.Equal(t, uint64(2), grid.Items[0].Item.ItemID)
}

func TestSubmit_AdmissionRules(t *testing.T) {
	f := newFixture(t)
	boulder := item(1, typeBigBox, 1, 2, 2)
	f.seedHand(playerA, &boulder)
	f.seedGrid(playerA, 4, 4, 0)

	res := f.submit(t, actorOf(playerA), moveOp(1, domain.MoveSpec{Src: handRef(playerA), Dst: gridRef(playerA), ItemID: 1}))
	assert.False(t, res.Success)
	assert.Equal(t, domain.CodeInvalidRequest, res.Error)
}

func TestSubmit_ShapeRejections(t *testing.T) {
	dropped := domain.DroppedItemRef(500)
	tests := []struct {
		name string
		op   domain.InventoryOp
		want domain.ErrorCode
	}{
		{"no action", domain.InventoryOp{OpID: 1}, domain.CodeInvalidRequest},
		{"move from dropped", moveOp(1, domain.MoveSpec{Src: dropped, Dst: gridRef(playerA), ItemID: 1}), domain.CodeTargetInvalid},
		{"move to dropped", moveOp(1, domain.MoveSpec{Src: gridRef(playerA), Dst: dropped, ItemID: 1}), domain.CodeTargetInvalid},
		{"drop from dropped", dropOp(1, domain.MoveSpec{Src: dropped, ItemID: 1}), domain.CodeTargetInvalid},
		{"pickup from grid", pickupOp(1, domain.MoveSpec{Src: gridRef(playerB), Dst: gridRef(playerA), ItemID: 1}), domain.CodeTargetInvalid},
		{"pickup into dropped", pickupOp(1, domain.MoveSpec{Src: dropped, Dst: domain.DroppedItemRef(501), ItemID: 1}), domain.CodeTargetInvalid},
		{"bad kind", moveOp(1, domain.MoveSpec{Src: domain.InventoryRef{Kind: 9}, Dst: gridRef(playerA), ItemID: 1}), domain.CodeInvalidRequest},
		{"bad slot", moveOp(1, domain.MoveSpec{Src: gridRef(playerA), Dst: equipRef(playerA), ItemID: 1, DstEquipSlot: slot(42)}), domain.CodeInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.seedGrid(playerA, 4, 4, 0, domain.GridItem{Item: item(1, typeStone, 1, 1, 1)})

			res := f.submit(t, actorOf(playerA), tt.op)
			assert.False(t, res.Success)
			assert.Equal(t, tt.want, res.Error, res.Message)
			assert.Equal(t, uint64(0), f.snapshot(t, gridRef(playerA)).Revision)
		})
	}
}

func TestSubmit_MissingContainer(t *testing.T) {
	f := newFixture(t)
	f.seedGrid(playerA, 4, 4, 0, domain.GridItem{Item: item(1, typeStone, 1, 1, 1)})

	res := f.submit(t, actorOf(playerA), moveOp(1, domain.MoveSpec{Src: gridRef(playerA), Dst: handRef(playerA), ItemID: 1}))
	assert.False(t, res.Success)
	assert.Equal(t, domain.CodeEntityNotFound, res.Error)
}

type fakeEntities map[uint64]bool

func (f fakeEntities) EntityExists(id uint64) bool { return f[id] }

type fakeOpened map[domain.InventoryRef]uint64

func (f fakeOpened) IsOpen(actorID uint64, ref domain.InventoryRef) bool { return f[ref] == actorID }

type fakeReach bool

func (f fakeReach) WithinReach(_, _ uint64) bool { return bool(f) }

func TestSubmit_OwnerEntityGone(t *testing.T) {
	f := newFixture(t, WithEntityDirectory(fakeEntities{playerA: true}))
	f.seedGrid(playerA, 4, 4, 0, domain.GridItem{Item: item(1, typeStone, 1, 1, 1)})
	f.seedGrid(playerB, 4, 4, 0)

	res := f.submit(t, actorOf(playerA), moveOp(1, domain.MoveSpec{Src: gridRef(playerA), Dst: gridRef(playerB), ItemID: 1}))
	assert.False(t, res.Success)
	assert.Equal(t, domain.CodeEntityNotFound, res.Error)
}

func TestSubmit_AccessPolicy(t *testing.T) {
	chest := domain.InventoryRef{Kind: domain.KindGrid, OwnerEntityID: 900, InventoryKey: 1}

	t.Run("foreign container is off limits", func(t *testing.T) {
		f := newFixture(t, WithAccessPolicy(fakeOpened{}))
		f.seedGrid(playerA, 4, 4, 0, domain.GridItem{Item: item(1, typeStone, 1, 1, 1)})
		f.p.Seed(&domain.InventoryState{Ref: chest, Container: &domain.GridState{Width: 4, Height: 4}})

		res := f.submit(t, actorOf(playerA), moveOp(1, domain.MoveSpec{Src: gridRef(playerA), Dst: chest, ItemID: 1}))
		assert.Equal(t, domain.CodeCannotInteract, res.Error)
	})

	t.Run("opened container is allowed", func(t *testing.T) {
		f := newFixture(t, WithAccessPolicy(fakeOpened{chest: playerA}))
		f.seedGrid(playerA, 4, 4, 0, domain.GridItem{Item: item(1, typeStone, 1, 1, 1)})
		f.p.Seed(&domain.InventoryState{Ref: chest, Container: &domain.GridState{Width: 4, Height: 4}})

		res := f.submit(t, actorOf(playerA), moveOp(1, domain.MoveSpec{Src: gridRef(playerA), Dst: chest, ItemID: 1}))
		assert.True(t, res.Success, res.Message)
	})
}

func TestSubmit_OppositeTransfersDoNotDeadlock(t *testing.T) {
	f := newFixture(t)
	f.seedGrid(playerA, 8, 8, 0, domain.GridItem{Item: item(1, typeStone, 1, 1, 1)})
	f.seedGrid(playerB, 8, 8, 0, domain.GridItem{Item: item(2, typeStone, 1, 1, 1)})

	const rounds = 200
	var wg sync.WaitGroup
	shuttle := func(actor domain.Actor, itemID uint64, from, to domain.InventoryRef) {
		defer wg.Done()
		for i := uint64(0); i < rounds; i++ {
			src, dst := from, to
			if i%2 == 1 {
				src, dst = to, from
			}
			res, err := f.p.Submit(context.Background(), actor, moveOp(i+1, domain.MoveSpec{Src: src, Dst: dst, ItemID: itemID}))
			assert.NoError(t, err)
			assert.True(t, res.Success, res.Message)
		}
	}
	wg.Add(2)
	go shuttle(domain.Actor{ID: 1, EntityID: playerA}, 1, gridRef(playerA), gridRef(playerB))
	go shuttle(domain.Actor{ID: 2, EntityID: playerB}, 2, gridRef(playerB), gridRef(playerA))
	wg.Wait()

	assert.Equal(t, uint64(2), f.totalQuantity(gridRef(playerA), gridRef(playerB)))
	assert.Equal(t, uint64(2*rounds), f.snapshot(t, gridRef(playerA)).Revision)
}
