package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/invengine/internal/concurrency"
	"github.com/osse101/invengine/internal/domain"
)

func TestStore_CreateAndSnapshot(t *testing.T) {
	s := NewStore(concurrency.NewLockManager())
	ref := gridRef(playerA)

	st, err := s.Create(ref, &domain.GridState{Width: 3, Height: 3})
	require.NoError(t, err)
	assert.Equal(t, uint64(0), st.Revision)

	_, err = s.Create(ref, &domain.GridState{})
	assert.ErrorIs(t, err, ErrContainerExists)

	snap, err := s.Snapshot(ref)
	require.NoError(t, err)
	snap.Container.(*domain.GridState).Width = 99

	again, err := s.Snapshot(ref)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), again.Container.(*domain.GridState).Width, "snapshots are copies")

	_, err = s.Snapshot(handRef(playerA))
	assert.ErrorIs(t, err, domain.ErrContainerNotFound)
}

func TestStore_Resolve(t *testing.T) {
	s := NewStore(nil)
	s.EnsurePlayerContainers(playerA, 5, 4)

	ref, err := s.Resolve(playerA, domain.KindGrid, BackpackKey)
	require.NoError(t, err)
	assert.Equal(t, gridRef(playerA), ref)

	_, err = s.Resolve(playerA, domain.KindGrid, 7)
	assert.ErrorIs(t, err, domain.ErrContainerNotFound)
}

func TestStore_EnsurePlayerContainers(t *testing.T) {
	s := NewStore(nil)
	refs := s.EnsurePlayerContainers(playerA, 5, 4)
	require.Len(t, refs, 3)
	assert.Equal(t, 3, s.Len())

	grid, err := s.Snapshot(gridRef(playerA))
	require.NoError(t, err)
	assert.Equal(t, &domain.GridState{Width: 5, Height: 4}, grid.Container)

	// Existing containers are not reset.
	s.Load(&domain.InventoryState{Ref: handRef(playerA), Revision: 9, Container: &domain.HandState{}})
	s.EnsurePlayerContainers(playerA, 5, 4)
	hand, err := s.Snapshot(handRef(playerA))
	require.NoError(t, err)
	assert.Equal(t, uint64(9), hand.Revision)

	assert.Equal(t, []domain.InventoryRef{gridRef(playerA), handRef(playerA), equipRef(playerA)}, s.OwnedBy(playerA))
}

func TestStore_CommitRejectsDuplicateCreate(t *testing.T) {
	s := NewStore(nil)
	s.Load(&domain.InventoryState{Ref: domain.DroppedItemRef(5), Container: &domain.HandState{}})
	s.Load(&domain.InventoryState{Ref: gridRef(playerA), Revision: 1, Container: &domain.GridState{Width: 1, Height: 1}})

	updated := &domain.InventoryState{Ref: gridRef(playerA), Revision: 2, Container: &domain.GridState{Width: 1, Height: 1}}
	err := s.commit([]*domain.InventoryState{updated}, []*domain.InventoryState{{Ref: domain.DroppedItemRef(5)}}, nil)
	assert.ErrorIs(t, err, ErrContainerExists)

	st, _ := s.Snapshot(gridRef(playerA))
	assert.Equal(t, uint64(1), st.Revision, "a failed commit publishes nothing")
}

func TestRevisionGuard(t *testing.T) {
	s := NewStore(nil)
	s.Load(&domain.InventoryState{Ref: gridRef(playerA), Revision: 5, Container: &domain.GridState{}})
	s.Load(&domain.InventoryState{Ref: handRef(playerA), Revision: 2, Container: &domain.HandState{}})
	g := NewRevisionGuard(s)

	assert.NoError(t, g.Check(nil))
	assert.NoError(t, g.Check([]domain.Expected{
		{Ref: gridRef(playerA), ExpectedRevision: 5},
		{Ref: handRef(playerA), ExpectedRevision: 2},
	}))

	err := g.Check([]domain.Expected{
		{Ref: gridRef(playerA), ExpectedRevision: 5},
		{Ref: handRef(playerA), ExpectedRevision: 1},
	})
	assert.ErrorIs(t, err, domain.ErrRevisionMismatch)
	assert.Equal(t, domain.CodeInvalidRequest, domain.CodeOf(err))

	err = g.Check([]domain.Expected{{Ref: equipRef(playerA)}})
	assert.Equal(t, domain.CodeEntityNotFound, domain.CodeOf(err))
}

func TestIDAllocator(t *testing.T) {
	a := NewIDAllocator(10)
	assert.Equal(t, uint64(10), a.Next())
	assert.Equal(t, uint64(11), a.Next())

	a.Observe(5)
	assert.Equal(t, uint64(12), a.Next())

	a.Observe(100)
	assert.Equal(t, uint64(101), a.Next())
}
