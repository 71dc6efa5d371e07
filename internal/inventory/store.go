package inventory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/osse101/invengine/internal/concurrency"
	"github.com/osse101/invengine/internal/domain"
)

// Store holds the current state of every container.
//
// Published states are immutable: writers build new InventoryState values and
// swap them in with commit. Per-container locks from the LockManager serialize
// read-modify-write cycles; mu only guards the map itself.
type Store struct {
	mu     sync.RWMutex
	states map[domain.InventoryRef]*domain.InventoryState
	locks  *concurrency.LockManager
}

// NewStore creates an empty store.
func NewStore(locks *concurrency.LockManager) *Store {
	if locks == nil {
		locks = concurrency.NewLockManager()
	}
	return &Store{
		states: make(map[domain.InventoryRef]*domain.InventoryState),
		locks:  locks,
	}
}

// Locks returns the lock manager guarding the store's containers.
func (s *Store) Locks() *concurrency.LockManager {
	return s.locks
}

// Create adds an empty container at revision 0.
func (s *Store) Create(ref domain.InventoryRef, container domain.Container) (*domain.InventoryState, error) {
	if !ref.Kind.Valid() {
		return nil, fmt.Errorf("%w: kind %d", domain.ErrInvalidRequest, ref.Kind)
	}
	state := &domain.InventoryState{Ref: ref, Revision: 0, Container: container}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.states[ref]; exists {
		return nil, fmt.Errorf("%w: %s", ErrContainerExists, ref)
	}
	s.states[ref] = state
	return state.Clone(), nil
}

// Load installs a state with an explicit revision, replacing any existing one.
// Used for seeding and restoring; ops never call it.
func (s *Store) Load(state *domain.InventoryState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.Ref] = state.Clone()
}

// Snapshot returns a copy of the current state of ref.
func (s *Store) Snapshot(ref domain.InventoryRef) (*domain.InventoryState, error) {
	s.mu.RLock()
	state, ok := s.states[ref]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrContainerNotFound, ref)
	}
	return state.Clone(), nil
}

// Exists reports whether ref is a live container.
func (s *Store) Exists(ref domain.InventoryRef) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.states[ref]
	return ok
}

// Resolve maps (entity, kind, key) to a live container ref.
func (s *Store) Resolve(entityID uint64, kind domain.InventoryKind, key uint32) (domain.InventoryRef, error) {
	ref := domain.InventoryRef{Kind: kind, OwnerEntityID: entityID, InventoryKey: key}
	if !s.Exists(ref) {
		return domain.InventoryRef{}, fmt.Errorf("%w: %s", domain.ErrContainerNotFound, ref)
	}
	return ref, nil
}

// OwnedBy lists the containers owned by entityID in ref order.
func (s *Store) OwnedBy(entityID uint64) []domain.InventoryRef {
	s.mu.RLock()
	var refs []domain.InventoryRef
	for ref := range s.states {
		if ref.OwnerEntityID == entityID {
			refs = append(refs, ref)
		}
	}
	s.mu.RUnlock()
	sort.Slice(refs, func(i, j int) bool { return refs[i].Less(refs[j]) })
	return refs
}

// Len returns the number of live containers.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}

// EnsurePlayerContainers creates the default backpack grid, hand and equipment
// containers for a player entity. Existing containers are left untouched.
func (s *Store) EnsurePlayerContainers(entityID uint64, width, height uint32) []domain.InventoryRef {
	refs := PlayerContainerRefs(entityID)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ref := range refs {
		if _, ok := s.states[ref]; ok {
			continue
		}
		s.states[ref] = &domain.InventoryState{
			Ref:       ref,
			Container: domain.NewContainer(ref.Kind, width, height),
		}
	}
	return refs
}

// PlayerContainerRefs returns the refs of a player's default containers.
func PlayerContainerRefs(entityID uint64) []domain.InventoryRef {
	return []domain.InventoryRef{
		{Kind: domain.KindGrid, OwnerEntityID: entityID, InventoryKey: BackpackKey},
		{Kind: domain.KindHand, OwnerEntityID: entityID},
		{Kind: domain.KindEquipment, OwnerEntityID: entityID},
	}
}

// current returns the published state without copying. Callers must hold the
// container lock and must not mutate the result.
func (s *Store) current(ref domain.InventoryRef) (*domain.InventoryState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[ref]
	return state, ok
}

// commit publishes updated and created states and drops removed refs in one step.
func (s *Store) commit(updated, created []*domain.InventoryState, removed []domain.InventoryRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, st := range created {
		if _, exists := s.states[st.Ref]; exists {
			return fmt.Errorf("%w: %s", ErrContainerExists, st.Ref)
		}
	}
	for _, st := range updated {
		s.states[st.Ref] = st
	}
	for _, st := range created {
		s.states[st.Ref] = st
	}
	for _, ref := range removed {
		delete(s.states, ref)
	}
	return nil
}
