package inventory

import (
	"fmt"

	"github.com/osse101/invengine/internal/domain"
)

// RevisionGuard checks optimistic-concurrency preconditions.
// It must run while the caller holds locks on every expected ref.
type RevisionGuard struct {
	store *Store
}

// NewRevisionGuard creates a guard over store.
func NewRevisionGuard(store *Store) *RevisionGuard {
	return &RevisionGuard{store: store}
}

// Check fails on the first precondition that does not hold. Nothing is mutated either way.
func (g *RevisionGuard) Check(expected []domain.Expected) error {
	for _, exp := range expected {
		state, ok := g.store.current(exp.Ref)
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrContainerNotFound, exp.Ref)
		}
		if state.Revision != exp.ExpectedRevision {
			return fmt.Errorf("%w: %s expected %d, current %d",
				domain.ErrRevisionMismatch, exp.Ref, exp.ExpectedRevision, state.Revision)
		}
	}
	return nil
}
