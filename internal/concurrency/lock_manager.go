package concurrency

import (
	"sort"
	"sync"

	"github.com/osse101/invengine/internal/domain"
)

// LockManager hands out one RWMutex per container ref.
type LockManager struct {
	locks sync.Map
}

// NewLockManager creates a new LockManager
func NewLockManager() *LockManager {
	return &LockManager{}
}

// GetLock returns the mutex for the given ref
func (lm *LockManager) GetLock(ref domain.InventoryRef) *sync.RWMutex {
	lock, _ := lm.locks.LoadOrStore(ref, &sync.RWMutex{})
	return lock.(*sync.RWMutex)
}

// Forget drops the mutex of a destroyed container. Only valid for refs that are
// never recreated, such as dropped-item containers whose entity ids are not reused.
func (lm *LockManager) Forget(ref domain.InventoryRef) {
	lm.locks.Delete(ref)
}

type lockRequest struct {
	ref   domain.InventoryRef
	write bool
}

// LockSet is a set of held locks, released together.
type LockSet struct {
	held  []lockRequest
	mutex []*sync.RWMutex
}

// Acquire write-locks writeRefs and read-locks readRefs in global ref order.
// A ref named in both sets is write-locked once.
func (lm *LockManager) Acquire(writeRefs, readRefs []domain.InventoryRef) *LockSet {
	modes := make(map[domain.InventoryRef]bool, len(writeRefs)+len(readRefs))
	for _, r := range readRefs {
		if _, ok := modes[r]; !ok {
			modes[r] = false
		}
	}
	for _, r := range writeRefs {
		modes[r] = true
	}

	reqs := make([]lockRequest, 0, len(modes))
	for r, w := range modes {
		reqs = append(reqs, lockRequest{ref: r, write: w})
	}
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].ref.Less(reqs[j].ref) })

	set := &LockSet{held: reqs, mutex: make([]*sync.RWMutex, len(reqs))}
	for i, req := range reqs {
		mu := lm.GetLock(req.ref)
		if req.write {
			mu.Lock()
		} else {
			mu.RLock()
		}
		set.mutex[i] = mu
	}
	return set
}

// Holds reports whether ref is locked by this set, and in which mode.
func (s *LockSet) Holds(ref domain.InventoryRef) (held, write bool) {
	for _, req := range s.held {
		if req.ref == ref {
			return true, req.write
		}
	}
	return false, false
}

// Refs returns the locked refs in acquisition order.
func (s *LockSet) Refs() []domain.InventoryRef {
	out := make([]domain.InventoryRef, len(s.held))
	for i, req := range s.held {
		out[i] = req.ref
	}
	return out
}

// Release unlocks in reverse acquisition order.
func (s *LockSet) Release() {
	for i := len(s.held) - 1; i >= 0; i-- {
		if s.held[i].write {
			s.mutex[i].Unlock()
		} else {
			s.mutex[i].RUnlock()
		}
	}
	s.held = nil
	s.mutex = nil
}
