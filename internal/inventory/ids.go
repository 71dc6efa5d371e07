package inventory

import "sync/atomic"

// IDAllocator hands out item ids for split stacks and grants. Ids are never reused.
type IDAllocator struct {
	next atomic.Uint64
}

// NewIDAllocator returns an allocator whose first id is start.
func NewIDAllocator(start uint64) *IDAllocator {
	a := &IDAllocator{}
	a.next.Store(start)
	return a
}

// Next returns a fresh id.
func (a *IDAllocator) Next() uint64 {
	return a.next.Add(1) - 1
}

// Observe moves the allocator past id so seeded items never collide with fresh ones.
func (a *IDAllocator) Observe(id uint64) {
	for {
		cur := a.next.Load()
		if id < cur {
			return
		}
		if a.next.CompareAndSwap(cur, id+1) {
			return
		}
	}
}
