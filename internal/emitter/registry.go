// Package emitter routes inventory changes to the connections watching them.
package emitter

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/osse101/invengine/internal/concurrency"
	"github.com/osse101/invengine/internal/domain"
	"github.com/osse101/invengine/internal/logger"
	"github.com/osse101/invengine/internal/metrics"
	"github.com/osse101/invengine/internal/protocol"
)

// ErrUnknownConnection is returned for hooks naming a connection that is not attached.
var ErrUnknownConnection = errors.New("unknown connection")

// Sink delivers server messages to one connection. Send must not block;
// it reports false when the message was dropped.
type Sink interface {
	Send(msg protocol.ServerMessage) bool
}

// StateSource provides container snapshots for ContainerOpened.
type StateSource interface {
	Snapshot(ref domain.InventoryRef) (*domain.InventoryState, error)
}

// Locker takes the per-container locks that commits hold while fanning out.
type Locker interface {
	Acquire(writeRefs, readRefs []domain.InventoryRef) *concurrency.LockSet
}

// Option configures a Registry.
type Option func(*Registry)

// WithLocks orders ContainerOpened against concurrent commits on the same container.
func WithLocks(l Locker) Option {
	return func(r *Registry) { r.locks = l }
}

type conn struct {
	actorID  uint64
	sink     Sink
	watching map[domain.InventoryRef]bool // true when opened explicitly
}

// Registry tracks which connection watches which container.
type Registry struct {
	states StateSource
	locks  Locker

	mu       sync.RWMutex
	conns    map[string]*conn
	watchers map[domain.InventoryRef]map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry(states StateSource, opts ...Option) *Registry {
	r := &Registry{
		states:   states,
		conns:    make(map[string]*conn),
		watchers: make(map[domain.InventoryRef]map[string]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Attach registers a connection for actorID. The connection implicitly
// watches owned, typically the actor's own containers.
func (r *Registry) Attach(connID string, actorID uint64, sink Sink, owned ...domain.InventoryRef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.conns[connID]; ok {
		r.unwatchAllLocked(connID, old)
	}
	c := &conn{actorID: actorID, sink: sink, watching: make(map[domain.InventoryRef]bool, len(owned))}
	r.conns[connID] = c
	for _, ref := range owned {
		r.watchLocked(connID, c, ref, false)
	}
}

// Detach forgets a connection and every subscription it had.
func (r *Registry) Detach(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.conns[connID]; ok {
		r.unwatchAllLocked(connID, c)
		delete(r.conns, connID)
	}
}

func (r *Registry) watchLocked(connID string, c *conn, ref domain.InventoryRef, opened bool) {
	c.watching[ref] = c.watching[ref] || opened
	set, ok := r.watchers[ref]
	if !ok {
		set = make(map[string]struct{})
		r.watchers[ref] = set
	}
	set[connID] = struct{}{}
}

func (r *Registry) unwatchLocked(connID string, c *conn, ref domain.InventoryRef) {
	delete(c.watching, ref)
	if set, ok := r.watchers[ref]; ok {
		delete(set, connID)
		if len(set) == 0 {
			delete(r.watchers, ref)
		}
	}
}

func (r *Registry) unwatchAllLocked(connID string, c *conn) {
	for ref := range c.watching {
		r.unwatchLocked(connID, c, ref)
	}
}

// Open subscribes a connection to ref and sends it the container's current state.
// The watcher is registered before the snapshot is read, so a commit racing the
// open is either in the snapshot or delivered as an update afterwards.
func (r *Registry) Open(ctx context.Context, connID string, ref domain.InventoryRef) (*domain.InventoryState, error) {
	var (
		state *domain.InventoryState
		err   error
	)
	r.withReadLocks([]domain.InventoryRef{ref}, func() {
		state, err = r.open(ctx, connID, ref)
	})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Debug(LogMsgContainerOpened, logger.AttrKeyConnID, connID, "ref", ref.String())
	return state, nil
}

func (r *Registry) open(ctx context.Context, connID string, ref domain.InventoryRef) (*domain.InventoryState, error) {
	r.mu.Lock()
	c, ok := r.conns[connID]
	if !ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrUnknownConnection, connID)
	}
	prev, had := c.watching[ref]
	r.watchLocked(connID, c, ref, true)
	r.mu.Unlock()

	state, err := r.states.Snapshot(ref)
	if err != nil {
		r.mu.Lock()
		if r.conns[connID] == c {
			if had {
				c.watching[ref] = prev
			} else {
				r.unwatchLocked(connID, c, ref)
			}
		}
		r.mu.Unlock()
		return nil, err
	}
	r.deliver(ctx, c.sink, protocol.ServerMessage{Payload: protocol.ContainerOpened{State: *state}})
	return state, nil
}

// Sync sends an attached connection the current state of refs, typically the
// containers it was attached with.
func (r *Registry) Sync(ctx context.Context, connID string, refs ...domain.InventoryRef) error {
	r.mu.RLock()
	c, ok := r.conns[connID]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownConnection, connID)
	}
	r.withReadLocks(refs, func() {
		for _, ref := range refs {
			st, err := r.states.Snapshot(ref)
			if err != nil {
				continue
			}
			r.deliver(ctx, c.sink, protocol.ServerMessage{Payload: protocol.ContainerOpened{State: *st}})
		}
	})
	return nil
}

// withReadLocks holds off commits to refs while fn runs. Commits fan out under
// their write locks, so anything fn sends is ordered against their updates.
func (r *Registry) withReadLocks(refs []domain.InventoryRef, fn func()) {
	if r.locks != nil && len(refs) > 0 {
		held := r.locks.Acquire(nil, refs)
		defer held.Release()
	}
	fn()
}

// Close unsubscribes a connection from ref. Owned containers stay watched.
func (r *Registry) Close(ctx context.Context, connID string, ref domain.InventoryRef) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[connID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownConnection, connID)
	}
	if opened, watching := c.watching[ref]; watching && opened {
		r.unwatchLocked(connID, c, ref)
	}
	logger.FromContext(ctx).Debug(LogMsgContainerClosed, logger.AttrKeyConnID, connID, "ref", ref.String())
	return nil
}

// SubscribersOf lists the connections watching ref, sorted.
func (r *Registry) SubscribersOf(ref domain.InventoryRef) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.watchers[ref]))
	for id := range r.watchers[ref] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// IsOpen reports whether any connection of actorID explicitly opened ref.
func (r *Registry) IsOpen(actorID uint64, ref domain.InventoryRef) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id := range r.watchers[ref] {
		if c := r.conns[id]; c.actorID == actorID && c.watching[ref] {
			return true
		}
	}
	return false
}

// Broadcast sends each watching connection except excludeConn one InventoryUpdate
// holding only the containers it watches. An empty excludeConn excludes nobody.
func (r *Registry) Broadcast(ctx context.Context, excludeConn string, updated []domain.InventoryState) {
	type delivery struct {
		sink   Sink
		states []domain.InventoryState
	}
	r.mu.RLock()
	out := make(map[string]*delivery)
	var order []string
	for _, st := range updated {
		for id := range r.watchers[st.Ref] {
			if id == excludeConn {
				continue
			}
			c := r.conns[id]
			d, ok := out[id]
			if !ok {
				d = &delivery{sink: c.sink}
				out[id] = d
				order = append(order, id)
			}
			d.states = append(d.states, st)
		}
	}
	r.mu.RUnlock()

	sort.Strings(order)
	for _, id := range order {
		d := out[id]
		r.deliver(ctx, d.sink, protocol.ServerMessage{Payload: protocol.InventoryUpdate{Updated: d.states}})
	}
}

// Closed tells every watcher of ref that it is gone and drops the subscriptions.
func (r *Registry) Closed(ctx context.Context, ref domain.InventoryRef) {
	r.mu.Lock()
	var sinks []Sink
	for id := range r.watchers[ref] {
		c := r.conns[id]
		delete(c.watching, ref)
		sinks = append(sinks, c.sink)
	}
	delete(r.watchers, ref)
	r.mu.Unlock()

	for _, s := range sinks {
		r.deliver(ctx, s, protocol.ServerMessage{Payload: protocol.ContainerClosed{EntityID: ref.OwnerEntityID}})
	}
}

// Len counts attached connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

func (r *Registry) deliver(ctx context.Context, sink Sink, msg protocol.ServerMessage) {
	typ := protocol.ServerType(msg)
	if !sink.Send(msg) {
		logger.FromContext(ctx).Warn(LogMsgDeliveryDropped, "type", typ)
		return
	}
	metrics.FanoutMessages.WithLabelValues(typ).Inc()
}
