package idempotency

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/osse101/invengine/internal/domain"
)

// Key scopes an op id to the actor that submitted it.
type Key struct {
	ActorID uint64
	OpID    uint64
}

// Cache remembers final op results so retried submissions replay instead of re-applying.
// Bounded by both entry count and age.
type Cache struct {
	lru *expirable.LRU[Key, *domain.OpResult]
}

// New creates a cache holding at most size results for at most ttl each.
func New(size int, ttl time.Duration) *Cache {
	return &Cache{
		lru: expirable.NewLRU[Key, *domain.OpResult](size, nil, ttl),
	}
}

// Lookup returns the cached result for (actorID, opID).
func (c *Cache) Lookup(actorID, opID uint64) (*domain.OpResult, bool) {
	return c.lru.Get(Key{ActorID: actorID, OpID: opID})
}

// Store records the final result. A later Store for the same key keeps the first result.
func (c *Cache) Store(actorID, opID uint64, result *domain.OpResult) {
	key := Key{ActorID: actorID, OpID: opID}
	if c.lru.Contains(key) {
		return
	}
	c.lru.Add(key, result)
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	return c.lru.Len()
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.lru.Purge()
}
