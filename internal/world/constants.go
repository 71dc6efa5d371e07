package world

import "errors"

// DefaultEntityIDStart keeps spawned entity ids clear of player entity ids.
const DefaultEntityIDStart uint64 = 1 << 40

// DefaultPickupRadius is the reach distance in world units.
const DefaultPickupRadius = 2.0

var (
	ErrEntityNotFound = errors.New("entity not found")
	ErrEntityExists   = errors.New("entity already exists")
	ErrNotDropped     = errors.New("entity is not a dropped item")
)

const (
	LogMsgSpawned   = "Dropped item spawned"
	LogMsgDespawned = "Entity despawned"
)
