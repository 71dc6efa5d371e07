package inventory

import (
	"errors"
	"time"
)

// BackpackKey is the inventory key of a player's default grid.
const BackpackKey uint32 = 0

// DefaultFreshItemIDStart is where the default allocator starts handing out split item ids.
const DefaultFreshItemIDStart uint64 = 1_000_000

// DefaultBridgeTimeout bounds a single world bridge call.
const DefaultBridgeTimeout = 2 * time.Second

// ErrContainerExists is returned when creating a container whose ref is taken.
var ErrContainerExists = errors.New("container already exists")

// Log messages
const (
	LogMsgOpReceived      = "Inventory op received"
	LogMsgOpReplayed      = "Inventory op replayed from cache"
	LogMsgOpRejected      = "Inventory op rejected"
	LogMsgOpApplied       = "Inventory op applied"
	LogMsgOpDropped       = "Inventory op dropped before processing"
	LogMsgOpInternalError = "Inventory op failed with internal error"
	LogMsgSpawnFailed     = "World bridge spawn failed"
	LogMsgDespawnFailed   = "World bridge despawn failed"
	LogMsgCompensate      = "Compensating late spawn with despawn"
	LogMsgCompensateFail  = "Compensating despawn failed"
	LogMsgPublishFailed   = "Failed to publish inventory event"
	LogMsgItemGranted     = "Item granted"
	LogMsgItemExpired     = "Dropped item expired"
)
