package protocol

import "google.golang.org/protobuf/encoding/protowire"

// ClientMessage fields
const (
	fieldClientSequence     protowire.Number = 1
	fieldClientAuth         protowire.Number = 10
	fieldClientPing         protowire.Number = 11
	fieldClientPlayerAction protowire.Number = 12
	fieldClientMovementMode protowire.Number = 13
	fieldClientInventoryOp  protowire.Number = 14
)

// ServerMessage fields
const (
	fieldServerSequence          protowire.Number = 1
	fieldServerAuthResult        protowire.Number = 10
	fieldServerPong              protowire.Number = 11
	fieldServerInventoryOpResult protowire.Number = 19
	fieldServerInventoryUpdate   protowire.Number = 20
	fieldServerContainerOpened   protowire.Number = 21
	fieldServerContainerClosed   protowire.Number = 22
	fieldServerError             protowire.Number = 23
	fieldServerWarning           protowire.Number = 24
)

// Payload type names, used for logs and metrics labels.
const (
	TypeAuth         = "auth"
	TypePing         = "ping"
	TypePlayerAction = "player_action"
	TypeMovementMode = "movement_mode"
	TypeInventoryOp  = "inventory_op"
	TypeUnknown      = "unknown"
)

// MaxFrameSize bounds a single decoded frame.
const MaxFrameSize = 64 * 1024
