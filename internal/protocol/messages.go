package protocol

import "github.com/osse101/invengine/internal/domain"

// ClientMessage is one frame sent by a client.
type ClientMessage struct {
	Sequence uint32
	Payload  ClientPayload
}

// ClientPayload is the oneof payload of a ClientMessage.
type ClientPayload interface {
	clientPayload()
}

// Auth carries the session token.
type Auth struct {
	Token         string
	ClientVersion string
}

// Ping asks for a Pong echoing ClientTimeMs.
type Ping struct {
	ClientTimeMs int64
}

// PlayerAction is forwarded untouched; its contents are not interpreted here.
type PlayerAction struct {
	Raw []byte
}

// MovementMode is forwarded untouched.
type MovementMode struct {
	Raw []byte
}

// InventoryOpRequest wraps a client-submitted op (C2S_InventoryOp).
type InventoryOpRequest struct {
	Op domain.InventoryOp
}

func (Auth) clientPayload()               {}
func (Ping) clientPayload()               {}
func (PlayerAction) clientPayload()       {}
func (MovementMode) clientPayload()       {}
func (InventoryOpRequest) clientPayload() {}

// ServerMessage is one frame sent to a client.
type ServerMessage struct {
	Sequence uint32
	Payload  ServerPayload
}

// ServerPayload is the oneof payload of a ServerMessage.
type ServerPayload interface {
	serverPayload()
}

// AuthResult answers Auth.
type AuthResult struct {
	Success      bool
	ErrorMessage string
}

// Pong answers Ping.
type Pong struct {
	ClientTimeMs int64
	ServerTimeMs int64
}

// InventoryOpResult carries the final result of an op to its submitter.
type InventoryOpResult struct {
	Result *domain.OpResult
}

// InventoryUpdate tells an observer that containers it watches changed.
type InventoryUpdate struct {
	Updated []domain.InventoryState
}

// ContainerOpened carries the full state of a container the client opened.
type ContainerOpened struct {
	State domain.InventoryState
}

// ContainerClosed tells the client a container is no longer available.
type ContainerClosed struct {
	EntityID uint64
}

// Error reports a request-level failure.
type Error struct {
	Code    domain.ErrorCode
	Message string
}

// Warning reports a non-fatal condition.
type Warning struct {
	Code    domain.WarningCode
	Message string
}

func (AuthResult) serverPayload()        {}
func (Pong) serverPayload()              {}
func (InventoryOpResult) serverPayload() {}
func (InventoryUpdate) serverPayload()   {}
func (ContainerOpened) serverPayload()   {}
func (ContainerClosed) serverPayload()   {}
func (Error) serverPayload()             {}
func (Warning) serverPayload()           {}
