package event

import "errors"

// Event schema versioning
const (
	// EventSchemaVersion is the current event schema version
	EventSchemaVersion = "1.0"
)

// Metadata keys
const (
	MetadataKeyAction = "action"
)

// Log message constants
const (
	LogMsgPublishFailed = "Event publish failed"

	// Log message for handler errors
	LogMsgHandlerErrorFormat = "encountered %d errors while handling event %s: %v"
)

// ErrNilPayload is returned when decoding an event that carries no payload.
var ErrNilPayload = errors.New("event has no payload")
