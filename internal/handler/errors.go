package handler

// Generic HTTP error messages for client responses.
// Both handlers and tests should reference these constants to maintain consistency.
const (
	ErrMsgInvalidRequest        = "Invalid request body"
	ErrMsgInvalidRequestSummary = "Invalid request"
	ErrMsgMissingQueryParam     = "Missing %s query parameter"
	ErrMsgInvalidQueryParam     = "Invalid %s query parameter"
	ErrMsgGenericServerError    = "Something went wrong"
	ErrMsgOpCancelled           = "Operation was cancelled before it started"
)

// Health statuses
const (
	HealthStatusOK          = "ok"
	HealthStatusUnavailable = "unavailable"
)

// Log messages
const (
	LogMsgReadinessFailed  = "Readiness check failed"
	LogMsgDecodeFailed     = "Failed to decode request"
	LogMsgValidationFailed = "Request validation failed"
	LogMsgRequestFailed    = "Request failed"
	LogMsgEncodeFailed     = "Failed to encode JSON response"
	LogMsgWriteFailed      = "Failed to write response buffer"
	LogMsgOpSubmitted      = "Inventory op submitted over HTTP"
	LogMsgGranted          = "Item granted over HTTP"
)
