package domain

import (
	"errors"
	"fmt"
)

// Error message constants
const (
	ErrMsgInvalidRequest       = "invalid request"
	ErrMsgRevisionMismatch     = "inventory revision mismatch"
	ErrMsgContainerNotFound    = "container not found"
	ErrMsgEntityNotFound       = "entity not found"
	ErrMsgItemNotFound         = "item not found"
	ErrMsgInvalidQuantity      = "quantity must be positive"
	ErrMsgInsufficientQuantity = "insufficient quantity"
	ErrMsgInventoryFull        = "no valid placement"
	ErrMsgStackOverflow        = "merge exceeds stack limit"
	ErrMsgTargetInvalid        = "target container is not valid for this action"
	ErrMsgEquipSlotRequired    = "equipment destination requires a slot"
	ErrMsgSlotNotAllowed       = "item cannot be equipped in that slot"
	ErrMsgPlacementNotAllowed  = "item is not allowed in that container"
	ErrMsgPartialSwap          = "cannot swap a partial stack"
	ErrMsgCannotInteract       = "cannot interact with container"
	ErrMsgOutOfRange           = "dropped item is out of range"
	ErrMsgBridgeTimeout        = "world bridge timed out"
	ErrMsgBridgeFailed         = "world bridge call failed"
	ErrMsgNotAuthenticated     = "not authenticated"
	ErrMsgRateLimited          = "packet rate limit exceeded"
	ErrMsgInternal             = "internal error"
)

// Sentinel errors. Each one maps to exactly one ErrorCode.
var (
	ErrInvalidRequest       = errors.New(ErrMsgInvalidRequest)
	ErrRevisionMismatch     = errors.New(ErrMsgRevisionMismatch)
	ErrContainerNotFound    = errors.New(ErrMsgContainerNotFound)
	ErrEntityNotFound       = errors.New(ErrMsgEntityNotFound)
	ErrItemNotFound         = errors.New(ErrMsgItemNotFound)
	ErrInvalidQuantity      = errors.New(ErrMsgInvalidQuantity)
	ErrInsufficientQuantity = errors.New(ErrMsgInsufficientQuantity)
	ErrInventoryFull        = errors.New(ErrMsgInventoryFull)
	ErrStackOverflow        = errors.New(ErrMsgStackOverflow)
	ErrTargetInvalid        = errors.New(ErrMsgTargetInvalid)
	ErrEquipSlotRequired    = errors.New(ErrMsgEquipSlotRequired)
	ErrSlotNotAllowed       = errors.New(ErrMsgSlotNotAllowed)
	ErrPlacementNotAllowed  = errors.New(ErrMsgPlacementNotAllowed)
	ErrPartialSwap          = errors.New(ErrMsgPartialSwap)
	ErrCannotInteract       = errors.New(ErrMsgCannotInteract)
	ErrOutOfRange           = errors.New(ErrMsgOutOfRange)
	ErrBridgeTimeout        = errors.New(ErrMsgBridgeTimeout)
	ErrBridgeFailed         = errors.New(ErrMsgBridgeFailed)
	ErrNotAuthenticated     = errors.New(ErrMsgNotAuthenticated)
	ErrRateLimited          = errors.New(ErrMsgRateLimited)
	ErrInternal             = errors.New(ErrMsgInternal)
)

var errorCodes = []struct {
	err  error
	code ErrorCode
}{
	{ErrRevisionMismatch, CodeInvalidRequest},
	{ErrInvalidQuantity, CodeInvalidRequest},
	{ErrEquipSlotRequired, CodeInvalidRequest},
	{ErrSlotNotAllowed, CodeInvalidRequest},
	{ErrPlacementNotAllowed, CodeInvalidRequest},
	{ErrPartialSwap, CodeInvalidRequest},
	{ErrInvalidRequest, CodeInvalidRequest},
	{ErrContainerNotFound, CodeEntityNotFound},
	{ErrEntityNotFound, CodeEntityNotFound},
	{ErrItemNotFound, CodeEntityNotFound},
	{ErrInsufficientQuantity, CodeInsufficientResources},
	{ErrInventoryFull, CodeInventoryFull},
	{ErrStackOverflow, CodeInventoryFull},
	{ErrTargetInvalid, CodeTargetInvalid},
	{ErrCannotInteract, CodeCannotInteract},
	{ErrOutOfRange, CodeOutOfRange},
	{ErrBridgeTimeout, CodeTimeoutExceeded},
	{ErrNotAuthenticated, CodeNotAuthenticated},
	{ErrRateLimited, CodePacketPerSecondLimitThresholded},
	{ErrBridgeFailed, CodeInternalError},
	{ErrInternal, CodeInternalError},
}

// OpError pairs a wire error code with a client-facing message.
type OpError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *OpError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Code.String()
}

func (e *OpError) Unwrap() error { return e.Err }

// NewOpError classifies err. The message is err's text.
func NewOpError(err error) *OpError {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe
	}
	return &OpError{Code: CodeOf(err), Message: err.Error(), Err: err}
}

// Errorf builds an OpError with an explicit code.
func Errorf(code ErrorCode, format string, args ...any) *OpError {
	return &OpError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf maps an error to its wire code. Unknown errors are internal errors.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return CodeNone
	}
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Code
	}
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return CodeInternalError
}
