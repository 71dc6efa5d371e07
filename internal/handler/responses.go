package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/osse101/invengine/internal/domain"
	"github.com/osse101/invengine/internal/emitter"
	"github.com/osse101/invengine/internal/logger"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// ValidationErrorResponse defines the response structure for validation errors
type ValidationErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

// bufferPool is a pool of bytes.Buffer to reduce allocations during JSON encoding
var bufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 512))
	},
}

// respondJSON sends a JSON response with the given status code and payload
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	buf := bufferPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		bufferPool.Put(buf)
	}()

	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		slog.Error(LogMsgEncodeFailed, logger.AttrKeyError, err)
		http.Error(w, ErrMsgGenericServerError, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error(LogMsgWriteFailed, logger.AttrKeyError, err)
	}
}

// respondServiceError maps err to a status and writes it.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := mapServiceError(err)
	log := logger.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error(LogMsgRequestFailed, logger.AttrKeyError, err, "status", status)
	} else {
		log.Warn(LogMsgRequestFailed, logger.AttrKeyError, err, "status", status)
	}
	respondJSON(w, status, body)
}

// mapServiceError converts processor and registry errors to HTTP responses.
// Internal failures get a generic message.
func mapServiceError(err error) (int, ErrorResponse) {
	code := domain.CodeOf(err)
	body := ErrorResponse{Error: err.Error(), Code: code.String()}

	switch {
	case errors.Is(err, domain.ErrContainerNotFound),
		errors.Is(err, domain.ErrEntityNotFound),
		errors.Is(err, domain.ErrItemNotFound),
		errors.Is(err, emitter.ErrUnknownConnection):
		return http.StatusNotFound, body
	case errors.Is(err, domain.ErrCannotInteract):
		return http.StatusForbidden, body
	case errors.Is(err, domain.ErrInventoryFull),
		errors.Is(err, domain.ErrStackOverflow):
		return http.StatusConflict, body
	case errors.Is(err, domain.ErrBridgeTimeout):
		return http.StatusGatewayTimeout, body
	case errors.Is(err, domain.ErrBridgeFailed):
		return http.StatusBadGateway, body
	}

	if code == domain.CodeInternalError {
		return http.StatusInternalServerError, ErrorResponse{Error: ErrMsgGenericServerError, Code: code.String()}
	}
	return http.StatusBadRequest, body
}
