package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/osse101/invengine/internal/logger"
)

// DecodeAndValidateRequest decodes a JSON request body and validates it.
// If it returns an error the response has already been written.
func DecodeAndValidateRequest(r *http.Request, w http.ResponseWriter, req interface{}, actionName string) error {
	log := logger.FromContext(r.Context())

	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		log.Warn(LogMsgDecodeFailed, "action", actionName, logger.AttrKeyError, err)
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: ErrMsgInvalidRequest})
		return err
	}

	if err := GetValidator().ValidateStruct(req); err != nil {
		log.Warn(LogMsgValidationFailed, "action", actionName, logger.AttrKeyError, err)
		respondJSON(w, http.StatusBadRequest, ValidationErrorResponse{
			Error:  ErrMsgInvalidRequestSummary,
			Fields: FormatValidationError(err),
		})
		return err
	}
	return nil
}

// GetQueryParam retrieves a required query parameter.
// If ok is false, the response has already been written.
func GetQueryParam(r *http.Request, w http.ResponseWriter, paramName string) (string, bool) {
	value := r.URL.Query().Get(paramName)
	if value == "" {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf(ErrMsgMissingQueryParam, paramName)})
		return "", false
	}
	return value, true
}

// GetOptionalQueryParam retrieves an optional query parameter.
func GetOptionalQueryParam(r *http.Request, paramName string, defaultValue string) string {
	value := r.URL.Query().Get(paramName)
	if value == "" {
		return defaultValue
	}
	return value
}

// parseUintParam parses value as an unsigned integer of bitSize bits.
// If ok is false, the response has already been written.
func parseUintParam(w http.ResponseWriter, paramName, value string, bitSize int) (uint64, bool) {
	n, err := strconv.ParseUint(value, 10, bitSize)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf(ErrMsgInvalidQueryParam, paramName)})
		return 0, false
	}
	return n, true
}
