package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/osse101/invengine/internal/logger"
)

// HealthResponse represents the response for health endpoints
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthChecker defines the interface for components that can report health
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

// HandleHealthz provides a basic liveness check
func HandleHealthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, HealthResponse{Status: HealthStatusOK})
	}
}

// HandleReadyz reports ready once every checker passes.
func HandleReadyz(checkers ...HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		for _, c := range checkers {
			if err := c.CheckHealth(ctx); err != nil {
				logger.FromContext(ctx).Error(LogMsgReadinessFailed, logger.AttrKeyError, err)
				respondJSON(w, http.StatusServiceUnavailable, HealthResponse{
					Status:  HealthStatusUnavailable,
					Message: err.Error(),
				})
				return
			}
		}
		respondJSON(w, http.StatusOK, HealthResponse{Status: HealthStatusOK})
	}
}

const readyTimeout = 2 * time.Second
