// Package server assembles the HTTP surface: health, metrics, the inventory API
// and the websocket endpoint.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/osse101/invengine/internal/handler"
	"github.com/osse101/invengine/internal/logger"
	"github.com/osse101/invengine/internal/metrics"
)

// Config holds the HTTP settings.
type Config struct {
	Port           int
	APIKey         string
	TrustedProxies []string
	Version        string
	Detector       DetectorConfig
}

// Deps are the handlers the router mounts.
type Deps struct {
	Inventory *handler.InventoryHandler
	Gateway   http.Handler
	Ready     []handler.HealthChecker
}

type Server struct {
	httpServer *http.Server
}

// NewServer creates a new Server instance
func NewServer(cfg Config, deps Deps) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           NewRouter(cfg, deps),
			ReadHeaderTimeout: readHeaderTimeout,
		},
	}
}

// NewRouter builds the route tree. The websocket route sits outside the
// response-wrapping middleware so the connection can be hijacked.
func NewRouter(cfg Config, deps Deps) http.Handler {
	detector := NewSuspiciousActivityDetector(cfg.Detector)
	r := chi.NewRouter()
	r.Use(SecurityHeadersMiddleware())
	r.Use(SecurityLoggingMiddleware(cfg.TrustedProxies, detector))

	if deps.Gateway != nil {
		r.Handle("/ws", deps.Gateway)
	}

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.APIKey, cfg.TrustedProxies, detector))
		r.Use(RequestSizeLimitMiddleware(maxRequestBytes))
		r.Use(metrics.Middleware)
		r.Use(loggingMiddleware)

		r.Get("/healthz", handler.HandleHealthz())
		r.Get("/readyz", handler.HandleReadyz(deps.Ready...))
		r.Get("/version", handler.HandleVersion(cfg.Version))
		r.Handle("/metrics", promhttp.Handler())

		if deps.Inventory == nil {
			return
		}
		r.Route("/api/v1/inventory", func(r chi.Router) {
			r.Get("/", deps.Inventory.HandleGetInventory)
			r.Post("/op", deps.Inventory.HandleSubmitOp)
			r.Post("/grant", deps.Inventory.HandleGrant)
			r.Post("/open", deps.Inventory.HandleOpen)
			r.Post("/close", deps.Inventory.HandleClose)
		})
	})
	return r
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	if !rw.written {
		rw.statusCode = statusCode
		rw.written = true
		rw.ResponseWriter.WriteHeader(statusCode)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/healthz") ||
			strings.HasPrefix(r.URL.Path, "/readyz") ||
			strings.HasPrefix(r.URL.Path, "/metrics") {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		ctx := logger.WithRequestID(r.Context(), logger.GenerateRequestID())
		r = r.WithContext(ctx)
		log := logger.FromContext(ctx)

		log.Info(LogMsgRequestStarted,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"content_length", r.ContentLength,
			"user_agent", r.UserAgent())

		sanitized := make(http.Header, len(r.Header))
		for k, v := range r.Header {
			if strings.EqualFold(k, HeaderAPIKey) || strings.EqualFold(k, HeaderAuthorization) {
				sanitized[k] = []string{RedactedValue}
			} else {
				sanitized[k] = v
			}
		}
		log.Debug(LogMsgRequestHeaders, "headers", sanitized)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		log.Info(LogMsgRequestCompleted,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds())
	})
}

// Start listens on the configured port and serves until Stop.
// It returns nil after a graceful shutdown.
func (s *Server) Start() error {
	logger.FromContext(context.Background()).Info(LogMsgServerStarting, "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Serve is Start on an existing listener.
func (s *Server) Serve(l net.Listener) error {
	err := s.httpServer.Serve(l)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop stops the server gracefully
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
