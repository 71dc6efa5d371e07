package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware(t *testing.T) {
	apiKey := "secret-key"

	tests := []struct {
		name           string
		apiKey         string
		providedKey    string
		path           string
		expectedStatus int
	}{
		{"Valid API Key", apiKey, apiKey, "/api/v1/inventory", http.StatusOK},
		{"Invalid API Key", apiKey, "wrong-key", "/api/v1/inventory", http.StatusUnauthorized},
		{"Missing API Key", apiKey, "", "/api/v1/inventory", http.StatusUnauthorized},
		{"Unset Server Key Denies", "", "", "/api/v1/inventory", http.StatusUnauthorized},
		{"Public Path - Healthz", apiKey, "", "/healthz", http.StatusOK},
		{"Public Path - Metrics", apiKey, "", "/metrics", http.StatusOK},
		{"Public Path - Websocket", apiKey, "", "/ws", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detector := NewSuspiciousActivityDetector(DetectorConfig{})
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.providedKey != "" {
				req.Header.Set(HeaderAPIKey, tt.providedKey)
			}
			rec := httptest.NewRecorder()

			AuthMiddleware(tt.apiKey, nil, detector)(okHandler()).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
		})
	}
}

func TestSecurityLoggingMiddleware_RateLimiting(t *testing.T) {
	detector := NewSuspiciousActivityDetector(DetectorConfig{RequestsPerWindow: 3, Window: time.Minute})
	now := time.Unix(1000, 0)
	detector.now = func() time.Time { return now }
	detector.windowStart = now
	h := SecurityLoggingMiddleware(nil, detector)(okHandler())

	req := httptest.NewRequest("GET", "/test", nil)
	req.RemoteAddr = "192.168.1.100:1234"

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	other := httptest.NewRequest("GET", "/test", nil)
	other.RemoteAddr = "10.0.0.1:5555"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, other)
	assert.Equal(t, http.StatusOK, rec.Code, "budgets are per IP")

	now = now.Add(2 * time.Minute)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, "a new window resets the budget")
}

func TestExtractIP(t *testing.T) {
	tests := []struct {
		name      string
		remote    string
		forwarded string
		trusted   []string
		want      string
	}{
		{"direct", "1.2.3.4:80", "", nil, "1.2.3.4"},
		{"untrusted forwarded ignored", "1.2.3.4:80", "9.9.9.9", nil, "1.2.3.4"},
		{"trusted proxy", "10.0.0.1:80", "9.9.9.9, 8.8.8.8", []string{"10.0.0.1"}, "8.8.8.8"},
		{"unparseable remote", "garbage", "", nil, "garbage"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			if tt.forwarded != "" {
				req.Header.Set(HeaderForwardedFor, tt.forwarded)
			}
			assert.Equal(t, tt.want, extractIP(req, tt.trusted))
		})
	}
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeadersMiddleware()(okHandler()).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	expected := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "SAMEORIGIN",
		"X-XSS-Protection":       "1; mode=block",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	}
	for header, want := range expected {
		assert.Equal(t, want, rec.Header().Get(header), header)
	}
}
