package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mushahidahmed76/MCW-Practice-Management-Software/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := New(db, Options{
		Location:      time.UTC,
		PortalOrigins: []string{"https://portal.example.com"},
	}, logger)
	return s.Router()
}

func TestHealth(t *testing.T) {
	router := newTestServer(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","ws_clients":0}`, rec.Body.String())
}

func TestAPIRequiresIdentity(t *testing.T) {
	router := newTestServer(t)

	tests := []struct {
		name string
		user string
		want int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"with header", "user-1", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/locations", nil)
			if tt.user != "" {
				req.Header.Set("X-User-Id", tt.user)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestWebSocketRequiresIdentity(t *testing.T) {
	router := newTestServer(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/ws", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPortalCORS(t *testing.T) {
	router := newTestServer(t)

	req := httptest.NewRequest("GET", "/portal/clients/missing/appointments", nil)
	req.Header.Set("Origin", "https://portal.example.com")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "https://portal.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestPreviewIsRateLimited(t *testing.T) {
	router := newTestServer(t)

	body := `{"start_date":"2026-02-02T10:00:00Z","recurring_rule":"FREQ=WEEKLY"}`
	var last int
	for i := 0; i < 31; i++ {
		req := httptest.NewRequest("POST", "/api/appointments/preview", strings.NewReader(body))
		req.Header.Set("X-User-Id", "user-1")
		req.RemoteAddr = "10.0.0.9:5555"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		last = rec.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}
