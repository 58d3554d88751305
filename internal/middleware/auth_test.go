package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mushahidahmed76/MCW-Practice-Management-Software/internal/auth"
)

func TestRequireIdentityMissingHeader(t *testing.T) {
	handler := RequireIdentity("")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	req := httptest.NewRequest("GET", "/api/appointments", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

func TestRequireIdentityBlankHeader(t *testing.T) {
	handler := RequireIdentity("")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(DefaultIdentityHeader, "   ")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireIdentityPopulatesContext(t *testing.T) {
	var got auth.Identity
	handler := RequireIdentity("X-Remote-User")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ok bool
		got, ok = auth.FromContext(r.Context())
		if !ok {
			t.Fatal("expected identity in context")
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Remote-User", "clin-9")
	req.Header.Set(RoleHeader, "admin")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if got.UserID != "clin-9" {
		t.Errorf("UserID = %q, want clin-9", got.UserID)
	}
	if got.Role != "admin" {
		t.Errorf("Role = %q, want admin", got.Role)
	}
}
