package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mushahidahmed76/MCW-Practice-Management-Software/internal/auth"
)

// DefaultIdentityHeader is set by the upstream proxy after it has
// authenticated the back-office user.
const DefaultIdentityHeader = "X-User-Id"

// RoleHeader optionally carries the user's role alongside the identity.
const RoleHeader = "X-User-Role"

// RequireIdentity rejects requests that arrive without the identity header
// and stores the asserted identity on the request context.
func RequireIdentity(header string) func(http.Handler) http.Handler {
	if header == "" {
		header = DefaultIdentityHeader
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := strings.TrimSpace(r.Header.Get(header))
			if userID == "" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"error": "missing user identity"})
				return
			}

			id := auth.Identity{
				UserID: userID,
				Role:   strings.TrimSpace(r.Header.Get(RoleHeader)),
			}
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}
