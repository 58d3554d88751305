package middleware

import (
	"net/http"

	chicors "github.com/go-chi/cors"
)

// PortalCORS allows read-only cross-origin access from the client portal's
// origins. An empty list rejects every cross-origin request.
func PortalCORS(origins []string) func(http.Handler) http.Handler {
	return chicors.Handler(chicors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})
}
