package http

import (
	"net/http"

	"vehicle-accounting/gps/internal/auth"
)

// APIKeyMiddleware guards device-facing routes with X-API-Key validation.
// Routers attach it only when the authenticator has key sources
// configured; by default POST /gps is open, for deployments behind a
// trusted network edge.
func APIKeyMiddleware(a *auth.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := r.Header.Get("X-API-Key")
			if apiKey == "" {
				writeError(w, http.StatusUnauthorized, "missing X-API-Key header")
				return
			}

			if !a.Validate(r.Context(), apiKey) {
				writeError(w, http.StatusUnauthorized, "invalid API key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
