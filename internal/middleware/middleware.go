// Package middleware holds the HTTP middleware shared by the trigger
// server: request IDs, request-scoped logging, panic recovery and
// Prometheus request metrics.
package middleware

import (
	"log/slog"
	"net/http"
)

// contextKey is a private type for context values set by this package.
type contextKey string

// Recovery recovers from panics and logs them
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic recovered",
						"error", err,
						"path", r.URL.Path,
					)
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
