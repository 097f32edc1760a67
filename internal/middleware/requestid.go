package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const (
	// RequestIDHeader carries the request ID so a trigger invocation can
	// be traced from the scheduler through to the run summary log line.
	RequestIDHeader = "X-Request-ID"

	// RequestIDContextKey is the context key for the request ID
	RequestIDContextKey contextKey = "request_id"
)

// RequestID tags every request with an ID. An ID already set by the
// scheduler or a fronting proxy wins; otherwise a fresh UUID is
// generated. The ID is echoed on the response and stored in the request
// context for the request-scoped logger.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}

		w.Header().Set(RequestIDHeader, id)

		ctx := context.WithValue(r.Context(), RequestIDContextKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the request ID from the context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDContextKey).(string); ok {
		return id
	}
	return ""
}
