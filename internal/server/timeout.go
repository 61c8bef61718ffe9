package server

import (
	"context"
	"net/http"
	"time"
)

// TimeoutMiddleware bounds the whole request. Provider calls carry their own,
// shorter deadline; this one only stops runaway handlers.
func TimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
