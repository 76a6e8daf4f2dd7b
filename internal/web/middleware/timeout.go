package middleware

import (
	"context"
	"net/http"
	"time"
)

// Timeout bounds the request context. Storage calls observe the deadline
// and fail with context.DeadlineExceeded; the handler still writes the
// response. A non-positive timeout disables the middleware.
func Timeout(timeout time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		if timeout <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
