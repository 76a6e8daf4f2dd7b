package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	webctx "github.com/fieldradar/fieldradar/internal/web/context"
)

// Logging attaches a request-scoped logger carrying the request ID and logs
// every finished request. Paths in skip are served without the access log.
func Logging(logger *zap.Logger, skip ...string) Middleware {
	skipped := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipped[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqLogger := logger.With(zap.String("request_id", webctx.GetRequestID(r.Context())))
			r = r.WithContext(webctx.SetLogger(r.Context(), reqLogger))

			if _, ok := skipped[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rw := newStatusWriter(w)

			next.ServeHTTP(rw, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("query", r.URL.RawQuery),
				zap.Int("status", rw.statusCode),
				zap.Duration("duration", time.Since(start)),
				zap.Int("bytes", rw.bytesWritten),
				zap.String("remote_addr", r.RemoteAddr),
			}
			if rw.statusCode >= http.StatusInternalServerError {
				reqLogger.Error("request failed", fields...)
				return
			}
			reqLogger.Info("request completed", fields...)
		})
	}
}
