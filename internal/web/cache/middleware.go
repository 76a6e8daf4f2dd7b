package cache

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// MiddlewareConfig holds configuration for the cache middleware
type MiddlewareConfig struct {
	// Cache is the backend; nil disables caching
	Cache Cache
	// TTL is the time-to-live for cached responses
	TTL time.Duration
	// CacheControl is sent with every cacheable response
	CacheControl string
	Logger       *zap.Logger
}

// cachedResponse is the stored form of a response
type cachedResponse struct {
	StatusCode  int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
	ETag        string `json:"etag"`
}

// Middleware caches successful GET responses. Responses carry an ETag and
// X-Cache (HIT or MISS); a matching If-None-Match gets 304. Backend
// failures are logged and the request is served uncached.
func Middleware(config MiddlewareConfig) func(http.Handler) http.Handler {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(next http.Handler) http.Handler {
		if config.Cache == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			key := RequestKey(r)

			data, err := config.Cache.Get(ctx, key)
			switch {
			case err == nil:
				var cached cachedResponse
				if jsonErr := json.Unmarshal(data, &cached); jsonErr == nil {
					writeCached(w, r, cached, config.CacheControl, "HIT")
					return
				}
				logger.Warn("discarding corrupt cache entry", zap.String("key", key))
			case !errors.Is(err, ErrCacheMiss):
				logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
			}

			rec := &bufferedWriter{header: make(http.Header), statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.statusCode != http.StatusOK {
				copyHeader(w.Header(), rec.header)
				w.WriteHeader(rec.statusCode)
				w.Write(rec.body.Bytes())
				return
			}

			cached := cachedResponse{
				StatusCode:  rec.statusCode,
				ContentType: rec.header.Get("Content-Type"),
				Body:        rec.body.Bytes(),
				ETag:        ETag(rec.body.Bytes()),
			}
			if encoded, err := json.Marshal(cached); err == nil {
				if err := config.Cache.Set(ctx, key, encoded, config.TTL); err != nil {
					logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
				}
			}

			copyHeader(w.Header(), rec.header)
			writeCached(w, r, cached, config.CacheControl, "MISS")
		})
	}
}

func writeCached(w http.ResponseWriter, r *http.Request, cached cachedResponse, cacheControl, state string) {
	h := w.Header()
	h.Set("ETag", cached.ETag)
	h.Set("X-Cache", state)
	if cacheControl != "" {
		h.Set("Cache-Control", cacheControl)
	}

	if matchesETag(r.Header.Get("If-None-Match"), cached.ETag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	if cached.ContentType != "" {
		h.Set("Content-Type", cached.ContentType)
	}
	w.WriteHeader(cached.StatusCode)
	w.Write(cached.Body)
}

func copyHeader(dst, src http.Header) {
	for k, values := range src {
		dst[k] = append([]string(nil), values...)
	}
}

// bufferedWriter holds a whole response so it can be hashed and stored
// before anything reaches the client.
type bufferedWriter struct {
	header      http.Header
	body        bytes.Buffer
	statusCode  int
	wroteHeader bool
}

func (b *bufferedWriter) Header() http.Header {
	return b.header
}

func (b *bufferedWriter) WriteHeader(statusCode int) {
	if !b.wroteHeader {
		b.statusCode = statusCode
		b.wroteHeader = true
	}
}

func (b *bufferedWriter) Write(p []byte) (int, error) {
	b.wroteHeader = true
	return b.body.Write(p)
}
