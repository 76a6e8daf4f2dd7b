// Package cache provides an optional response cache for the report API.
// Reports are computed fresh on every request unless a backend is
// configured.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Cache defines the interface for all cache backends
type Cache interface {
	// Get retrieves a value; a missing or expired key returns ErrCacheMiss
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with a TTL; zero selects the backend default
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from the cache
	Delete(ctx context.Context, key string) error

	// Clear removes every value under the cache prefix
	Clear(ctx context.Context) error

	// Close releases the backend's resources
	Close() error
}

// ErrCacheMiss is returned when a key is not found in the cache
var ErrCacheMiss = errors.New("cache miss")

// Backend names
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config selects and configures a cache backend
type Config struct {
	// Backend is none, memory or redis
	Backend string

	// TTL is the default time-to-live for cached responses
	TTL time.Duration

	// Prefix is prepended to all cache keys
	Prefix string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// DefaultConfig returns the cache configuration used when none is given
func DefaultConfig() Config {
	return Config{
		Backend:   BackendNone,
		TTL:       time.Minute,
		Prefix:    "fieldradar:",
		RedisAddr: "localhost:6379",
	}
}

// New opens the configured backend. BackendNone returns a nil Cache, which
// the middleware treats as disabled.
func New(ctx context.Context, cfg Config) (Cache, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendNone:
		return nil, nil
	case BackendMemory:
		return NewMemoryCache(cfg), nil
	case BackendRedis:
		return NewRedisCache(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown cache backend %q (want none, memory or redis)", cfg.Backend)
	}
}
