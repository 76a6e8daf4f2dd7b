// Package api exposes the report service as a read-only JSON API.
package api

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fieldradar/fieldradar/internal/metrics"
	"github.com/fieldradar/fieldradar/internal/report"
	"github.com/fieldradar/fieldradar/internal/web/cache"
	"github.com/fieldradar/fieldradar/internal/web/middleware"
	"github.com/fieldradar/fieldradar/internal/web/profiling"
	"github.com/fieldradar/fieldradar/internal/web/router"
)

// Pinger reports whether the backing database is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config wires the API's collaborators
type Config struct {
	Service  *report.Service
	Defaults report.Defaults

	// Health backs /healthz; nil reports healthy unconditionally
	Health Pinger

	// Metrics backs /metrics and the metrics middleware; nil disables both
	Metrics *metrics.Metrics

	// Cache enables response caching for /api routes when non-nil
	Cache        cache.Cache
	CacheTTL     time.Duration
	CacheControl string

	// Timeout bounds each request; zero disables it
	Timeout time.Duration

	// Profiling mounts the pprof endpoints under /debug/pprof
	Profiling bool

	Logger *zap.Logger
}

// Handler serves the report API
type Handler struct {
	service  *report.Service
	defaults report.Defaults
	health   Pinger
	router   *router.Router
}

// New builds the API handler and registers its routes
func New(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	h := &Handler{
		service:  cfg.Service,
		defaults: cfg.Defaults,
		health:   cfg.Health,
		router:   router.NewRouter(),
	}

	h.router.Use(
		middleware.RequestID(),
		middleware.Logging(logger, "/healthz", "/metrics"),
		middleware.Recovery(logger),
		middleware.Metrics(cfg.Metrics),
	)

	h.router.Get("/healthz", h.healthz).Describe("database reachability")
	if cfg.Metrics != nil {
		h.router.Handle("/metrics", cfg.Metrics.Handler()).Describe("prometheus metrics")
	}
	if cfg.Profiling {
		h.router.Handle(profiling.DefaultPath+"/*", profiling.Handler(profiling.Config{})).Describe("runtime profiles")
	}

	h.router.Group("/api", func(g *router.Router) {
		g.Use(
			middleware.Timeout(cfg.Timeout),
			cache.Middleware(cache.MiddlewareConfig{
				Cache:        cfg.Cache,
				TTL:          cfg.CacheTTL,
				CacheControl: cfg.CacheControl,
				Logger:       logger,
			}),
		)

		g.Get("/content-types", h.contentTypes).
			Named("content_types").
			Describe("content types an operator can pick")
		g.Get("/report", h.report).
			Named("report").
			Describe("overview plus the show_posts or show_meta drill-down")
		g.Get("/types/{type}/keys", h.keys).
			Named("keys").
			Describe("reportable keys of a content type with usage counts")
		g.Get("/types/{type}/keys/{key}/posts", h.posts).
			Named("posts").
			Describe("every record using a key, with value summaries")
		g.Get("/types/{type}/keys/{key}/records", h.records).
			Named("records").
			Describe("one page of records using a key")
		g.Get("/routes", h.routes).
			Named("routes").
			Describe("this list")
	})

	return h
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// Routes lists the registered routes
func (h *Handler) Routes() []router.RouteInfo {
	return h.router.Routes()
}
