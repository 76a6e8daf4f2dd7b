// Package router wraps chi with route introspection so the registered API
// can be listed from the command line and logged at startup.
package router

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/fieldradar/fieldradar/internal/web/middleware"
	"github.com/fieldradar/fieldradar/internal/web/response"
)

// Router manages HTTP routing using chi framework
type Router struct {
	mux    chi.Router
	prefix string

	// shared between a router and the groups made from it
	routes *[]*RouteInfo
}

// RouteInfo provides metadata about a route for introspection
type RouteInfo struct {
	Method      string   `json:"method"`
	Pattern     string   `json:"pattern"`
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	Parameters  []string `json:"parameters,omitempty"`
}

// Named sets a name for the route
func (ri *RouteInfo) Named(name string) *RouteInfo {
	ri.Name = name
	return ri
}

// Describe sets a one-line description for the route
func (ri *RouteInfo) Describe(description string) *RouteInfo {
	ri.Description = description
	return ri
}

// NewRouter creates a new Router with JSON 404 and 405 handlers
func NewRouter() *Router {
	mux := chi.NewRouter()
	mux.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.RenderNotFound(w, fmt.Sprintf("no route for %s", r.URL.Path))
	})
	mux.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.RenderError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
	})

	routes := make([]*RouteInfo, 0)
	return &Router{mux: mux, routes: &routes}
}

// ServeHTTP implements http.Handler interface
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Use adds middleware to the router. Like chi, all middleware must be
// added before the first route.
func (r *Router) Use(middlewares ...middleware.Middleware) {
	r.mux.Use(middleware.NewChain(middlewares...).Middlewares()...)
}

// Get registers a GET route
func (r *Router) Get(pattern string, handler http.HandlerFunc) *RouteInfo {
	return r.addRoute(http.MethodGet, pattern, handler)
}

// Handle registers handler for every method on pattern
func (r *Router) Handle(pattern string, handler http.Handler) *RouteInfo {
	r.mux.Handle(pattern, handler)
	return r.record("*", pattern)
}

func (r *Router) addRoute(method, pattern string, handler http.HandlerFunc) *RouteInfo {
	r.mux.Method(method, pattern, handler)
	return r.record(method, pattern)
}

func (r *Router) record(method, pattern string) *RouteInfo {
	full := r.prefix + pattern
	info := &RouteInfo{
		Method:     method,
		Pattern:    full,
		Parameters: extractParameters(full),
	}
	*r.routes = append(*r.routes, info)
	return info
}

// Group creates a route group with a common prefix. Middleware added to
// the group applies to its routes only.
func (r *Router) Group(prefix string, fn func(g *Router)) {
	r.mux.Route(prefix, func(sub chi.Router) {
		fn(&Router{mux: sub, prefix: r.prefix + prefix, routes: r.routes})
	})
}

// Routes returns all registered routes sorted by pattern then method
func (r *Router) Routes() []RouteInfo {
	out := make([]RouteInfo, len(*r.routes))
	for i, ri := range *r.routes {
		out[i] = *ri
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Pattern != out[j].Pattern {
			return out[i].Pattern < out[j].Pattern
		}
		return out[i].Method < out[j].Method
	})
	return out
}

// extractParameters returns the path parameter names of a chi pattern
func extractParameters(pattern string) []string {
	var params []string
	for _, part := range strings.Split(pattern, "/") {
		if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") {
			name := strings.Trim(part, "{}")
			// {name:regex}
			if i := strings.IndexByte(name, ':'); i >= 0 {
				name = name[:i]
			}
			params = append(params, name)
		}
	}
	return params
}
