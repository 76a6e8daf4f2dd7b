// Package profiling mounts the runtime pprof endpoints. They expose stacks
// and memory contents, so the report server only mounts them when
// server.profiling is set.
package profiling

import (
	"net/http"
	"net/http/pprof"
	"runtime"

	"github.com/go-chi/chi/v5"
)

// DefaultPath is the mount point used by the report server
const DefaultPath = "/debug/pprof"

// Config holds profiling configuration
type Config struct {
	// Path prefixes every route; empty selects DefaultPath
	Path string

	// BlockRate sets the block profiling rate (0 leaves it disabled)
	BlockRate int

	// MutexFraction sets the mutex profiling fraction (0 leaves it disabled)
	MutexFraction int
}

// Handler returns a router serving the pprof index and named profiles
// under config.Path. Requests arrive with their full path, so the handler
// is registered on a wildcard rather than mounted.
func Handler(config Config) http.Handler {
	prefix := config.Path
	if prefix == "" {
		prefix = DefaultPath
	}
	if config.BlockRate > 0 {
		runtime.SetBlockProfileRate(config.BlockRate)
	}
	if config.MutexFraction > 0 {
		runtime.SetMutexProfileFraction(config.MutexFraction)
	}

	r := chi.NewRouter()
	r.HandleFunc(prefix+"/", pprof.Index)
	r.HandleFunc(prefix+"/cmdline", pprof.Cmdline)
	r.HandleFunc(prefix+"/profile", pprof.Profile)
	r.HandleFunc(prefix+"/symbol", pprof.Symbol)
	r.HandleFunc(prefix+"/trace", pprof.Trace)
	for _, name := range []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"} {
		r.Handle(prefix+"/"+name, pprof.Handler(name))
	}
	return r
}
