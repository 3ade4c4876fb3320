// Package stubapi serves a local stand-in for the posts/users/comments API
// used by the enrichment utility, with optional failure injection.
package stubapi

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ignite/lead-cleaner/internal/pkg/httputil"
)

// Failure makes the first Count requests to a path answer with Status.
type Failure struct {
	Count  int
	Status int
}

// Options configures the stub.
type Options struct {
	Fixtures Fixtures
	// FailFirst maps a route path ("/posts") to injected failures.
	FailFirst map[string]Failure
	// InvalidJSON lists paths that answer 200 with a body that is not JSON.
	InvalidJSON map[string]bool
	// Logging enables chi's request logger.
	Logging bool
}

type server struct {
	opts Options

	mu   sync.Mutex
	hits map[string]int
}

// NewRouter returns the stub HTTP handler.
func NewRouter(opts Options) http.Handler {
	s := &server{opts: opts, hits: map[string]int{}}

	r := chi.NewRouter()
	if opts.Logging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("X-Server-Identity", "lead-cleaner-stub-api")
			next.ServeHTTP(w, req)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.NotFound(w, "no route "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httputil.MethodNotAllowed(w)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.OK(w, map[string]string{"status": "healthy", "service": "stub-api"})
	})

	r.Group(func(r chi.Router) {
		r.Use(s.inject)
		r.Get("/posts", func(w http.ResponseWriter, r *http.Request) {
			httputil.OK(w, nonNil(s.opts.Fixtures.Posts))
		})
		r.Get("/users", func(w http.ResponseWriter, r *http.Request) {
			httputil.OK(w, nonNil(s.opts.Fixtures.Users))
		})
		r.Get("/comments", func(w http.ResponseWriter, r *http.Request) {
			httputil.OK(w, nonNil(s.opts.Fixtures.Comments))
		})
	})

	return r
}

// inject applies configured failures before the data handlers run.
func (s *server) inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		s.mu.Lock()
		s.hits[path]++
		hit := s.hits[path]
		s.mu.Unlock()

		if f, ok := s.opts.FailFirst[path]; ok && hit <= f.Count {
			httputil.Error(w, f.Status, "injected failure")
			return
		}
		if s.opts.InvalidJSON[path] {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"truncated": [`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
