// Package httpdebug exposes a read-only introspection server over a
// store's snapshot and observer counts, mounted with
// github.com/go-chi/chi/v5 the way the teacher's modules/httpserver and
// modules/chimux expose their own health/debug endpoints: a library-level
// http.Handler a host program mounts itself, not a standalone binary.
package httpdebug

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/corestore/corestore"
	"github.com/corestore/corestore/serialize"
)

// Server is an http.Handler exposing:
//
//	GET /snapshot  — the store's current state as a JSON atom tree
//	GET /observers — counts of currently registered listeners and handlers
type Server struct {
	router chi.Router
}

// New mounts a Server's routes against store.
func New(store *corestore.Store) *Server {
	s := &Server{router: chi.NewRouter()}
	s.router.Get("/snapshot", s.handleSnapshot(store))
	s.router.Get("/observers", s.handleObservers(store))
	return s
}

// ServeHTTP satisfies http.Handler, so a Server can be mounted directly
// into a host program's own router via Mount("/debug", server).
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleSnapshot(store *corestore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := serialize.StoreSnapshot(store)
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(snap)
	}
}

type observerCounts struct {
	Listeners int  `json:"listeners"`
	Handlers  int  `json:"handlers"`
	Finished  bool `json:"finished"`
}

func (s *Server) handleObservers(store *corestore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts := observerCounts{
			Listeners: store.ListenerCount(),
			Handlers:  store.HandlerCount(),
			Finished:  store.Finished(),
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(counts)
	}
}
