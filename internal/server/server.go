package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bantamhq/arbor/internal/auth"
	"github.com/bantamhq/arbor/internal/store"
)

// Server is the development listing service.
type Server struct {
	store  store.Store
	repos  *Repos
	auth   *auth.Verifier
	router *chi.Mux
}

// NewServer creates a new server instance. A nil verifier serves without
// authentication.
func NewServer(st store.Store, repos *Repos, v *auth.Verifier) *Server {
	s := &Server{
		store:  st,
		repos:  repos,
		auth:   v,
		router: chi.NewRouter(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(BearerAuthMiddleware(s.auth))

		// Browsing
		r.Get("/browse/roots", s.handleRoots)
		r.Get("/browse/children", s.handleChildren)
		r.Get("/browse/info", s.handleInfo)

		// Artifact actions
		r.Delete("/artifacts", s.handleDeleteArtifact)
		r.Post("/artifacts/move", s.handleMoveArtifact)
		r.Post("/artifacts/copy", s.handleCopyArtifact)

		// Stashed search results
		r.Get("/stash", s.handleListStash)
		r.Post("/stash", s.handleSearchIntoStash)
		r.Delete("/stash", s.handleClearStash)
		r.Delete("/stash/item", s.handleDiscardStashItem)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// writeRepoError maps a repository failure to its HTTP status.
func writeRepoError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, ErrRepoNotFound), errors.Is(err, ErrPathNotFound):
		JSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidPath):
		JSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrConflict):
		JSONError(w, http.StatusConflict, err.Error())
	default:
		JSONError(w, http.StatusInternalServerError, "Failed to "+action)
	}
}

// Start starts the HTTP server on the given host and port.
func (s *Server) Start(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	fmt.Printf("Starting server on %s\n", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return server.ListenAndServe()
}
