// Package server provides the HTTP control surface for swipectl.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/ayusman/swipectl/internal/log"
	"github.com/ayusman/swipectl/internal/plugin"
	"github.com/ayusman/swipectl/internal/server/api"
	"github.com/ayusman/swipectl/internal/store"
)

// Config holds the server configuration. Optional fields that are nil
// leave their routes unregistered.
type Config struct {
	StaticDir string
	Store     *store.Store
	Plugins   *plugin.Manager

	// OnBindingsChanged runs after the bindings API writes to Store.
	OnBindingsChanged func() error

	Controller api.Controller
	Frames     FrameSource
	FPS        int
	Events     *Hub
}

// Server represents the HTTP server for the swipectl application.
type Server struct {
	config Config
	router *mux.Router
	start  time.Time
	http   *http.Server
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		router: mux.NewRouter(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.router.Use(requestLogger)

	apiRouter := s.router.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.AllowOnly(apiRouter, "/health", http.MethodGet)

	if s.config.Store != nil {
		api.NewBindingHandler(s.config.Store, s.config.Plugins, s.config.OnBindingsChanged).Register(apiRouter)
	}

	if s.config.Controller != nil {
		api.NewStateHandler(s.config.Controller, s.config.Plugins).Register(apiRouter)
	}

	if s.config.Frames != nil {
		apiRouter.Handle("/stream", NewStreamHandler(s.config.Frames, s.config.FPS)).Methods(http.MethodGet)
		api.AllowOnly(apiRouter, "/stream", http.MethodGet)
	}

	if s.config.Events != nil {
		apiRouter.Handle("/events", s.config.Events).Methods(http.MethodGet)
		api.AllowOnly(apiRouter, "/events", http.MethodGet)
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		s.router.PathPrefix("/").Handler(http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on addr and blocks until ctx is
// canceled or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", addr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}
