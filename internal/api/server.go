// Package api exposes the operation dispatch surface over HTTP. The
// transport is deliberately thin: one endpoint per concern, JSON in, text or
// a typed error out. Its error channel carries caller mistakes and internal
// faults only; a failed nix command is still a successful response.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mattjoyce/nixgw/internal/logstore"
	"github.com/mattjoyce/nixgw/internal/nix"
)

// Executor defines the dispatch operations the server needs.
type Executor interface {
	Execute(ctx context.Context, op string, raw json.RawMessage) (string, error)
	Ops() []nix.OpInfo
}

// Config holds API server configuration.
type Config struct {
	Listen string
	// APIKey is the bearer token required on all non-health endpoints.
	APIKey string
}

// Server is the HTTP API server.
type Server struct {
	config    Config
	executor  Executor
	store     *logstore.Store
	logger    *slog.Logger
	server    *http.Server
	startedAt time.Time
}

// New creates a new API server instance.
func New(config Config, executor Executor, store *logstore.Store, logger *slog.Logger) *Server {
	return &Server{
		config:    config,
		executor:  executor,
		store:     store,
		logger:    logger,
		startedAt: time.Now(),
	}
}

// Start starts the HTTP server (blocking until ctx is cancelled).
func (s *Server) Start(ctx context.Context) error {
	router := s.setupRoutes()

	s.server = &http.Server{
		Addr:         s.config.Listen,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // commands have no timeout; responses may take as long as nix does
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("API server starting", "listen", s.config.Listen)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("API server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// setupRoutes configures the HTTP router.
func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	// Unauthenticated ops endpoint.
	r.Get("/healthz", s.handleHealthz)

	// Protected API.
	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Post("/op/{name}", s.handleOp)
		r.Get("/ops", s.handleListOps)
		r.Get("/logs", s.handleListLogs)
		r.Get("/logs/{logID}", s.handleGetLog)
	})

	return r
}

// loggingMiddleware logs HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
