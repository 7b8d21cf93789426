// Package web provides the operational HTTP server: a health check, the
// run history endpoint and trigger endpoints that start reconciliation
// runs on demand.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/skusync/skusync/internal/config"
	"github.com/skusync/skusync/internal/reconcile"
	"github.com/skusync/skusync/internal/store"
	"github.com/skusync/skusync/internal/web/middleware"
)

// RunService is the surface of the reconciliation service the server needs.
type RunService interface {
	ImportCSV(ctx context.Context) (*reconcile.Report, error)
	SyncExternal(ctx context.Context) (*reconcile.Report, error)
	RecentRuns(ctx context.Context, limit int) ([]store.SyncRun, error)
	Ping(ctx context.Context) error
}

// Server is the operational HTTP server.
type Server struct {
	service RunService
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a Server instance wired to the given service.
func NewServer(service RunService, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)

	if proxies := strings.TrimSpace(s.cfg.Server.TrustedProxies); proxies != "" {
		s.router.Use(middleware.TrustedRealIP(strings.Split(proxies, ",")))
	} else {
		s.router.Use(chimw.RealIP)
	}

	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5))

	if s.cfg.Rate.Enabled {
		limiter := newRateLimiter(s.cfg.Rate.PerMinute, time.Minute)
		s.router.Use(limiter.middleware)
	}

	// No global request timeout: the trigger endpoints run a full
	// reconciliation pass before responding.
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(s.cfg.Security.Keys()))

		r.Get("/runs", s.handleListRuns)
		r.Post("/runs/import", s.handleTriggerImport)
		r.Post("/runs/sync", s.handleTriggerSync)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
