// Package opsserver provides the operations HTTP server: metrics, probes and API docs
package opsserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cookscabinet/cabinet/internal/infrastructure/config"
	"github.com/cookscabinet/cabinet/internal/infrastructure/http/middleware"
	"github.com/cookscabinet/cabinet/pkg/healthcheck"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Server serves operational endpoints on a separate port from the API
type Server struct {
	logger *zap.Logger
	server *http.Server
	router *chi.Mux
}

// New creates the operations server. A nil metrics handler omits /metrics.
func New(cfg *config.Config, logger *zap.Logger, health *healthcheck.HealthCheck, metrics http.Handler) *Server {
	logger = logger.Named("ops")

	s := &Server{logger: logger}
	s.router = s.setupRoutes(health, metrics, NewOpenAPIHandler(logger))
	s.server = &http.Server{
		Addr:              cfg.GetMetricsAddr(),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

func (s *Server) setupRoutes(health *healthcheck.HealthCheck, metrics http.Handler, docs *OpenAPIHandler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.OpsRecoverer(s.logger))
	r.Use(middleware.OpsLogger(s.logger))

	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}

	r.Get("/health", health.Handler())
	r.Get("/healthz", health.LivenessHandler())
	r.Get("/readyz", health.ReadinessHandler())

	r.Get("/openapi.yaml", docs.ServeYAML)
	r.Get("/openapi.json", docs.ServeJSON)

	return r
}

// Handler exposes the router for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return s.server.Addr
}

// Start blocks serving until the server is shut down
func (s *Server) Start() error {
	s.logger.Info("Starting operations server", zap.String("address", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("ops server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down operations server")
	return s.server.Shutdown(ctx)
}
