// Package server provides the public API HTTP server
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/cookscabinet/cabinet/internal/infrastructure/config"
	"github.com/cookscabinet/cabinet/internal/infrastructure/http/handlers"
	"github.com/cookscabinet/cabinet/internal/infrastructure/http/middleware"
	"github.com/cookscabinet/cabinet/internal/infrastructure/monitoring"
	"github.com/cookscabinet/cabinet/internal/ports/inbound"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// Server represents the HTTP server
type Server struct {
	config  *config.Config
	logger  *zap.Logger
	engine  *gin.Engine
	handler http.Handler
	server  *http.Server
}

// NewServer creates a new HTTP server instance. A nil metrics collector skips request metrics.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	recipeService inbound.RecipeService,
	generationService inbound.GenerationService,
	metrics *monitoring.MetricsCollector,
) (*Server, error) {
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config: cfg,
		logger: logger,
	}

	engine, err := s.setupRouter(recipeService, generationService, metrics)
	if err != nil {
		return nil, err
	}
	s.engine = engine

	s.handler = engine
	if cfg.Server.EnableCompression {
		s.handler = chimiddleware.Compress(5, "application/json", "application/yaml")(s.handler)
	}
	if cfg.Server.EnableH2C {
		s.handler = h2c.NewHandler(s.handler, &http2.Server{})
	}

	s.server = &http.Server{
		Addr:              cfg.GetServerAddr(),
		Handler:           s.handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		MaxHeaderBytes:    cfg.Server.MaxHeaderBytes,
	}

	return s, nil
}

func (s *Server) setupRouter(
	recipeService inbound.RecipeService,
	generationService inbound.GenerationService,
	metrics *monitoring.MetricsCollector,
) (*gin.Engine, error) {
	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	if err := engine.SetTrustedProxies(s.config.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	mw := middleware.New(s.config, s.logger)

	engine.Use(mw.Recovery())
	engine.Use(mw.RequestID())
	engine.Use(mw.Tracing())
	engine.Use(mw.Logger())
	if metrics != nil {
		engine.Use(metrics.HTTPMiddleware())
	}
	engine.Use(mw.Security())
	engine.Use(mw.CORS())
	engine.Use(mw.RateLimit())
	engine.Use(mw.ErrorHandler())
	engine.Use(mw.BodyLimit(s.config.Server.MaxBodyBytes))

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handlers.APIResponse{Success: false, Message: "Route not found"})
	})

	v1 := engine.Group("/api/v1")

	// Generation runs under its own deadline
	handlers.NewGenerationHandlers(generationService, s.logger).Register(v1)

	crud := v1.Group("", mw.Timeout(s.config.Server.RequestTimeout))
	handlers.NewRecipeHandlers(recipeService, s.config.AI.JPEGQuality, s.config.AI.MaxImagePixels, s.logger).Register(crud)

	return engine, nil
}

// Handler exposes the fully wrapped handler for tests
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return s.server.Addr
}

// Start blocks serving until the server is shut down
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server",
		zap.String("address", s.server.Addr),
		zap.String("environment", s.config.App.Environment),
		zap.Bool("h2c", s.config.Server.EnableH2C),
	)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
