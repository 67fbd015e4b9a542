package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/noot-app/fct-api/internal/auth"
	"github.com/noot-app/fct-api/internal/config"
	"github.com/noot-app/fct-api/internal/mcpgo"
	"github.com/noot-app/fct-api/internal/query"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Server serves the REST API and the MCP endpoint over HTTP
type Server struct {
	config      *config.Config
	engine      query.QueryEngine
	initializer *ServerInitializer
	mcp         *mcpgo.Server
	auth        *auth.BearerTokenAuth
	rateLimiter *rate.Limiter
	log         *slog.Logger

	// Readiness caching
	healthMu        sync.RWMutex
	lastHealthCheck time.Time
	lastHealthError error
}

// New creates a new server instance. initializer may be nil when the engine
// is not backed by a data directory, in which case no reloads happen.
func New(cfg *config.Config, engine query.QueryEngine, initializer *ServerInitializer, mcpServer *mcpgo.Server, logger *slog.Logger) *Server {
	s := &Server{
		config:      cfg,
		engine:      engine,
		initializer: initializer,
		mcp:         mcpServer,
		auth:        auth.NewBearerTokenAuth(cfg.AuthToken),
		log:         logger,
	}
	if cfg.RateLimit > 0 {
		s.rateLimiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), max(cfg.RateLimitBurst, 1))
	}
	return s
}

// Handler returns the routed handler with the middleware chain applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle(RouteFoods, instrument(RouteFoods, http.HandlerFunc(s.handleFoods)))
	mux.Handle(RouteFood, instrument(RouteFood, http.HandlerFunc(s.handleFood)))
	mux.Handle(RouteNutrients, instrument(RouteNutrients, http.HandlerFunc(s.handleNutrients)))
	mux.Handle(RouteCategories, instrument(RouteCategories, http.HandlerFunc(s.handleCategories)))

	// System endpoints (no auth or rate limiting)
	mux.Handle(RouteHealth, instrument(RouteHealth, http.HandlerFunc(s.handleHealth)))
	mux.Handle(RouteReady, instrument(RouteReady, http.HandlerFunc(s.handleReady)))
	mux.Handle(RouteMetrics, promhttp.Handler())

	if s.mcp != nil {
		mux.Handle(mcpgo.Endpoint, instrument(mcpgo.Endpoint, s.mcp.Handler()))
	}

	return s.withMiddleware(mux)
}

// Start serves HTTP until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:         ":" + s.config.Port,
		Handler:      s.Handler(),
		ReadTimeout:  HTTPReadTimeout,
		WriteTimeout: HTTPWriteTimeout,
		IdleTimeout:  HTTPIdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	if s.initializer != nil {
		g.Go(func() error {
			return s.initializer.RunReloadLoop(gctx)
		})
	}

	g.Go(func() error {
		s.log.Info("🌐 HTTP server ready",
			"addr", httpServer.Addr,
			"auth", s.auth.Enabled(),
			"rate_limit", s.config.RateLimit,
			"mcp_endpoint", s.mcp != nil)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), HTTPShutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.log.Error("Server shutdown error", "error", err)
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	s.log.Info("Server stopped")
	return nil
}
