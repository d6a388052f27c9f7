// Package api serves the chlorophyll artifacts and live buoy readings to the
// dashboard over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/great-lakes-hab-etl/internal/adapter/ndbc"
	"github.com/couchcryptid/great-lakes-hab-etl/internal/domain"
	"github.com/couchcryptid/great-lakes-hab-etl/internal/observability"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

// ArtifactReader is the read side of the artifact store.
type ArtifactReader interface {
	Read(region string, month domain.MonthKey) ([]domain.Sample, error)
	Months(region string) ([]domain.MonthKey, error)
}

// Options configures the API server.
type Options struct {
	Addr              string
	ArtifactCacheSize int
	// BuoyConcurrency bounds parallel NDBC requests per /api/buoys call.
	BuoyConcurrency int
	ShutdownTimeout time.Duration
}

// Server bundles the gin router and its dependencies.
type Server struct {
	opts      Options
	artifacts *artifactCache
	buoys     ndbc.Fetcher
	stations  []domain.Station
	ready     sharedobs.ReadinessChecker
	engine    *gin.Engine
	logger    *slog.Logger
}

// New constructs a server with routes and middleware.
func New(
	opts Options,
	store ArtifactReader,
	buoys ndbc.Fetcher,
	stations []domain.Station,
	ready sharedobs.ReadinessChecker,
	logger *slog.Logger,
	metrics *observability.Metrics,
) (*Server, error) {
	if opts.BuoyConcurrency <= 0 {
		opts.BuoyConcurrency = 4
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	artifacts, err := newArtifactCache(store, opts.ArtifactCacheSize, metrics)
	if err != nil {
		return nil, err
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(logger))
	engine.Use(corsMiddleware())

	s := &Server{
		opts:      opts,
		artifacts: artifacts,
		buoys:     buoys,
		stations:  stations,
		ready:     ready,
		engine:    engine,
		logger:    logger,
	}
	s.registerRoutes()
	return s, nil
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run serves until ctx is cancelled, then drains connections.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api server starting", "addr", s.opts.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", gin.WrapF(sharedobs.LivenessHandler()))
	s.engine.GET("/readyz", gin.WrapF(sharedobs.ReadinessHandler(s.ready)))
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.engine.Group("/api")
	{
		api.GET("/regions", s.handleRegions)
		api.GET("/buoys", s.handleBuoys)
		api.GET("/chlorophyll/:region", s.handleMonths)
		api.GET("/chlorophyll/:region/:yearMonth", s.handleChlorophyll)
		api.GET("/chlorophyll/:region/:yearMonth/nearest", s.handleNearest)
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
