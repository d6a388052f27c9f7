package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/great-lakes-hab-etl/internal/adapter/api"
	"github.com/couchcryptid/great-lakes-hab-etl/internal/adapter/filestore"
	"github.com/couchcryptid/great-lakes-hab-etl/internal/adapter/ndbc"
	"github.com/couchcryptid/great-lakes-hab-etl/internal/config"
	"github.com/couchcryptid/great-lakes-hab-etl/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	stations, err := ndbc.LoadStations(cfg.BuoyListPath)
	if err != nil {
		logger.Error("failed to load buoy stations", "error", err)
		os.Exit(1)
	}

	store := filestore.New(cfg.OutputDir)
	buoys := ndbc.NewCachedClient(
		ndbc.NewClient(cfg.NDBCBaseURL, cfg.NDBCTimeout, metrics, logger),
		cfg.BuoyCacheSize, cfg.BuoyCacheTTL, metrics,
	)

	srv, err := api.New(api.Options{
		Addr:              cfg.APIAddr,
		ArtifactCacheSize: cfg.ArtifactCacheSize,
		ShutdownTimeout:   cfg.ShutdownTimeout,
	}, store, buoys, stations, store, logger, metrics)
	if err != nil {
		logger.Error("failed to create api server", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("serving artifacts", "output", cfg.OutputDir, "stations", len(stations))
	if err := srv.Run(ctx); err != nil {
		logger.Error("api server error", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
