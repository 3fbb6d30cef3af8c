// Command mapmaker-server serves the map pipeline over HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/mapmaker/internal/adapter/http"
	"github.com/couchcryptid/mapmaker/internal/adapter/tabular"
	"github.com/couchcryptid/mapmaker/internal/adapter/topojson"
	"github.com/couchcryptid/mapmaker/internal/config"
	"github.com/couchcryptid/mapmaker/internal/domain"
	"github.com/couchcryptid/mapmaker/internal/observability"
	"github.com/couchcryptid/mapmaker/internal/pipeline"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Boundary coverage checks are feature-flagged via BOUNDARY_FETCH_ENABLED.
	var boundary domain.BoundarySource
	if cfg.BoundaryFetchEnabled {
		client := topojson.NewClient(cfg.BoundaryTimeout, metrics, logger)
		boundary = topojson.NewCachedSource(client, cfg.BoundaryCacheSize, metrics)
		logger.Info("boundary coverage enabled", "url", cfg.Boundary.URL, "feature", cfg.Boundary.Feature, "cache_size", cfg.BoundaryCacheSize)
	} else {
		logger.Info("boundary coverage disabled")
	}

	reader := tabular.NewReader(cfg.FetchTimeout, cfg.MaxUploadBytes, logger)
	builder := pipeline.NewBuilder(cfg.Boundary, logger)
	p := pipeline.New(reader, builder, boundary, cfg.Boundary, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, httpadapter.Options{
		MaxUploadBytes: cfg.MaxUploadBytes,
		ReadDefaults:   cfg.ReadDefaults(),
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Load the boundary dataset in the background; /readyz reports 503 until it succeeds.
	go p.WarmUntilReady(ctx)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
