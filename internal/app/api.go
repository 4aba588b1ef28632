package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	v1 "github.com/jaennil/guide_helper/backend/tilecache/internal/infrastructure/http/v1"
	"github.com/jaennil/guide_helper/backend/tilecache/internal/infrastructure/http/v1/handler"
	"github.com/jaennil/guide_helper/backend/tilecache/internal/infrastructure/upstream"
	"github.com/jaennil/guide_helper/backend/tilecache/internal/manifest"
	"github.com/jaennil/guide_helper/backend/tilecache/internal/repository/cache"
	"github.com/jaennil/guide_helper/backend/tilecache/internal/repository/stats"
	"github.com/jaennil/guide_helper/backend/tilecache/internal/tile"
	"github.com/jaennil/guide_helper/backend/tilecache/internal/usecase"
	"github.com/jaennil/guide_helper/backend/tilecache/pkg/config"
	"github.com/jaennil/guide_helper/backend/tilecache/pkg/http_server"
	"github.com/jaennil/guide_helper/backend/tilecache/pkg/logger"
	"github.com/jaennil/guide_helper/backend/tilecache/pkg/telemetry"
)

func Run(cfg *config.Config) {
	l := logger.NewZapLogger(cfg.Logger)
	defer l.Sync()

	l.Info("app config", "cfg", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx = logger.WithLogger(ctx, l)

	if cfg.Telemetry.Enabled {
		shutdownTelemetry, err := telemetry.InitTracer(telemetry.Config{
			ServiceName:    cfg.Telemetry.ServiceName,
			ServiceVersion: cfg.Telemetry.ServiceVersion,
			Environment:    cfg.Telemetry.Environment,
			OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		}, l)
		if err != nil {
			l.Fatal("failed to initialize telemetry", "error", err)
		}
		defer func() {
			if err := shutdownTelemetry(context.Background()); err != nil {
				l.Error("failed to shutdown telemetry", "error", err)
			}
		}()
		l.Info("telemetry initialized", "service", cfg.Telemetry.ServiceName)
	}

	dataDir, err := cfg.Cache.Root()
	if err != nil {
		l.Fatal("failed to resolve data directory", "error", err)
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		l.Fatal("failed to create data directory", "path", dataDir, "error", err)
	}
	l.Info("using data directory", "path", dataDir)

	resolver := tile.NewResolver(dataDir, tile.Descriptors(cfg.Upstream.OSMURL, cfg.Upstream.SatelliteURL))

	recorder, err := stats.NewRecorder(cfg, dataDir, l)
	if err != nil {
		l.Fatal("failed to initialize stats recorder", "error", err)
	}
	defer func() {
		if err := recorder.Close(); err != nil {
			l.Error("failed to close stats recorder", "error", err)
		}
	}()

	tileUseCase := usecase.NewTileUseCase(
		resolver,
		cache.NewFilesystemCache(),
		upstream.NewFetcher(cfg.Upstream, l),
		manifest.NewBuilder(resolver),
		recorder,
		cfg.Prefetch,
		l,
	)

	validate := validator.New()
	h := handler.NewHandler(validate, tileUseCase)
	router := v1.NewRouter(h, l, cfg.Telemetry.Enabled)

	httpServer := http_server.NewServer(cfg.HTTP.Server, router)

	serverErr := make(chan error, 1)
	go func() {
		l.Info("starting http server...", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		l.Info("received shutdown signal")
	case err := <-serverErr:
		if err != nil {
			l.Error("http server failed", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	l.Info("shutting down http server...", "address", httpServer.Addr)
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		l.Error("http server shutdown failed", "error", err)
	} else {
		l.Info("http server shutdown completed")
	}

	l.Info("application shutdown completed")
}
