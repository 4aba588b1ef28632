package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/jaennil/guide_helper/backend/tilecache/internal/manifest"
	"github.com/jaennil/guide_helper/backend/tilecache/internal/repository/cache"
	"github.com/jaennil/guide_helper/backend/tilecache/internal/repository/stats"
	"github.com/jaennil/guide_helper/backend/tilecache/internal/tile"
	"github.com/jaennil/guide_helper/backend/tilecache/pkg/config"
	"github.com/jaennil/guide_helper/backend/tilecache/pkg/logger"
	"github.com/jaennil/guide_helper/backend/tilecache/pkg/metrics"
	"github.com/jaennil/guide_helper/backend/tilecache/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// TileResponse is the result handed to the host shell. Failures never
// surface as Go errors, they are reported through Success and Error.
type TileResponse struct {
	Success bool    `json:"success"`
	Cached  bool    `json:"cached"`
	Path    *string `json:"path"`
	Error   *string `json:"error"`
}

type TileUseCase struct {
	resolver *tile.Resolver
	store    cache.TileStore
	fetcher  Fetcher
	builder  *manifest.Builder
	stats    stats.Recorder
	prefetch config.Prefetch
	logger   logger.Logger
	now      func() time.Time
}

func NewTileUseCase(
	r *tile.Resolver,
	store cache.TileStore,
	fetcher Fetcher,
	builder *manifest.Builder,
	recorder stats.Recorder,
	prefetch config.Prefetch,
	l logger.Logger,
) *TileUseCase {
	return &TileUseCase{
		resolver: r,
		store:    store,
		fetcher:  fetcher,
		builder:  builder,
		stats:    recorder,
		prefetch: prefetch,
		logger:   l,
		now:      time.Now,
	}
}

// DownloadTile returns the cached tile for c, fetching it from upstream on a
// miss. A successful fetch rebuilds the layer manifest before returning.
func (uc *TileUseCase) DownloadTile(ctx context.Context, c tile.Coordinate) TileResponse {
	return uc.fetchOrGetCached(ctx, c, true)
}

// DownloadTileByURL resolves an upstream tile URL back to a coordinate and
// downloads it.
func (uc *TileUseCase) DownloadTileByURL(ctx context.Context, rawURL string) (tile.Coordinate, TileResponse, error) {
	c, err := tile.ParseURL(rawURL)
	if err != nil {
		return tile.Coordinate{}, TileResponse{}, err
	}
	return c, uc.DownloadTile(ctx, c), nil
}

func (uc *TileUseCase) fetchOrGetCached(ctx context.Context, c tile.Coordinate, rebuild bool) TileResponse {
	layer := c.Layer.String()

	ctx, span := telemetry.Tracer().Start(ctx, "usecase.DownloadTile",
		trace.WithAttributes(
			attribute.String("tile.layer", layer),
			attribute.Int("tile.z", int(c.Z)),
			attribute.Int64("tile.x", int64(c.X)),
			attribute.Int64("tile.y", int64(c.Y)),
		),
	)
	defer span.End()

	metrics.TileRequests.WithLabelValues(layer).Inc()

	p, err := uc.resolver.Resolve(c)
	if err != nil {
		return uc.fail(ctx, span, c, "resolve", err)
	}

	if uc.store.Exists(p.Local) {
		metrics.CacheHits.WithLabelValues(layer).Inc()
		span.SetAttributes(attribute.Bool("tile.cached", true))
		uc.record(ctx, c.Layer, stats.Cached, 0)
		uc.logger.Debug("tile cache hit", "tile", c)
		return success(p.Local, true)
	}

	metrics.CacheMisses.WithLabelValues(layer).Inc()
	span.SetAttributes(attribute.Bool("tile.cached", false))

	if err := uc.store.Prepare(p.Local); err != nil {
		return uc.fail(ctx, span, c, "prepare", err)
	}

	metrics.UpstreamRequests.WithLabelValues(layer).Inc()
	start := time.Now()
	data, err := uc.fetcher.Fetch(ctx, p.URL)
	metrics.UpstreamLatency.WithLabelValues(layer).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamErrors.WithLabelValues(layer).Inc()
		return uc.fail(ctx, span, c, "fetch", err)
	}

	if err := uc.store.Write(p.Local, data); err != nil {
		return uc.fail(ctx, span, c, "write", err)
	}

	uc.logger.Info("downloaded tile", "tile", c, "size", len(data), "duration", time.Since(start))

	if rebuild {
		if _, err := uc.RebuildManifest(ctx, c.Layer); err != nil {
			return uc.fail(ctx, span, c, "manifest", err)
		}
	}

	uc.record(ctx, c.Layer, stats.Downloaded, int64(len(data)))
	span.SetStatus(codes.Ok, "")

	return success(p.Local, false)
}

func (uc *TileUseCase) fail(ctx context.Context, span trace.Span, c tile.Coordinate, stage string, err error) TileResponse {
	span.RecordError(err)
	span.SetStatus(codes.Error, stage)

	if errors.Is(err, context.Canceled) {
		uc.logger.Debug("tile request canceled", "tile", c, "stage", stage)
	} else {
		uc.logger.Warn("tile request failed", "tile", c, "stage", stage, "error", err)
	}

	uc.record(ctx, c.Layer, stats.Failed, 0)

	msg := err.Error()
	return TileResponse{
		Success: false,
		Cached:  false,
		Error:   &msg,
	}
}

func success(path string, cached bool) TileResponse {
	return TileResponse{
		Success: true,
		Cached:  cached,
		Path:    &path,
	}
}

// record never fails the tile request.
func (uc *TileUseCase) record(ctx context.Context, l tile.Layer, o stats.Outcome, bytes int64) {
	// A canceled request still counts.
	ctx = context.WithoutCancel(ctx)
	if err := uc.stats.Record(ctx, l, o, bytes); err != nil {
		metrics.StatsErrors.WithLabelValues("record").Inc()
		uc.logger.Warn("failed to record tile stats", "layer", l, "outcome", o, "error", err)
	}
}

// CheckTileExists only stats the resolved path.
func (uc *TileUseCase) CheckTileExists(c tile.Coordinate) (bool, error) {
	p, err := uc.resolver.Resolve(c)
	if err != nil {
		return false, err
	}
	return uc.store.Exists(p.Local), nil
}

// GetTilePath computes the absolute path without touching the disk.
func (uc *TileUseCase) GetTilePath(c tile.Coordinate) (string, error) {
	p, err := uc.resolver.Resolve(c)
	if err != nil {
		return "", err
	}
	return p.Local, nil
}

func (uc *TileUseCase) Stats(ctx context.Context) (stats.Snapshot, error) {
	s, err := uc.stats.Snapshot(ctx)
	if err != nil {
		metrics.StatsErrors.WithLabelValues("snapshot").Inc()
		return nil, err
	}
	return s, nil
}
