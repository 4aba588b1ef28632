package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jaennil/guide_helper/backend/tilecache/internal/manifest"
	"github.com/jaennil/guide_helper/backend/tilecache/internal/tile"
	"github.com/jaennil/guide_helper/backend/tilecache/pkg/metrics"
	"github.com/jaennil/guide_helper/backend/tilecache/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// GetManifest returns the stored manifest for l without checking it against
// disk. When none exists an empty one is persisted and returned. A manifest
// that fails to parse is reported, not repaired.
func (uc *TileUseCase) GetManifest(ctx context.Context, l tile.Layer) (manifest.Manifest, error) {
	d, err := uc.resolver.Descriptor(l)
	if err != nil {
		return manifest.Manifest{}, err
	}

	path := uc.resolver.ManifestPath(l)

	m, err := manifest.Load(path)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, manifest.ErrNotFound) {
		uc.logger.Error("failed to load manifest", "layer", l, "path", path, "error", err)
		return manifest.Manifest{}, err
	}

	if err := os.MkdirAll(uc.resolver.Root(), 0o755); err != nil {
		return manifest.Manifest{}, fmt.Errorf("failed to create tiles directory: %w", err)
	}

	m, created, err := manifest.SaveIfAbsent(path, manifest.Empty(d, uc.now()))
	if err != nil {
		return manifest.Manifest{}, err
	}
	if created {
		uc.logger.Info("created empty manifest", "layer", l, "path", path)
	}

	return m, nil
}

// RebuildManifest rescans the layer directory and rewrites its manifest.
// Concurrent rebuilds are not coordinated; each is a full rescan so the last
// writer leaves a consistent document.
func (uc *TileUseCase) RebuildManifest(ctx context.Context, l tile.Layer) (manifest.Manifest, error) {
	_, span := telemetry.Tracer().Start(ctx, "usecase.RebuildManifest",
		trace.WithAttributes(attribute.String("tile.layer", l.String())),
	)
	defer span.End()

	start := time.Now()
	m, ok, err := uc.builder.Rebuild(l)
	metrics.ManifestRebuildDuration.WithLabelValues(l.String()).Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		return manifest.Manifest{}, err
	}
	if !ok {
		uc.logger.Debug("layer directory missing, manifest not rebuilt", "layer", l)
		return manifest.Manifest{}, nil
	}

	metrics.ManifestRebuilds.WithLabelValues(l.String()).Inc()
	metrics.ManifestTiles.WithLabelValues(l.String()).Set(float64(m.TileCount))
	span.SetAttributes(attribute.Int("manifest.tile_count", m.TileCount))

	uc.logger.Debug("manifest rebuilt", "layer", l, "tiles", m.TileCount, "zoom_levels", m.ZoomLevels)

	return m, nil
}
