package usecase

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jaennil/guide_helper/backend/tilecache/internal/tile"
	"golang.org/x/sync/errgroup"
)

type PrefetchRequest struct {
	Bounds  tile.Bounds
	MinZoom uint8
	MaxZoom uint8
	Layers  []tile.Layer
}

type PrefetchResult struct {
	Requested  int64         `json:"requested"`
	Downloaded int64         `json:"downloaded"`
	Cached     int64         `json:"cached"`
	Failed     int64         `json:"failed"`
	Duration   time.Duration `json:"duration"`
}

// Plan returns the tile ranges covered by req and their total tile count
// across all requested layers.
func (req PrefetchRequest) Plan() ([]tile.Range, uint64, error) {
	if err := req.Bounds.Validate(); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidPrefetch, err)
	}
	if req.MinZoom > req.MaxZoom {
		return nil, 0, fmt.Errorf("%w: min zoom %d above max zoom %d", ErrInvalidPrefetch, req.MinZoom, req.MaxZoom)
	}
	if len(req.Layers) == 0 {
		return nil, 0, fmt.Errorf("%w: no layers", ErrInvalidPrefetch)
	}

	var (
		ranges []tile.Range
		total  uint64
	)
	for z := int(req.MinZoom); z <= int(req.MaxZoom); z++ {
		r := req.Bounds.Range(uint8(z))
		ranges = append(ranges, r)
		total += r.Count()
	}

	return ranges, total * uint64(len(req.Layers)), nil
}

// PrefetchRegion downloads every tile covering the request with at most
// the configured number of concurrent fetches. Individual tile failures are
// counted, not returned. Manifests are rebuilt once per layer at the end
// instead of after every tile.
func (uc *TileUseCase) PrefetchRegion(ctx context.Context, req PrefetchRequest) (PrefetchResult, error) {
	ranges, total, err := req.Plan()
	if err != nil {
		return PrefetchResult{}, err
	}
	if uc.prefetch.MaxTiles > 0 && total > uint64(uc.prefetch.MaxTiles) {
		return PrefetchResult{}, fmt.Errorf("%w: %d tiles requested, limit is %d", ErrPrefetchTooLarge, total, uc.prefetch.MaxTiles)
	}

	uc.logger.Info("prefetch started", "tiles", total, "min_zoom", req.MinZoom, "max_zoom", req.MaxZoom, "layers", req.Layers)

	var (
		result                     PrefetchResult
		downloaded, cached, failed atomic.Int64
		downloadedPerLayer         = make([]atomic.Int64, len(req.Layers))
		start                      = time.Now()
	)

	workers := uc.prefetch.Workers
	if workers < 1 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

schedule:
	for _, r := range ranges {
		for i, l := range req.Layers {
			for x := r.MinX; x <= r.MaxX; x++ {
				for y := r.MinY; y <= r.MaxY; y++ {
					if gctx.Err() != nil {
						break schedule
					}

					c := tile.Coordinate{Z: r.Z, X: x, Y: y, Layer: l}
					result.Requested++

					g.Go(func() error {
						resp := uc.fetchOrGetCached(gctx, c, false)
						switch {
						case !resp.Success:
							failed.Add(1)
						case resp.Cached:
							cached.Add(1)
						default:
							downloaded.Add(1)
							downloadedPerLayer[i].Add(1)
						}
						return nil
					})
				}
			}
		}
	}

	_ = g.Wait()

	for i, l := range req.Layers {
		if downloadedPerLayer[i].Load() == 0 {
			continue
		}
		if _, err := uc.RebuildManifest(context.WithoutCancel(ctx), l); err != nil {
			uc.logger.Error("failed to rebuild manifest after prefetch", "layer", l, "error", err)
		}
	}

	result.Downloaded = downloaded.Load()
	result.Cached = cached.Load()
	result.Failed = failed.Load()
	result.Duration = time.Since(start)

	uc.logger.Info("prefetch finished",
		"requested", result.Requested,
		"downloaded", result.Downloaded,
		"cached", result.Cached,
		"failed", result.Failed,
		"duration", result.Duration,
	)

	if err := ctx.Err(); err != nil {
		return result, err
	}

	return result, nil
}
