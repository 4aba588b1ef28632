package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TileRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tilecache_tile_requests_total",
		Help: "Total number of tile download requests",
	}, []string{"layer"})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tilecache_cache_hits_total",
		Help: "Total number of tiles served from disk",
	}, []string{"layer"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tilecache_cache_misses_total",
		Help: "Total number of tiles missing on disk",
	}, []string{"layer"})

	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tilecache_upstream_requests_total",
		Help: "Total number of upstream tile fetches",
	}, []string{"layer"})

	UpstreamErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tilecache_upstream_errors_total",
		Help: "Total number of failed upstream tile fetches",
	}, []string{"layer"})

	UpstreamLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tilecache_upstream_latency_seconds",
		Help:    "Latency of upstream tile fetches in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"layer"})

	ManifestRebuilds = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tilecache_manifest_rebuilds_total",
		Help: "Total number of manifest rebuilds",
	}, []string{"layer"})

	ManifestRebuildDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tilecache_manifest_rebuild_duration_seconds",
		Help:    "Duration of manifest rebuilds in seconds",
		Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"layer"})

	ManifestTiles = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tilecache_manifest_tiles",
		Help: "Number of tiles listed in the last rebuilt manifest",
	}, []string{"layer"})

	StatsErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tilecache_stats_errors_total",
		Help: "Total number of failed fetch statistics operations",
	}, []string{"operation"})
)
