package stats

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jaennil/guide_helper/backend/tilecache/internal/tile"
	"github.com/jaennil/guide_helper/backend/tilecache/pkg/config"
	"github.com/jaennil/guide_helper/backend/tilecache/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseRecorder(t *testing.T, r Recorder) {
	t.Helper()
	ctx := context.Background()

	s, err := r.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, Counters{}, s["osm"])
	assert.Equal(t, Counters{}, s["satellite"])

	require.NoError(t, r.Record(ctx, tile.OSM, Downloaded, 100))
	require.NoError(t, r.Record(ctx, tile.OSM, Downloaded, 50))
	require.NoError(t, r.Record(ctx, tile.OSM, Cached, 0))
	require.NoError(t, r.Record(ctx, tile.Satellite, Failed, 0))

	require.Error(t, r.Record(ctx, tile.OSM, Outcome("bogus"), 0))

	s, err = r.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, Counters{Downloaded: 2, Cached: 1, Bytes: 150}, s["osm"])
	assert.Equal(t, Counters{Failed: 1}, s["satellite"])
	assert.Equal(t, int64(3), s["osm"].Total())
}

func exerciseConcurrentRecords(t *testing.T, r Recorder) {
	t.Helper()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.Record(ctx, tile.Satellite, Downloaded, 10))
		}()
	}
	wg.Wait()

	s, err := r.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(20), s["satellite"].Downloaded)
	assert.Equal(t, int64(200), s["satellite"].Bytes)
}

func TestMapRecorder(t *testing.T) {
	exerciseRecorder(t, NewMapRecorder())
}

func TestMapRecorderConcurrent(t *testing.T) {
	exerciseConcurrentRecords(t, NewMapRecorder())
}

func newSQLite(t *testing.T, path string) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(path, logger.NewNoOp())
	require.NoError(t, err)
	return r
}

func TestSQLiteRecorder(t *testing.T) {
	r := newSQLite(t, filepath.Join(t.TempDir(), "stats.db"))
	defer r.Close()

	exerciseRecorder(t, r)
}

func TestSQLiteRecorderConcurrent(t *testing.T) {
	r := newSQLite(t, filepath.Join(t.TempDir(), "stats.db"))
	defer r.Close()

	exerciseConcurrentRecords(t, r)
}

func TestSQLiteRecorderPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.db")
	ctx := context.Background()

	r := newSQLite(t, path)
	require.NoError(t, r.Record(ctx, tile.OSM, Downloaded, 7))
	require.NoError(t, r.Close())

	r = newSQLite(t, path)
	defer r.Close()

	s, err := r.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, Counters{Downloaded: 1, Bytes: 7}, s["osm"])
}

func TestRedisRecorder(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	r, err := NewRedisRecorder(RedisConfig{Addr: addr, DB: 15})
	require.NoError(t, err)
	defer r.Close()

	r.prefix = "tilecache:test:" + t.Name()
	for _, l := range tile.Layers {
		r.client.Del(context.Background(), r.keyFor(l))
	}

	exerciseRecorder(t, r)
}

func TestCountersFromHash(t *testing.T) {
	c := countersFromHash(map[string]string{
		"downloaded": "3",
		"cached":     "4",
		"failed":     "garbage",
		"bytes":      "1024",
	})
	assert.Equal(t, Counters{Downloaded: 3, Cached: 4, Bytes: 1024}, c)
}

func TestNewRecorder(t *testing.T) {
	dir := t.TempDir()
	l := logger.NewNoOp()

	cfg := &config.Config{Stats: config.Stats{Backend: "memory"}}
	r, err := NewRecorder(cfg, dir, l)
	require.NoError(t, err)
	assert.IsType(t, &MapRecorder{}, r)

	cfg.Stats.Backend = "sqlite"
	r, err = NewRecorder(cfg, dir, l)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteRecorder{}, r)
	require.NoError(t, r.Close())
	assert.FileExists(t, filepath.Join(dir, "stats.db"))

	cfg.Stats.Backend = "etcd"
	_, err = NewRecorder(cfg, dir, l)
	require.ErrorIs(t, err, ErrUnknownBackend)
}
