package stats

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/jaennil/guide_helper/backend/tilecache/internal/tile"
)

type layerCounters struct {
	downloaded atomic.Int64
	cached     atomic.Int64
	failed     atomic.Int64
	bytes      atomic.Int64
}

type TypedSyncMap struct {
	m sync.Map
}

func (c *TypedSyncMap) LoadOrStore(k tile.Layer) *layerCounters {
	v, _ := c.m.LoadOrStore(k, &layerCounters{})
	return v.(*layerCounters)
}

func (c *TypedSyncMap) Range(f func(tile.Layer, *layerCounters) bool) {
	c.m.Range(func(k, v any) bool {
		return f(k.(tile.Layer), v.(*layerCounters))
	})
}

// MapRecorder keeps counters in memory only. They reset on restart.
type MapRecorder struct {
	m *TypedSyncMap
}

func NewMapRecorder() *MapRecorder {
	return &MapRecorder{
		m: &TypedSyncMap{},
	}
}

var _ Recorder = (*MapRecorder)(nil)

func (r *MapRecorder) Record(_ context.Context, l tile.Layer, o Outcome, bytes int64) error {
	d, err := delta(o, bytes)
	if err != nil {
		return err
	}

	c := r.m.LoadOrStore(l)
	c.downloaded.Add(d.Downloaded)
	c.cached.Add(d.Cached)
	c.failed.Add(d.Failed)
	c.bytes.Add(d.Bytes)
	return nil
}

func (r *MapRecorder) Snapshot(_ context.Context) (Snapshot, error) {
	s := emptySnapshot()
	r.m.Range(func(l tile.Layer, c *layerCounters) bool {
		s[l.String()] = Counters{
			Downloaded: c.downloaded.Load(),
			Cached:     c.cached.Load(),
			Failed:     c.failed.Load(),
			Bytes:      c.bytes.Load(),
		}
		return true
	})
	return s, nil
}

func (r *MapRecorder) Close() error {
	return nil
}
