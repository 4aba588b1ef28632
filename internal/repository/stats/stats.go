package stats

import (
	"context"
	"errors"
	"fmt"

	"github.com/jaennil/guide_helper/backend/tilecache/internal/tile"
)

var ErrUnknownBackend = errors.New("unknown stats backend")

type Outcome string

const (
	Downloaded Outcome = "downloaded"
	Cached     Outcome = "cached"
	Failed     Outcome = "failed"
)

type Counters struct {
	Downloaded int64 `json:"downloaded"`
	Cached     int64 `json:"cached"`
	Failed     int64 `json:"failed"`
	Bytes      int64 `json:"bytes"`
}

func (c Counters) Total() int64 {
	return c.Downloaded + c.Cached + c.Failed
}

// Snapshot is keyed by layer tag.
type Snapshot map[string]Counters

// Recorder keeps per-layer counters of tile request outcomes.
type Recorder interface {
	Record(ctx context.Context, l tile.Layer, o Outcome, bytes int64) error
	Snapshot(ctx context.Context) (Snapshot, error)
	Close() error
}

// delta converts an outcome into the counter increments it stands for.
func delta(o Outcome, bytes int64) (Counters, error) {
	switch o {
	case Downloaded:
		return Counters{Downloaded: 1, Bytes: bytes}, nil
	case Cached:
		return Counters{Cached: 1}, nil
	case Failed:
		return Counters{Failed: 1}, nil
	default:
		return Counters{}, fmt.Errorf("unknown outcome %q", o)
	}
}

// emptySnapshot has an entry for every layer so callers never see a missing
// key.
func emptySnapshot() Snapshot {
	s := make(Snapshot, len(tile.Layers))
	for _, l := range tile.Layers {
		s[l.String()] = Counters{}
	}
	return s
}
