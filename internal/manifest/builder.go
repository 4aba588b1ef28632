package manifest

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jaennil/guide_helper/backend/tilecache/internal/tile"
)

type Builder struct {
	resolver *tile.Resolver
	now      func() time.Time
}

func NewBuilder(r *tile.Resolver) *Builder {
	return &Builder{
		resolver: r,
		now:      time.Now,
	}
}

// Rebuild rescans the layer directory and overwrites the layer manifest.
// The bool is false when the layer directory does not exist; nothing is
// written in that case.
func (b *Builder) Rebuild(l tile.Layer) (Manifest, bool, error) {
	d, err := b.resolver.Descriptor(l)
	if err != nil {
		return Manifest{}, false, err
	}

	layerDir := b.resolver.LayerDir(l)
	if _, err := os.Stat(layerDir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Manifest{}, false, nil
		}
		return Manifest{}, false, fmt.Errorf("failed to stat layer directory: %w", err)
	}

	tiles, zooms, err := Scan(layerDir)
	if err != nil {
		return Manifest{}, false, err
	}

	m := New(d, tiles, zooms, b.now())
	if err := Save(b.resolver.ManifestPath(l), m); err != nil {
		return Manifest{}, false, err
	}

	return m, true, nil
}

type dirFrame struct {
	abs string
	rel string
}

// Scan lists every tile image below layerDir as a slash separated path
// relative to layerDir, sorted. The first path segment is read as the zoom
// level; segments that are not a zoom number count as zoom 0. The returned
// zooms are distinct and ascending.
//
// The walk uses an explicit stack so deep nesting cannot exhaust the call
// stack. Symlinks are not followed.
func Scan(layerDir string) ([]string, []int, error) {
	tiles := []string{}
	seen := map[int]struct{}{}

	stack := []dirFrame{{abs: layerDir}}
	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(frame.abs)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read directory %s: %w", frame.abs, err)
		}

		for _, e := range entries {
			rel := e.Name()
			if frame.rel != "" {
				rel = path.Join(frame.rel, e.Name())
			}

			if e.IsDir() {
				stack = append(stack, dirFrame{abs: filepath.Join(frame.abs, e.Name()), rel: rel})
				continue
			}

			if !e.Type().IsRegular() || !strings.HasSuffix(e.Name(), tile.Extension) {
				continue
			}

			tiles = append(tiles, rel)
			seen[zoomOf(rel)] = struct{}{}
		}
	}

	sort.Strings(tiles)

	zooms := make([]int, 0, len(seen))
	for z := range seen {
		zooms = append(zooms, z)
	}
	sort.Ints(zooms)

	return tiles, zooms, nil
}

func zoomOf(rel string) int {
	segment, _, _ := strings.Cut(rel, "/")
	z, err := strconv.ParseUint(segment, 10, 8)
	if err != nil {
		return 0
	}
	return int(z)
}
