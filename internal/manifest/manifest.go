package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jaennil/guide_helper/backend/tilecache/internal/repository/cache"
	"github.com/jaennil/guide_helper/backend/tilecache/internal/tile"
)

var (
	ErrNotFound = errors.New("manifest not found")
	ErrCorrupt  = errors.New("manifest is corrupt")
)

type Manifest struct {
	Name       string     `json:"name"`
	Type       tile.Layer `json:"type"`
	Format     string     `json:"format"`
	TileCount  int        `json:"tile_count"`
	Tiles      []string   `json:"tiles"`
	ZoomLevels []int      `json:"zoom_levels"`
	Generated  time.Time  `json:"generated"`
}

// New assembles a manifest for d. tiles and zooms must already be sorted.
func New(d tile.Descriptor, tiles []string, zooms []int, generated time.Time) Manifest {
	if tiles == nil {
		tiles = []string{}
	}
	if zooms == nil {
		zooms = []int{}
	}

	return Manifest{
		Name:       d.Name,
		Type:       d.Layer,
		Format:     d.Format(),
		TileCount:  len(tiles),
		Tiles:      tiles,
		ZoomLevels: zooms,
		Generated:  generated.UTC(),
	}
}

func Empty(d tile.Descriptor, generated time.Time) Manifest {
	return New(d, nil, nil, generated)
}

// Load parses the manifest at path verbatim, without comparing it to disk.
func Load(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Manifest{}, ErrNotFound
		}
		return Manifest{}, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}

	return m, nil
}

// Save replaces the manifest at path as a whole.
func Save(path string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := cache.WriteAtomic(path, data); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	return nil
}

// SaveIfAbsent writes m only when no manifest exists at path yet. If another
// writer got there first, the existing manifest is loaded and returned with
// created == false.
func SaveIfAbsent(path string, m Manifest) (Manifest, bool, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return Manifest{}, false, fmt.Errorf("failed to marshal manifest: %w", err)
	}

	tmpPath := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return Manifest{}, false, fmt.Errorf("failed to write manifest: %w", err)
	}
	defer os.Remove(tmpPath)

	err = os.Link(tmpPath, path)
	switch {
	case err == nil:
		return m, true, nil
	case errors.Is(err, os.ErrExist):
		existing, err := Load(path)
		return existing, false, err
	}

	// Filesystem without hard links.
	if err := os.Rename(tmpPath, path); err != nil {
		return Manifest{}, false, fmt.Errorf("failed to write manifest: %w", err)
	}
	return m, true, nil
}
