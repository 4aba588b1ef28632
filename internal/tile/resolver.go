package tile

import (
	"fmt"
	"path"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	TilesDir  = "tiles"
	Extension = ".png"
)

type Coordinate struct {
	Z     uint8
	X     uint32
	Y     uint32
	Layer Layer
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%s/%d/%d/%d", c.Layer, c.Z, c.X, c.Y)
}

type Path struct {
	// Local is the absolute on-disk location of the tile.
	Local string
	// Relative is the slash separated location below the tiles root,
	// e.g. osm/5/10/12.png.
	Relative string
	URL      string
}

// Resolver maps coordinates to disk locations and upstream URLs. It holds no
// mutable state, so the same coordinate always resolves to the same Path.
type Resolver struct {
	root   string
	layers map[Layer]Descriptor
}

// NewResolver builds a resolver rooted at dataDir/tiles.
func NewResolver(dataDir string, descriptors []Descriptor) *Resolver {
	layers := make(map[Layer]Descriptor, len(descriptors))
	for _, d := range descriptors {
		layers[d.Layer] = d
	}

	return &Resolver{
		root:   filepath.Join(dataDir, TilesDir),
		layers: layers,
	}
}

func (r *Resolver) Root() string {
	return r.root
}

func (r *Resolver) Descriptor(l Layer) (Descriptor, error) {
	d, ok := r.layers[l]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrUnknownLayer, l)
	}
	return d, nil
}

func (r *Resolver) LayerDir(l Layer) string {
	return filepath.Join(r.root, l.String())
}

func (r *Resolver) ManifestPath(l Layer) string {
	return filepath.Join(r.root, l.String()+"-manifest.json")
}

func (r *Resolver) Resolve(c Coordinate) (Path, error) {
	d, err := r.Descriptor(c.Layer)
	if err != nil {
		return Path{}, err
	}

	outer, file := d.Order.split(c.X, c.Y)
	z := strconv.FormatUint(uint64(c.Z), 10)
	dir := strconv.FormatUint(uint64(outer), 10)
	name := strconv.FormatUint(uint64(file), 10) + Extension

	return Path{
		Local:    filepath.Join(r.root, d.Tag(), z, dir, name),
		Relative: path.Join(d.Tag(), z, dir, name),
		URL:      expand(d.URLTemplate, c),
	}, nil
}

func expand(template string, c Coordinate) string {
	return strings.NewReplacer(
		"{z}", strconv.FormatUint(uint64(c.Z), 10),
		"{x}", strconv.FormatUint(uint64(c.X), 10),
		"{y}", strconv.FormatUint(uint64(c.Y), 10),
	).Replace(template)
}
