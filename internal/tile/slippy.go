package tile

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

var ErrInvalidBounds = errors.New("invalid bounds")

// Bounds is a WGS84 bounding box in degrees. Boxes crossing the antimeridian
// are not supported.
type Bounds struct {
	North float64
	South float64
	East  float64
	West  float64
}

func (b Bounds) Validate() error {
	switch {
	case b.North < b.South:
		return fmt.Errorf("%w: north is below south", ErrInvalidBounds)
	case b.East < b.West:
		return fmt.Errorf("%w: east is west of the west edge", ErrInvalidBounds)
	case b.North > 90 || b.South < -90:
		return fmt.Errorf("%w: latitude out of range", ErrInvalidBounds)
	case b.East > 180 || b.West < -180:
		return fmt.Errorf("%w: longitude out of range", ErrInvalidBounds)
	}
	return nil
}

// Range is an inclusive block of tile columns and rows at one zoom level.
type Range struct {
	Z    uint8
	MinX uint32
	MaxX uint32
	MinY uint32
	MaxY uint32
}

func (r Range) Count() uint64 {
	return uint64(r.MaxX-r.MinX+1) * uint64(r.MaxY-r.MinY+1)
}

// Range returns the tiles covering b at zoom z. Tile rows grow southwards, so
// the north edge gives MinY.
func (b Bounds) Range(z uint8) Range {
	return Range{
		Z:    z,
		MinX: LonToTileX(b.West, z),
		MaxX: LonToTileX(b.East, z),
		MinY: LatToTileY(b.North, z),
		MaxY: LatToTileY(b.South, z),
	}
}

func LonToTileX(lon float64, z uint8) uint32 {
	f := maptile.Fraction(orb.Point{lon, 0}, maptile.Zoom(z))
	return clampTile(math.Floor(f.X()), math.Exp2(float64(z)))
}

func LatToTileY(lat float64, z uint8) uint32 {
	f := maptile.Fraction(orb.Point{0, lat}, maptile.Zoom(z))
	return clampTile(math.Floor(f.Y()), math.Exp2(float64(z)))
}

// clampTile keeps v inside [0, n-1]. Latitudes past the Mercator limit and
// lon == 180 would otherwise produce indexes outside the grid.
func clampTile(v, n float64) uint32 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > n-1 {
		return uint32(n - 1)
	}
	return uint32(v)
}
