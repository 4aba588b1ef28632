package tile

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownLayer = errors.New("unknown layer")

type Layer int

const (
	OSM Layer = iota
	Satellite
)

// Layers lists every supported layer in a stable order.
var Layers = []Layer{OSM, Satellite}

func (l Layer) String() string {
	switch l {
	case OSM:
		return "osm"
	case Satellite:
		return "satellite"
	default:
		return fmt.Sprintf("layer(%d)", int(l))
	}
}

func ParseLayer(s string) (Layer, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "osm":
		return OSM, nil
	case "satellite":
		return Satellite, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownLayer, s)
	}
}

func (l Layer) MarshalText() ([]byte, error) {
	if l != OSM && l != Satellite {
		return nil, fmt.Errorf("%w: %d", ErrUnknownLayer, int(l))
	}
	return []byte(l.String()), nil
}

func (l *Layer) UnmarshalText(b []byte) error {
	parsed, err := ParseLayer(string(b))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// AxisOrder is the nesting order of the x and y segments below the zoom
// directory.
type AxisOrder int

const (
	// OrderXY nests as z/x/y.png
	OrderXY AxisOrder = iota
	// OrderYX nests as z/y/x.png
	OrderYX
)

func (o AxisOrder) String() string {
	if o == OrderYX {
		return "z/y/x"
	}
	return "z/x/y"
}

// split returns the directory segment and the file segment for x and y.
func (o AxisOrder) split(x, y uint32) (outer, file uint32) {
	if o == OrderYX {
		return y, x
	}
	return x, y
}

type Descriptor struct {
	Layer       Layer
	Name        string
	Order       AxisOrder
	URLTemplate string
}

func (d Descriptor) Tag() string {
	return d.Layer.String()
}

func (d Descriptor) Format() string {
	return d.Order.String()
}

const (
	DefaultOSMURL       = "https://tile.openstreetmap.org/{z}/{x}/{y}.png"
	DefaultSatelliteURL = "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}"
)

// DefaultDescriptors returns the descriptors for both layers pointing at the
// public upstream servers.
func DefaultDescriptors() []Descriptor {
	return Descriptors(DefaultOSMURL, DefaultSatelliteURL)
}

func Descriptors(osmURL, satelliteURL string) []Descriptor {
	return []Descriptor{
		{
			Layer:       OSM,
			Name:        "OpenStreetMap Tiles",
			Order:       OrderXY,
			URLTemplate: osmURL,
		},
		{
			Layer:       Satellite,
			Name:        "Satellite Imagery Tiles",
			Order:       OrderYX,
			URLTemplate: satelliteURL,
		},
	}
}
