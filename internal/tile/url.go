package tile

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

var ErrUnrecognizedURL = errors.New("unrecognized tile url")

var (
	osmURLPattern       = regexp.MustCompile(`/(\d+)/(\d+)/(\d+)\.png$`)
	satelliteURLPattern = regexp.MustCompile(`/tile/(\d+)/(\d+)/(\d+)$`)
)

// ParseURL recovers a coordinate from an upstream tile URL. OSM style
// .../{z}/{x}/{y}.png and ArcGIS style .../tile/{z}/{y}/{x} are recognised.
func ParseURL(raw string) (Coordinate, error) {
	if m := osmURLPattern.FindStringSubmatch(raw); m != nil {
		return parseSegments(OSM, m[1], m[2], m[3])
	}
	if m := satelliteURLPattern.FindStringSubmatch(raw); m != nil {
		return parseSegments(Satellite, m[1], m[3], m[2])
	}
	return Coordinate{}, fmt.Errorf("%w: %s", ErrUnrecognizedURL, raw)
}

func parseSegments(l Layer, zs, xs, ys string) (Coordinate, error) {
	z, err := strconv.ParseUint(zs, 10, 8)
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: zoom %q: %v", ErrUnrecognizedURL, zs, err)
	}
	x, err := strconv.ParseUint(xs, 10, 32)
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: x %q: %v", ErrUnrecognizedURL, xs, err)
	}
	y, err := strconv.ParseUint(ys, 10, 32)
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: y %q: %v", ErrUnrecognizedURL, ys, err)
	}

	return Coordinate{Z: uint8(z), X: uint32(x), Y: uint32(y), Layer: l}, nil
}
