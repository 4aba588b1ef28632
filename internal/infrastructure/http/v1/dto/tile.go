package dto

import "github.com/jaennil/guide_helper/backend/tilecache/internal/tile"

type LayerURI struct {
	Layer string `uri:"layer" validate:"required,oneof=osm satellite"`
}

type TileURI struct {
	Layer string `uri:"layer" validate:"required,oneof=osm satellite"`
	Z     uint8  `uri:"z"`
	X     uint32 `uri:"x"`
	Y     uint32 `uri:"y"`
}

// Coordinate assumes the URI already passed validation.
func (u TileURI) Coordinate() (tile.Coordinate, error) {
	l, err := tile.ParseLayer(u.Layer)
	if err != nil {
		return tile.Coordinate{}, err
	}
	return tile.Coordinate{Z: u.Z, X: u.X, Y: u.Y, Layer: l}, nil
}

type TileURLQuery struct {
	URL string `form:"url" validate:"required,url"`
}

type ExistsResponse struct {
	Exists bool `json:"exists"`
}

type PathResponse struct {
	Path string `json:"path"`
}
