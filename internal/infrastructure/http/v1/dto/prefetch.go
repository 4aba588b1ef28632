package dto

import (
	"github.com/jaennil/guide_helper/backend/tilecache/internal/tile"
	"github.com/jaennil/guide_helper/backend/tilecache/internal/usecase"
)

type PrefetchRequest struct {
	North   float64  `json:"north" validate:"gte=-90,lte=90,gtefield=South"`
	South   float64  `json:"south" validate:"gte=-90,lte=90"`
	East    float64  `json:"east" validate:"gte=-180,lte=180,gtefield=West"`
	West    float64  `json:"west" validate:"gte=-180,lte=180"`
	MinZoom uint8    `json:"min_zoom" validate:"lte=22"`
	MaxZoom uint8    `json:"max_zoom" validate:"lte=22,gtefield=MinZoom"`
	Layers  []string `json:"layers" validate:"required,min=1,dive,oneof=osm satellite"`
}

func (r PrefetchRequest) ToUseCase() (usecase.PrefetchRequest, error) {
	layers := make([]tile.Layer, 0, len(r.Layers))
	seen := make(map[tile.Layer]bool, len(r.Layers))
	for _, s := range r.Layers {
		l, err := tile.ParseLayer(s)
		if err != nil {
			return usecase.PrefetchRequest{}, err
		}
		if seen[l] {
			continue
		}
		seen[l] = true
		layers = append(layers, l)
	}

	return usecase.PrefetchRequest{
		Bounds: tile.Bounds{
			North: r.North,
			South: r.South,
			East:  r.East,
			West:  r.West,
		},
		MinZoom: r.MinZoom,
		MaxZoom: r.MaxZoom,
		Layers:  layers,
	}, nil
}
