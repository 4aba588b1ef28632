package tile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want Coordinate
	}{
		{
			name: "osm",
			url:  "https://tile.openstreetmap.org/10/512/340.png",
			want: Coordinate{Z: 10, X: 512, Y: 340, Layer: OSM},
		},
		{
			name: "arcgis swaps axes",
			url:  "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/10/340/512",
			want: Coordinate{Z: 10, X: 512, Y: 340, Layer: Satellite},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseURL(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseURLRoundTrip(t *testing.T) {
	r := NewResolver(t.TempDir(), DefaultDescriptors())

	for _, l := range Layers {
		c := Coordinate{Z: 14, X: 4523, Y: 6431, Layer: l}
		p, err := r.Resolve(c)
		require.NoError(t, err)

		got, err := ParseURL(p.URL)
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
}

func TestParseURLRejects(t *testing.T) {
	for _, raw := range []string{
		"https://example.com/tile.png",
		"https://tile.openstreetmap.org/300/1/1.png",
		"https://tile.openstreetmap.org/a/b/c.png",
		"",
	} {
		_, err := ParseURL(raw)
		assert.ErrorIs(t, err, ErrUnrecognizedURL, raw)
	}
}
