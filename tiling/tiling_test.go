package tiling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rasterlab/jp3d/spatial"
	"github.com/rasterlab/jp3d/volume"
)

func makeGradient(w, h, d int) *volume.Volume {
	bps := 1
	data := make([]byte, w*h*d*bps)
	i := 0
	for z := 0; z < d; z++ {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				data[i] = byte((x + 5*y) % 256)
				i++
			}
		}
	}
	return &volume.Volume{
		Width: w, Height: h, Depth: d,
		Components: []volume.Component{{BitDepth: 8, W: w, H: h, D: d, Data: data}},
	}
}

func TestTilerOrderAndExtent(t *testing.T) {
	v := makeGradient(5, 5, 1)
	tiler := NewTiler(v, 2, 2, 1)
	require.Equal(t, 9, tiler.Grid.NumTiles())

	tiles := tiler.Tiles()
	require.Len(t, tiles, 9)
	for i, tile := range tiles {
		assert.Equal(t, i, tiler.Grid.LinearIndex(tile.Ix, tile.Iy, tile.Iz))
	}
}

func TestExtractStoreRoundTrip(t *testing.T) {
	v := makeGradient(4, 4, 2)
	r := spatial.NewRegion(0, 0, 0, 4, 4, 2)
	block := ExtractComponent(&v.Components[0], r)
	require.Len(t, block, 4*4*2)
	assert.Equal(t, float64(0), block[0])
	assert.Equal(t, float64(1), block[1])

	out := volume.Component{BitDepth: 8, W: 4, H: 4, D: 2, Data: make([]byte, 4*4*2)}
	StoreComponent(&out, r, block)
	for z := 0; z < 2; z++ {
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				assert.Equal(t, v.Components[0].Sample(x, y, z), out.Sample(x, y, z))
			}
		}
	}
}
