package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGridClampsOversizedTiles(t *testing.T) {
	g := NewGrid(5, 5, 1, 100, 100, 100)
	assert.Equal(t, 5, g.TileW)
	assert.Equal(t, 5, g.TileH)
	assert.Equal(t, 1, g.TileD)
	assert.Equal(t, 1, g.NumTilesX)
	assert.Equal(t, 1, g.NumTilesY)
	assert.Equal(t, 1, g.NumTilesZ)
}

func TestGridMultiTile(t *testing.T) {
	g := NewGrid(5, 5, 1, 2, 2, 1)
	require.Equal(t, 3, g.NumTilesX)
	require.Equal(t, 3, g.NumTilesY)
	require.Equal(t, 9, g.NumTiles())

	// Last column/row are 1-wide/1-tall.
	last := g.TileAt(2, 2, 0)
	assert.Equal(t, 1, last.Region.Width())
	assert.Equal(t, 1, last.Region.Height())
}

func TestGridLinearIndexOrder(t *testing.T) {
	g := NewGrid(4, 4, 4, 2, 2, 2)
	tiles := g.Tiles()
	require.Len(t, tiles, g.NumTiles())
	for i, tile := range tiles {
		assert.Equal(t, i, g.LinearIndex(tile.Ix, tile.Iy, tile.Iz))
		ix, iy, iz := g.Coord(i)
		assert.Equal(t, tile.Ix, ix)
		assert.Equal(t, tile.Iy, iy)
		assert.Equal(t, tile.Iz, iz)
	}
}

func TestGridIntersectingTiles(t *testing.T) {
	g := NewGrid(16, 16, 4, 4, 4, 2)
	roi := NewRegion(4, 4, 1, 8, 8, 2)
	indices := g.IntersectingTiles(roi)
	assert.NotEmpty(t, indices)
	for _, idx := range indices {
		ix, iy, iz := g.Coord(idx)
		tile := g.TileAt(ix, iy, iz)
		assert.True(t, tile.Region.Intersects(roi))
	}
}
