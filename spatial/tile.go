package spatial

// Tile is one cuboid cell of the tiling grid: its grid coordinate
// (Ix,Iy,Iz) and the Region of the volume it covers (already clamped to
// the volume bounds). See spec.md §3/§4.A-B.
type Tile struct {
	Ix, Iy, Iz int
	Region     Region
}

// Grid describes a tiling grid over a W x H x D volume with nominal tile
// size (TileW,TileH,TileD), each clamped to the volume's extent along its
// axis (a configured tile size larger than the volume collapses to the
// volume's extent, per spec.md §4.B).
type Grid struct {
	W, H, D                         int
	TileW, TileH, TileD             int
	NumTilesX, NumTilesY, NumTilesZ int
}

// NewGrid builds a Grid for a W x H x D volume and a requested tile size,
// clamping each axis to [1, axisExtent].
func NewGrid(w, h, d, tileW, tileH, tileD int) Grid {
	tileW = clampTileSize(tileW, w)
	tileH = clampTileSize(tileH, h)
	tileD = clampTileSize(tileD, d)
	return Grid{
		W: w, H: h, D: d,
		TileW: tileW, TileH: tileH, TileD: tileD,
		NumTilesX: ceilDiv(w, tileW),
		NumTilesY: ceilDiv(h, tileH),
		NumTilesZ: ceilDiv(d, tileD),
	}
}

func clampTileSize(size, extent int) int {
	if size < 1 {
		size = 1
	}
	if size > extent && extent > 0 {
		size = extent
	}
	if size < 1 {
		size = 1
	}
	return size
}

func ceilDiv(dim, size int) int {
	if size <= 0 {
		size = 1
	}
	n := (dim + size - 1) / size
	if n < 1 {
		n = 1
	}
	return n
}

// NumTiles returns the total tile count Tx*Ty*Tz.
func (g Grid) NumTiles() int { return g.NumTilesX * g.NumTilesY * g.NumTilesZ }

// TileAt returns the tile at grid coordinate (ix,iy,iz), its region
// clamped to the volume.
func (g Grid) TileAt(ix, iy, iz int) Tile {
	x0, y0, z0 := ix*g.TileW, iy*g.TileH, iz*g.TileD
	region := NewRegion(x0, y0, z0, g.TileW, g.TileH, g.TileD).Clamp(g.W, g.H, g.D)
	return Tile{Ix: ix, Iy: iy, Iz: iz, Region: region}
}

// LinearIndex returns the Z-major, Y-major, X-major linear tile index for
// grid coordinate (ix,iy,iz), per spec.md §3: iz*(Tx*Ty) + iy*Tx + ix.
func (g Grid) LinearIndex(ix, iy, iz int) int {
	return iz*(g.NumTilesX*g.NumTilesY) + iy*g.NumTilesX + ix
}

// Coord recovers the grid coordinate for a linear tile index.
func (g Grid) Coord(index int) (ix, iy, iz int) {
	plane := g.NumTilesX * g.NumTilesY
	iz = index / plane
	rem := index % plane
	iy = rem / g.NumTilesX
	ix = rem % g.NumTilesX
	return
}

// Tiles returns every tile in the grid in Z-major, Y-major, X-major order
// (the order spec.md §4.B requires tiling to iterate and §5 requires the
// final codestream to preserve).
func (g Grid) Tiles() []Tile {
	tiles := make([]Tile, 0, g.NumTiles())
	for iz := 0; iz < g.NumTilesZ; iz++ {
		for iy := 0; iy < g.NumTilesY; iy++ {
			for ix := 0; ix < g.NumTilesX; ix++ {
				tiles = append(tiles, g.TileAt(ix, iy, iz))
			}
		}
	}
	return tiles
}

// IntersectingTiles returns the linear indices of every tile whose region
// intersects r, used by the ROI decoder (spec.md §4.J) to select which
// tiles to decode.
func (g Grid) IntersectingTiles(r Region) []int {
	var indices []int
	for iz := 0; iz < g.NumTilesZ; iz++ {
		for iy := 0; iy < g.NumTilesY; iy++ {
			for ix := 0; ix < g.NumTilesX; ix++ {
				t := g.TileAt(ix, iy, iz)
				if t.Region.Intersects(r) {
					indices = append(indices, g.LinearIndex(ix, iy, iz))
				}
			}
		}
	}
	return indices
}
