// Package spatial implements the half-open-interval geometry shared by
// tiling, ROI decoding, and the streaming writer: Region, Tile, and
// Precinct, plus intersection and clamping.
//
// Grounded on cocosip-go-dicom-codec's jpeg2000.ROIParams/Intersects (rectangle
// containment and intersection over image coordinates) and
// jpeg2000.TileLayout (tile-grid sizing from a SIZ segment), generalized
// from 2-D to 3-D per spec.md §4.A.
package spatial

// Region is a half-open integer cuboid [X0,X1) x [Y0,Y1) x [Z0,Z1).
type Region struct {
	X0, Y0, Z0 int
	X1, Y1, Z1 int
}

// NewRegion builds a Region from an origin and an extent.
func NewRegion(x0, y0, z0, width, height, depth int) Region {
	return Region{X0: x0, Y0: y0, Z0: z0, X1: x0 + width, Y1: y0 + height, Z1: z0 + depth}
}

// NewRegionFromBounds builds a Region directly from its half-open bounds.
func NewRegionFromBounds(x0, y0, z0, x1, y1, z1 int) Region {
	return Region{X0: x0, Y0: y0, Z0: z0, X1: x1, Y1: y1, Z1: z1}
}

// Width, Height, Depth return the region's extents; they are <= 0 for an
// empty region.
func (r Region) Width() int  { return r.X1 - r.X0 }
func (r Region) Height() int { return r.Y1 - r.Y0 }
func (r Region) Depth() int  { return r.Z1 - r.Z0 }

// Empty reports whether the region has no volume.
func (r Region) Empty() bool {
	return r.Width() <= 0 || r.Height() <= 0 || r.Depth() <= 0
}

// Contains reports whether p = (x,y,z) lies within the region.
func (r Region) Contains(x, y, z int) bool {
	return x >= r.X0 && x < r.X1 && y >= r.Y0 && y < r.Y1 && z >= r.Z0 && z < r.Z1
}

// Intersect returns the intersection of r and o. The result is Empty when
// any axis is disjoint.
func (r Region) Intersect(o Region) Region {
	x0, x1 := max(r.X0, o.X0), min(r.X1, o.X1)
	y0, y1 := max(r.Y0, o.Y0), min(r.Y1, o.Y1)
	z0, z1 := max(r.Z0, o.Z0), min(r.Z1, o.Z1)
	return Region{X0: x0, Y0: y0, Z0: z0, X1: x1, Y1: y1, Z1: z1}
}

// Intersects reports whether r and o overlap on every axis.
func (r Region) Intersects(o Region) bool {
	return !r.Intersect(o).Empty()
}

// Clamp intersects r with the volume bounds [0,W) x [0,H) x [0,D).
func (r Region) Clamp(w, h, d int) Region {
	return r.Intersect(NewRegion(0, 0, 0, w, h, d))
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
