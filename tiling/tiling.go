// Package tiling decomposes a volume into tiles and extracts per-tile,
// per-component sample data as float64 coefficient blocks ready for the
// DWT engine.
//
// Grounded on cocosip-go-dicom-codec's jpeg2000.TileLayout
// (_examples/cocosip-go-dicom-codec/jpeg2000/tile_assembler.go), which
// computes a tile grid from a SIZ segment and iterates tiles in raster
// order; generalized here to 3-D and to read directly from
// volume.Component's packed byte buffers per spec.md §4.B.
package tiling

import (
	"github.com/rasterlab/jp3d/spatial"
	"github.com/rasterlab/jp3d/volume"
)

// Tiler decomposes a Volume into a spatial.Grid of tiles.
type Tiler struct {
	Grid spatial.Grid
}

// NewTiler builds a Tiler for v with the requested nominal tile size,
// clamped per axis to the volume's extent (spec.md §4.B).
func NewTiler(v *volume.Volume, tileW, tileH, tileD int) *Tiler {
	return &Tiler{Grid: spatial.NewGrid(v.Width, v.Height, v.Depth, tileW, tileH, tileD)}
}

// Tiles returns every tile in Z-major, Y-major, X-major order.
func (t *Tiler) Tiles() []spatial.Tile {
	return t.Grid.Tiles()
}

// ExtractComponent reads component c's samples within tile region r into a
// dense, row-major (z,y,x)-with-x-fastest float64 block of length
// r.Width()*r.Height()*r.Depth(). float64 (not float32) keeps samples at
// volume.Component's 38-bit depth ceiling exact through the DWT lifting math.
func ExtractComponent(c *volume.Component, r spatial.Region) []float64 {
	w, h, d := r.Width(), r.Height(), r.Depth()
	block := make([]float64, w*h*d)
	i := 0
	for z := r.Z0; z < r.Z1; z++ {
		for y := r.Y0; y < r.Y1; y++ {
			for x := r.X0; x < r.X1; x++ {
				block[i] = float64(c.Sample(x, y, z))
				i++
			}
		}
	}
	return block
}

// StoreComponent writes a dense (z,y,x)-with-x-fastest float64 block of
// samples back into component c at tile region r, quantize-rounding and
// clamping to [0, 2^bitDepth - 1] per spec.md §4.I step 7.
func StoreComponent(c *volume.Component, r spatial.Region, block []float64) {
	maxVal := float64(c.MaxValue())
	i := 0
	for z := r.Z0; z < r.Z1; z++ {
		for y := r.Y0; y < r.Y1; y++ {
			for x := r.X0; x < r.X1; x++ {
				v := roundHalfAwayFromZero(block[i])
				if v < 0 {
					v = 0
				}
				if v > maxVal {
					v = maxVal
				}
				c.SetSample(x, y, z, int64(v))
				i++
			}
		}
	}
}

func roundHalfAwayFromZero(v float64) float64 {
	if v >= 0 {
		return float64(int64(v + 0.5))
	}
	return float64(int64(v - 0.5))
}
