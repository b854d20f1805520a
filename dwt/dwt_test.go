package dwt

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForwardInverse53LineExact(t *testing.T) {
	for _, n := range []int{1, 2, 3, 4, 5, 7, 8, 16, 17} {
		x := make([]float64, n)
		for i := range x {
			x[i] = float64((i*37 + 3) % 101)
		}
		orig := append([]float64(nil), x...)
		forward53(x, Symmetric)
		inverse53(x, Symmetric)
		for i := range x {
			assert.InDeltaf(t, orig[i], x[i], 1e-9, "n=%d i=%d", n, i)
		}
	}
}

func TestForwardInverse97LineULP(t *testing.T) {
	for _, n := range []int{1, 2, 3, 4, 5, 7, 8, 16, 17} {
		x := make([]float64, n)
		for i := range x {
			x[i] = math.Sin(float64(i) * 0.37)
		}
		orig := append([]float64(nil), x...)
		forward97(x, Symmetric)
		inverse97(x, Symmetric)
		for i := range x {
			assert.InDeltaf(t, orig[i], x[i], 1e-6, "n=%d i=%d", n, i)
		}
	}
}

func TestClampLevels(t *testing.T) {
	lx, ly, lz := ClampLevels(8, 8, 1, 10, 10, 10)
	assert.Equal(t, 3, lx)
	assert.Equal(t, 3, ly)
	assert.Equal(t, 0, lz)
}

func TestForward3DInverse3DRoundTrip53(t *testing.T) {
	w, h, d := 8, 8, 4
	buf := &Buffer{W: w, H: h, D: d, Data: make([]float64, w*h*d)}
	for i := range buf.Data {
		buf.Data[i] = float64((i*13 + 7) % 97)
	}
	orig := append([]float64(nil), buf.Data...)

	lx, ly, lz := ClampLevels(w, h, d, 2, 2, 1)
	cfg := Config{Filter: Filter53, Boundary: Symmetric, Lx: lx, Ly: ly, Lz: lz}
	steps := Forward3D(buf, cfg)
	require.NotEmpty(t, steps)
	Inverse3D(buf, cfg, steps)

	for i := range buf.Data {
		assert.InDeltaf(t, orig[i], buf.Data[i], 1e-6, "i=%d", i)
	}
}

func TestForward3DInverse3DRoundTrip97(t *testing.T) {
	w, h, d := 16, 16, 4
	buf := &Buffer{W: w, H: h, D: d, Data: make([]float64, w*h*d)}
	for z := 0; z < d; z++ {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				buf.Data[buf.index(x, y, z)] = math.Sin(float64(x)*0.2) + float64(y) - float64(z)*0.5
			}
		}
	}
	orig := append([]float64(nil), buf.Data...)

	lx, ly, lz := ClampLevels(w, h, d, 3, 3, 2)
	cfg := Config{Filter: Filter97, Boundary: Symmetric, Lx: lx, Ly: ly, Lz: lz}
	steps := Forward3D(buf, cfg)
	Inverse3D(buf, cfg, steps)

	for i := range buf.Data {
		assert.InDeltaf(t, orig[i], buf.Data[i], 1e-3, "i=%d", i)
	}
}
