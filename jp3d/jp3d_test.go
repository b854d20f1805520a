package jp3d

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rasterlab/jp3d/volume"
)

// makeGradientVolume builds a single-component volume whose samples are a
// deterministic function of position, bounded to bitDepth bits.
func makeGradientVolume(w, h, d, bitDepth int, signed bool) *volume.Volume {
	bps := (bitDepth + 7) / 8
	data := make([]byte, w*h*d*bps)
	c := volume.Component{BitDepth: bitDepth, Signed: signed, W: w, H: h, D: d, Data: data}
	maxVal := int64(1)<<uint(bitDepth-1) - 1
	for z := 0; z < d; z++ {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				v := int64(x + 3*y + 7*z)
				if signed {
					v = v%((maxVal*2)+1) - maxVal
				} else {
					v = v % ((int64(1) << uint(bitDepth)) - 1)
				}
				c.SetSample(x, y, z, v)
			}
		}
	}
	return &volume.Volume{Width: w, Height: h, Depth: d, Components: []volume.Component{c}}
}

func losslessConfig(tw, th, td int) Config {
	cfg := DefaultConfig()
	cfg.Tiling = TilingConfig{TileW: tw, TileH: th, TileD: td}
	return cfg
}

func TestLosslessRoundTripExact(t *testing.T) {
	for _, bd := range []int{1, 4, 8, 12, 16, 24, 32, 38} {
		v := makeGradientVolume(4, 4, 2, bd, false)
		enc := NewEncoder(losslessConfig(4, 4, 2))
		data, err := enc.Encode(v)
		require.NoError(t, err)

		dec := NewDecoder(false)
		res, err := dec.Decode(data)
		require.NoError(t, err)
		require.False(t, res.Partial)

		for z := 0; z < 2; z++ {
			for y := 0; y < 4; y++ {
				for x := 0; x < 4; x++ {
					assert.Equal(t, v.Components[0].Sample(x, y, z), res.Volume.Components[0].Sample(x, y, z),
						"bitDepth=%d pos=(%d,%d,%d)", bd, x, y, z)
				}
			}
		}
	}
}

func TestLosslessRoundTripSigned(t *testing.T) {
	v := makeGradientVolume(4, 4, 2, 16, true)
	enc := NewEncoder(losslessConfig(4, 4, 2))
	data, err := enc.Encode(v)
	require.NoError(t, err)

	dec := NewDecoder(false)
	res, err := dec.Decode(data)
	require.NoError(t, err)
	for z := 0; z < 2; z++ {
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				assert.Equal(t, v.Components[0].Sample(x, y, z), res.Volume.Components[0].Sample(x, y, z))
			}
		}
	}
}

func TestCodestreamStartsWithSOCSIZAndEndsEOC(t *testing.T) {
	v := makeGradientVolume(4, 4, 2, 8, false)
	enc := NewEncoder(losslessConfig(4, 4, 2))
	data, err := enc.Encode(v)
	require.NoError(t, err)

	require.True(t, len(data) >= 6)
	assert.Equal(t, []byte{0xFF, 0x4F, 0xFF, 0x51}, data[0:4])
	assert.Equal(t, []byte{0xFF, 0xD9}, data[len(data)-2:])
}

func TestMultiTileRoundTrip(t *testing.T) {
	v := makeGradientVolume(5, 5, 1, 8, false)
	cfg := losslessConfig(2, 2, 1)
	enc := NewEncoder(cfg)
	data, err := enc.Encode(v)
	require.NoError(t, err)

	dec := NewDecoder(false)
	res, err := dec.Decode(data)
	require.NoError(t, err)
	for z := 0; z < 1; z++ {
		for y := 0; y < 5; y++ {
			for x := 0; x < 5; x++ {
				assert.Equal(t, v.Components[0].Sample(x, y, z), res.Volume.Components[0].Sample(x, y, z))
			}
		}
	}
}

func TestLossyModeStaysWithinPSNRFloor(t *testing.T) {
	v := makeGradientVolume(8, 8, 4, 12, false)
	cfg := losslessConfig(8, 8, 4)
	cfg.Mode = Lossy
	cfg.TargetPSNR = 40
	enc := NewEncoder(cfg)
	data, err := enc.Encode(v)
	require.NoError(t, err)

	dec := NewDecoder(false)
	res, err := dec.Decode(data)
	require.NoError(t, err)

	var sumSq float64
	n := 0
	maxVal := float64(v.Components[0].MaxValue())
	for z := 0; z < 4; z++ {
		for y := 0; y < 8; y++ {
			for x := 0; x < 8; x++ {
				diff := float64(v.Components[0].Sample(x, y, z) - res.Volume.Components[0].Sample(x, y, z))
				sumSq += diff * diff
				n++
			}
		}
	}
	mse := sumSq / float64(n)
	if mse == 0 {
		return
	}
	psnr := 20*math.Log10(maxVal) - 10*math.Log10(mse)
	assert.GreaterOrEqual(t, psnr, cfg.TargetPSNR-3)
}
