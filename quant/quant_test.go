package quant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStepSizeLossless(t *testing.T) {
	assert.Equal(t, 1.0, StepSize(Params{Mode: Lossless}, 8, 0))
	assert.Equal(t, 1.0, StepSize(Params{Mode: LosslessHT}, 16, 0))
}

func TestStepSizeLossyFloor(t *testing.T) {
	step := StepSize(Params{Mode: Lossy, TargetPSNR: 40}, 8, 0)
	assert.GreaterOrEqual(t, step, 1.0)
}

func TestQuantizeDequantizeLosslessIdentity(t *testing.T) {
	for _, c := range []float64{-5, -1, 0, 1, 5, 100.4, -100.6} {
		q := Quantize(c, 1)
		got := Dequantize(q, 1)
		assert.InDelta(t, c, got, 0.6)
	}
}

func TestQuantizeDeadzone(t *testing.T) {
	q := Quantize(7.9, 2)
	assert.Equal(t, int32(3), q)
	q = Quantize(-7.9, 2)
	assert.Equal(t, int32(-3), q)
}

func TestLayersModel(t *testing.T) {
	layers := Layers(8, 3)
	assert.Len(t, layers, 3)
	assert.InDelta(t, 8.0, layers[2].TargetBpv, 1e-9)
	assert.InDelta(t, 1.0, layers[2].DistortionReduction, 1e-9)
	assert.Less(t, layers[0].TargetBpv, layers[1].TargetBpv)
}
