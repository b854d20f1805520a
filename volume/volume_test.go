package volume

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeComponent(bitDepth int, signed bool, w, h, d int) Component {
	bps := (bitDepth + 7) / 8
	return Component{BitDepth: bitDepth, Signed: signed, W: w, H: h, D: d, Data: make([]byte, w*h*d*bps)}
}

func TestComponentSampleRoundTripUnsigned(t *testing.T) {
	c := makeComponent(8, false, 4, 4, 2)
	c.SetSample(1, 2, 1, 200)
	assert.Equal(t, int64(200), c.Sample(1, 2, 1))
}

func TestComponentSampleRoundTripSigned16(t *testing.T) {
	c := makeComponent(16, true, 2, 2, 1)
	c.SetSample(0, 0, 0, -12345)
	assert.Equal(t, int64(-12345), c.Sample(0, 0, 0))
	c.SetSample(1, 1, 0, 12345)
	assert.Equal(t, int64(12345), c.Sample(1, 1, 0))
}

func TestComponentSampleSubByteBitDepth(t *testing.T) {
	c := makeComponent(1, false, 2, 1, 1)
	c.SetSample(0, 0, 0, 1)
	assert.Equal(t, int64(1), c.Sample(0, 0, 0))
	assert.Equal(t, int64(1), c.MaxValue())
}

func TestComponentValidateRejectsBadBitDepth(t *testing.T) {
	c := makeComponent(8, false, 2, 2, 1)
	c.BitDepth = 0
	err := c.Validate()
	require.Error(t, err)
}

func TestComponentValidateRejectsSizeMismatch(t *testing.T) {
	c := makeComponent(8, false, 2, 2, 1)
	c.Data = c.Data[:len(c.Data)-1]
	err := c.Validate()
	require.Error(t, err)
}

func TestVolumeValidate(t *testing.T) {
	v := &Volume{Width: 4, Height: 4, Depth: 2, Components: []Component{makeComponent(8, false, 4, 4, 2)}}
	assert.NoError(t, v.Validate())

	v.Components[0].W = 3
	assert.Error(t, v.Validate())
}
