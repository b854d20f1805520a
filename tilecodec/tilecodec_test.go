package tilecodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCoeffs() [][]int32 {
	return [][]int32{
		{0, 0, 5, 0, -3, 0, 0, 0},
		{1, 0, 0, 0, 0, 0, 0, 2},
	}
}

func TestRawRoundTrip(t *testing.T) {
	c := sampleCoeffs()
	rc, ok := Lookup("raw")
	require.True(t, ok)

	payload, err := rc.Encode(c)
	require.NoError(t, err)
	assert.Len(t, payload, 8*2*4)

	got, err := rc.Decode(payload, 2, 8)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestHTRoundTrip(t *testing.T) {
	c := sampleCoeffs()
	hc, ok := Lookup("ht")
	require.True(t, ok)

	payload, err := hc.Encode(c)
	require.NoError(t, err)
	assert.True(t, DetectHT(payload))

	got, err := hc.Decode(payload, 2, 8)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestHTEncodeAllZeroTileEmitsNonHTPrefix(t *testing.T) {
	c := [][]int32{
		{0, 0, 0, 0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0, 0, 0, 0},
	}
	hc, ok := Lookup("ht")
	require.True(t, ok)

	payload, err := hc.Encode(c)
	require.NoError(t, err)
	require.False(t, DetectHT(payload), "all-zero tile must set isHT=0 in the header")
	assert.Len(t, payload, 4+8*2*4, "non-HT payload omits the 4-byte ZBP prefix")

	got, err := hc.Decode(payload, 2, 8)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestHTDecodeRejectsUnderLongPayload(t *testing.T) {
	hc, _ := Lookup("ht")
	_, err := hc.Decode([]byte{1, 1, 1, 0, 0, 0, 0, 1}, 2, 8)
	assert.Error(t, err)
}

func TestHTDecodeToleratesOverLongPayload(t *testing.T) {
	c := sampleCoeffs()
	hc, _ := Lookup("ht")
	payload, _ := hc.Encode(c)
	payload = append(payload, 0xFF, 0xFF, 0xFF, 0xFF)

	got, err := hc.Decode(payload, 2, 8)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestChooseAdaptive(t *testing.T) {
	sparse := [][]int32{{0, 0, 0, 1, 0, 0, 0, 0}}
	dense := [][]int32{{1, 2, 3, 4, 5, 6, 0, 0}}

	assert.Equal(t, Raw, ChooseAdaptive(sparse))
	assert.Equal(t, HT, ChooseAdaptive(dense))
}

func TestRegisterLookup(t *testing.T) {
	_, ok := Lookup("nonexistent-codec")
	assert.False(t, ok)

	Register("nonexistent-codec", rawCodec{})
	tc, ok := Lookup("nonexistent-codec")
	require.True(t, ok)
	assert.Equal(t, "raw", tc.Name())
}
