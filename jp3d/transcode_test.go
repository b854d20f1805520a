package jp3d

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rasterlab/jp3d/codestream"
	"github.com/rasterlab/jp3d/tilecodec"
	"github.com/rasterlab/jp3d/volume"
)

func TestTranscodeStandardToHTPreservesCoefficients(t *testing.T) {
	v := makeGradientVolume(4, 4, 2, 8, false)
	enc := NewEncoder(losslessConfig(4, 4, 2))
	data, err := enc.Encode(v)
	require.NoError(t, err)

	parsedBefore, err := codestream.Parse(data)
	require.NoError(t, err)
	require.False(t, parsedBefore.COD.HTEnabled())

	tr := NewTranscoder(ToHT, HTConfig{PassCount: 3, CleanupPassEnabled: true}, true)
	htData, err := tr.Transcode(data)
	require.NoError(t, err)

	parsedAfter, err := codestream.Parse(htData)
	require.NoError(t, err)
	assert.True(t, parsedAfter.COD.HTEnabled())
	require.NotNil(t, parsedAfter.CAP)
	assert.True(t, parsedAfter.CAP.HTPresent())
	assert.Equal(t, parsedBefore.SIZ, parsedAfter.SIZ)
	assert.Equal(t, parsedBefore.QCD, parsedAfter.QCD)

	dec := NewDecoder(false)
	before, err := dec.Decode(data)
	require.NoError(t, err)
	after, err := dec.Decode(htData)
	require.NoError(t, err)
	for z := 0; z < 2; z++ {
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				assert.Equal(t,
					before.Volume.Components[0].Sample(x, y, z),
					after.Volume.Components[0].Sample(x, y, z))
			}
		}
	}
}

func TestTranscodeHTToStandardDropsCAP(t *testing.T) {
	v := makeGradientVolume(4, 4, 2, 8, false)
	enc := NewEncoder(losslessConfig(4, 4, 2))
	data, err := enc.Encode(v)
	require.NoError(t, err)

	toHT := NewTranscoder(ToHT, HTConfig{PassCount: 3, CleanupPassEnabled: true}, false)
	htData, err := toHT.Transcode(data)
	require.NoError(t, err)

	toStd := NewTranscoder(ToStandard, HTConfig{}, true)
	stdData, err := toStd.Transcode(htData)
	require.NoError(t, err)

	parsed, err := codestream.Parse(stdData)
	require.NoError(t, err)
	assert.False(t, parsed.COD.HTEnabled())
	assert.Nil(t, parsed.CAP)

	dec := NewDecoder(false)
	orig, err := dec.Decode(data)
	require.NoError(t, err)
	roundTripped, err := dec.Decode(stdData)
	require.NoError(t, err)
	for z := 0; z < 2; z++ {
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				assert.Equal(t,
					orig.Volume.Components[0].Sample(x, y, z),
					roundTripped.Volume.Components[0].Sample(x, y, z))
			}
		}
	}
}

// TestTranscodeHTZeroTileRoundTrips covers an all-zero tile, which the ht
// tile codec serializes with isHT=0 in its HT-info header (no ZBP
// prefix, see tilecodec.htCodec.Encode). Both decode and the
// HT-to-standard transcode direction must route such a tile through the
// ht codec by the codestream's COD.HTEnabled flag, not by sniffing the
// payload's isHT bit, or the 4-byte header would be misread as the first
// coefficient.
func TestTranscodeHTZeroTileRoundTrips(t *testing.T) {
	zero := volume.Component{BitDepth: 8, W: 4, H: 4, D: 2, Data: make([]byte, 4*4*2)}
	v := &volume.Volume{Width: 4, Height: 4, Depth: 2, Components: []volume.Component{zero}}

	toHT := NewTranscoder(ToHT, HTConfig{PassCount: 3, CleanupPassEnabled: true}, true)
	enc := NewEncoder(losslessConfig(4, 4, 2))
	data, err := enc.Encode(v)
	require.NoError(t, err)
	htData, err := toHT.Transcode(data)
	require.NoError(t, err)

	parsed, err := codestream.Parse(htData)
	require.NoError(t, err)
	require.True(t, parsed.COD.HTEnabled())
	for _, tile := range parsed.Tiles {
		assert.False(t, tilecodec.DetectHT(tile.Payload), "all-zero tile must carry isHT=0")
	}

	dec := NewDecoder(false)
	res, err := dec.Decode(htData)
	require.NoError(t, err)
	for z := 0; z < 2; z++ {
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				assert.Equal(t, int64(0), res.Volume.Components[0].Sample(x, y, z))
			}
		}
	}

	toStd := NewTranscoder(ToStandard, HTConfig{}, true)
	stdData, err := toStd.Transcode(htData)
	require.NoError(t, err)
	resStd, err := dec.Decode(stdData)
	require.NoError(t, err)
	for z := 0; z < 2; z++ {
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				assert.Equal(t, int64(0), resStd.Volume.Components[0].Sample(x, y, z))
			}
		}
	}
}

func TestTranscodeVerifyCatchesNothingOnHealthyInput(t *testing.T) {
	v := makeGradientVolume(4, 4, 2, 8, false)
	enc := NewEncoder(losslessConfig(4, 4, 2))
	data, err := enc.Encode(v)
	require.NoError(t, err)

	tr := NewTranscoder(ToHT, HTConfig{PassCount: 3, CleanupPassEnabled: true}, true)
	_, err = tr.Transcode(data)
	assert.NoError(t, err)
}
