package codestream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleInput() BuildInput {
	return BuildInput{
		SIZ: SIZ{
			Rsiz: 0,
			Xsiz: 4, Ysiz: 4,
			XTsiz: 4, YTsiz: 4,
			Components: []ComponentSpec{{BitDepth: 8, Signed: false, XRsiz: 1, YRsiz: 1}},
			Zsiz:       2,
			ZTsiz:      2,
		},
		COD: COD{
			ProgressionOrder: 0,
			NumLayers:        1,
			LevelsX:          1, LevelsY: 1, LevelsZ: 0,
			CodeBlockW: 6, CodeBlockH: 6, CodeBlockStyle: 0,
			WaveletID: 1,
		},
		QCD: QCD{
			Style:    0,
			Subbands: []QuantSubband{{GuardBits: 3, Exponent: 8}},
		},
		Tiles: []TilePayload{
			{Index: 0, Payload: []byte{1, 2, 3, 4, 5, 6, 7, 8}},
		},
	}
}

func TestBuildStartsWithSOCSIZ(t *testing.T) {
	out, err := Build(sampleInput())
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0x4F, 0xFF, 0x51}, out[:4])
}

func TestBuildEndsWithEOC(t *testing.T) {
	out, err := Build(sampleInput())
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xD9}, out[len(out)-2:])
}

func TestBuildRejectsZeroTiles(t *testing.T) {
	in := sampleInput()
	in.Tiles = nil
	_, err := Build(in)
	assert.Error(t, err)
}

func TestParseRoundTrip(t *testing.T) {
	in := sampleInput()
	out, err := Build(in)
	require.NoError(t, err)

	parsed, err := Parse(out)
	require.NoError(t, err)

	assert.Equal(t, uint32(4), parsed.SIZ.Xsiz)
	assert.Equal(t, uint32(4), parsed.SIZ.Ysiz)
	assert.Equal(t, uint32(2), parsed.SIZ.Zsiz)
	assert.Equal(t, uint32(2), parsed.SIZ.ZTsiz)
	require.Len(t, parsed.SIZ.Components, 1)
	assert.Equal(t, 8, parsed.SIZ.Components[0].BitDepth)
	assert.False(t, parsed.SIZ.Components[0].Signed)

	assert.Equal(t, byte(1), parsed.COD.LevelsX)
	assert.Equal(t, byte(1), parsed.COD.LevelsY)
	assert.Equal(t, byte(0), parsed.COD.LevelsZ)
	assert.Equal(t, byte(1), parsed.COD.WaveletID)

	assert.Equal(t, byte(0), parsed.QCD.Style)
	require.Len(t, parsed.QCD.Subbands, 1)
	assert.Equal(t, byte(8), parsed.QCD.Subbands[0].Exponent)

	require.Len(t, parsed.Tiles, 1)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, parsed.Tiles[0].Payload)
}

func TestParseRejectsMissingSOC(t *testing.T) {
	_, err := Parse([]byte{0x00, 0x00, 0xFF, 0x51})
	assert.Error(t, err)
}

func TestParseSignedComponent(t *testing.T) {
	in := sampleInput()
	in.SIZ.Components = []ComponentSpec{{BitDepth: 16, Signed: true, XRsiz: 1, YRsiz: 1}}
	out, err := Build(in)
	require.NoError(t, err)

	parsed, err := Parse(out)
	require.NoError(t, err)
	require.Len(t, parsed.SIZ.Components, 1)
	assert.Equal(t, 16, parsed.SIZ.Components[0].BitDepth)
	assert.True(t, parsed.SIZ.Components[0].Signed)
}

func TestHTRoundTripMarkers(t *testing.T) {
	in := sampleInput()
	in.COD = in.COD.WithHT(true)
	in.CAP = &CAP{Pcap: 0x00020000, Ccap15: 0x0001}
	in.CPF = &CPF{Pcpf: 0x0001}

	out, err := Build(in)
	require.NoError(t, err)

	parsed, err := Parse(out)
	require.NoError(t, err)
	assert.True(t, parsed.COD.HTEnabled())
	require.NotNil(t, parsed.CAP)
	assert.True(t, parsed.CAP.HTPresent())
	require.NotNil(t, parsed.CPF)
	assert.True(t, parsed.CPF.Irreversible())
}

func TestTilesSortedByIndex(t *testing.T) {
	in := sampleInput()
	in.SIZ.Components = []ComponentSpec{{BitDepth: 8, Signed: false, XRsiz: 1, YRsiz: 1}}
	in.Tiles = []TilePayload{
		{Index: 1, Payload: []byte{9, 9}},
		{Index: 0, Payload: []byte{1, 1}},
	}
	out, err := Build(in)
	require.NoError(t, err)

	parsed, err := Parse(out)
	require.NoError(t, err)
	require.Len(t, parsed.Tiles, 2)
	assert.Equal(t, 0, parsed.Tiles[0].Index)
	assert.Equal(t, 1, parsed.Tiles[1].Index)
}

func TestParseSkipsUnknownMarkerSegment(t *testing.T) {
	in := sampleInput()
	out, err := Build(in)
	require.NoError(t, err)

	// Splice a fake COM marker segment right after SOC+SIZ+COD+QCD but
	// before the first SOT, to exercise the unknown-marker skip path.
	// Locate the first SOT marker (0xFF 0x90) to find an insertion point.
	idx := -1
	for i := 0; i+1 < len(out); i++ {
		if out[i] == 0xFF && out[i+1] == 0x90 {
			idx = i
			break
		}
	}
	require.Greater(t, idx, 0)

	com := []byte{0xFF, 0x64, 0x00, 0x04, 'h', 'i'}
	spliced := append(append(append([]byte{}, out[:idx]...), com...), out[idx:]...)

	parsed, err := Parse(spliced)
	require.NoError(t, err)
	require.Len(t, parsed.Tiles, 1)
}
