package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rasterlab/jp3d/volume"
)

func TestRawVolumeRoundTrip(t *testing.T) {
	data := make([]byte, 4*4*2)
	for i := range data {
		data[i] = byte(i)
	}
	v := &volume.Volume{
		Width: 4, Height: 4, Depth: 2,
		Components: []volume.Component{
			{Index: 0, BitDepth: 8, W: 4, H: 4, D: 2, Data: data},
		},
	}

	path := filepath.Join(t.TempDir(), "vol.jp3v")
	require.NoError(t, WriteRawVolume(path, v))

	got, err := ReadRawVolume(path)
	require.NoError(t, err)
	assert.Equal(t, v.Width, got.Width)
	assert.Equal(t, v.Height, got.Height)
	assert.Equal(t, v.Depth, got.Depth)
	require.Len(t, got.Components, 1)
	assert.Equal(t, v.Components[0].Data, got.Components[0].Data)
	assert.Equal(t, v.Components[0].BitDepth, got.Components[0].BitDepth)
}

func TestReadRawVolumeRejectsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.jp3v")
	require.NoError(t, writeFile(path, []byte("nope")))
	_, err := ReadRawVolume(path)
	assert.Error(t, err)
}
