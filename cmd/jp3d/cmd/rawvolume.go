package cmd

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/rasterlab/jp3d/errs"
	"github.com/rasterlab/jp3d/volume"
)

// rawVolumeMagic identifies the CLI-only "raw volume" file format: a
// fixed header followed by one packed component byte buffer per
// component, in Component.Data's native little-endian layout. This
// format never appears on the wire; it only exists so test volumes can
// round-trip through the CLI without pulling in an imaging dependency.
var rawVolumeMagic = [4]byte{'J', 'P', '3', 'V'}

type rawVolumeHeader struct {
	W, H, D, C uint32
	BitDepth   uint8
	Signed     uint8
}

// WriteRawVolume serializes v to the JP3V format at path.
func WriteRawVolume(path string, v *volume.Volume) error {
	if len(v.Components) == 0 {
		return errs.New(errs.InvalidParameter, "cannot write a volume with zero components")
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	hdr := rawVolumeHeader{
		W: uint32(v.Width), H: uint32(v.Height), D: uint32(v.Depth), C: uint32(len(v.Components)),
		BitDepth: uint8(v.Components[0].BitDepth),
	}
	if v.Components[0].Signed {
		hdr.Signed = 1
	}
	if _, err := f.Write(rawVolumeMagic[:]); err != nil {
		return err
	}
	if err := binary.Write(f, binary.BigEndian, hdr); err != nil {
		return err
	}
	for i := range v.Components {
		if _, err := f.Write(v.Components[i].Data); err != nil {
			return err
		}
	}
	return nil
}

// ReadRawVolume reads a JP3V file into a *volume.Volume.
func ReadRawVolume(path string) (*volume.Volume, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var magic [4]byte
	if _, err := io.ReadFull(f, magic[:]); err != nil {
		return nil, err
	}
	if magic != rawVolumeMagic {
		return nil, errs.New(errs.InvalidParameter, "not a JP3V raw volume file (bad magic %q)", magic)
	}

	var hdr rawVolumeHeader
	if err := binary.Read(f, binary.BigEndian, &hdr); err != nil {
		return nil, err
	}
	if hdr.C == 0 {
		return nil, errs.New(errs.InvalidParameter, "raw volume header declares zero components")
	}

	v := &volume.Volume{Width: int(hdr.W), Height: int(hdr.H), Depth: int(hdr.D), StreamID: volume.NewStreamID()}
	v.Components = make([]volume.Component, hdr.C)
	bps := (int(hdr.BitDepth) + 7) / 8
	want := int(hdr.W) * int(hdr.H) * int(hdr.D) * bps
	for i := range v.Components {
		data := make([]byte, want)
		if _, err := io.ReadFull(f, data); err != nil {
			return nil, fmt.Errorf("reading component %d: %w", i, err)
		}
		v.Components[i] = volume.Component{
			Index: i, BitDepth: int(hdr.BitDepth), Signed: hdr.Signed != 0,
			W: int(hdr.W), H: int(hdr.H), D: int(hdr.D), Data: data,
		}
	}
	return v, nil
}
