package jp3d

import (
	"log/slog"
	"time"

	"github.com/rasterlab/jp3d/codestream"
	"github.com/rasterlab/jp3d/dwt"
	"github.com/rasterlab/jp3d/spatial"
	"github.com/rasterlab/jp3d/volume"
)

// ROIDecoder implements the region-of-interest decoder of spec.md §4.J:
// only tiles intersecting the requested region are decoded.
type ROIDecoder struct {
	Decoder *Decoder
}

// NewROIDecoder constructs an ROIDecoder.
func NewROIDecoder(tolerateErrors bool) *ROIDecoder {
	return &ROIDecoder{Decoder: NewDecoder(tolerateErrors)}
}

// ROIResult is the outcome of an ROI decode.
type ROIResult struct {
	Volume       *volume.Volume
	TilesDecoded int
	TilesSkipped int
}

// Decode clamps region to the volume described by data's SIZ, decodes
// only the intersecting tiles, and crops the reconstruction to region.
func (rd *ROIDecoder) Decode(data []byte, region spatial.Region) (*ROIResult, error) {
	start := time.Now()
	parsed, err := codestream.Parse(data)
	if err != nil {
		return nil, err
	}

	w, h, d := int(parsed.SIZ.Xsiz), int(parsed.SIZ.Ysiz), int(parsed.SIZ.Zsiz)
	clamped := region.Clamp(w, h, d)
	if clamped.Empty() {
		return &ROIResult{Volume: emptyVolumeLike(parsed.SIZ), TilesSkipped: len(parsed.Tiles)}, nil
	}

	full := spatial.NewRegionFromBounds(0, 0, 0, w, h, d)
	if clamped == full {
		res, err := rd.Decoder.Decode(data)
		if err != nil {
			return nil, err
		}
		return &ROIResult{Volume: res.Volume, TilesDecoded: len(parsed.Tiles)}, nil
	}

	grid := spatial.NewGrid(w, h, d, int(parsed.SIZ.XTsiz), int(parsed.SIZ.YTsiz), int(parsed.SIZ.ZTsiz))
	wanted := make(map[int]bool)
	for _, idx := range grid.IntersectingTiles(clamped) {
		wanted[idx] = true
	}

	filter := dwt.Filter53
	if parsed.COD.WaveletID == 0 {
		filter = dwt.Filter97
	}

	cb := newComponentBuffers(w, h, d, len(parsed.SIZ.Components))
	decoded, skipped := 0, 0
	for _, t := range parsed.Tiles {
		if !wanted[t.Index] {
			skipped++
			continue
		}
		if err := decodeTile(t, parsed.SIZ, filter, parsed.COD, parsed.QCD, cb); err != nil {
			if !rd.Decoder.TolerateErrors {
				return nil, err
			}
			skipped++
			continue
		}
		decoded++
	}

	cropped := cropBuffers(cb, clamped)
	if logger := rd.logger(); logger != nil {
		logger.Info("roi decode complete", "tilesDecoded", decoded, "tilesSkipped", skipped, "elapsed", time.Since(start))
	}
	return &ROIResult{
		Volume:       assembleVolume(sizForRegion(parsed.SIZ, clamped), cropped),
		TilesDecoded: decoded,
		TilesSkipped: skipped,
	}, nil
}

func (rd *ROIDecoder) logger() *slog.Logger {
	if rd.Decoder == nil {
		return slog.Default()
	}
	return rd.Decoder.Logger
}

func emptyVolumeLike(siz codestream.SIZ) *volume.Volume {
	v := &volume.Volume{StreamID: volume.NewStreamID()}
	v.Components = make([]volume.Component, len(siz.Components))
	for i, c := range siz.Components {
		v.Components[i] = volume.Component{Index: i, BitDepth: c.BitDepth, Signed: c.Signed}
	}
	return v
}

func sizForRegion(siz codestream.SIZ, r spatial.Region) codestream.SIZ {
	out := siz
	out.Xsiz, out.Ysiz, out.Zsiz = uint32(r.Width()), uint32(r.Height()), uint32(r.Depth())
	return out
}

func cropBuffers(cb *componentBuffers, r spatial.Region) *componentBuffers {
	out := newComponentBuffers(r.Width(), r.Height(), r.Depth(), len(cb.data))
	for ci := range cb.data {
		for z := 0; z < r.Depth(); z++ {
			for y := 0; y < r.Height(); y++ {
				for x := 0; x < r.Width(); x++ {
					out.data[ci][out.index(x, y, z)] = cb.data[ci][cb.index(r.X0+x, r.Y0+y, r.Z0+z)]
				}
			}
		}
	}
	return out
}
