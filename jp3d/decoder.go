package jp3d

import (
	"log/slog"

	"github.com/rasterlab/jp3d/codestream"
	"github.com/rasterlab/jp3d/dwt"
	"github.com/rasterlab/jp3d/errs"
	"github.com/rasterlab/jp3d/quant"
	"github.com/rasterlab/jp3d/tilecodec"
	"github.com/rasterlab/jp3d/volume"
)

// Decoder implements the decoder pipeline of spec.md §4.I.
type Decoder struct {
	// TolerateErrors demotes truncated tiles and per-tile inverse-DWT
	// failures to warnings, marking the Result partial instead of
	// aborting the decode.
	TolerateErrors bool
	Logger         *slog.Logger
}

// NewDecoder constructs a Decoder.
func NewDecoder(tolerateErrors bool) *Decoder {
	return &Decoder{TolerateErrors: tolerateErrors, Logger: slog.Default()}
}

// Result is the outcome of a decode: the reconstructed volume and
// whether any tile was skipped/degraded under TolerateErrors.
type Result struct {
	Volume  *volume.Volume
	Partial bool
}

// componentBuffers holds one float64 buffer per component across the
// whole volume, addressed z*(W*H)+y*W+x.
type componentBuffers struct {
	w, h, d int
	data    [][]float64
}

func newComponentBuffers(w, h, d, numComponents int) *componentBuffers {
	cb := &componentBuffers{w: w, h: h, d: d, data: make([][]float64, numComponents)}
	for i := range cb.data {
		cb.data[i] = make([]float64, w*h*d)
	}
	return cb
}

func (cb *componentBuffers) index(x, y, z int) int {
	return z*(cb.w*cb.h) + y*cb.w + x
}

func tileGeometry(siz codestream.SIZ, idx int) (ix, iy, iz, x0, y0, z0, tw, th, td int) {
	numTilesX := ceilDivInt(int(siz.Xsiz), int(siz.XTsiz))
	numTilesY := ceilDivInt(int(siz.Ysiz), int(siz.YTsiz))
	ix = idx % numTilesX
	iy = (idx / numTilesX) % numTilesY
	iz = idx / (numTilesX * numTilesY)

	x0 = ix * int(siz.XTsiz)
	y0 = iy * int(siz.YTsiz)
	z0 = iz * int(siz.ZTsiz)

	x1 := min2(x0+int(siz.XTsiz), int(siz.Xsiz))
	y1 := min2(y0+int(siz.YTsiz), int(siz.Ysiz))
	z1 := min2(z0+int(siz.ZTsiz), int(siz.Zsiz))
	return ix, iy, iz, x0, y0, z0, x1 - x0, y1 - y0, z1 - z0
}

func ceilDivInt(a, b int) int {
	if b <= 0 {
		return 1
	}
	n := (a + b - 1) / b
	if n < 1 {
		n = 1
	}
	return n
}

func min2(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// decodeTile inverse-transforms one parsed tile payload into the given
// component buffers at its tile origin. filter selects the inverse DWT
// variant the tile was encoded with (the codestream records one filter
// for the whole codestream via COD.WaveletID).
func decodeTile(t codestream.TilePayload, siz codestream.SIZ, filter dwt.Filter, cod codestream.COD, qcd codestream.QCD, cb *componentBuffers) error {
	return decodeTileImpl(t, siz, filter, cod, qcd, cb, 0)
}

// decodeTileImpl is decodeTile generalized with a resolution reduction:
// reduction=0 reconstructs full resolution; reduction>0 stops the
// inverse DWT after undoing only the coarsest levels, leaving a
// lower-resolution reconstruction that occupies the corresponding
// shrunk corner of the tile's region. The caller-supplied cb must be
// sized for the reduced volume extents when reduction>0 (see
// decodeAtResolution).
func decodeTileImpl(t codestream.TilePayload, siz codestream.SIZ, filter dwt.Filter, cod codestream.COD, qcd codestream.QCD, cb *componentBuffers, reduction int) error {
	_, _, _, x0, y0, z0, tw, th, td := tileGeometry(siz, t.Index)
	if tw <= 0 || th <= 0 || td <= 0 {
		return errs.New(errs.Decoding, "tile %d has non-positive geometry", t.Index)
	}
	count := tw * th * td
	numComponents := len(siz.Components)

	// Which TileCodec encoded this tile is a codestream-wide property
	// (COD.HTEnabled), not something to re-derive from the payload: an
	// HT-coded tile with zero nonzero coefficients still carries the
	// 4-byte HT-info header even though its isHT bit reads 0, so sniffing
	// payload[0] here would misroute it to the raw codec and corrupt the
	// first coefficient. tilecodec.DetectHT is reserved for the ZBP-prefix
	// decision inside htCodec.Decode itself.
	var tc tilecodec.TileCodec
	var ok bool
	if cod.HTEnabled() {
		tc, ok = tilecodec.Lookup("ht")
	} else {
		tc, ok = tilecodec.Lookup("raw")
	}
	if !ok {
		return errs.New(errs.Decoding, "no tile codec registered for tile %d", t.Index)
	}

	coeffs, err := tc.Decode(t.Payload, numComponents, count)
	if err != nil {
		return errs.Wrap(errs.Decoding, err, "tile codec decode failed for tile %d", t.Index)
	}

	lx, ly, lz := dwt.ClampLevels(tw, th, td, int(cod.LevelsX), int(cod.LevelsY), int(cod.LevelsZ))
	dwtCfg := dwt.Config{Filter: filter, Boundary: dwt.Symmetric, Lx: lx, Ly: ly, Lz: lz}
	maxLevels := lx
	if ly > maxLevels {
		maxLevels = ly
	}
	if lz > maxLevels {
		maxLevels = lz
	}
	fromLevel := reduction
	if fromLevel > maxLevels {
		fromLevel = maxLevels
	}

	rw, rh, rd := reducedExtent(tw, fromLevel), reducedExtent(th, fromLevel), reducedExtent(td, fromLevel)
	rx0, ry0, rz0 := reducedExtent(x0, fromLevel), reducedExtent(y0, fromLevel), reducedExtent(z0, fromLevel)

	for ci := 0; ci < numComponents; ci++ {
		block := make([]float64, count)
		step := quantStepFor(qcd, ci)
		for i, q := range coeffs[ci] {
			block[i] = quant.Dequantize(q, step)
		}
		buf := &dwt.Buffer{W: tw, H: th, D: td, Data: block}
		steps := dwt.Steps3D(tw, th, td, dwtCfg)
		dwt.InverseFrom(buf, dwtCfg, steps, fromLevel)

		if fromLevel == 0 {
			for z := 0; z < td; z++ {
				for y := 0; y < th; y++ {
					for x := 0; x < tw; x++ {
						src := z*(tw*th) + y*tw + x
						cb.data[ci][cb.index(x0+x, y0+y, z0+z)] = buf.Data[src]
					}
				}
			}
			continue
		}

		// Reduced resolution: only the shrunk LL corner (rw x rh x rd)
		// holds the reconstruction at this level.
		for z := 0; z < rd; z++ {
			for y := 0; y < rh; y++ {
				for x := 0; x < rw; x++ {
					src := z*(tw*th) + y*tw + x
					cb.data[ci][cb.index(rx0+x, ry0+y, rz0+z)] = buf.Data[src]
				}
			}
		}
	}
	return nil
}

func reducedExtent(n, levels int) int {
	for i := 0; i < levels; i++ {
		n = (n + 1) / 2
	}
	return n
}

func assembleVolume(siz codestream.SIZ, cb *componentBuffers) *volume.Volume {
	v := &volume.Volume{Width: cb.w, Height: cb.h, Depth: cb.d, StreamID: volume.NewStreamID()}
	v.Components = make([]volume.Component, len(siz.Components))
	for ci, spec := range siz.Components {
		c := volume.Component{
			Index: ci, BitDepth: spec.BitDepth, Signed: spec.Signed,
			W: cb.w, H: cb.h, D: cb.d,
		}
		c.Data = make([]byte, cb.w*cb.h*cb.d*c.BytesPerSample())
		minVal, maxVal := int64(0), c.MaxValue()
		if c.Signed {
			minVal = -(int64(1) << uint(c.BitDepth-1))
			maxVal = (int64(1) << uint(c.BitDepth-1)) - 1
		}
		for i, f := range cb.data[ci] {
			r := roundFloat(f)
			if r < minVal {
				r = minVal
			}
			if r > maxVal {
				r = maxVal
			}
			z := i / (cb.w * cb.h)
			rem := i % (cb.w * cb.h)
			y := rem / cb.w
			x := rem % cb.w
			c.SetSample(x, y, z, r)
		}
		v.Components[ci] = c
	}
	return v
}

func roundFloat(v float64) int64 {
	if v >= 0 {
		return int64(v + 0.5)
	}
	return -int64(-v + 0.5)
}

// Decode parses data and reconstructs the volume, per spec.md §4.I.
func (d *Decoder) Decode(data []byte) (*Result, error) {
	parsed, err := codestream.Parse(data)
	if err != nil {
		return nil, err
	}

	cb := newComponentBuffers(int(parsed.SIZ.Xsiz), int(parsed.SIZ.Ysiz), int(parsed.SIZ.Zsiz), len(parsed.SIZ.Components))
	filter := dwt.Filter53
	if parsed.COD.WaveletID == 0 {
		filter = dwt.Filter97
	}

	partial := false
	for _, t := range parsed.Tiles {
		if err := decodeTile(t, parsed.SIZ, filter, parsed.COD, parsed.QCD, cb); err != nil {
			if d.TolerateErrors {
				partial = true
				if d.Logger != nil {
					d.Logger.Warn("tile decode failed, marking result partial", "tile", t.Index, "error", err)
				}
				continue
			}
			return nil, err
		}
	}

	return &Result{Volume: assembleVolume(parsed.SIZ, cb), Partial: partial}, nil
}
