package jp3d

import (
	"log/slog"
	"time"

	"github.com/rasterlab/jp3d/codestream"
	"github.com/rasterlab/jp3d/dwt"
	"github.com/rasterlab/jp3d/errs"
	"github.com/rasterlab/jp3d/quant"
	"github.com/rasterlab/jp3d/spatial"
	"github.com/rasterlab/jp3d/tilecodec"
	"github.com/rasterlab/jp3d/tiling"
	"github.com/rasterlab/jp3d/volume"
)

// Encoder implements the encoder pipeline of spec.md §4.H: validate,
// tile, DWT, quantize, tile-payload, build.
//
// Encode processes tiles sequentially in index order. A parallel tile
// pipeline is a natural extension (tiles are independent once the
// per-component step size is fixed) but is not implemented here.
type Encoder struct {
	Config Config
	Logger *slog.Logger
}

// NewEncoder constructs an Encoder with the given configuration.
func NewEncoder(cfg Config) *Encoder {
	return &Encoder{Config: cfg, Logger: slog.Default()}
}

func quantizeBlock(block []float64, step float64) []int32 {
	out := make([]int32, len(block))
	for i, v := range block {
		out[i] = quant.Quantize(v, step)
	}
	return out
}

func tileCodecFor(cfg HTConfig, coeffs [][]int32) tilecodec.TileCodec {
	mode := cfg.BlockMode
	if mode == BlockModeAdaptive {
		if tilecodec.ChooseAdaptive(coeffs) == tilecodec.HT {
			mode = BlockModeHT
		} else {
			mode = BlockModeLegacy
		}
	}
	if mode == BlockModeHT {
		tc, _ := tilecodec.Lookup("ht")
		return tc
	}
	tc, _ := tilecodec.Lookup("raw")
	return tc
}

// Encode validates v, tiles it, runs the forward DWT and quantizer per
// tile/component, emits tile payloads, and builds the codestream.
func (e *Encoder) Encode(v *volume.Volume) ([]byte, error) {
	start := time.Now()
	if err := v.Validate(); err != nil {
		return nil, err
	}

	cfg := e.Config
	tiler := tiling.NewTiler(v, cfg.Tiling.TileW, cfg.Tiling.TileH, cfg.Tiling.TileD)
	tiles := tiler.Tiles()
	if len(tiles) == 0 {
		return nil, errs.New(errs.Encoding, "encoder produced zero tiles for volume %dx%dx%d", v.Width, v.Height, v.Depth)
	}

	filter := cfg.Mode.filter()
	qmode := cfg.Mode.quantMode()
	htActive := cfg.Mode.isHT()

	// Step size depends only on bit depth and the configured mode (the
	// TargetBitrate variant's L term uses 0 as a component-wide estimate,
	// since a single step must be shared by every tile of a component so
	// it can be carried once in QCD rather than re-derived from
	// out-of-band mode parameters the decoder never sees). The step is
	// rounded to what QCD's exponent/mantissa pair can carry, so the
	// decoder dequantizes with exactly the step used here.
	componentSteps := make([]float64, len(v.Components))
	for ci, c := range v.Components {
		step := quant.StepSize(quant.Params{Mode: qmode, TargetPSNR: cfg.TargetPSNR, TargetBpv: cfg.TargetBpv}, c.BitDepth, 0)
		componentSteps[ci] = quant.DecodeStep(quant.EncodeStep(step))
	}

	var firstLx, firstLy, firstLz int
	payloads := make([]codestream.TilePayload, 0, len(tiles))

	for _, tl := range tiles {
		tw, th, td := tl.Region.Width(), tl.Region.Height(), tl.Region.Depth()
		lx, ly, lz := dwt.ClampLevels(tw, th, td, cfg.LevelsX, cfg.LevelsY, cfg.LevelsZ)
		if tl.Ix == 0 && tl.Iy == 0 && tl.Iz == 0 {
			firstLx, firstLy, firstLz = lx, ly, lz
		}

		coeffs := make([][]int32, len(v.Components))
		for ci := range v.Components {
			block := tiling.ExtractComponent(&v.Components[ci], tl.Region)
			buf := &dwt.Buffer{W: tw, H: th, D: td, Data: block}
			dwtCfg := dwt.Config{Filter: filter, Boundary: dwt.Symmetric, Lx: lx, Ly: ly, Lz: lz}
			dwt.Forward3D(buf, dwtCfg)

			coeffs[ci] = quantizeBlock(buf.Data, componentSteps[ci])
		}

		var tc tilecodec.TileCodec
		if htActive {
			ht := cfg.HT
			ht.BlockMode = BlockModeHT
			tc = tileCodecFor(ht, coeffs)
		} else {
			tc = tileCodecFor(cfg.HT, coeffs)
		}

		payload, err := tc.Encode(coeffs)
		if err != nil {
			return nil, errs.Wrap(errs.Encoding, err, "tile codec failed for tile %d", tiler.Grid.LinearIndex(tl.Ix, tl.Iy, tl.Iz))
		}
		payloads = append(payloads, codestream.TilePayload{
			Index:   tiler.Grid.LinearIndex(tl.Ix, tl.Iy, tl.Iz),
			Payload: payload,
		})
	}

	siz := sizFromVolume(v, cfg.Tiling)
	cod := codFromConfig(cfg, firstLx, firstLy, firstLz, htActive)
	qcd := qcdFromSteps(qmode, componentSteps)

	in := codestream.BuildInput{SIZ: siz, COD: cod, QCD: qcd, Tiles: payloads}
	if htActive {
		capSeg := codestream.CAP{Pcap: 0x00020000, Ccap15: 0x0001}
		cpf := codestream.CPF{Pcpf: 0x0000}
		if filter == dwt.Filter97 {
			cpf.Pcpf = 0x0001
		}
		in.CAP = &capSeg
		in.CPF = &cpf
	}

	out, err := codestream.Build(in)
	if err != nil {
		return nil, err
	}
	if e.Logger != nil {
		e.Logger.Info("encode complete", "stream", v.StreamID, "tiles", len(payloads), "bytes", len(out), "elapsed", time.Since(start))
	}
	return out, nil
}

func sizFromVolume(v *volume.Volume, tc TilingConfig) codestream.SIZ {
	grid := spatial.NewGrid(v.Width, v.Height, v.Depth, tc.TileW, tc.TileH, tc.TileD)
	comps := make([]codestream.ComponentSpec, len(v.Components))
	for i, c := range v.Components {
		comps[i] = codestream.ComponentSpec{BitDepth: c.BitDepth, Signed: c.Signed, XRsiz: 1, YRsiz: 1}
	}
	return codestream.SIZ{
		Xsiz: uint32(v.Width), Ysiz: uint32(v.Height),
		XTsiz: uint32(grid.TileW), YTsiz: uint32(grid.TileH),
		Components: comps,
		Zsiz:       uint32(v.Depth),
		ZTsiz:      uint32(grid.TileD),
	}
}

func codFromConfig(cfg Config, lx, ly, lz int, ht bool) codestream.COD {
	waveletID := byte(1)
	if cfg.Mode.filter() == dwt.Filter97 {
		waveletID = 0
	}
	numLayers := cfg.NumQualityLayers
	if numLayers < 1 {
		numLayers = 1
	}
	c := codestream.COD{
		ProgressionOrder: byte(cfg.Progression),
		NumLayers:        uint16(numLayers),
		LevelsX:          byte(lx), LevelsY: byte(ly), LevelsZ: byte(lz),
		CodeBlockW: 6, CodeBlockH: 6,
		WaveletID: waveletID,
	}
	return c.WithHT(ht)
}

// qcdFromSteps encodes one QCD subband entry per component, carrying the
// exact step size used to quantize that component so the decoder can
// dequantize without knowing the rate-control mode or PSNR target.
func qcdFromSteps(m quant.Mode, steps []float64) codestream.QCD {
	style := byte(2)
	if m == quant.Lossless || m == quant.LosslessHT {
		style = 0
	}
	subbands := make([]codestream.QuantSubband, len(steps))
	for i, step := range steps {
		exp, mantissa := quant.EncodeStep(step)
		subbands[i] = codestream.QuantSubband{GuardBits: 3, Exponent: exp, Mantissa: mantissa}
	}
	return codestream.QCD{Style: style, Subbands: subbands}
}
