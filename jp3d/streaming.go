package jp3d

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/rasterlab/jp3d/codestream"
	"github.com/rasterlab/jp3d/dwt"
	"github.com/rasterlab/jp3d/errs"
	"github.com/rasterlab/jp3d/quant"
	"github.com/rasterlab/jp3d/spatial"
)

// WriterState is the streaming writer's lifecycle state, per spec.md §4.L.
type WriterState int

const (
	Ready WriterState = iota
	Encoding
	Finalized
	Cancelled
)

// ComponentMeta describes one component's geometry ahead of any slice
// arriving, since the streaming writer builds its codestream
// incrementally without ever holding a complete Volume.
type ComponentMeta struct {
	BitDepth int
	Signed   bool
}

// StreamingProgress is reported to the writer's progress callback after
// every accepted slice.
type StreamingProgress struct {
	ReceivedSlices int
	TotalSlices    int
	TilesEncoded   int
}

// StreamingWriter accepts volume slices out of order and schedules tile
// encoding as soon as a Z-tile row becomes complete, per spec.md §4.L.
type StreamingWriter struct {
	Width, Height, Depth int
	Components           []ComponentMeta
	Config               Config
	SessionID            uuid.UUID
	OnProgress           func(StreamingProgress)
	Logger               *slog.Logger

	state           WriterState
	sliceBuffers    map[int][]float64 // zIndex -> comp*(W*H) + y*W + x
	received        int
	encodedTiles    []codestream.TilePayload
	grid            spatial.Grid
	componentSteps  []float64
	firstLx         int
	firstLy         int
	firstLz         int
	haveFirstLevels bool
}

// NewStreamingWriter constructs a StreamingWriter for a volume of the
// given shape and component geometry.
func NewStreamingWriter(width, height, depth int, components []ComponentMeta, cfg Config) *StreamingWriter {
	grid := spatial.NewGrid(width, height, depth, cfg.Tiling.TileW, cfg.Tiling.TileH, cfg.Tiling.TileD)
	steps := make([]float64, len(components))
	qmode := cfg.Mode.quantMode()
	for i, c := range components {
		step := quant.StepSize(quant.Params{Mode: qmode, TargetPSNR: cfg.TargetPSNR, TargetBpv: cfg.TargetBpv}, c.BitDepth, 0)
		steps[i] = quant.DecodeStep(quant.EncodeStep(step))
	}
	return &StreamingWriter{
		Width: width, Height: height, Depth: depth,
		Components:     components,
		Config:         cfg,
		SessionID:      uuid.New(),
		state:          Ready,
		sliceBuffers:   make(map[int][]float64),
		grid:           grid,
		componentSteps: steps,
		Logger:         slog.Default(),
	}
}

// AddSlice accepts one Z-slice's float samples (laid out comp*(W*H) +
// y*W + x) and schedules encoding of any now-complete Z-tile rows.
func (w *StreamingWriter) AddSlice(sliceFloats []float64, zIndex int) error {
	if w.state != Ready && w.state != Encoding {
		return errs.New(errs.Encoding, "addSlice called in state %d, expected Ready or Encoding", w.state)
	}
	if zIndex < 0 || zIndex >= w.Depth {
		return errs.New(errs.InvalidParameter, "zIndex %d out of range [0,%d)", zIndex, w.Depth)
	}
	want := w.Width * w.Height * len(w.Components)
	if len(sliceFloats) != want {
		return errs.New(errs.InvalidParameter, "slice has %d samples, expected %d", len(sliceFloats), want)
	}

	w.sliceBuffers[zIndex] = append([]float64(nil), sliceFloats...)
	w.received++
	w.state = Encoding

	if err := w.flushCompleteTiles(); err != nil {
		return err
	}
	if w.Logger != nil {
		w.Logger.Info("slice accepted", "session", w.SessionID, "z", zIndex, "received", w.received, "tilesEncoded", len(w.encodedTiles))
	}
	if w.OnProgress != nil {
		w.OnProgress(StreamingProgress{ReceivedSlices: w.received, TotalSlices: w.Depth, TilesEncoded: len(w.encodedTiles)})
	}
	return nil
}

// flushCompleteTiles encodes every Z-tile row whose slices are all
// present and whose prior rows have already been encoded, in increasing
// tz order, then frees those slices from the buffer.
func (w *StreamingWriter) flushCompleteTiles() error {
	for tz := 0; tz < w.grid.NumTilesZ; tz++ {
		zStart := tz * w.grid.TileD
		zEnd := zStart + w.grid.TileD
		if zEnd > w.Depth {
			zEnd = w.Depth
		}
		if !w.allSlicesPresent(zStart, zEnd) {
			break // rows must complete in order
		}
		if len(w.encodedTiles) != tz*w.grid.NumTilesX*w.grid.NumTilesY {
			break
		}
		if err := w.encodeRow(tz, zStart, zEnd); err != nil {
			return err
		}
		for z := zStart; z < zEnd; z++ {
			delete(w.sliceBuffers, z)
		}
	}
	return nil
}

func (w *StreamingWriter) allSlicesPresent(zStart, zEnd int) bool {
	for z := zStart; z < zEnd; z++ {
		if _, ok := w.sliceBuffers[z]; !ok {
			return false
		}
	}
	return true
}

func (w *StreamingWriter) encodeRow(tz, zStart, zEnd int) error {
	filter := w.Config.Mode.filter()
	htActive := w.Config.Mode.isHT()
	td := zEnd - zStart

	for iy := 0; iy < w.grid.NumTilesY; iy++ {
		for ix := 0; ix < w.grid.NumTilesX; ix++ {
			tile := w.grid.TileAt(ix, iy, tz)
			tw, th := tile.Region.Width(), tile.Region.Height()
			x0, y0 := tile.Region.X0, tile.Region.Y0

			lx, ly, lz := dwt.ClampLevels(tw, th, td, w.Config.LevelsX, w.Config.LevelsY, w.Config.LevelsZ)
			if !w.haveFirstLevels {
				w.firstLx, w.firstLy, w.firstLz = lx, ly, lz
				w.haveFirstLevels = true
			}

			coeffs := make([][]int32, len(w.Components))
			for ci := range w.Components {
				block := make([]float64, tw*th*td)
				for z := 0; z < td; z++ {
					sl := w.sliceBuffers[zStart+z]
					base := ci * (w.Width * w.Height)
					for y := 0; y < th; y++ {
						for x := 0; x < tw; x++ {
							block[z*(tw*th)+y*tw+x] = sl[base+(y0+y)*w.Width+(x0+x)]
						}
					}
				}
				buf := &dwt.Buffer{W: tw, H: th, D: td, Data: block}
				dwt.Forward3D(buf, dwt.Config{Filter: filter, Boundary: dwt.Symmetric, Lx: lx, Ly: ly, Lz: lz})
				coeffs[ci] = quantizeBlock(buf.Data, w.componentSteps[ci])
			}

			ht := w.Config.HT
			if htActive {
				ht.BlockMode = BlockModeHT
			}
			tc := tileCodecFor(ht, coeffs)
			payload, err := tc.Encode(coeffs)
			if err != nil {
				return errs.Wrap(errs.Encoding, err, "tile codec failed for tile (%d,%d,%d)", ix, iy, tz)
			}
			w.encodedTiles = append(w.encodedTiles, codestream.TilePayload{
				Index:   w.grid.LinearIndex(ix, iy, tz),
				Payload: payload,
			})
		}
	}
	return nil
}

// Finalize encodes any complete tile rows not yet encoded and builds the
// codestream from the encoded rows. A row with a missing slice is not
// encoded, and neither is any row after it, so for an incomplete volume
// the codestream holds only the rows before the first incomplete one.
func (w *StreamingWriter) Finalize() ([]byte, error) {
	if w.state == Cancelled {
		return nil, errs.New(errs.Encoding, "cannot finalize a cancelled streaming writer")
	}
	if w.state == Finalized {
		return nil, errs.New(errs.Encoding, "streaming writer already finalized")
	}
	if err := w.flushCompleteTiles(); err != nil {
		return nil, err
	}
	if len(w.encodedTiles) == 0 {
		return nil, errs.New(errs.Encoding, "streaming writer finalized with zero encoded tiles")
	}

	siz := codestream.SIZ{
		Xsiz: uint32(w.Width), Ysiz: uint32(w.Height),
		XTsiz: uint32(w.grid.TileW), YTsiz: uint32(w.grid.TileH),
		Zsiz: uint32(w.Depth), ZTsiz: uint32(w.grid.TileD),
	}
	siz.Components = make([]codestream.ComponentSpec, len(w.Components))
	for i, c := range w.Components {
		siz.Components[i] = codestream.ComponentSpec{BitDepth: c.BitDepth, Signed: c.Signed, XRsiz: 1, YRsiz: 1}
	}

	htActive := w.Config.Mode.isHT()
	cod := codFromConfig(w.Config, w.firstLx, w.firstLy, w.firstLz, htActive)
	qcd := qcdFromSteps(w.Config.Mode.quantMode(), w.componentSteps)

	in := codestream.BuildInput{SIZ: siz, COD: cod, QCD: qcd, Tiles: w.encodedTiles}
	if htActive {
		capSeg := codestream.CAP{Pcap: 0x00020000, Ccap15: 0x0001}
		cpf := codestream.CPF{}
		if w.Config.Mode.filter() == dwt.Filter97 {
			cpf.Pcpf = 0x0001
		}
		in.CAP = &capSeg
		in.CPF = &cpf
	}

	out, err := codestream.Build(in)
	if err != nil {
		return nil, err
	}
	w.state = Finalized
	if w.Logger != nil {
		w.Logger.Info("streaming finalize complete", "session", w.SessionID, "tiles", len(w.encodedTiles), "bytes", len(out))
	}
	return out, nil
}

// Cancel drops all buffered state and forbids further slices.
func (w *StreamingWriter) Cancel() {
	w.sliceBuffers = nil
	w.encodedTiles = nil
	w.state = Cancelled
}
