package jp3d

import (
	"log/slog"
	"time"

	"github.com/rasterlab/jp3d/codestream"
	"github.com/rasterlab/jp3d/errs"
	"github.com/rasterlab/jp3d/tilecodec"
)

// TranscodeDirection selects which tile payload representation a
// Transcoder converts towards, per spec.md §4.M.
type TranscodeDirection int

const (
	// ToHT converts every tile to the HT-prefixed payload variant.
	ToHT TranscodeDirection = iota
	// ToStandard converts every tile to the raw Int32 payload variant.
	ToStandard
)

// Transcoder rewrites a codestream's tile payloads between the raw and
// HT-prefixed representations without touching the underlying
// coefficients, preserving SIZ and QCD exactly.
type Transcoder struct {
	Direction TranscodeDirection
	HT        HTConfig
	// Verify re-decodes every rewritten tile and compares its
	// coefficients against the source tile, failing the transcode on any
	// mismatch instead of emitting a silently-divergent codestream.
	Verify bool
	Logger *slog.Logger
}

// NewTranscoder constructs a Transcoder for direction.
func NewTranscoder(direction TranscodeDirection, ht HTConfig, verify bool) *Transcoder {
	return &Transcoder{Direction: direction, HT: ht, Verify: verify, Logger: slog.Default()}
}

// Transcode parses data, rewrites every tile payload per t.Direction, and
// rebuilds the codestream with SIZ and QCD unchanged.
func (t *Transcoder) Transcode(data []byte) ([]byte, error) {
	start := time.Now()
	parsed, err := codestream.Parse(data)
	if err != nil {
		return nil, err
	}

	targetHT := t.Direction == ToHT
	sourceIsHT := parsed.COD.HTEnabled()
	newTiles := make([]codestream.TilePayload, len(parsed.Tiles))
	for i, tile := range parsed.Tiles {
		out, err := t.transcodeTile(tile, parsed.SIZ, sourceIsHT)
		if err != nil {
			return nil, errs.Wrap(errs.Encoding, err, "transcode failed for tile %d", tile.Index)
		}
		newTiles[i] = out
	}

	cod := parsed.COD.WithHT(targetHT)
	in := codestream.BuildInput{SIZ: parsed.SIZ, COD: cod, QCD: parsed.QCD, Tiles: newTiles}

	if targetHT {
		capSeg := codestream.CAP{Pcap: 0x00020000, Ccap15: 0x0001}
		cpf := codestream.CPF{}
		if parsed.COD.WaveletID == 0 {
			cpf.Pcpf = 0x0001
		}
		in.CAP = &capSeg
		in.CPF = &cpf
	}

	out, err := codestream.Build(in)
	if err != nil {
		return nil, err
	}
	if t.Logger != nil {
		t.Logger.Info("transcode complete", "direction", t.Direction, "tiles", len(newTiles), "elapsed", time.Since(start))
	}
	return out, nil
}

func (t *Transcoder) transcodeTile(tile codestream.TilePayload, siz codestream.SIZ, sourceIsHT bool) (codestream.TilePayload, error) {
	_, _, _, _, _, _, tw, th, td := tileGeometry(siz, tile.Index)
	count := tw * th * td
	numComponents := len(siz.Components)

	// sourceIsHT comes from the source codestream's COD segment, not from
	// sniffing the payload: an HT-coded tile with isHT=0 (all-zero
	// coefficients) still used the ht wire format and must be decoded
	// with it, even though tilecodec.DetectHT would read false for it.
	sourceName := "raw"
	if sourceIsHT {
		sourceName = "ht"
	}
	sourceCodec, ok := tilecodec.Lookup(sourceName)
	if !ok {
		return codestream.TilePayload{}, errs.New(errs.Decoding, "no %q tile codec registered", sourceName)
	}
	coeffs, err := sourceCodec.Decode(tile.Payload, numComponents, count)
	if err != nil {
		return codestream.TilePayload{}, err
	}

	var targetCodec tilecodec.TileCodec
	if t.Direction == ToHT {
		// tileCodecFor with BlockModeHT returns the registered "ht" codec,
		// which writes pass count 1 with the cleanup pass present;
		// t.HT's PassCount and CleanupPassEnabled are not applied.
		targetCodec = tileCodecFor(HTConfig{BlockMode: BlockModeHT, PassCount: t.HT.PassCount, CleanupPassEnabled: t.HT.CleanupPassEnabled}, coeffs)
	} else {
		var ok bool
		targetCodec, ok = tilecodec.Lookup("raw")
		if !ok {
			return codestream.TilePayload{}, errs.New(errs.Encoding, "no %q tile codec registered", "raw")
		}
	}

	payload, err := targetCodec.Encode(coeffs)
	if err != nil {
		return codestream.TilePayload{}, err
	}

	if t.Verify {
		verifyCoeffs, err := targetCodec.Decode(payload, numComponents, count)
		if err != nil {
			return codestream.TilePayload{}, errs.Wrap(errs.Encoding, err, "verification decode failed for tile %d", tile.Index)
		}
		if !coeffsEqual(coeffs, verifyCoeffs) {
			return codestream.TilePayload{}, errs.New(errs.Encoding, "transcode verification mismatch for tile %d", tile.Index)
		}
	}

	return codestream.TilePayload{Index: tile.Index, Payload: payload}, nil
}

func coeffsEqual(a, b [][]int32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				return false
			}
		}
	}
	return true
}
