// Package tilecodec implements the JP3D per-tile payload codec: the raw
// big-endian Int32 coefficient stream and the HT-prefixed variant, plus a
// small named registry of implementations, per spec.md §4.E.
//
// Grounded on cocosip-go-dicom-codec's codec.Registry
// (_examples/cocosip-go-dicom-codec/codec/registry.go), a sync.Map-backed
// plugin registry keyed by name; repurposed here to register tile-payload
// codecs ("raw", "ht") instead of image codecs tied to a DICOM transfer
// syntax UID, since spec.md's Non-goals exclude a full Tier-1 entropy
// coder (so cocosip-go-dicom-codec's t1/t2/mqc/htj2k EBCOT packages are not adapted —
// see DESIGN.md).
package tilecodec

import (
	"encoding/binary"
	"math/bits"
	"sync"

	"github.com/rasterlab/jp3d/errs"
)

// Mode selects which tile payload variant to emit.
type Mode int

const (
	// Raw emits concatenated per-component big-endian Int32 arrays.
	Raw Mode = iota
	// HT emits the 4-byte HT-info prefix, optionally followed by the
	// 4-byte ZBP prefix, then the Int32 array.
	HT
	// Adaptive chooses Raw or HT per tile based on coefficient sparsity.
	Adaptive
)

// TileCodec encodes/decodes one tile's quantized coefficients for all of
// its components.
type TileCodec interface {
	// Name identifies the codec in the registry ("raw" or "ht").
	Name() string
	// Encode serializes coeffs (one []int32 slice per component, each of
	// length tw*th*td) into a tile payload.
	Encode(coeffs [][]int32) ([]byte, error)
	// Decode parses a tile payload back into one []int32 slice per
	// component, each of length tw*th*td (count).
	Decode(payload []byte, numComponents, count int) ([][]int32, error)
}

// rawCodec implements the Raw tile payload variant.
type rawCodec struct{}

func (rawCodec) Name() string { return "raw" }

func (rawCodec) Encode(coeffs [][]int32) ([]byte, error) {
	var total int
	for _, c := range coeffs {
		total += len(c)
	}
	buf := make([]byte, total*4)
	off := 0
	for _, c := range coeffs {
		for _, v := range c {
			binary.BigEndian.PutUint32(buf[off:], uint32(v))
			off += 4
		}
	}
	return buf, nil
}

func (rawCodec) Decode(payload []byte, numComponents, count int) ([][]int32, error) {
	coeffs := make([][]int32, numComponents)
	off := 0
	for ci := 0; ci < numComponents; ci++ {
		c := make([]int32, count)
		for i := 0; i < count; i++ {
			if off+4 > len(payload) {
				// Over-long payload tolerance stops at the expected
				// voxel count (spec.md §4.E); an under-long raw payload
				// simply yields trailing zeros, matching a truncated
				// tile being tolerated upstream by the decoder pipeline.
				break
			}
			c[i] = int32(binary.BigEndian.Uint32(payload[off:]))
			off += 4
		}
		coeffs[ci] = c
	}
	return coeffs, nil
}

// htCodec implements the HT-prefixed tile payload variant.
type htCodec struct {
	PassCount      uint8
	CleanupPresent bool
}

func (c htCodec) Name() string { return "ht" }

func (c htCodec) Encode(coeffs [][]int32) ([]byte, error) {
	var maxAbs uint32
	for _, comp := range coeffs {
		for _, v := range comp {
			a := v
			if a < 0 {
				a = -a
			}
			if uint32(a) > maxAbs {
				maxAbs = uint32(a)
			}
		}
	}
	// A tile with no nonzero coefficients has no bitplanes for the HT
	// block-coding pass structure to describe, so it is emitted as the
	// non-HT variant (header only, Int32 array alone, no ZBP prefix) per
	// spec.md §4.E.
	isHT := maxAbs != 0
	zbp := uint32(0)
	if isHT {
		zbp = uint32(31 - bits.LeadingZeros32(maxAbs))
	}

	cleanup := byte(0)
	if c.CleanupPresent {
		cleanup = 1
	}
	header := []byte{1, c.PassCount, cleanup, 0}
	if !isHT {
		header[0] = 0
	}

	var total int
	for _, comp := range coeffs {
		total += len(comp)
	}
	buf := make([]byte, 0, len(header)+4+total*4)
	buf = append(buf, header...)
	if isHT {
		var zbpBytes [4]byte
		binary.BigEndian.PutUint32(zbpBytes[:], zbp)
		buf = append(buf, zbpBytes[:]...)
	}
	valBytes := make([]byte, 4)
	for _, comp := range coeffs {
		for _, v := range comp {
			binary.BigEndian.PutUint32(valBytes, uint32(v))
			buf = append(buf, valBytes...)
		}
	}
	return buf, nil
}

func (htCodec) Decode(payload []byte, numComponents, count int) ([][]int32, error) {
	if len(payload) < 4 {
		return nil, errs.New(errs.Decoding, "HT tile payload too short for 4-byte header: %d bytes", len(payload))
	}
	isHT := payload[0] != 0
	off := 4
	if isHT {
		if len(payload) < off+4 {
			return nil, errs.New(errs.Decoding, "HT tile payload too short for ZBP prefix: %d bytes", len(payload))
		}
		off += 4
	}

	total := numComponents * count
	need := off + total*4
	if isHT && len(payload) < need {
		return nil, errs.New(errs.Decoding, "HT tile payload too short: need %d bytes, have %d", need, len(payload))
	}

	coeffs := make([][]int32, numComponents)
	for ci := 0; ci < numComponents; ci++ {
		c := make([]int32, count)
		for i := 0; i < count; i++ {
			if off+4 > len(payload) {
				break
			}
			c[i] = int32(binary.BigEndian.Uint32(payload[off:]))
			off += 4
		}
		coeffs[ci] = c
	}
	return coeffs, nil
}

// DetectHT reports whether an HT-coded tile payload's isHT bit is set
// (byte 0 of its 4-byte HT-info header), i.e. whether a 4-byte ZBP
// prefix follows the header before the Int32 array (spec.md §4.E). It is
// only meaningful for payloads already known to use the ht wire format —
// callers choosing between the raw and ht TileCodec for an unknown
// payload must use the codestream's COD.HTEnabled() instead, since an
// HT-coded tile with zero nonzero coefficients legitimately sets this
// bit to 0 while still using the ht header layout. Returns false for
// payloads shorter than 4 bytes.
func DetectHT(payload []byte) bool {
	return len(payload) >= 4 && payload[0] != 0
}

// Sparsity returns the fraction of nonzero coefficients across coeffs.
func Sparsity(coeffs [][]int32) float64 {
	var nonZero, count int
	for _, comp := range coeffs {
		for _, v := range comp {
			count++
			if v != 0 {
				nonZero++
			}
		}
	}
	if count == 0 {
		return 0
	}
	return float64(nonZero) / float64(count)
}

// ChooseAdaptive implements the adaptive HT-vs-raw decision of spec.md
// §4.E: use HT when more than a quarter of a tile's coefficients are
// nonzero.
func ChooseAdaptive(coeffs [][]int32) Mode {
	if Sparsity(coeffs) > 0.25 {
		return HT
	}
	return Raw
}

// registry is the named TileCodec plugin registry, grounded on
// codec.Registry's sync.Map pattern.
var registry sync.Map

func init() {
	Register("raw", rawCodec{})
	Register("ht", htCodec{PassCount: 1, CleanupPresent: true})
}

// Register adds (or replaces) a named TileCodec implementation.
func Register(name string, tc TileCodec) {
	registry.Store(name, tc)
}

// Lookup returns the TileCodec registered under name, if any.
func Lookup(name string) (TileCodec, bool) {
	v, ok := registry.Load(name)
	if !ok {
		return nil, false
	}
	return v.(TileCodec), true
}
