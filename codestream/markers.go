// Package codestream implements the JP3D wire format: marker-segment
// encoding/decoding, tile framing, and the builder/parser pair, per
// spec.md §4.F/4.G.
//
// Grounded on cocosip-go-dicom-codec's codestream parser/types
// (_examples/cocosip-go-dicom-codec/jpeg2000/codestream/{types,parser}.go),
// which walk a JPEG 2000 marker stream with a length-prefixed skip-unknown
// loop; adapted here to JP3D's depth-extended SIZ, per-axis COD levels,
// and the HTJ2K CAP/CPF capability markers, and simplified to the
// 1-tile-part-per-tile framing this codec always emits (no TPsot>0
// multi-part tiles, since the encoder never splits a tile across parts).
package codestream

// Marker is a 16-bit big-endian marker code.
type Marker uint16

const (
	MarkerSOC Marker = 0xFF4F
	MarkerSIZ Marker = 0xFF51
	MarkerCOD Marker = 0xFF52
	MarkerQCD Marker = 0xFF5C
	MarkerCOM Marker = 0xFF64
	MarkerSOT Marker = 0xFF90
	MarkerSOD Marker = 0xFF93
	MarkerEOC Marker = 0xFFD9
	MarkerCAP Marker = 0xFF50
	MarkerCPF Marker = 0xFF59
)
