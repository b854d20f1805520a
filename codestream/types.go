package codestream

// ComponentSpec carries one SIZ per-component triple: sample precision
// (bit depth and signedness, packed into Ssiz) and the X/Y sub-sampling
// factors, per spec.md §4.F.
type ComponentSpec struct {
	BitDepth int
	Signed   bool
	XRsiz    byte
	YRsiz    byte
}

// Ssiz packs BitDepth and Signed into the single Ssiz byte: (bitDepth-1)
// with the high bit set when Signed.
func (c ComponentSpec) Ssiz() byte {
	v := byte(c.BitDepth - 1)
	if c.Signed {
		v |= 0x80
	}
	return v
}

// ComponentSpecFromSsiz decodes an Ssiz byte back into bit depth and sign.
func ComponentSpecFromSsiz(ssiz, xr, yr byte) ComponentSpec {
	return ComponentSpec{
		BitDepth: int(ssiz&0x7F) + 1,
		Signed:   ssiz&0x80 != 0,
		XRsiz:    xr,
		YRsiz:    yr,
	}
}

// SIZ is the image/tiling geometry marker segment, extended with the
// trailing Zsiz/ZTsiz JP3D depth fields.
type SIZ struct {
	Rsiz           uint16
	Xsiz, Ysiz     uint32
	XOsiz, YOsiz   uint32
	XTsiz, YTsiz   uint32
	XTOsiz, YTOsiz uint32
	Components     []ComponentSpec
	Zsiz           uint32
	ZTsiz          uint32
}

// COD is the default coding-style marker segment, extended with
// per-axis decomposition levels for JP3D.
type COD struct {
	// Scod bit 6 (0x40) marks HT block coding as present.
	Scod byte

	ProgressionOrder        byte
	NumLayers               uint16
	MultiComponentTransform byte

	LevelsX, LevelsY, LevelsZ byte
	CodeBlockW, CodeBlockH    byte
	CodeBlockStyle            byte
	// WaveletID is 1 for the 5/3 reversible filter, 0 for 9/7 irreversible.
	WaveletID byte
}

// HTEnabled reports whether Scod bit 6 marks HT block coding.
func (c COD) HTEnabled() bool { return c.Scod&0x40 != 0 }

// WithHT returns a copy of c with (or without) the HT bit set.
func (c COD) WithHT(ht bool) COD {
	if ht {
		c.Scod |= 0x40
	} else {
		c.Scod &^= 0x40
	}
	return c
}

// QuantSubband is one per-subband quantization entry: an exponent with
// 3 guard bits packed into its high bits, plus a mantissa used only
// when the QCD style is scalar-expounded (lossy).
type QuantSubband struct {
	GuardBits byte
	Exponent  byte
	Mantissa  byte
}

// QCD is the default quantization marker segment.
type QCD struct {
	// Style is 0 for no quantization (lossless) and 2 for scalar
	// expounded (lossy), per spec.md §4.F.
	Style    byte
	Subbands []QuantSubband
}

// CAP is the Part-15 (HTJ2K) capability marker segment.
type CAP struct {
	Pcap   uint32
	Ccap15 uint16
}

// HTPresent reports whether Ccap15 bit 0 marks HT presence.
func (c CAP) HTPresent() bool { return c.Ccap15&0x0001 != 0 }

// Mixed reports whether Ccap15 bit 1 marks a mixed HT+legacy codestream.
func (c CAP) Mixed() bool { return c.Ccap15&0x0002 != 0 }

// CPF is the Part-15 capability profile marker segment.
type CPF struct {
	Pcpf uint16
}

// Irreversible reports whether Pcpf's low bit marks an irreversible
// (lossy) profile.
func (c CPF) Irreversible() bool { return c.Pcpf&0x0001 != 0 }

// SOT is the start-of-tile-part marker segment.
type SOT struct {
	Isot  uint16
	Psot  uint32
	TPsot byte
	TNsot byte
}

// TilePayload pairs a tile index with its encoded payload bytes.
type TilePayload struct {
	Index   int
	Payload []byte
}

// BuildInput collects everything Build needs to assemble a codestream.
type BuildInput struct {
	SIZ   SIZ
	COD   COD
	QCD   QCD
	CAP   *CAP
	CPF   *CPF
	Tiles []TilePayload
}

// Parsed is the result of Parse: the recovered marker segments and the
// tile payloads, sorted by tile index.
type Parsed struct {
	SIZ   SIZ
	COD   COD
	QCD   QCD
	CAP   *CAP
	CPF   *CPF
	Tiles []TilePayload
}
