package codestream

import (
	"encoding/binary"
	"sort"

	"github.com/rasterlab/jp3d/errs"
)

type reader struct {
	buf []byte
	pos int
}

func (r *reader) remaining() int { return len(r.buf) - r.pos }

func (r *reader) u16() (uint16, error) {
	if r.remaining() < 2 {
		return 0, errs.New(errs.Decoding, "truncated read: expected 2 bytes at offset %d", r.pos)
	}
	v := binary.BigEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *reader) u32() (uint32, error) {
	if r.remaining() < 4 {
		return 0, errs.New(errs.Decoding, "truncated read: expected 4 bytes at offset %d", r.pos)
	}
	v := binary.BigEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *reader) byte() (byte, error) {
	if r.remaining() < 1 {
		return 0, errs.New(errs.Decoding, "truncated read: expected 1 byte at offset %d", r.pos)
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

func parseSIZ(r *reader) (SIZ, error) {
	start := r.pos
	lsiz, err := r.u16()
	if err != nil {
		return SIZ{}, err
	}
	if lsiz < 38 {
		return SIZ{}, errs.New(errs.Decoding, "SIZ segment too short: Lsiz=%d", lsiz)
	}
	var s SIZ
	fields := []*uint32{&s.Xsiz, &s.Ysiz, &s.XOsiz, &s.YOsiz, &s.XTsiz, &s.YTsiz, &s.XTOsiz, &s.YTOsiz}
	if s.Rsiz, err = r.u16(); err != nil {
		return SIZ{}, err
	}
	for _, f := range fields {
		v, err := r.u32()
		if err != nil {
			return SIZ{}, err
		}
		*f = v
	}
	numComp, err := r.u16()
	if err != nil {
		return SIZ{}, err
	}
	s.Components = make([]ComponentSpec, numComp)
	for i := range s.Components {
		ssiz, err := r.byte()
		if err != nil {
			return SIZ{}, err
		}
		xr, err := r.byte()
		if err != nil {
			return SIZ{}, err
		}
		yr, err := r.byte()
		if err != nil {
			return SIZ{}, err
		}
		s.Components[i] = ComponentSpecFromSsiz(ssiz, xr, yr)
	}

	// Trailing JP3D depth extension: consume if the declared segment
	// length says it is present.
	consumed := r.pos - start
	if consumed+8 <= int(lsiz) {
		if s.Zsiz, err = r.u32(); err != nil {
			return SIZ{}, err
		}
		if s.ZTsiz, err = r.u32(); err != nil {
			return SIZ{}, err
		}
	}

	// Skip any remaining declared-but-unconsumed bytes (forward
	// compatibility with wider SIZ variants).
	end := start + int(lsiz)
	if r.pos < end {
		if end > len(r.buf) {
			return SIZ{}, errs.New(errs.Decoding, "SIZ segment declares length past end of stream")
		}
		r.pos = end
	}
	return s, nil
}

func parseCOD(r *reader) (COD, error) {
	start := r.pos
	lcod, err := r.u16()
	if err != nil {
		return COD{}, err
	}
	var c COD
	if c.Scod, err = r.byte(); err != nil {
		return COD{}, err
	}
	if c.ProgressionOrder, err = r.byte(); err != nil {
		return COD{}, err
	}
	if c.NumLayers, err = r.u16(); err != nil {
		return COD{}, err
	}
	if c.MultiComponentTransform, err = r.byte(); err != nil {
		return COD{}, err
	}
	if c.LevelsX, err = r.byte(); err != nil {
		return COD{}, err
	}

	switch lcod {
	case 12:
		// Legacy single-level form: one level byte shared across axes.
		c.LevelsY = c.LevelsX
		c.LevelsZ = c.LevelsX
	default:
		// Extended (length 14) per-axis form.
		if c.LevelsY, err = r.byte(); err != nil {
			return COD{}, err
		}
		if c.LevelsZ, err = r.byte(); err != nil {
			return COD{}, err
		}
	}
	if c.CodeBlockW, err = r.byte(); err != nil {
		return COD{}, err
	}
	if c.CodeBlockH, err = r.byte(); err != nil {
		return COD{}, err
	}
	if c.CodeBlockStyle, err = r.byte(); err != nil {
		return COD{}, err
	}
	if c.WaveletID, err = r.byte(); err != nil {
		return COD{}, err
	}

	end := start + int(lcod)
	if r.pos < end {
		if end > len(r.buf) {
			return COD{}, errs.New(errs.Decoding, "COD segment declares length past end of stream")
		}
		r.pos = end
	}
	return c, nil
}

func parseQCD(r *reader) (QCD, error) {
	start := r.pos
	lqcd, err := r.u16()
	if err != nil {
		return QCD{}, err
	}
	var q QCD
	if q.Style, err = r.byte(); err != nil {
		return QCD{}, err
	}
	end := start + int(lqcd)
	if end > len(r.buf) {
		return QCD{}, errs.New(errs.Decoding, "QCD segment declares length past end of stream")
	}
	for r.pos < end {
		b, err := r.byte()
		if err != nil {
			return QCD{}, err
		}
		sb := QuantSubband{GuardBits: b >> 5, Exponent: b & 0x1F}
		if q.Style == 2 {
			m, err := r.byte()
			if err != nil {
				return QCD{}, err
			}
			sb.Mantissa = m
		}
		q.Subbands = append(q.Subbands, sb)
	}
	return q, nil
}

func parseCAP(r *reader) (CAP, error) {
	if _, err := r.u16(); err != nil { // length, always 8
		return CAP{}, err
	}
	var c CAP
	var err error
	if c.Pcap, err = r.u32(); err != nil {
		return CAP{}, err
	}
	if c.Ccap15, err = r.u16(); err != nil {
		return CAP{}, err
	}
	return c, nil
}

func parseCPF(r *reader) (CPF, error) {
	if _, err := r.u16(); err != nil { // length, always 4
		return CPF{}, err
	}
	var c CPF
	var err error
	if c.Pcpf, err = r.u16(); err != nil {
		return CPF{}, err
	}
	return c, nil
}

// Parse reads a JP3D codestream, recovering SIZ/COD/QCD/CAP/CPF and the
// ordered tile payloads, per spec.md §4.G.
func Parse(data []byte) (Parsed, error) {
	r := &reader{buf: data}

	soc, err := r.u16()
	if err != nil {
		return Parsed{}, errs.New(errs.Decoding, "codestream too short to contain SOC")
	}
	if Marker(soc) != MarkerSOC {
		return Parsed{}, errs.New(errs.Decoding, "missing SOC marker, got 0x%04X", soc)
	}

	var result Parsed
	haveSIZ, haveCOD := false, false

	for r.remaining() > 0 {
		m, err := r.u16()
		if err != nil {
			return Parsed{}, err
		}
		marker := Marker(m)
		switch marker {
		case MarkerSIZ:
			result.SIZ, err = parseSIZAfterMarker(r)
			if err != nil {
				return Parsed{}, err
			}
			haveSIZ = true
		case MarkerCOD:
			result.COD, err = parseCODAfterMarker(r)
			if err != nil {
				return Parsed{}, err
			}
			haveCOD = true
		case MarkerQCD:
			result.QCD, err = parseQCDAfterMarker(r)
			if err != nil {
				return Parsed{}, err
			}
		case MarkerCAP:
			capSeg, err := parseCAP(r)
			if err != nil {
				return Parsed{}, err
			}
			result.CAP = &capSeg
		case MarkerCPF:
			cpf, err := parseCPF(r)
			if err != nil {
				return Parsed{}, err
			}
			result.CPF = &cpf
		case MarkerSOT:
			if !haveSIZ || !haveCOD {
				return Parsed{}, errs.New(errs.Decoding, "SOT encountered before SIZ/COD")
			}
			tile, err := parseTile(r)
			if err != nil {
				return Parsed{}, err
			}
			result.Tiles = append(result.Tiles, tile)
		case MarkerEOC:
			sort.Slice(result.Tiles, func(i, j int) bool { return result.Tiles[i].Index < result.Tiles[j].Index })
			if len(result.Tiles) == 0 {
				return Parsed{}, errs.New(errs.Decoding, "codestream contains zero tiles")
			}
			return result, nil
		default:
			if err := skipUnknown(r); err != nil {
				return Parsed{}, err
			}
		}
	}
	return Parsed{}, errs.New(errs.Decoding, "codestream ended without EOC")
}

// parseSIZAfterMarker/parseCODAfterMarker/parseQCDAfterMarker rewind the
// reader by 0 bytes — the marker word has already been consumed by the
// dispatch loop, so these simply delegate to the segment parsers, which
// read Lseg first.
func parseSIZAfterMarker(r *reader) (SIZ, error) { return parseSIZ(r) }
func parseCODAfterMarker(r *reader) (COD, error) { return parseCOD(r) }
func parseQCDAfterMarker(r *reader) (QCD, error) { return parseQCD(r) }

func skipUnknown(r *reader) error {
	lseg, err := r.u16()
	if err != nil {
		return err
	}
	skip := int(lseg) - 2
	if skip < 0 || r.pos+skip > len(r.buf) {
		return errs.New(errs.Decoding, "unknown marker segment declares invalid length %d", lseg)
	}
	r.pos += skip
	return nil
}

func parseTile(r *reader) (TilePayload, error) {
	sotStart := r.pos - 2 // back up to include the SOT marker itself
	if _, err := r.u16(); err != nil {
		return TilePayload{}, errs.New(errs.Decoding, "truncated SOT segment")
	}
	isot, err := r.u16()
	if err != nil {
		return TilePayload{}, err
	}
	psot, err := r.u32()
	if err != nil {
		return TilePayload{}, err
	}
	if _, err := r.byte(); err != nil { // TPsot
		return TilePayload{}, err
	}
	if _, err := r.byte(); err != nil { // TNsot
		return TilePayload{}, err
	}

	sod, err := r.u16()
	if err != nil {
		return TilePayload{}, errs.New(errs.Decoding, "truncated stream: expected SOD after SOT for tile %d", isot)
	}
	if Marker(sod) != MarkerSOD {
		return TilePayload{}, errs.New(errs.Decoding, "expected SOD marker after SOT for tile %d, got 0x%04X", isot, sod)
	}

	var payloadEnd int
	if psot == 0 {
		// Psot=0 fallback: scan forward for the next 0xFF marker byte.
		i := r.pos
		for i+1 < len(r.buf) {
			if r.buf[i] == 0xFF && r.buf[i+1] != 0x00 {
				break
			}
			i++
		}
		payloadEnd = i
	} else {
		payloadEnd = sotStart + int(psot)
	}
	if payloadEnd < r.pos || payloadEnd > len(r.buf) {
		return TilePayload{}, errs.New(errs.Decoding, "tile %d payload length out of bounds", isot)
	}

	payload := r.buf[r.pos:payloadEnd]
	r.pos = payloadEnd
	return TilePayload{Index: int(isot), Payload: payload}, nil
}
