package codestream

import (
	"bytes"
	"encoding/binary"

	"github.com/rasterlab/jp3d/errs"
)

func putU16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func putU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func putMarker(buf *bytes.Buffer, m Marker) {
	putU16(buf, uint16(m))
}

func encodeSIZ(s SIZ) []byte {
	content := &bytes.Buffer{}
	putU16(content, s.Rsiz)
	putU32(content, s.Xsiz)
	putU32(content, s.Ysiz)
	putU32(content, s.XOsiz)
	putU32(content, s.YOsiz)
	putU32(content, s.XTsiz)
	putU32(content, s.YTsiz)
	putU32(content, s.XTOsiz)
	putU32(content, s.YTOsiz)
	putU16(content, uint16(len(s.Components)))
	for _, c := range s.Components {
		content.WriteByte(c.Ssiz())
		content.WriteByte(c.XRsiz)
		content.WriteByte(c.YRsiz)
	}
	putU32(content, s.Zsiz)
	putU32(content, s.ZTsiz)

	out := &bytes.Buffer{}
	putMarker(out, MarkerSIZ)
	putU16(out, uint16(content.Len()+2))
	out.Write(content.Bytes())
	return out.Bytes()
}

func encodeCOD(c COD) []byte {
	content := &bytes.Buffer{}
	content.WriteByte(c.Scod)
	content.WriteByte(c.ProgressionOrder)
	putU16(content, c.NumLayers)
	content.WriteByte(c.MultiComponentTransform)
	content.WriteByte(c.LevelsX)
	content.WriteByte(c.LevelsY)
	content.WriteByte(c.LevelsZ)
	content.WriteByte(c.CodeBlockW)
	content.WriteByte(c.CodeBlockH)
	content.WriteByte(c.CodeBlockStyle)
	content.WriteByte(c.WaveletID)

	out := &bytes.Buffer{}
	putMarker(out, MarkerCOD)
	putU16(out, uint16(content.Len()+2))
	out.Write(content.Bytes())
	return out.Bytes()
}

func encodeQCD(q QCD) []byte {
	content := &bytes.Buffer{}
	content.WriteByte(q.Style)
	for _, sb := range q.Subbands {
		content.WriteByte((sb.GuardBits << 5) | (sb.Exponent & 0x1F))
		if q.Style == 2 {
			content.WriteByte(sb.Mantissa)
		}
	}

	out := &bytes.Buffer{}
	putMarker(out, MarkerQCD)
	putU16(out, uint16(content.Len()+2))
	out.Write(content.Bytes())
	return out.Bytes()
}

func encodeCAP(c CAP) []byte {
	out := &bytes.Buffer{}
	putMarker(out, MarkerCAP)
	putU16(out, 8)
	putU32(out, c.Pcap)
	putU16(out, c.Ccap15)
	return out.Bytes()
}

func encodeCPF(c CPF) []byte {
	out := &bytes.Buffer{}
	putMarker(out, MarkerCPF)
	putU16(out, 4)
	putU16(out, c.Pcpf)
	return out.Bytes()
}

func encodeSOT(s SOT) []byte {
	out := &bytes.Buffer{}
	putMarker(out, MarkerSOT)
	putU16(out, 10)
	putU16(out, s.Isot)
	putU32(out, s.Psot)
	out.WriteByte(s.TPsot)
	out.WriteByte(s.TNsot)
	return out.Bytes()
}

// Build assembles a complete JP3D codestream: SOC, SIZ, COD, QCD,
// optionally CAP/CPF, then per tile SOT/SOD/payload, finally EOC, per
// spec.md §4.F. Tiles are emitted in the order given; callers pass them
// already sorted by index if a deterministic byte layout is required.
func Build(in BuildInput) ([]byte, error) {
	if len(in.Tiles) == 0 {
		return nil, errs.New(errs.Encoding, "cannot build a codestream with zero tiles")
	}

	out := &bytes.Buffer{}
	putMarker(out, MarkerSOC)
	out.Write(encodeSIZ(in.SIZ))
	out.Write(encodeCOD(in.COD))
	out.Write(encodeQCD(in.QCD))
	if in.CAP != nil {
		out.Write(encodeCAP(*in.CAP))
	}
	if in.CPF != nil {
		out.Write(encodeCPF(*in.CPF))
	}

	for _, t := range in.Tiles {
		// Psot counts the 12-byte SOT (marker + 10-byte segment), the
		// 2-byte SOD marker, and the payload itself.
		psot := uint32(12 + 2 + len(t.Payload))
		out.Write(encodeSOT(SOT{Isot: uint16(t.Index), Psot: psot, TPsot: 0, TNsot: 0}))
		putMarker(out, MarkerSOD)
		out.Write(t.Payload)
	}

	putMarker(out, MarkerEOC)
	return out.Bytes(), nil
}
