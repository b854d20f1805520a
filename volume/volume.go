// Package volume defines the JP3D sample data model: Volume and
// Component, with little-endian packed sample storage and sign
// extension, per spec.md §3.
//
// Grounded on cocosip-go-dicom-codec's EncodeParams/Image handling in
// jpeg2000.Encoder (width/height/components/bitDepth/signed fields,
// _examples/cocosip-go-dicom-codec/jpeg2000/encoder.go) generalized to a
// third axis and to an explicit packed-byte-buffer-per-component model
// instead of a single flat pixel slice.
package volume

import (
	"github.com/google/uuid"
	"github.com/rasterlab/jp3d/errs"
)

// Component is one sample plane of a Volume: a bit depth, a signedness
// flag, and its own W x H x D raw byte buffer, little-endian packed at
// ceil(bitDepth/8) bytes per sample.
type Component struct {
	Index    int
	BitDepth int
	Signed   bool
	W, H, D  int
	Data     []byte
}

// BytesPerSample returns ceil(BitDepth/8).
func (c *Component) BytesPerSample() int {
	return (c.BitDepth + 7) / 8
}

// Validate checks the invariants from spec.md §3/§7: bit depth in
// [1,38], positive extents, and a data buffer of the exact expected
// length.
func (c *Component) Validate() error {
	if c.BitDepth < 1 || c.BitDepth > 38 {
		return errs.New(errs.InvalidBitDepth, "component %d: bit depth %d outside [1,38]", c.Index, c.BitDepth)
	}
	if c.W <= 0 || c.H <= 0 || c.D <= 0 {
		return errs.New(errs.InvalidParameter, "component %d: dimensions %dx%dx%d must be positive", c.Index, c.W, c.H, c.D)
	}
	want := c.W * c.H * c.D * c.BytesPerSample()
	if len(c.Data) != want {
		return errs.New(errs.InvalidParameter, "component %d: data length %d does not match expected %d (%dx%dx%d @ %d bytes/sample)",
			c.Index, len(c.Data), want, c.W, c.H, c.D, c.BytesPerSample())
	}
	return nil
}

// Sample reads the sample at (x,y,z), sign-extending from the top bit of
// the most significant byte when Signed is set.
func (c *Component) Sample(x, y, z int) int64 {
	bps := c.BytesPerSample()
	offset := (z*c.H*c.W + y*c.W + x) * bps
	var v int64
	for i := bps - 1; i >= 0; i-- {
		v = (v << 8) | int64(c.Data[offset+i])
	}
	if c.Signed {
		signBit := int64(1) << uint(bps*8-1)
		if v&signBit != 0 {
			v -= int64(1) << uint(bps*8)
		}
	}
	return v
}

// SetSample writes v (two's complement in BitDepth bits when Signed) at
// (x,y,z).
func (c *Component) SetSample(x, y, z int, v int64) {
	bps := c.BytesPerSample()
	offset := (z*c.H*c.W + y*c.W + x) * bps
	uv := uint64(v)
	for i := 0; i < bps; i++ {
		c.Data[offset+i] = byte(uv)
		uv >>= 8
	}
}

// MaxValue returns the maximum representable unsigned value 2^bitDepth-1,
// used to clamp reconstructed samples.
func (c *Component) MaxValue() int64 {
	return (int64(1) << uint(c.BitDepth)) - 1
}

// Volume is a W x H x D sample array with an ordered list of Components.
type Volume struct {
	Width, Height, Depth int
	Components           []Component
	// StreamID identifies one encode/decode/streaming session for log
	// correlation; assigned by the operation that creates the Volume.
	StreamID uuid.UUID
}

// Validate checks dimensions, component count, and per-component
// invariants (spec.md §4.H step 1).
func (v *Volume) Validate() error {
	if v.Width <= 0 || v.Height <= 0 || v.Depth <= 0 {
		return errs.New(errs.InvalidParameter, "volume dimensions %dx%dx%d must be positive", v.Width, v.Height, v.Depth)
	}
	if len(v.Components) == 0 {
		return errs.New(errs.InvalidParameter, "volume must have at least one component")
	}
	for i := range v.Components {
		c := &v.Components[i]
		if c.W != v.Width || c.H != v.Height || c.D != v.Depth {
			return errs.New(errs.InvalidParameter, "component %d shape %dx%dx%d does not match volume %dx%dx%d",
				i, c.W, c.H, c.D, v.Width, v.Height, v.Depth)
		}
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// NewStreamID allocates a fresh session identifier.
func NewStreamID() uuid.UUID {
	return uuid.New()
}
