// Package dwt implements the 3-D separable discrete wavelet transform
// (5/3 reversible and 9/7 irreversible lifting) used by the JP3D codec,
// per spec.md §4.C.
//
// Grounded on cocosip-go-dicom-codec's jpeg2000/wavelet package
// (_examples/cocosip-go-dicom-codec/jpeg2000/wavelet/{dwt53,dwt97,layout}.go):
// same package shape (exported Forward/Inverse entry points, ISO Annex F
// references in doc comments, a LL-dimensions helper), but the 1-D kernels
// below implement the lifting formulas and whole-sample symmetric
// boundary extension spec.md §4.C specifies directly, rather than the
// teacher's OpenJPEG-deinterleave translation — the two use different
// rounding/filter constants and are not bit-compatible by design.
package dwt

import "math"

// Filter selects the wavelet kernel.
type Filter int

const (
	// Filter53 is the reversible 5/3 integer-lifting filter (lossless).
	Filter53 Filter = iota
	// Filter97 is the irreversible 9/7 floating-point lifting filter (lossy).
	Filter97
)

// Boundary selects the 1-D extension mode at line edges.
type Boundary int

const (
	// Symmetric is the normative whole-sample mirror extension:
	// x[-k] = x[k], x[N-1+k] = x[N-1-k].
	Symmetric Boundary = iota
	// Periodic wraps indices modulo the line length.
	Periodic
	// ZeroPad extends with zeros.
	ZeroPad
)

// Config configures a 3-D DWT pass.
type Config struct {
	Filter   Filter
	Boundary Boundary
	// Lx, Ly, Lz are the requested per-axis decomposition level counts,
	// already clamped by ClampLevels.
	Lx, Ly, Lz int
}

// ClampLevels clamps requested per-axis levels to floor(log2(axisExtent)),
// with an extent of 1 clamping to 0 levels, per spec.md §4.C.
func ClampLevels(w, h, d, lx, ly, lz int) (clx, cly, clz int) {
	return clampAxis(w, lx), clampAxis(h, ly), clampAxis(d, lz)
}

func clampAxis(extent, requested int) int {
	if extent <= 1 {
		return 0
	}
	max := 0
	for (1 << uint(max+1)) <= extent {
		max++
	}
	if requested < 0 {
		requested = 0
	}
	if requested > max {
		return max
	}
	return requested
}

// Axis identifies which dimension a Step transformed.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// Step records one 1-D transform application: the axis, and the active
// region dimensions (W,H,D) at the time it ran. Forward3D returns the
// ordered stack of steps it performed; Inverse3D replays it in reverse,
// which is the "stack of active extents" spec.md §4.C requires the
// inverse pass to precompute from the forward pass.
type Step struct {
	Axis    Axis
	W, H, D int
	// Level is the decomposition level (0-indexed, ascending from finest
	// to coarsest) this step belongs to; used by InverseFrom to undo
	// only the coarsest levels for resolution-progressive decoding.
	Level int
}

// Buffer is a dense W x H x D coefficient block in row-major (z,y,x)
// order with x fastest, per spec.md §3. Data is float64 (not float32) so
// that integer sample values up to volume.Component's 38-bit depth ceiling carry
// through the lifting arithmetic exactly for the 5/3 reversible filter.
type Buffer struct {
	W, H, D int
	Data    []float64
}

func (b *Buffer) index(x, y, z int) int {
	return z*b.H*b.W + y*b.W + x
}

// Forward3D applies the forward separable 3-D DWT in place over b's
// active region (initially the whole buffer), iterating levels
// 0..max(Lx,Ly,Lz)-1 and, within each level, axes X, Y, Z in that order
// when the axis still has levels remaining (spec.md §4.C).
func Forward3D(b *Buffer, cfg Config) []Step {
	w, h, d := b.W, b.H, b.D
	maxLevels := maxInt(cfg.Lx, maxInt(cfg.Ly, cfg.Lz))
	steps := make([]Step, 0, maxLevels*3)
	for l := 0; l < maxLevels; l++ {
		if l < cfg.Lx {
			steps = append(steps, Step{AxisX, w, h, d, l})
			forwardAxis(b, AxisX, w, h, d, cfg)
			w = ceilDiv2(w)
		}
		if l < cfg.Ly {
			steps = append(steps, Step{AxisY, w, h, d, l})
			forwardAxis(b, AxisY, w, h, d, cfg)
			h = ceilDiv2(h)
		}
		if l < cfg.Lz {
			steps = append(steps, Step{AxisZ, w, h, d, l})
			forwardAxis(b, AxisZ, w, h, d, cfg)
			d = ceilDiv2(d)
		}
	}
	return steps
}

// Steps3D computes the step stack Forward3D would produce for a w x h x d
// buffer under cfg, without touching any data. Callers that already know
// a tile's dimensions (e.g. the decoder, which never runs a forward pass)
// use this to reconstruct the stack Inverse3D needs.
func Steps3D(w, h, d int, cfg Config) []Step {
	maxLevels := maxInt(cfg.Lx, maxInt(cfg.Ly, cfg.Lz))
	steps := make([]Step, 0, maxLevels*3)
	for l := 0; l < maxLevels; l++ {
		if l < cfg.Lx {
			steps = append(steps, Step{AxisX, w, h, d, l})
			w = ceilDiv2(w)
		}
		if l < cfg.Ly {
			steps = append(steps, Step{AxisY, w, h, d, l})
			h = ceilDiv2(h)
		}
		if l < cfg.Lz {
			steps = append(steps, Step{AxisZ, w, h, d, l})
			d = ceilDiv2(d)
		}
	}
	return steps
}

// Inverse3D undoes Forward3D given the step stack it returned, replaying
// steps in reverse order (spec.md §4.C: "reversing the forward pass
// order").
func Inverse3D(b *Buffer, cfg Config, steps []Step) {
	for i := len(steps) - 1; i >= 0; i-- {
		s := steps[i]
		inverseAxis(b, s.Axis, s.W, s.H, s.D, cfg)
	}
}

// InverseFrom undoes only the steps whose Level is >= fromLevel,
// processing the step stack in the same reverse order Inverse3D uses.
// fromLevel=0 reconstructs full resolution (equivalent to Inverse3D);
// fromLevel=maxLevels leaves the buffer untouched (coarsest LL corner
// only), letting a resolution-progressive decode expose intermediate
// resolutions.
func InverseFrom(b *Buffer, cfg Config, steps []Step, fromLevel int) {
	for i := len(steps) - 1; i >= 0; i-- {
		s := steps[i]
		if s.Level < fromLevel {
			continue
		}
		inverseAxis(b, s.Axis, s.W, s.H, s.D, cfg)
	}
}

func ceilDiv2(n int) int { return (n + 1) / 2 }

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// forwardAxis/inverseAxis extract every line along axis within the active
// w x h x d region, transform it, and write it back.
func forwardAxis(b *Buffer, axis Axis, w, h, d int, cfg Config) {
	lineLen, numLines := axisDims(axis, w, h, d)
	line := make([]float64, lineLen)
	for li := 0; li < numLines; li++ {
		getLine(b, axis, li, w, h, lineLen, line)
		forwardLine(line, cfg)
		setLine(b, axis, li, w, h, lineLen, line)
	}
}

func inverseAxis(b *Buffer, axis Axis, w, h, d int, cfg Config) {
	lineLen, numLines := axisDims(axis, w, h, d)
	line := make([]float64, lineLen)
	for li := 0; li < numLines; li++ {
		getLine(b, axis, li, w, h, lineLen, line)
		inverseLine(line, cfg)
		setLine(b, axis, li, w, h, lineLen, line)
	}
}

// axisDims returns the line length along axis and the number of such
// lines within the w x h x d active region.
func axisDims(axis Axis, w, h, d int) (lineLen, numLines int) {
	switch axis {
	case AxisX:
		return w, h * d
	case AxisY:
		return h, w * d
	default:
		return d, w * h
	}
}

// getLine/setLine address line li (0-indexed, iterating the two
// orthogonal axes in their natural nested order: for X lines, li enumerates
// (z,y) pairs with y fastest; for Y lines, (z,x) with x fastest; for Z
// lines, (y,x) with x fastest) against the full-buffer strides.
func getLine(b *Buffer, axis Axis, li, w, h, lineLen int, out []float64) {
	switch axis {
	case AxisX:
		y, z := li%h, li/h
		base := b.index(0, y, z)
		copy(out[:lineLen], b.Data[base:base+lineLen])
	case AxisY:
		x, z := li%w, li/w
		for i := 0; i < lineLen; i++ {
			out[i] = b.Data[b.index(x, i, z)]
		}
	default: // AxisZ
		x, y := li%w, li/w
		for i := 0; i < lineLen; i++ {
			out[i] = b.Data[b.index(x, y, i)]
		}
	}
}

func setLine(b *Buffer, axis Axis, li, w, h, lineLen int, in []float64) {
	switch axis {
	case AxisX:
		y, z := li%h, li/h
		base := b.index(0, y, z)
		copy(b.Data[base:base+lineLen], in[:lineLen])
	case AxisY:
		x, z := li%w, li/w
		for i := 0; i < lineLen; i++ {
			b.Data[b.index(x, i, z)] = in[i]
		}
	default: // AxisZ
		x, y := li%w, li/w
		for i := 0; i < lineLen; i++ {
			b.Data[b.index(x, y, i)] = in[i]
		}
	}
}

func forwardLine(line []float64, cfg Config) {
	switch cfg.Filter {
	case Filter53:
		forward53(line, cfg.Boundary)
	default:
		forward97(line, cfg.Boundary)
	}
}

func inverseLine(line []float64, cfg Config) {
	switch cfg.Filter {
	case Filter53:
		inverse53(line, cfg.Boundary)
	default:
		inverse97(line, cfg.Boundary)
	}
}

// reflect maps an arbitrary integer index into [0,n) for the requested
// Boundary mode. n is the line's own length (5/3) or a half-line's
// length (9/7's s/d arrays).
func reflect(i, n int, mode Boundary) int {
	if n <= 1 {
		return 0
	}
	switch mode {
	case Periodic:
		i %= n
		if i < 0 {
			i += n
		}
		return i
	case ZeroPad:
		if i < 0 || i >= n {
			return -1 // signals "use zero" to callers
		}
		return i
	default: // Symmetric: whole-sample mirror, period 2*(n-1)
		period := 2 * (n - 1)
		if period == 0 {
			return 0
		}
		i %= period
		if i < 0 {
			i += period
		}
		if i >= n {
			i = period - i
		}
		return i
	}
}

func at(x []float64, i int, mode Boundary) float64 {
	idx := reflect(i, len(x), mode)
	if idx < 0 {
		return 0
	}
	return x[idx]
}

func floorDiv(num, den float64) float64 {
	return math.Floor(num / den)
}
