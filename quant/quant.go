// Package quant implements the JP3D rate controller: step-size selection,
// scalar deadzone quantization/dequantization, and the quality-layer
// metadata model, per spec.md §4.D.
//
// Grounded on cocosip-go-dicom-codec's quantization.go and rate_distortion.go
// (_examples/cocosip-go-dicom-codec/jpeg2000/{quantization,rate_distortion}.go),
// which derive step sizes from a quality/PSNR target and model
// per-layer rate/distortion; simplified here to the single scalar
// deadzone step spec.md §4.D defines (no per-subband norm table, since JP3D's
// tile codec is a flat raw/HT coefficient stream, not EBCOT packets).
package quant

import "math"

// Mode selects the compression mode, per spec.md §6.
type Mode int

const (
	Lossless Mode = iota
	Lossy
	TargetBitrate
	VisuallyLossless
	LosslessHT
	LossyHT
)

// Params configures the rate controller for one encode.
type Params struct {
	Mode Mode
	// TargetPSNR is used by Lossy, LossyHT, and VisuallyLossless (which
	// defaults TargetPSNR to 50 when unset).
	TargetPSNR float64
	// TargetBpv (bits per voxel) is used by TargetBitrate.
	TargetBpv float64
}

// StepSize computes the scalar quantization step for a component of the
// given bit depth b, per spec.md §4.D. For TargetBitrate the step is
// 2^max(0, b-TargetBpv) / sqrt(l+1), floored at 1; l is a
// rate-distortion slope estimate, and a larger l gives a smaller step.
// The jp3d encoder and streaming writer pass 0, which gives the largest
// step for a given b and TargetBpv.
func StepSize(p Params, b int, l float64) float64 {
	switch p.Mode {
	case Lossless, LosslessHT:
		return 1
	case VisuallyLossless:
		psnr := p.TargetPSNR
		if psnr == 0 {
			psnr = 50
		}
		return psnrStep(b, psnr)
	case Lossy, LossyHT:
		return psnrStep(b, p.TargetPSNR)
	case TargetBitrate:
		exp := float64(b) - p.TargetBpv
		if exp < 0 {
			exp = 0
		}
		step := math.Pow(2, exp) / math.Sqrt(l+1)
		if step < 1 {
			step = 1
		}
		return step
	default:
		return 1
	}
}

func psnrStep(b int, psnr float64) float64 {
	maxVal := math.Pow(2, float64(b)) - 1
	mse := (maxVal * maxVal) / math.Pow(10, psnr/10)
	step := math.Sqrt(12 * mse)
	if step < 1 {
		step = 1
	}
	return step
}

// Quantize maps a continuous coefficient to an integer: exact rounding
// for a lossless step (step == 1, bit-identical dequantization) and
// scalar deadzone quantization otherwise: q = sign(c) * floor(|c|/step).
func Quantize(c float64, step float64) int32 {
	if step <= 1 {
		return int32(math.Round(c))
	}
	sign := 1.0
	if c < 0 {
		sign = -1.0
	}
	return int32(sign * math.Floor(math.Abs(c)/step))
}

// Dequantize maps a quantized integer back to a coefficient: c = q*step.
func Dequantize(q int32, step float64) float64 {
	return float64(q) * step
}

// EncodeStep packs a step size into a QCD-style exponent/mantissa pair:
// step = 2^exponent * (1 + mantissa/256). This lets the codestream carry
// the exact step the encoder used, so the decoder dequantizes without
// needing to know the rate-control mode or target PSNR out of band.
func EncodeStep(step float64) (exponent byte, mantissa byte) {
	if step <= 0 {
		step = 1
	}
	exp := int(math.Floor(math.Log2(step)))
	if exp < 0 {
		exp = 0
	}
	if exp > 31 {
		exp = 31
	}
	frac := step/math.Pow(2, float64(exp)) - 1
	if frac < 0 {
		frac = 0
	}
	m := int(math.Round(frac * 256))
	if m > 255 {
		m = 255
	}
	return byte(exp), byte(m)
}

// DecodeStep reverses EncodeStep.
func DecodeStep(exponent, mantissa byte) float64 {
	return math.Pow(2, float64(exponent)) * (1 + float64(mantissa)/256)
}

// Layer describes one quality layer of the rate/distortion model
// (spec.md §4.D). Only the layer count reaches the codestream
// (COD.NumLayers); the per-layer values are not written, and the present
// tile payload format does not segment coefficients by layer.
type Layer struct {
	Index               int
	TargetBpv           float64
	DistortionReduction float64
}

// Layers computes the quality-layer model for maxBpv spread across
// numLayers layers, per spec.md §4.D.
func Layers(maxBpv float64, numLayers int) []Layer {
	if numLayers < 1 {
		numLayers = 1
	}
	layers := make([]Layer, numLayers)
	for i := 0; i < numLayers; i++ {
		frac := float64(i+1) / float64(numLayers)
		layers[i] = Layer{
			Index:               i,
			TargetBpv:           maxBpv * frac,
			DistortionReduction: frac * frac,
		}
	}
	return layers
}
