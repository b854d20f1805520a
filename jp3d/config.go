// Package jp3d is the root domain package: it wires spatial, volume,
// tiling, dwt, quant, tilecodec, and codestream into the encoder,
// decoder, ROI decoder, progressive decoder, streaming writer, and
// transcoder operations of spec.md §4.H-M.
package jp3d

import (
	"github.com/rasterlab/jp3d/dwt"
	"github.com/rasterlab/jp3d/quant"
)

// CompressionMode enumerates the six compression variants of spec.md §6.
type CompressionMode int

const (
	Lossless CompressionMode = iota
	Lossy
	TargetBitrate
	VisuallyLossless
	LosslessHT
	LossyHT
)

func (m CompressionMode) quantMode() quant.Mode {
	switch m {
	case Lossless:
		return quant.Lossless
	case Lossy:
		return quant.Lossy
	case TargetBitrate:
		return quant.TargetBitrate
	case VisuallyLossless:
		return quant.VisuallyLossless
	case LosslessHT:
		return quant.LosslessHT
	case LossyHT:
		return quant.LossyHT
	default:
		return quant.Lossless
	}
}

func (m CompressionMode) isHT() bool {
	return m == LosslessHT || m == LossyHT
}

func (m CompressionMode) filter() dwt.Filter {
	if m == Lossless || m == LosslessHT {
		return dwt.Filter53
	}
	return dwt.Filter97
}

// BlockMode selects how the tile codec picks raw vs. HT per tile.
type BlockMode int

const (
	BlockModeLegacy BlockMode = iota
	BlockModeHT
	BlockModeAdaptive
)

// ProgressionOrder is carried in COD for documentation; the present tile
// payload format does not implement packet-level layering (spec.md §6,
// §9 Open Questions).
type ProgressionOrder int

const (
	LRCPS ProgressionOrder = iota
	RLCPS
	PCRLS
	SLRCP
	CPRLS
)

// TilingConfig is the caller-requested tile size; sizes are clamped to
// axis extents rather than rejected, per spec.md §9.
type TilingConfig struct {
	TileW, TileH, TileD int
}

// HTConfig configures the HT block-coding path.
type HTConfig struct {
	BlockMode          BlockMode
	PassCount          uint8
	CleanupPassEnabled bool
	AllowMixedTiles    bool
}

// Config is the complete encoder configuration.
type Config struct {
	Tiling TilingConfig
	Mode   CompressionMode
	// TargetPSNR is used by Lossy, LossyHT, and VisuallyLossless.
	TargetPSNR float64
	// TargetBpv is used by TargetBitrate.
	TargetBpv float64
	// LevelsX, LevelsY, LevelsZ are the requested (pre-clamp) per-axis
	// decomposition level counts.
	LevelsX, LevelsY, LevelsZ int
	HT                        HTConfig
	Progression               ProgressionOrder
	NumQualityLayers          int
}

// DefaultConfig returns a lossless 5/3 configuration with a single
// 64^3-clamped tile and one quality layer.
func DefaultConfig() Config {
	return Config{
		Tiling:           TilingConfig{TileW: 64, TileH: 64, TileD: 64},
		Mode:             Lossless,
		LevelsX:          5,
		LevelsY:          5,
		LevelsZ:          5,
		NumQualityLayers: 1,
	}
}
