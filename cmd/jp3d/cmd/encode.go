package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/rasterlab/jp3d/jp3d"
)

var modeByName = map[string]jp3d.CompressionMode{
	"lossless":          jp3d.Lossless,
	"lossy":             jp3d.Lossy,
	"target-bitrate":    jp3d.TargetBitrate,
	"visually-lossless": jp3d.VisuallyLossless,
	"lossless-ht":       jp3d.LosslessHT,
	"lossy-ht":          jp3d.LossyHT,
}

// NewEncodeCmd builds the "jp3d encode" subcommand.
func NewEncodeCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode <in.jp3v> <out.jp3d>",
		Short: "encode a raw volume file into a JP3D codestream",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := ReadRawVolume(args[0])
			if err != nil {
				return fail("reading raw volume: %w", err)
			}

			modeName, _ := cmd.Flags().GetString("mode")
			mode, ok := modeByName[modeName]
			if !ok {
				return fail("unknown --mode %q", modeName)
			}
			tw, _ := cmd.Flags().GetInt("tile-w")
			th, _ := cmd.Flags().GetInt("tile-h")
			td, _ := cmd.Flags().GetInt("tile-d")
			lx, _ := cmd.Flags().GetInt("levels-x")
			ly, _ := cmd.Flags().GetInt("levels-y")
			lz, _ := cmd.Flags().GetInt("levels-z")
			psnr, _ := cmd.Flags().GetFloat64("target-psnr")
			bpv, _ := cmd.Flags().GetFloat64("target-bpv")
			layers, _ := cmd.Flags().GetInt("quality-layers")

			cfg := jp3d.DefaultConfig()
			cfg.Mode = mode
			cfg.Tiling = jp3d.TilingConfig{TileW: tw, TileH: th, TileD: td}
			cfg.LevelsX, cfg.LevelsY, cfg.LevelsZ = lx, ly, lz
			cfg.TargetPSNR = psnr
			cfg.TargetBpv = bpv
			cfg.NumQualityLayers = layers

			enc := jp3d.NewEncoder(cfg)
			data, err := enc.Encode(v)
			if err != nil {
				return fail("encode: %w", err)
			}
			return writeFile(args[1], data)
		},
	}
	pf := cmd.Flags()
	pf.String("mode", "lossless", "lossless|lossy|target-bitrate|visually-lossless|lossless-ht|lossy-ht")
	pf.Int("tile-w", 64, "tile width")
	pf.Int("tile-h", 64, "tile height")
	pf.Int("tile-d", 64, "tile depth")
	pf.Int("levels-x", 5, "requested X decomposition levels")
	pf.Int("levels-y", 5, "requested Y decomposition levels")
	pf.Int("levels-z", 5, "requested Z decomposition levels")
	pf.Float64("target-psnr", 40, "target PSNR for lossy/visually-lossless modes")
	pf.Float64("target-bpv", 1, "target bits per voxel for target-bitrate mode")
	pf.Int("quality-layers", 1, "number of quality layers recorded in COD")
	return cmd
}
