package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/rasterlab/jp3d/jp3d"
)

// NewDecodeCmd builds the "jp3d decode" subcommand.
func NewDecodeCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode <in.jp3d> <out.jp3v>",
		Short: "decode a JP3D codestream into a raw volume file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tolerate, _ := cmd.Flags().GetBool("tolerate-errors")
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fail("reading codestream: %w", err)
			}
			dec := jp3d.NewDecoder(tolerate)
			res, err := dec.Decode(data)
			if err != nil {
				return fail("decode: %w", err)
			}
			if res.Partial {
				cmd.PrintErrln("warning: decode result is partial, one or more tiles were skipped")
			}
			return WriteRawVolume(args[1], res.Volume)
		},
	}
	cmd.Flags().Bool("tolerate-errors", false, "demote per-tile decode failures to warnings")
	return cmd
}

func writeFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}
