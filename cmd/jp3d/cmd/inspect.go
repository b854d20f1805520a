package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rasterlab/jp3d/codestream"
)

// NewInspectCmd builds the "jp3d inspect" subcommand: a human-readable
// dump of a codestream's marker segments and tile count.
func NewInspectCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <in.jp3d>",
		Short: "print a JP3D codestream's marker segments and tile count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fail("reading codestream: %w", err)
			}
			parsed, err := codestream.Parse(data)
			if err != nil {
				return fail("parse: %w", err)
			}

			siz, cod, qcd := parsed.SIZ, parsed.COD, parsed.QCD
			fmt.Fprintf(cmd.OutOrStdout(), "SIZ: %dx%dx%d, tile %dx%dx%d, %d component(s)\n",
				siz.Xsiz, siz.Ysiz, siz.Zsiz, siz.XTsiz, siz.YTsiz, siz.ZTsiz, len(siz.Components))
			for i, c := range siz.Components {
				fmt.Fprintf(cmd.OutOrStdout(), "  component %d: bitDepth=%d signed=%v\n", i, c.BitDepth, c.Signed)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "COD: progression=%d layers=%d levels=(%d,%d,%d) waveletID=%d ht=%v\n",
				cod.ProgressionOrder, cod.NumLayers, cod.LevelsX, cod.LevelsY, cod.LevelsZ, cod.WaveletID, cod.HTEnabled())
			fmt.Fprintf(cmd.OutOrStdout(), "QCD: style=%d subbands=%d\n", qcd.Style, len(qcd.Subbands))
			if parsed.CAP != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "CAP: htPresent=%v mixed=%v\n", parsed.CAP.HTPresent(), parsed.CAP.Mixed())
			}
			if parsed.CPF != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "CPF: irreversible=%v\n", parsed.CPF.Irreversible())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "tiles: %d\n", len(parsed.Tiles))
			return nil
		},
	}
	return cmd
}
