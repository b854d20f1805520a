package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/rasterlab/jp3d/jp3d"
)

// NewTranscodeCmd builds the "jp3d transcode" subcommand.
func NewTranscodeCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcode <in.jp3d> <out.jp3d>",
		Short: "rewrite a codestream's tile payloads between raw and HT-prefixed form",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			directionName, _ := cmd.Flags().GetString("direction")
			verify, _ := cmd.Flags().GetBool("verify")
			passCount, _ := cmd.Flags().GetUint8("pass-count")
			cleanup, _ := cmd.Flags().GetBool("cleanup-pass")

			var direction jp3d.TranscodeDirection
			switch directionName {
			case "to-ht":
				direction = jp3d.ToHT
			case "to-standard":
				direction = jp3d.ToStandard
			default:
				return fail("unknown --direction %q, want to-ht|to-standard", directionName)
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fail("reading codestream: %w", err)
			}
			tr := jp3d.NewTranscoder(direction, jp3d.HTConfig{PassCount: passCount, CleanupPassEnabled: cleanup}, verify)
			out, err := tr.Transcode(data)
			if err != nil {
				return fail("transcode: %w", err)
			}
			return writeFile(args[1], out)
		},
	}
	pf := cmd.Flags()
	pf.String("direction", "to-ht", "to-ht|to-standard")
	pf.Bool("verify", false, "re-decode every rewritten tile and compare against the source")
	pf.Uint8("pass-count", 3, "HT pass count (not applied: to-ht tiles carry the registered ht codec's pass count of 1)")
	pf.Bool("cleanup-pass", true, "HT cleanup pass (not applied: to-ht tiles always mark the cleanup pass present)")
	return cmd
}
