package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rasterlab/jp3d/logging"
)

// NewRoot builds the jp3d command tree, mirroring dicosctl's root
// command: a persistent --log-level/--log-file pair wired in
// PersistentPreRun, with each verb as a leaf RunE subcommand.
func NewRoot(ctx context.Context) *cobra.Command {
	root := &cobra.Command{
		Use:           "jp3d",
		Short:         "encode, decode, transcode, and inspect JP3D volumetric codestreams",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logLevel, _ := cmd.Flags().GetString("log-level")
			logFile, _ := cmd.Flags().GetString("log-file")

			var level slog.Level
			if err := level.UnmarshalText([]byte(strings.ToUpper(logLevel))); err != nil {
				level = slog.LevelInfo
			}

			var w io.Writer = os.Stderr
			if logFile != "" {
				w = logging.RotatingFile(logFile, 50, 3, 28)
			}
			slog.SetDefault(logging.Logger(w, logFile != "", level))
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}
	root.AddCommand(
		NewEncodeCmd(ctx),
		NewDecodeCmd(ctx),
		NewTranscodeCmd(ctx),
		NewInspectCmd(ctx),
	)
	pf := root.PersistentFlags()
	pf.String("log-level", "INFO", "log level (DEBUG, INFO, WARN, ERROR)")
	pf.String("log-file", "", "rotate logs to this path instead of stderr")
	return root
}

func fail(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}
