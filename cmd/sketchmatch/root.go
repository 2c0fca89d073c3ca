package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/sketchmatch/pkg/logger"
)

// version is set via -ldflags at build time.
var version = "(devel)"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "sketchmatch",
		Short:        "Sketch similarity scoring service",
		Long:         "sketchmatch scores freehand drawings against reference prompts and keeps per-prompt leaderboards.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("log-format")
			return logger.Init(logger.WithFormat(format), logger.WithWriter(cmd.ErrOrStderr()))
		},
	}
	root.PersistentFlags().String("log-format", logger.FormatText, "Log output format: text or json")

	root.AddCommand(newServeCmd())
	root.AddCommand(newScoreCmd())
	root.AddCommand(newLoadgenCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the current version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "sketchmatch", version)
		},
	}
}
