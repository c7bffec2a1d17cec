// Package cli exposes the transcript service commands.
package cli

import (
	"github.com/spf13/cobra"
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "transcript",
		Short:        "Final transcript evaluation service",
		SilenceUsage: true,
	}

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newCalculateCmd())
	cmd.AddCommand(newRecalculateAllCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newTokenCmd())
	return cmd
}
