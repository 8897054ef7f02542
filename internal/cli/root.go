// Package cli implements the sheetboard commands.
package cli

import (
	"github.com/spf13/cobra"
)

// RootCmd returns the sheetboard command with every subcommand attached
func RootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sheetboard",
		Short: "Job board records stored in a spreadsheet",
		Long: `sheetboard serves jobs, supporters, spotlight entries and posting requests
from the tabs of a Google Sheets spreadsheet (or a local .xlsx workbook).

Without a spreadsheet configured it still runs: lists are empty and writes
are skipped.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "path to a YAML config file")

	rootCmd.AddCommand(ServeCmd())
	rootCmd.AddCommand(InitCmd())
	rootCmd.AddCommand(DoctorCmd())

	return rootCmd
}
