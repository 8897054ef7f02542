package cli

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ideamans/sheetboard"
)

// InitCmd returns the init command, which writes the header row into every
// entity tab that has none
func InitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write header rows into empty entity tabs",
		Long: `Write the header row of every entity into its tab when the tab has no
header yet. Tabs that already have a header are left alone.

With Google Sheets the tabs must already exist; a local workbook gets
missing tabs created.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			if a.gateway.Degraded() {
				return errors.New("no spreadsheet configured: set GOOGLE_SPREADSHEET_ID and a service account key, or SHEETBOARD_WORKBOOK")
			}

			out := cmd.OutOrStdout()
			failed := 0
			for _, e := range sheetboard.Entities() {
				rows := a.gateway.ReadRange(cmd.Context(), sheetboard.HeaderRange(e))
				if len(rows) > 0 && len(rows[0]) > 0 {
					fmt.Fprintf(out, "%s %-16s header present\n", color.New(color.FgBlue).Sprint("EXISTS "), e.Sheet)
					continue
				}

				if !a.gateway.UpdateRow(cmd.Context(), sheetboard.HeaderRange(e), e.Headers) {
					failed++
					fmt.Fprintf(out, "%s %-16s could not write header\n", color.New(color.FgRed).Sprint("FAILED "), e.Sheet)
					continue
				}
				fmt.Fprintf(out, "%s %-16s %d columns\n", color.New(color.FgGreen).Sprint("CREATE "), e.Sheet, len(e.Headers))
			}

			if failed > 0 {
				return fmt.Errorf("%d tab(s) could not be initialized", failed)
			}
			return nil
		},
	}
}
