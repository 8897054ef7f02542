package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ideamans/sheetboard"
)

// CheckResult represents the outcome of a single check
type CheckResult struct {
	Name    string
	Status  string // "✓", "⚠", "✗"
	Details string // Only shown if Status != "✓"
}

// DoctorCmd returns the doctor command for configuration and backend checks
func DoctorCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and the entity tabs",
		Long: `Check the configuration, the selected backend and every entity tab.

Unlike the API, which answers with empty data when the backend fails,
doctor reports the backend errors themselves.

Examples:
  sheetboard doctor           # Run all checks
  sheetboard doctor --quiet   # Exit code only (0=healthy, 1=issues)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			results := []CheckResult{a.checkBackend()}
			if a.backend != nil {
				for _, e := range sheetboard.Entities() {
					results = append(results, a.checkEntity(cmd, e))
				}
			}

			if !quiet {
				printResults(cmd.OutOrStdout(), results)
			}

			for _, r := range results {
				if r.Status == "✗" {
					return errors.New("doctor found issues")
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Exit code only, no output")

	return cmd
}

func (a *app) checkBackend() CheckResult {
	switch a.config.Backend() {
	case "workbook":
		return CheckResult{Name: "backend", Status: "✓", Details: "workbook " + a.config.Workbook}
	case "sheets":
		if a.backend == nil {
			return CheckResult{Name: "backend", Status: "✗", Details: "Google Sheets credentials could not be loaded"}
		}
		return CheckResult{Name: "backend", Status: "✓", Details: "spreadsheet " + a.config.SpreadsheetID}
	default:
		return CheckResult{
			Name:    "backend",
			Status:  "⚠",
			Details: "not configured; the API runs degraded with empty data",
		}
	}
}

// checkEntity reads the tab directly so backend errors are visible
func (a *app) checkEntity(cmd *cobra.Command, e sheetboard.Entity) CheckResult {
	rows, err := a.backend.Values(cmd.Context(), sheetboard.DataRange(e))
	if err != nil {
		return CheckResult{Name: e.Sheet, Status: "✗", Details: err.Error()}
	}

	headers := sheetboard.Headers(rows)
	if len(headers) == 0 {
		return CheckResult{Name: e.Sheet, Status: "⚠", Details: "no header row; run sheetboard init"}
	}

	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}
	var missing []string
	for _, h := range e.Headers {
		if !present[h] {
			missing = append(missing, h)
		}
	}

	count := len(sheetboard.Decode(rows))
	if len(missing) > 0 {
		return CheckResult{
			Name:    e.Sheet,
			Status:  "⚠",
			Details: fmt.Sprintf("%d rows; missing columns: %s", count, strings.Join(missing, ", ")),
		}
	}
	return CheckResult{Name: e.Sheet, Status: "✓", Details: fmt.Sprintf("%d rows", count)}
}

func printResults(out io.Writer, results []CheckResult) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Check              Status")
	fmt.Fprintln(out, "─────────────────────────")
	for _, r := range results {
		fmt.Fprintf(out, "%-18s %s  %s\n", r.Name, statusMark(r.Status), r.Details)
	}
	fmt.Fprintln(out)
}

func statusMark(status string) string {
	switch status {
	case "✓":
		return color.New(color.FgGreen).Sprint(status)
	case "⚠":
		return color.New(color.FgYellow).Sprint(status)
	default:
		return color.New(color.FgRed).Sprint(status)
	}
}
