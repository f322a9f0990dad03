package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate the daily operations report",
	RunE:  runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	path, err := a.report.GenerateDailyReport(ctx)
	if err != nil {
		return fmt.Errorf("generating report: %w", err)
	}
	cmd.Printf("Report written to %s\n", path)
	return nil
}
