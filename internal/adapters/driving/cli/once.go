package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run every background task a single time",
	Long: `Runs one full pass of all background tasks: order fulfillment,
upsell campaigns, knowledge refresh and the daily report. Task state
and history are recorded as if the scheduler had run them.`,
	RunE: runOnce,
}

func init() {
	rootCmd.AddCommand(onceCmd)
}

func runOnce(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.scheduler.RunOnce(ctx); err != nil {
		return fmt.Errorf("running tasks: %w", err)
	}
	cmd.Println("All tasks completed.")
	return nil
}
