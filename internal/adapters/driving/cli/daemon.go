package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mecaclair/dispatch/internal/adapters/driven/observations"
	"github.com/mecaclair/dispatch/internal/logger"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the background tasks on their schedules",
	Long: `Starts the task scheduler and keeps it running until SIGINT or
SIGTERM. When an observation directory is configured, it is watched and
new observation files trigger a knowledge refresh without waiting for
the scheduled pass. An in-flight task pass finishes before shutdown.`,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if dir := a.settings.Observations.Dir; dir != "" {
		watcher := observations.NewWatcher(dir, func() {
			if _, err := a.knowledge.Refresh(ctx); err != nil {
				logger.Error("Knowledge refresh failed: %v", err)
			}
		})
		go func() {
			if err := watcher.Run(ctx); err != nil {
				logger.Warn("Observation watcher stopped: %v", err)
			}
		}()
		logger.Info("Watching %s for observations", dir)
	}

	cmd.Println("Scheduler running. Press Ctrl+C to stop.")
	err = a.scheduler.Start(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}

	// Let a tick that raced shutdown finish before the store closes.
	if stopErr := a.scheduler.Stop(); stopErr != nil {
		logger.Warn("Stopping scheduler: %v", stopErr)
	}
	cmd.Println("Scheduler stopped.")
	return err
}
