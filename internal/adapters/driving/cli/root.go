// Package cli implements the dispatch command-line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/mecaclair/dispatch/internal/logger"
)

var version = "dev"

var (
	configDir string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Order fulfillment and campaign automation",
	Long: `Dispatch turns completed orders into personalized diagnostic
documents, runs time-windowed upsell campaigns and maintains the
symptom knowledge base they draw from.

Run 'dispatch once' for a single pass over all background tasks, or
'dispatch daemon' to keep them running on their schedules.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "configuration directory (default ~/.dispatch)")
}

// SetVersion records the build version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("%v", err)
		return 1
	}
	return 0
}
