package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var upsellCmd = &cobra.Command{
	Use:   "upsell",
	Short: "Run one upsell campaign pass",
	Long: `Sends every due follow-up campaign to eligible customers, then
exits. Each campaign goes out at most once per order; failed sends are
retried on the next pass while the order is still inside the campaign
window.`,
	RunE: runUpsell,
}

func init() {
	rootCmd.AddCommand(upsellCmd)
}

func runUpsell(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sends, err := a.campaigns.SendCampaigns(ctx)
	if err != nil {
		return fmt.Errorf("campaign pass: %w", err)
	}
	cmd.Printf("%d campaign(s) sent.\n", sends)
	return nil
}
