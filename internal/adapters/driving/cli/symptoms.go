package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	symptomTopK    int
	symptomVehicle string
)

var symptomsCmd = &cobra.Command{
	Use:   "symptoms",
	Short: "Run one knowledge refresh pass",
	Long: `Pulls pending observation files from the observation directory
and folds them into the symptom knowledge base, then exits.`,
	RunE: runSymptoms,
}

var symptomsSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search symptoms semantically",
	Args:  cobra.ExactArgs(1),
	RunE:  runSymptomsSearch,
}

var symptomsSuggestCmd = &cobra.Command{
	Use:   "suggest [description]",
	Short: "Suggest diagnostics for a fault description",
	Args:  cobra.ExactArgs(1),
	RunE:  runSymptomsSuggest,
}

func init() {
	symptomsSearchCmd.Flags().IntVarP(&symptomTopK, "top", "n", 5, "maximum number of results")
	symptomsSuggestCmd.Flags().StringVar(&symptomVehicle, "vehicle", "", "vehicle type filter (petrol, diesel, hybrid)")

	symptomsCmd.AddCommand(symptomsSearchCmd)
	symptomsCmd.AddCommand(symptomsSuggestCmd)
	rootCmd.AddCommand(symptomsCmd)
}

func runSymptoms(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	ingested, err := a.knowledge.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("knowledge refresh: %w", err)
	}
	cmd.Printf("%d observation(s) ingested.\n", ingested)
	return nil
}

func runSymptomsSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	results, err := a.knowledge.Search(ctx, args[0], symptomTopK)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	if len(results) == 0 {
		cmd.Println("No matching symptoms.")
		return nil
	}

	for _, s := range results {
		cmd.Printf("%s  %s  [%s, seen %d times]\n", s.ID, s.Text, s.Severity, s.Frequency)
		for _, c := range s.Causes {
			cmd.Printf("    %3.0f%%  %s - %s\n", c.Probability*100, c.Cause, c.Remedy)
		}
	}
	return nil
}

func runSymptomsSuggest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	suggestions, err := a.knowledge.SuggestDiagnostics(ctx, args[0], symptomVehicle)
	if err != nil {
		return fmt.Errorf("suggest: %w", err)
	}
	if len(suggestions) == 0 {
		cmd.Println("No diagnostic suggestions.")
		return nil
	}

	for _, s := range suggestions {
		cmd.Printf("%s (%s, confidence %.0f%%) - %s\n",
			s.Symptom, s.Severity, s.Confidence*100, strings.ToUpper(s.Severity.UrgencyLabel()))
		for _, c := range s.Causes {
			cmd.Printf("    %3.0f%%  %s - %s\n", c.Probability*100, c.Cause, c.Remedy)
		}
	}
	return nil
}
