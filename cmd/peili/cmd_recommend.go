package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Suggest rightsizing savings for compute and database resources",
	Long: `Estimate monthly savings from stepping consistently low-usage
compute and database resources down one SKU size. Estimates come from
static price tables; treat them as direction, not invoices.`,
	RunE: runRecommend,
}

func init() {
	rootCmd.AddCommand(recommendCmd)
}

func runRecommend(cmd *cobra.Command, _ []string) error {
	if err := validateOutput(); err != nil {
		return err
	}

	a, cleanup, err := newApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := a.svc.Recommendations(cmd.Context(), flagScope)
	if err != nil {
		return err
	}

	if flagOutput == "json" {
		return printJSON(result)
	}

	t := newTable("RESOURCE", "CURRENT", "SUGGESTED", "SAVING", "AVG CPU")
	for _, r := range result.Recommendations {
		t.row(r.ResourceID, r.CurrentSKU, r.SuggestedSKU,
			fmt.Sprintf("$%.2f", r.MonthlySaving),
			fmt.Sprintf("%.0f%%", r.AverageCPUPercent))
	}
	t.flush()

	fmt.Printf("\npotential savings: $%.2f/month across %d resources\n",
		result.TotalMonthlySaving, len(result.Recommendations))
	return nil
}
