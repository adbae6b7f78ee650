package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	orphanCategories []string
	orphanGroup      string
)

var orphansCmd = &cobra.Command{
	Use:   "orphans",
	Short: "Find orphaned resources and their monthly cost",
	Long: `Run the orphan detection rules over the scope: unattached disks,
unused network interfaces, security groups, public addresses, empty
load balancers, and stale snapshots. Each candidate carries an
estimated monthly cost from the static price tables.`,
	Example: `  peili orphans                            # All categories
  peili orphans --category "unattached disk"
  peili orphans -g rg-app                  # One resource group`,
	RunE: runOrphans,
}

func init() {
	rootCmd.AddCommand(orphansCmd)

	orphansCmd.Flags().StringSliceVar(&orphanCategories, "category", nil, "Detection categories (default: all)")
	orphansCmd.Flags().StringVarP(&orphanGroup, "group", "g", "", "Restrict to one resource group")
}

func runOrphans(cmd *cobra.Command, _ []string) error {
	if err := validateOutput(); err != nil {
		return err
	}

	a, cleanup, err := newApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := a.svc.FindOrphans(cmd.Context(), flagScope, orphanCategories, orphanGroup)
	if err != nil {
		return err
	}

	if flagOutput == "json" {
		return printJSON(result)
	}

	t := newTable("CATEGORY", "RESOURCE", "REASON", "MONTHLY")
	for _, c := range result.Candidates {
		t.row(c.Category, c.ResourceID, c.Reason, fmt.Sprintf("$%.2f", c.EstimatedMonthlyCost))
	}
	t.flush()

	fmt.Printf("\n%d orphan candidates, estimated $%.2f/month\n",
		len(result.Candidates), result.EstimatedMonthlySavings)
	if result.SkippedResources > 0 {
		fmt.Printf("%d resources skipped due to detail fetch failures\n", result.SkippedResources)
	}
	return nil
}
