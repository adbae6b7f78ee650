package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var depsGroup string

var depsCmd = &cobra.Command{
	Use:   "deps [resource-id]",
	Short: "Extract dependency references between resources",
	Long: `Walk resource property bags for references to other resources and
report them as directed edges. With a fully qualified resource ID the
analysis covers that one resource; without it, the whole scope.`,
	Example: `  peili deps                                       # Whole scope
  peili deps -g rg-app                             # One resource group
  peili deps /subscriptions/.../virtualMachines/vm1`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDeps,
}

func init() {
	rootCmd.AddCommand(depsCmd)

	depsCmd.Flags().StringVarP(&depsGroup, "group", "g", "", "Restrict to one resource group")
}

func runDeps(cmd *cobra.Command, args []string) error {
	if err := validateOutput(); err != nil {
		return err
	}

	resourceID := ""
	if len(args) == 1 {
		resourceID = args[0]
	}

	a, cleanup, err := newApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := a.svc.AnalyzeDependencies(cmd.Context(), flagScope, resourceID, depsGroup)
	if err != nil {
		return err
	}

	if flagOutput == "json" {
		return printJSON(result)
	}

	t := newTable("FROM", "KIND", "TO")
	for _, e := range result.Edges {
		t.row(e.FromResourceID, e.DependencyKind, e.ToResourceID)
	}
	t.flush()

	fmt.Printf("\n%d edges across %d of %d resources\n",
		result.Summary.EdgeCount, result.Summary.ResourcesWithEdges, result.Summary.ResourcesAnalyzed)
	if result.Summary.SkippedResources > 0 {
		fmt.Printf("%d resources skipped due to analysis errors\n", result.Summary.SkippedResources)
	}
	return nil
}
