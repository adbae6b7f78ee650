package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Show resource health events for the scope",
	Long: `List the scope's resource health events with a status summary.
Events without a resolution time count as active. Served from a short
TTL cache so repeated checks stay cheap.`,
	RunE: runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, _ []string) error {
	if err := validateOutput(); err != nil {
		return err
	}

	a, cleanup, err := newApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := a.svc.GetHealthOverview(cmd.Context(), flagScope)
	if err != nil {
		return err
	}

	if flagOutput == "json" {
		return printJSON(result)
	}

	t := newTable("STATUS", "RESOURCE", "SUMMARY", "STARTED", "RESOLVED")
	for _, e := range result.Events {
		resolved := "-"
		if e.ResolvedAt != nil {
			resolved = e.ResolvedAt.Format("2006-01-02 15:04")
		}
		t.row(e.Status, e.ResourceID, e.Summary, e.StartedAt.Format("2006-01-02 15:04"), resolved)
	}
	t.flush()

	fmt.Printf("\n%d events, %d active, scope %s\n",
		result.Summary.Total, result.Summary.Active, result.Scope)
	return nil
}
