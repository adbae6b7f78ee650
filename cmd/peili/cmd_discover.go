package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yairfalse/peili/filter"
)

var (
	discoverGroup      string
	discoverType       string
	discoverLocation   string
	discoverTagKey     string
	discoverTagValue   string
	discoverExclDeprov bool
	discoverMax        int
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Enumerate and filter the scope's resource inventory",
	Long: `Enumerate every resource in the scope (served from the cached
snapshot when fresh) and narrow the result with optional filters.
Filters compose with AND; matching is case-insensitive except tag
values.`,
	Example: `  peili discover                                   # Full inventory, last-used scope
  peili discover -s team-sandbox                   # Friendly scope name
  peili discover --type Microsoft.Compute/disks    # One resource type
  peili discover --tag-key env --tag-value prod    # Exact tag match
  peili discover --exclude-deprovisioning          # Hide resources being deleted`,
	RunE: runDiscover,
}

func init() {
	rootCmd.AddCommand(discoverCmd)

	discoverCmd.Flags().StringVarP(&discoverGroup, "group", "g", "", "Filter by resource group")
	discoverCmd.Flags().StringVarP(&discoverType, "type", "t", "", "Filter by resource type")
	discoverCmd.Flags().StringVarP(&discoverLocation, "location", "l", "", "Filter by location")
	discoverCmd.Flags().StringVar(&discoverTagKey, "tag-key", "", "Require this tag key")
	discoverCmd.Flags().StringVar(&discoverTagValue, "tag-value", "", "Require this exact tag value (with --tag-key)")
	discoverCmd.Flags().BoolVar(&discoverExclDeprov, "exclude-deprovisioning", false, "Exclude resources being deprovisioned")
	discoverCmd.Flags().IntVar(&discoverMax, "max-results", 0, "Cap the number of results (0 = no cap)")
}

func runDiscover(cmd *cobra.Command, _ []string) error {
	if err := validateOutput(); err != nil {
		return err
	}

	a, cleanup, err := newApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := a.svc.DiscoverInventory(cmd.Context(), flagScope, filter.Criteria{
		ResourceGroup:         discoverGroup,
		Type:                  discoverType,
		Location:              discoverLocation,
		TagKey:                discoverTagKey,
		TagValue:              discoverTagValue,
		ExcludeDeprovisioning: discoverExclDeprov,
		MaxResults:            discoverMax,
	})
	if err != nil {
		return err
	}

	if flagOutput == "json" {
		return printJSON(result)
	}

	t := newTable("NAME", "TYPE", "GROUP", "LOCATION", "STATE")
	for _, r := range result.Resources {
		t.row(r.Name, r.Type, r.ResourceGroup, r.Location, r.ProvisioningState)
	}
	t.flush()

	fmt.Printf("\n%d resources in scope %s\n", result.Summary.Total, result.Scope)
	for _, w := range result.ComplianceWarnings {
		fmt.Printf("warning: %s missing required tags %v\n", w.ResourceID, w.MissingTags)
	}
	return nil
}
