package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var tagsMax int

var tagsCmd = &cobra.Command{
	Use:   "tags <key> [value]",
	Short: "Find resources carrying a tag",
	Long: `Find resources in the scope carrying the given tag key. With a
second argument, only exact value matches are returned.`,
	Example: `  peili tags env              # Everything tagged with "env"
  peili tags env prod         # Only env=prod
  peili tags owner --max 20   # First 20 matches`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runTags,
}

func init() {
	rootCmd.AddCommand(tagsCmd)

	tagsCmd.Flags().IntVar(&tagsMax, "max", 0, "Cap the number of results (0 = no cap)")
}

func runTags(cmd *cobra.Command, args []string) error {
	if err := validateOutput(); err != nil {
		return err
	}

	value := ""
	if len(args) == 2 {
		value = args[1]
	}

	a, cleanup, err := newApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := a.svc.SearchByTag(cmd.Context(), flagScope, args[0], value, tagsMax)
	if err != nil {
		return err
	}

	if flagOutput == "json" {
		return printJSON(result)
	}

	t := newTable("NAME", "TYPE", "GROUP", "VALUE")
	for _, r := range result.Resources {
		t.row(r.Name, r.Type, r.ResourceGroup, r.Tags[result.TagKey])
	}
	t.flush()

	fmt.Printf("\n%d resources tagged %q in scope %s\n", result.Summary.Total, result.TagKey, result.Scope)
	return nil
}
