package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Drop the cached inventory for a scope",
	Long: `Invalidate the cached inventory and health snapshots for the scope
so the next operation fetches fresh data.`,
	RunE: runRefresh,
}

func init() {
	rootCmd.AddCommand(refreshCmd)
}

func runRefresh(cmd *cobra.Command, _ []string) error {
	a, cleanup, err := newApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer cleanup()

	scopeID, err := a.svc.Invalidate(cmd.Context(), flagScope)
	if err != nil {
		return err
	}
	fmt.Printf("cache invalidated for scope %s\n", scopeID)
	return nil
}
