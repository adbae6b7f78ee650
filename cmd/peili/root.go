package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"

	flagConfig string
	flagScope  string
	flagOutput string
	flagDebug  bool

	rootCmd = &cobra.Command{
		Use:   "peili",
		Short: "Cloud Inventory Mirror",
		Long: `Peili - Cloud Inventory Mirror

Peili keeps a cached mirror of a cloud scope's resource inventory and
answers questions against it: filtered discovery, tag search, dependency
analysis, orphan detection, health overview, and rightsizing hints.

A scope is a subscription; pass it as a canonical GUID or a friendly
name, or omit it to reuse the last one you worked with.`,
		Version: version,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
			if flagDebug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}
)

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate(`Peili {{.Version}} - Cloud Inventory Mirror
`)
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Path to config file")
	rootCmd.PersistentFlags().StringVarP(&flagScope, "scope", "s", "", "Scope GUID or friendly name (default: last used)")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "table", "Output format: table, json")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
}
