package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
)

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// table is a minimal column-aligned writer for the default output mode.
type table struct {
	w *tabwriter.Writer
}

func newTable(headers ...any) *table {
	t := &table{w: tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)}
	t.row(headers...)
	return t
}

func (t *table) row(cells ...any) {
	for i, c := range cells {
		if i > 0 {
			fmt.Fprint(t.w, "\t")
		}
		fmt.Fprint(t.w, c)
	}
	fmt.Fprintln(t.w)
}

func (t *table) flush() {
	_ = t.w.Flush()
}

func validateOutput() error {
	switch flagOutput {
	case "table", "json":
		return nil
	}
	return fmt.Errorf("invalid output format: %s (must be table or json)", flagOutput)
}
