// Package analyzer derives higher-order findings from inventory snapshots:
// dependency edges and orphan candidates.
package analyzer

import (
	"context"
	"sort"
	"strings"

	"github.com/yairfalse/peili/telemetry"
	"github.com/yairfalse/peili/types"
)

// DependencyExtractor discovers references between resources by scanning
// property bags. Best-effort: references not named "...Id" are missed, and
// edges may dangle.
type DependencyExtractor struct {
	logger *telemetry.Logger
}

// NewDependencyExtractor creates an extractor.
func NewDependencyExtractor() *DependencyExtractor {
	return &DependencyExtractor{logger: telemetry.NewLogger("dependency-extractor")}
}

// Extract returns the dependency edges of one resource. A property key
// counts as a reference when its name ends in "Id" (case-insensitive) and
// its stringified value is shaped like a fully qualified resource ID.
func (e *DependencyExtractor) Extract(r types.Resource) ([]types.DependencyEdge, error) {
	var edges []types.DependencyEdge
	for key, value := range r.Properties {
		if !strings.HasSuffix(strings.ToLower(key), "id") {
			continue
		}
		target := value.Stringify()
		if !types.LooksLikeResourceID(target) {
			continue
		}
		edges = append(edges, types.DependencyEdge{
			FromResourceID: r.ID,
			DependencyKind: key,
			ToResourceID:   target,
		})
	}

	// Property bags iterate in random order; sort for stable output.
	sort.Slice(edges, func(i, j int) bool {
		return edges[i].DependencyKind < edges[j].DependencyKind
	})
	return edges, nil
}

// AnalyzeSubgraph maps Extract over resources, omitting resources with no
// edges. Per-resource extraction errors are logged and skipped, never
// escalated; the returned count reports how many were skipped.
func (e *DependencyExtractor) AnalyzeSubgraph(ctx context.Context, resources []types.Resource) ([]types.ResourceDependencies, int) {
	var results []types.ResourceDependencies
	skipped := 0

	for _, r := range resources {
		edges, err := e.Extract(r)
		if err != nil {
			e.logger.LogResourceSkipped(ctx, r.ID, err)
			skipped++
			continue
		}
		if len(edges) == 0 {
			continue
		}
		results = append(results, types.ResourceDependencies{Resource: r, Edges: edges})
	}

	return results, skipped
}
