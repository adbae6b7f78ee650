package service

import (
	"github.com/yairfalse/peili/filter"
	"github.com/yairfalse/peili/types"
)

// Summary groups a resource set for quick orientation.
type Summary struct {
	Total      int            `json:"total"`
	ByType     map[string]int `json:"by_type,omitempty"`
	ByLocation map[string]int `json:"by_location,omitempty"`
	ByGroup    map[string]int `json:"by_group,omitempty"`
}

// InventoryResult is the discoverInventory payload.
type InventoryResult struct {
	Scope              string           `json:"scope"`
	Resources          []types.Resource `json:"resources"`
	Summary            Summary          `json:"summary"`
	ComplianceWarnings []filter.Warning `json:"compliance_warnings,omitempty"`
}

// TagSearchResult is the searchByTag payload.
type TagSearchResult struct {
	Scope     string           `json:"scope"`
	TagKey    string           `json:"tag_key"`
	TagValue  string           `json:"tag_value,omitempty"`
	Resources []types.Resource `json:"resources"`
	Summary   Summary          `json:"summary"`
}

// DependencySummary counts the extracted subgraph. SkippedResources
// annotates partial enumeration; the result still returns.
type DependencySummary struct {
	ResourcesAnalyzed  int `json:"resources_analyzed"`
	ResourcesWithEdges int `json:"resources_with_edges"`
	EdgeCount          int `json:"edge_count"`
	SkippedResources   int `json:"skipped_resources,omitempty"`
}

// DependencyResult is the analyzeDependencies payload.
type DependencyResult struct {
	Scope   string                 `json:"scope"`
	Edges   []types.DependencyEdge `json:"edges"`
	Summary DependencySummary      `json:"summary"`
}

// OrphanResult is the findOrphans payload.
type OrphanResult struct {
	Scope                   string                  `json:"scope"`
	Candidates              []types.OrphanCandidate `json:"candidates"`
	EstimatedMonthlySavings float64                 `json:"estimated_monthly_savings"`
	SkippedResources        int                     `json:"skipped_resources,omitempty"`
}

// HealthSummary counts events by status.
type HealthSummary struct {
	Total    int            `json:"total"`
	Active   int            `json:"active"`
	ByStatus map[string]int `json:"by_status,omitempty"`
}

// HealthResult is the getHealthOverview payload.
type HealthResult struct {
	Scope   string              `json:"scope"`
	Events  []types.HealthEvent `json:"events"`
	Summary HealthSummary       `json:"summary"`
}

// Recommendation is one rightsizing suggestion.
type Recommendation struct {
	ResourceID        string  `json:"resource_id"`
	ResourceType      string  `json:"resource_type"`
	CurrentSKU        string  `json:"current_sku"`
	SuggestedSKU      string  `json:"suggested_sku"`
	MonthlySaving     float64 `json:"monthly_saving"`
	AverageCPUPercent float64 `json:"average_cpu_percent"`
}

// RecommendationResult is the recommendations payload.
type RecommendationResult struct {
	Scope              string           `json:"scope"`
	Recommendations    []Recommendation `json:"recommendations"`
	TotalMonthlySaving float64          `json:"total_monthly_saving"`
}

func summarize(resources []types.Resource) Summary {
	s := Summary{
		Total:      len(resources),
		ByType:     make(map[string]int),
		ByLocation: make(map[string]int),
		ByGroup:    make(map[string]int),
	}
	for _, r := range resources {
		s.ByType[r.Type]++
		if r.Location != "" {
			s.ByLocation[r.Location]++
		}
		if r.ResourceGroup != "" {
			s.ByGroup[r.ResourceGroup]++
		}
	}
	return s
}
