// Package service composes scope resolution, the inventory cache, and the
// analyzers behind the operations Peili exposes. Every operation resolves
// its scope first; nothing below this layer sees a friendly name.
package service

import (
	"context"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/yairfalse/peili/analyzer"
	"github.com/yairfalse/peili/cost"
	"github.com/yairfalse/peili/filter"
	"github.com/yairfalse/peili/inventory"
	"github.com/yairfalse/peili/scope"
	"github.com/yairfalse/peili/telemetry"
	"github.com/yairfalse/peili/types"
)

// rightsizableTypes are the resource types the rightsizing estimator
// understands, keyed lowercase.
var rightsizableTypes = map[string]bool{
	"microsoft.compute/virtualmachines": true,
	"microsoft.sql/servers/databases":   true,
}

// Options wires the service's collaborators.
type Options struct {
	Resolver  *scope.Resolver
	Inventory *inventory.Service
	Pipeline  *filter.Pipeline
	Deps      *analyzer.DependencyExtractor
	Orphans   *analyzer.Detector
	Usage     cost.UtilizationSource
	Metrics   *telemetry.Provider
}

// Service is the operation facade.
type Service struct {
	resolver  *scope.Resolver
	inventory *inventory.Service
	pipeline  *filter.Pipeline
	deps      *analyzer.DependencyExtractor
	orphans   *analyzer.Detector
	usage     cost.UtilizationSource
	metrics   *telemetry.Provider
	tracer    trace.Tracer
	logger    *telemetry.Logger
}

// New creates the service. Metrics may be nil.
func New(opts Options) *Service {
	tracer := noop.NewTracerProvider().Tracer("peili")
	if opts.Metrics != nil {
		tracer = opts.Metrics.Tracer()
	}
	usage := opts.Usage
	if usage == nil {
		usage = cost.NewSimulatedSource()
	}
	return &Service{
		resolver:  opts.Resolver,
		inventory: opts.Inventory,
		pipeline:  opts.Pipeline,
		deps:      opts.Deps,
		orphans:   opts.Orphans,
		usage:     usage,
		metrics:   opts.Metrics,
		tracer:    tracer,
		logger:    telemetry.NewLogger("service"),
	}
}

// DiscoverInventory enumerates the scope, applies the criteria, and
// returns the filtered view with its summary and compliance overlay.
func (s *Service) DiscoverInventory(ctx context.Context, scopeRef string, criteria filter.Criteria) (*InventoryResult, error) {
	ctx, span := s.tracer.Start(ctx, "discover_inventory")
	defer span.End()

	scopeID, err := s.resolver.Resolve(ctx, scopeRef)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("scope", scopeID))

	snap, err := s.inventory.GetInventory(ctx, scopeID)
	if err != nil {
		return nil, err
	}

	filtered, err := s.pipeline.Apply(ctx, snap.Resources, criteria)
	if err != nil {
		return nil, err
	}

	return &InventoryResult{
		Scope:              scopeID,
		Resources:          filtered.Resources,
		Summary:            summarize(filtered.Resources),
		ComplianceWarnings: filtered.Warnings,
	}, nil
}

// SearchByTag returns the resources in the scope carrying the tag key,
// optionally narrowed to an exact tag value.
func (s *Service) SearchByTag(ctx context.Context, scopeRef, tagKey, tagValue string, maxResults int) (*TagSearchResult, error) {
	ctx, span := s.tracer.Start(ctx, "search_by_tag")
	defer span.End()

	if strings.TrimSpace(tagKey) == "" {
		return nil, &types.ValidationError{Field: "tag_key", Reason: "must not be empty"}
	}

	scopeID, err := s.resolver.Resolve(ctx, scopeRef)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("scope", scopeID))

	snap, err := s.inventory.GetInventory(ctx, scopeID)
	if err != nil {
		return nil, err
	}

	filtered, err := s.pipeline.Apply(ctx, snap.Resources, filter.Criteria{
		TagKey:     tagKey,
		TagValue:   tagValue,
		MaxResults: maxResults,
	})
	if err != nil {
		return nil, err
	}

	return &TagSearchResult{
		Scope:     scopeID,
		TagKey:    tagKey,
		TagValue:  tagValue,
		Resources: filtered.Resources,
		Summary:   summarize(filtered.Resources),
	}, nil
}

// AnalyzeDependencies extracts reference edges for one resource, or for
// the whole scope (optionally narrowed to a resource group) when
// resourceID is empty.
func (s *Service) AnalyzeDependencies(ctx context.Context, scopeRef, resourceID, resourceGroup string) (*DependencyResult, error) {
	ctx, span := s.tracer.Start(ctx, "analyze_dependencies")
	defer span.End()

	if resourceID != "" && !types.LooksLikeResourceID(resourceID) {
		return nil, &types.ValidationError{Field: "resource_id", Reason: "not a fully-qualified resource id"}
	}

	scopeID, err := s.resolver.Resolve(ctx, scopeRef)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("scope", scopeID))

	if resourceID != "" {
		return s.analyzeOne(ctx, scopeID, resourceID)
	}

	snap, err := s.inventory.GetInventory(ctx, scopeID)
	if err != nil {
		return nil, err
	}

	resources := snap.Resources
	if resourceGroup != "" {
		filtered, err := s.pipeline.Apply(ctx, resources, filter.Criteria{ResourceGroup: resourceGroup})
		if err != nil {
			return nil, err
		}
		resources = filtered.Resources
	}

	withEdges, skipped := s.deps.AnalyzeSubgraph(ctx, resources)
	return newDependencyResult(scopeID, len(resources), withEdges, skipped), nil
}

func (s *Service) analyzeOne(ctx context.Context, scopeID, resourceID string) (*DependencyResult, error) {
	r, err := s.inventory.GetResource(ctx, scopeID, resourceID)
	if err != nil {
		return nil, &types.InventoryFetchError{Scope: scopeID, Err: err}
	}
	if r == nil {
		return nil, &types.ValidationError{Field: "resource_id", Reason: "resource not found in scope"}
	}

	edges, err := s.deps.Extract(*r)
	if err != nil {
		s.logger.LogResourceSkipped(ctx, resourceID, err)
		return newDependencyResult(scopeID, 1, nil, 1), nil
	}

	var withEdges []types.ResourceDependencies
	if len(edges) > 0 {
		withEdges = []types.ResourceDependencies{{Resource: *r, Edges: edges}}
	}
	return newDependencyResult(scopeID, 1, withEdges, 0), nil
}

func newDependencyResult(scopeID string, analyzed int, withEdges []types.ResourceDependencies, skipped int) *DependencyResult {
	edges := make([]types.DependencyEdge, 0)
	for _, rd := range withEdges {
		edges = append(edges, rd.Edges...)
	}
	return &DependencyResult{
		Scope: scopeID,
		Edges: edges,
		Summary: DependencySummary{
			ResourcesAnalyzed:  analyzed,
			ResourcesWithEdges: len(withEdges),
			EdgeCount:          len(edges),
			SkippedResources:   skipped,
		},
	}
}

// FindOrphans runs orphan detection over the scope and totals the
// estimated monthly waste.
func (s *Service) FindOrphans(ctx context.Context, scopeRef string, categories []string, resourceGroup string) (*OrphanResult, error) {
	ctx, span := s.tracer.Start(ctx, "find_orphans")
	defer span.End()

	scopeID, err := s.resolver.Resolve(ctx, scopeRef)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("scope", scopeID))

	snap, err := s.inventory.GetInventory(ctx, scopeID)
	if err != nil {
		return nil, err
	}

	candidates, skipped := s.orphans.Detect(ctx, scopeID, snap.Resources, analyzer.Options{
		Categories:    categories,
		ResourceGroup: resourceGroup,
	})
	if s.metrics != nil {
		s.metrics.RecordOrphans(ctx, len(candidates))
	}

	total := 0.0
	for _, c := range candidates {
		total += c.EstimatedMonthlyCost
	}

	if candidates == nil {
		candidates = []types.OrphanCandidate{}
	}
	return &OrphanResult{
		Scope:                   scopeID,
		Candidates:              candidates,
		EstimatedMonthlySavings: total,
		SkippedResources:        skipped,
	}, nil
}

// GetHealthOverview returns the scope's health events with a status
// summary. An event with no resolution time counts as active.
func (s *Service) GetHealthOverview(ctx context.Context, scopeRef string) (*HealthResult, error) {
	ctx, span := s.tracer.Start(ctx, "get_health_overview")
	defer span.End()

	scopeID, err := s.resolver.Resolve(ctx, scopeRef)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("scope", scopeID))

	events, err := s.inventory.GetHealthEvents(ctx, scopeID)
	if err != nil {
		return nil, err
	}

	summary := HealthSummary{
		Total:    len(events),
		ByStatus: make(map[string]int),
	}
	for _, e := range events {
		summary.ByStatus[e.Status]++
		if e.ResolvedAt == nil {
			summary.Active++
		}
	}

	if events == nil {
		events = []types.HealthEvent{}
	}
	return &HealthResult{Scope: scopeID, Events: events, Summary: summary}, nil
}

// Recommendations estimates rightsizing savings for the scope's compute
// and database resources.
func (s *Service) Recommendations(ctx context.Context, scopeRef string) (*RecommendationResult, error) {
	ctx, span := s.tracer.Start(ctx, "recommendations")
	defer span.End()

	scopeID, err := s.resolver.Resolve(ctx, scopeRef)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("scope", scopeID))

	snap, err := s.inventory.GetInventory(ctx, scopeID)
	if err != nil {
		return nil, err
	}

	result := &RecommendationResult{
		Scope:           scopeID,
		Recommendations: []Recommendation{},
	}
	for _, r := range snap.Resources {
		if !rightsizableTypes[strings.ToLower(r.Type)] {
			continue
		}
		sku := r.SKU
		if sku == "" {
			sku = r.Properties.StringAt("vmSize")
		}
		if sku == "" {
			continue
		}

		u, err := s.usage.Utilization(ctx, r.ID)
		if err != nil {
			s.logger.LogResourceSkipped(ctx, r.ID, err)
			continue
		}

		saving := cost.EstimateSaving(sku, u)
		if saving.MonthlySaving <= 0 {
			continue
		}
		result.Recommendations = append(result.Recommendations, Recommendation{
			ResourceID:        r.ID,
			ResourceType:      r.Type,
			CurrentSKU:        saving.CurrentSKU,
			SuggestedSKU:      saving.SuggestedSKU,
			MonthlySaving:     saving.MonthlySaving,
			AverageCPUPercent: u.AverageCPUPercent,
		})
		result.TotalMonthlySaving += saving.MonthlySaving
	}

	sort.Slice(result.Recommendations, func(i, j int) bool {
		return result.Recommendations[i].MonthlySaving > result.Recommendations[j].MonthlySaving
	})
	return result, nil
}

// Invalidate drops the cached inventory and health entries for the
// resolved scope.
func (s *Service) Invalidate(ctx context.Context, scopeRef string) (string, error) {
	scopeID, err := s.resolver.Resolve(ctx, scopeRef)
	if err != nil {
		return "", err
	}
	s.inventory.Invalidate(scopeID)
	return scopeID, nil
}
