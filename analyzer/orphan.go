package analyzer

import (
	"context"
	"strings"
	"time"

	"github.com/yairfalse/peili/cost"
	"github.com/yairfalse/peili/telemetry"
	"github.com/yairfalse/peili/types"
)

// CategoryAll selects every registered detection category.
const CategoryAll = "all"

// Rule detects one category of orphaned resource. Detect inspects the
// property bag; Estimate prices the ongoing monthly cost of the orphan.
type Rule struct {
	Category     string
	ResourceType string
	Detect       func(r types.Resource, now time.Time) (reason string, details map[string]string, orphaned bool)
	Estimate     func(r types.Resource, tables *cost.Tables) float64
}

// DetailFetcher refreshes a resource whose cached snapshot lacks the
// properties a rule needs. Optional.
type DetailFetcher interface {
	GetResource(ctx context.Context, scopeID, resourceID string) (*types.Resource, error)
}

// Detector runs the registered rules over a resource set. Rules are held in
// a registry keyed by resource type so new categories can be added without
// touching the detection loop.
type Detector struct {
	rules   map[string]Rule // normalized resource type -> rule
	tables  *cost.Tables
	details DetailFetcher
	now     func() time.Time
	logger  *telemetry.Logger
}

// DetectorOption configures a Detector.
type DetectorOption func(*Detector)

// WithDetailFetcher enables per-resource detail refresh during detection.
func WithDetailFetcher(f DetailFetcher) DetectorOption {
	return func(d *Detector) { d.details = f }
}

// WithNow injects the clock, for the snapshot-age rule in tests.
func WithNow(now func() time.Time) DetectorOption {
	return func(d *Detector) { d.now = now }
}

// NewDetector creates a detector with the built-in rules registered.
func NewDetector(tables *cost.Tables, opts ...DetectorOption) *Detector {
	d := &Detector{
		rules:  make(map[string]Rule),
		tables: tables,
		now:    time.Now,
		logger: telemetry.NewLogger("orphan-detector"),
	}
	for _, rule := range builtinRules() {
		d.Register(rule)
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register adds or replaces the rule for its resource type.
func (d *Detector) Register(rule Rule) {
	d.rules[strings.ToLower(rule.ResourceType)] = rule
}

// Categories returns the registered category names.
func (d *Detector) Categories() []string {
	categories := make([]string, 0, len(d.rules))
	for _, rule := range d.rules {
		categories = append(categories, rule.Category)
	}
	return categories
}

// Options narrows a detection run.
type Options struct {
	// Categories limits detection to the named categories; empty or
	// containing "all" means every registered rule.
	Categories []string
	// ResourceGroup, when set, restricts detection to one group.
	ResourceGroup string
}

// Detect runs the matching rules over resources. Output order is not
// guaranteed. The skipped count reports resources dropped by detail-fetch
// failures; a partial result is always returned.
func (d *Detector) Detect(ctx context.Context, scopeID string, resources []types.Resource, opts Options) ([]types.OrphanCandidate, int) {
	wanted := categorySet(opts.Categories)
	now := d.now()

	var candidates []types.OrphanCandidate
	skipped := 0

	for _, r := range resources {
		rule, ok := d.rules[strings.ToLower(r.Type)]
		if !ok {
			continue
		}
		if wanted != nil && !wanted[rule.Category] {
			continue
		}
		if opts.ResourceGroup != "" && !strings.EqualFold(r.ResourceGroup, opts.ResourceGroup) {
			continue
		}

		resource, err := d.withDetails(ctx, scopeID, r)
		if err != nil {
			d.logger.LogResourceSkipped(ctx, r.ID, err)
			skipped++
			continue
		}

		reason, details, orphaned := rule.Detect(resource, now)
		if !orphaned {
			continue
		}

		candidates = append(candidates, types.OrphanCandidate{
			ResourceID:           resource.ID,
			ResourceType:         resource.Type,
			Category:             rule.Category,
			Reason:               reason,
			EstimatedMonthlyCost: rule.Estimate(resource, d.tables),
			Details:              details,
		})
	}

	return candidates, skipped
}

// withDetails refreshes the resource when its snapshot carries no
// properties and a fetcher is wired.
func (d *Detector) withDetails(ctx context.Context, scopeID string, r types.Resource) (types.Resource, error) {
	if len(r.Properties) > 0 || d.details == nil {
		return r, nil
	}
	fresh, err := d.details.GetResource(ctx, scopeID, r.ID)
	if err != nil {
		return types.Resource{}, err
	}
	if fresh == nil {
		return r, nil
	}
	return *fresh, nil
}

func categorySet(categories []string) map[string]bool {
	if len(categories) == 0 {
		return nil
	}
	set := make(map[string]bool, len(categories))
	for _, c := range categories {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == CategoryAll {
			return nil
		}
		set[c] = true
	}
	return set
}
