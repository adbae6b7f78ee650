// Package filter narrows a cached inventory snapshot with composable
// predicates. Filtering is in-process only; the cache never stores
// filter-specific variants.
package filter

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/yairfalse/peili/types"
)

var validate = validator.New()

// Criteria is a record of optional predicates composed by logical AND.
// Absent criteria are no-ops.
type Criteria struct {
	ResourceGroup         string `json:"resource_group,omitempty" validate:"omitempty,max=90"`
	Type                  string `json:"type,omitempty" validate:"omitempty,max=256"`
	Location              string `json:"location,omitempty" validate:"omitempty,max=64"`
	TagKey                string `json:"tag_key,omitempty" validate:"omitempty,max=512"`
	TagValue              string `json:"tag_value,omitempty" validate:"omitempty,max=256"`
	ExcludeDeprovisioning bool   `json:"exclude_deprovisioning,omitempty"`
	MaxResults            int    `json:"max_results,omitempty" validate:"gte=0"`
}

// Validate rejects malformed criteria. Validation failures are never
// retried.
func (c Criteria) Validate() error {
	if err := validate.Struct(c); err != nil {
		errs, ok := err.(validator.ValidationErrors)
		if ok && len(errs) > 0 {
			return &types.ValidationError{
				Field:  strings.ToLower(errs[0].Field()),
				Reason: "failed " + errs[0].Tag() + " constraint",
			}
		}
		return &types.ValidationError{Field: "criteria", Reason: err.Error()}
	}
	if c.TagValue != "" && c.TagKey == "" {
		return &types.ValidationError{Field: "tag_value", Reason: "requires tag_key"}
	}
	return nil
}

// Compliance computes the required-tag overlay for one resource. Optional.
type Compliance interface {
	MissingTags(ctx context.Context, r types.Resource) ([]string, error)
}

// Warning flags one surviving resource missing required tags. Warnings
// annotate the result; they never filter anything out.
type Warning struct {
	ResourceID  string   `json:"resource_id"`
	MissingTags []string `json:"missing_tags"`
}

// Result is a filtered view plus its compliance overlay.
type Result struct {
	Resources []types.Resource `json:"resources"`
	Warnings  []Warning        `json:"compliance_warnings,omitempty"`
}

// Pipeline applies criteria over snapshots.
type Pipeline struct {
	compliance Compliance
}

// New creates a pipeline. compliance may be nil to skip the overlay.
func New(compliance Compliance) *Pipeline {
	return &Pipeline{compliance: compliance}
}

// Apply narrows resources by criteria. Predicates run in a fixed order
// (group, type, location, tag, deprovisioning state, cap) so a truncating
// cap is deterministic; the cap preserves original enumeration order.
func (p *Pipeline) Apply(ctx context.Context, resources []types.Resource, criteria Criteria) (Result, error) {
	if err := criteria.Validate(); err != nil {
		return Result{}, err
	}

	filtered := make([]types.Resource, 0, len(resources))
	for _, r := range resources {
		if matches(r, criteria) {
			filtered = append(filtered, r)
		}
	}

	if criteria.MaxResults > 0 && len(filtered) > criteria.MaxResults {
		filtered = filtered[:criteria.MaxResults]
	}

	result := Result{Resources: filtered}
	if p.compliance != nil {
		result.Warnings = p.overlay(ctx, filtered)
	}
	return result, nil
}

func matches(r types.Resource, c Criteria) bool {
	if c.ResourceGroup != "" && !strings.EqualFold(r.ResourceGroup, c.ResourceGroup) {
		return false
	}
	if c.Type != "" && !strings.EqualFold(r.Type, c.Type) {
		return false
	}
	if c.Location != "" && !strings.EqualFold(r.Location, c.Location) {
		return false
	}
	if c.TagKey != "" {
		value, ok := r.Tags[c.TagKey]
		if !ok {
			return false
		}
		if c.TagValue != "" && value != c.TagValue {
			return false
		}
	}
	if c.ExcludeDeprovisioning && r.IsDeprovisioning() {
		return false
	}
	return true
}

// overlay computes missing required tags for the surviving set. Overlay
// errors degrade to no warning for that resource rather than failing the
// whole filter.
func (p *Pipeline) overlay(ctx context.Context, resources []types.Resource) []Warning {
	var warnings []Warning
	for _, r := range resources {
		missing, err := p.compliance.MissingTags(ctx, r)
		if err != nil {
			continue
		}
		if len(missing) > 0 {
			warnings = append(warnings, Warning{ResourceID: r.ID, MissingTags: missing})
		}
	}
	return warnings
}
