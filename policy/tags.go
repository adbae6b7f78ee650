// Package policy evaluates tag-compliance rules against resources using
// compiled Rego.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/rego"
	"github.com/yairfalse/peili/telemetry"
	"github.com/yairfalse/peili/types"
)

// Rego module evaluated per resource. Kept minimal on purpose: presence of
// the tag key satisfies the rule, values are not inspected.
const tagComplianceModule = `package peili.compliance

missing_tags := [t | some i; t := input.required[i]; not input.tags[t]]
`

// TagPolicy reports required tag keys a resource is missing.
type TagPolicy struct {
	required []string
	query    rego.PreparedEvalQuery
	logger   *telemetry.Logger
}

// tagInput is the evaluation input shape.
type tagInput struct {
	Required []string          `json:"required"`
	Tags     map[string]string `json:"tags"`
}

// NewTagPolicy compiles the compliance module for the configured required
// tag keys. An empty key set yields a policy that never warns.
func NewTagPolicy(ctx context.Context, requiredTags []string) (*TagPolicy, error) {
	p := &TagPolicy{
		required: requiredTags,
		logger:   telemetry.NewLogger("tag-policy"),
	}
	if len(requiredTags) == 0 {
		return p, nil
	}

	query := rego.New(
		rego.Query("data.peili.compliance.missing_tags"),
		rego.Module("tag_compliance.rego", tagComplianceModule),
	)

	prepared, err := query.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile tag compliance policy: %w", err)
	}
	p.query = prepared

	p.logger.WithContext(ctx).Info().
		Strs("required_tags", requiredTags).
		Msg("tag compliance policy loaded")

	return p, nil
}

// Required returns the configured required tag keys.
func (p *TagPolicy) Required() []string { return p.required }

// MissingTags evaluates the compiled policy for one resource. Implements
// the filter pipeline's compliance overlay.
func (p *TagPolicy) MissingTags(ctx context.Context, r types.Resource) ([]string, error) {
	if len(p.required) == 0 {
		return nil, nil
	}

	input := tagInput{Required: p.required, Tags: r.Tags}
	results, err := p.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return nil, fmt.Errorf("evaluate tag compliance: %w", err)
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return nil, nil
	}

	raw, ok := results[0].Expressions[0].Value.([]any)
	if !ok {
		return nil, fmt.Errorf("unexpected policy result shape %T", results[0].Expressions[0].Value)
	}

	missing := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			missing = append(missing, s)
		}
	}
	return missing, nil
}
