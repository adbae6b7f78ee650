package types

import (
	"strings"
	"time"
)

// ResourceIDPrefix is the canonical prefix of a fully qualified resource ID.
const ResourceIDPrefix = "/subscriptions/"

// Resource represents one cloud resource as returned by the management API.
// Resources are built fresh on every inventory fetch and never mutated in
// place; a cache refresh replaces them wholesale.
type Resource struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	Type              string            `json:"type"`
	Scope             string            `json:"scope"`
	ResourceGroup     string            `json:"resource_group,omitempty"`
	Location          string            `json:"location,omitempty"`
	Tags              map[string]string `json:"tags,omitempty"`
	SKU               string            `json:"sku,omitempty"`
	Kind              string            `json:"kind,omitempty"`
	ProvisioningState string            `json:"provisioning_state,omitempty"`
	Properties        Properties        `json:"properties"`
}

// Normalize enforces the resource invariants: properties may be empty but
// never nil.
func (r *Resource) Normalize() {
	if r.Properties == nil {
		r.Properties = Properties{}
	}
	if r.Tags == nil {
		r.Tags = map[string]string{}
	}
}

// HasTag reports whether the tag key is present, regardless of value.
func (r *Resource) HasTag(key string) bool {
	_, ok := r.Tags[key]
	return ok
}

// TagValue returns the tag value, or "" when absent.
func (r *Resource) TagValue(key string) string {
	return r.Tags[key]
}

// IsDeprovisioning reports whether the resource is being torn down.
func (r *Resource) IsDeprovisioning() bool {
	state := strings.ToLower(r.ProvisioningState)
	return state == "deleting" || state == "deprovisioning"
}

// LooksLikeResourceID reports whether s is shaped like a fully qualified
// resource ID. Used by the dependency heuristic to reject false positives.
func LooksLikeResourceID(s string) bool {
	if len(s) <= len(ResourceIDPrefix) {
		return false
	}
	return strings.EqualFold(s[:len(ResourceIDPrefix)], ResourceIDPrefix)
}

// DependencyEdge is a heuristically inferred reference from one resource's
// configuration to another resource's identifier. Edges may dangle and
// cycles are tolerated; the data is advisory, not authoritative.
type DependencyEdge struct {
	FromResourceID string `json:"from_resource_id"`
	DependencyKind string `json:"dependency_kind"`
	ToResourceID   string `json:"to_resource_id"`
}

// ResourceDependencies pairs a resource with its outgoing edges.
type ResourceDependencies struct {
	Resource Resource         `json:"resource"`
	Edges    []DependencyEdge `json:"edges"`
}

// OrphanCandidate flags a resource as likely unused or unattached.
// Recomputed on every detection run, never cached.
type OrphanCandidate struct {
	ResourceID           string            `json:"resource_id"`
	ResourceType         string            `json:"resource_type"`
	Category             string            `json:"category"`
	Reason               string            `json:"reason"`
	EstimatedMonthlyCost float64           `json:"estimated_monthly_cost"`
	Details              map[string]string `json:"details,omitempty"`
}

// HealthEvent is one entry from the health-event enumeration.
type HealthEvent struct {
	ID         string     `json:"id"`
	ResourceID string     `json:"resource_id,omitempty"`
	Status     string     `json:"status"`
	Summary    string     `json:"summary,omitempty"`
	Cause      string     `json:"cause,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}
