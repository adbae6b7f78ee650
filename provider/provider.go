// Package provider defines the port to the remote management API.
package provider

import (
	"context"

	"github.com/yairfalse/peili/types"
)

// ManagementClient is the remote management API surface this subsystem
// consumes. All calls are remote I/O and must honor ctx cancellation.
type ManagementClient interface {
	// ListResources enumerates every resource in the scope.
	ListResources(ctx context.Context, scopeID string) ([]types.Resource, error)

	// GetResource fetches one resource by fully qualified ID.
	// Returns nil when the resource does not exist.
	GetResource(ctx context.Context, resourceID string) (*types.Resource, error)

	// LookupScopeByName resolves a friendly scope name to its canonical ID.
	LookupScopeByName(ctx context.Context, name string) (string, error)

	// ListHealthEvents enumerates health events for the scope.
	ListHealthEvents(ctx context.Context, scopeID string) ([]types.HealthEvent, error)
}

// TokenProvider supplies the bearer token for management API calls. How the
// identity was obtained is not this subsystem's concern.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenProvider around a fixed token, for tests and
// short-lived CLI invocations.
type StaticToken string

func (t StaticToken) Token(_ context.Context) (string, error) {
	return string(t), nil
}
