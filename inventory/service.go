// Package inventory fronts the expensive remote enumerations with TTL
// caches: one full-scope resource snapshot per scope, plus a structurally
// identical cache for health events.
package inventory

import (
	"context"
	"time"

	"github.com/yairfalse/peili/cache"
	"github.com/yairfalse/peili/provider"
	"github.com/yairfalse/peili/telemetry"
	"github.com/yairfalse/peili/types"
)

const (
	namespaceInventory = "inventory"
	namespaceHealth    = "health"
)

// Options configures a Service.
type Options struct {
	InventoryTTL time.Duration
	HealthTTL    time.Duration
	Clock        cache.Clock
	Metrics      *telemetry.Provider
}

// Service owns the inventory and health caches. Concurrent misses for the
// same scope each trigger their own remote fetch; the last completed fetch
// wins the cache slot. That duplicate work is accepted to keep the hot path
// lock-free.
type Service struct {
	client    provider.ManagementClient
	inventory *cache.Cache[*Snapshot]
	health    *cache.Cache[[]types.HealthEvent]
	clock     cache.Clock
	metrics   *telemetry.Provider
	logger    *telemetry.Logger
}

// NewService creates the inventory service with explicit cache instances.
func NewService(client provider.ManagementClient, opts Options) *Service {
	clock := opts.Clock
	if clock == nil {
		clock = cache.SystemClock()
	}
	cacheOpts := []cache.Option{cache.WithClock(clock)}
	return &Service{
		client:    client,
		inventory: cache.New[*Snapshot](namespaceInventory, opts.InventoryTTL, cacheOpts...),
		health:    cache.New[[]types.HealthEvent](namespaceHealth, opts.HealthTTL, cacheOpts...),
		clock:     clock,
		metrics:   opts.Metrics,
		logger:    telemetry.NewLogger("inventory"),
	}
}

// GetInventory returns the (possibly cached) full resource snapshot for
// the scope. A failed refresh surfaces only to this caller; it does not
// evict a still-valid entry.
func (s *Service) GetInventory(ctx context.Context, scopeID string) (*Snapshot, error) {
	if snap, ok := s.inventory.Get(scopeID); ok {
		s.recordLookup(ctx, namespaceInventory, true)
		s.logger.LogCacheHit(ctx, namespaceInventory, scopeID)
		return snap, nil
	}
	s.recordLookup(ctx, namespaceInventory, false)

	snap, err := s.refreshInventory(ctx, scopeID)
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *Service) refreshInventory(ctx context.Context, scopeID string) (*Snapshot, error) {
	s.logger.LogFetchStart(ctx, namespaceInventory, scopeID)
	start := s.clock.Now()

	resources, err := s.client.ListResources(ctx, scopeID)
	if err != nil {
		s.logger.LogFetchError(ctx, namespaceInventory, scopeID, err)
		return nil, &types.InventoryFetchError{Scope: scopeID, Err: err}
	}

	elapsed := s.clock.Now().Sub(start)
	s.logger.LogFetchComplete(ctx, namespaceInventory, scopeID, len(resources), float64(elapsed.Milliseconds()))
	if s.metrics != nil {
		s.metrics.RecordFetch(ctx, namespaceInventory, elapsed.Seconds(), len(resources))
	}

	snap := NewSnapshot(scopeID, resources, s.clock.Now())
	s.inventory.Put(scopeID, snap)
	return snap, nil
}

// GetHealthEvents returns the (possibly cached) health events for the
// scope. Same hit/miss/failure contract as GetInventory.
func (s *Service) GetHealthEvents(ctx context.Context, scopeID string) ([]types.HealthEvent, error) {
	if events, ok := s.health.Get(scopeID); ok {
		s.recordLookup(ctx, namespaceHealth, true)
		s.logger.LogCacheHit(ctx, namespaceHealth, scopeID)
		return events, nil
	}
	s.recordLookup(ctx, namespaceHealth, false)

	s.logger.LogFetchStart(ctx, namespaceHealth, scopeID)
	start := s.clock.Now()

	events, err := s.client.ListHealthEvents(ctx, scopeID)
	if err != nil {
		s.logger.LogFetchError(ctx, namespaceHealth, scopeID, err)
		return nil, &types.InventoryFetchError{Scope: scopeID, Err: err}
	}

	elapsed := s.clock.Now().Sub(start)
	s.logger.LogFetchComplete(ctx, namespaceHealth, scopeID, len(events), float64(elapsed.Milliseconds()))
	if s.metrics != nil {
		s.metrics.RecordFetch(ctx, namespaceHealth, elapsed.Seconds(), len(events))
	}

	s.health.Put(scopeID, events)
	return events, nil
}

// GetResource serves a point lookup from the cached snapshot when possible,
// falling back to the remote detail fetch.
func (s *Service) GetResource(ctx context.Context, scopeID, resourceID string) (*types.Resource, error) {
	if snap, ok := s.inventory.Get(scopeID); ok {
		if r, found := snap.Get(resourceID); found {
			return r, nil
		}
	}
	return s.client.GetResource(ctx, resourceID)
}

// Invalidate drops both cache entries for the scope.
func (s *Service) Invalidate(scopeID string) {
	s.inventory.Invalidate(scopeID)
	s.health.Invalidate(scopeID)
}

// Stats returns cache counters for both namespaces.
func (s *Service) Stats() (inventory, health cache.Stats) {
	return s.inventory.Stats(), s.health.Stats()
}

func (s *Service) recordLookup(ctx context.Context, namespace string, hit bool) {
	if s.metrics != nil {
		s.metrics.RecordCacheLookup(ctx, namespace, hit)
	}
}
