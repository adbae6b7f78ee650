package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yairfalse/peili/types"
)

// fakeClock steps time manually.
type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time          { return f.now }
func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

// fakeClient counts remote calls and can be told to fail.
type fakeClient struct {
	resources  []types.Resource
	events     []types.HealthEvent
	listCalls  int
	eventCalls int
	fail       bool
}

func (f *fakeClient) ListResources(_ context.Context, _ string) ([]types.Resource, error) {
	f.listCalls++
	if f.fail {
		return nil, errors.New("remote unavailable")
	}
	return f.resources, nil
}

func (f *fakeClient) GetResource(_ context.Context, id string) (*types.Resource, error) {
	for i := range f.resources {
		if f.resources[i].ID == id {
			return &f.resources[i], nil
		}
	}
	return nil, nil
}

func (f *fakeClient) LookupScopeByName(_ context.Context, name string) (string, error) {
	return "", &types.ScopeNotFoundError{Candidate: name}
}

func (f *fakeClient) ListHealthEvents(_ context.Context, _ string) ([]types.HealthEvent, error) {
	f.eventCalls++
	if f.fail {
		return nil, errors.New("remote unavailable")
	}
	return f.events, nil
}

func testResources() []types.Resource {
	return []types.Resource{
		{ID: "/subscriptions/s/resourceGroups/rg/providers/Microsoft.Compute/disks/d1", Type: "Microsoft.Compute/disks"},
		{ID: "/subscriptions/s/resourceGroups/rg/providers/Microsoft.Compute/virtualMachines/vm1", Type: "Microsoft.Compute/virtualMachines"},
	}
}

func newTestService(client *fakeClient) (*Service, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	svc := NewService(client, Options{
		InventoryTTL: 30 * time.Minute,
		HealthTTL:    10 * time.Minute,
		Clock:        clock,
	})
	return svc, clock
}

func TestGetInventory_SecondCallServedFromCache(t *testing.T) {
	client := &fakeClient{resources: testResources()}
	svc, clock := newTestService(client)
	ctx := context.Background()

	first, err := svc.GetInventory(ctx, "scope-a")
	require.NoError(t, err)

	clock.Advance(29 * time.Minute)
	second, err := svc.GetInventory(ctx, "scope-a")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, client.listCalls)
}

func TestGetInventory_RefetchAfterTTL(t *testing.T) {
	client := &fakeClient{resources: testResources()}
	svc, clock := newTestService(client)
	ctx := context.Background()

	_, err := svc.GetInventory(ctx, "scope-a")
	require.NoError(t, err)

	clock.Advance(31 * time.Minute)
	_, err = svc.GetInventory(ctx, "scope-a")
	require.NoError(t, err)

	assert.Equal(t, 2, client.listCalls)
}

func TestGetInventory_FailureDoesNotPoisonCache(t *testing.T) {
	client := &fakeClient{resources: testResources()}
	svc, clock := newTestService(client)
	ctx := context.Background()

	snap, err := svc.GetInventory(ctx, "scope-a")
	require.NoError(t, err)

	// Entry expires, next refresh fails.
	clock.Advance(31 * time.Minute)
	client.fail = true
	_, err = svc.GetInventory(ctx, "scope-a")

	var fetchErr *types.InventoryFetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, "scope-a", fetchErr.Scope)

	// Recovery: the remote comes back, a fresh snapshot lands.
	client.fail = false
	again, err := svc.GetInventory(ctx, "scope-a")
	require.NoError(t, err)
	assert.Equal(t, snap.Len(), again.Len())
}

func TestGetInventory_FailureKeepsValidEntry(t *testing.T) {
	client := &fakeClient{resources: testResources()}
	svc, _ := newTestService(client)
	ctx := context.Background()

	snap, err := svc.GetInventory(ctx, "scope-a")
	require.NoError(t, err)

	// A different scope fails; scope-a's entry is untouched.
	client.fail = true
	_, err = svc.GetInventory(ctx, "scope-b")
	require.Error(t, err)

	client.fail = true
	again, err := svc.GetInventory(ctx, "scope-a")
	require.NoError(t, err)
	assert.Same(t, snap, again)
}

func TestGetHealthEvents_CachedIndependently(t *testing.T) {
	client := &fakeClient{
		resources: testResources(),
		events:    []types.HealthEvent{{ID: "e1", Status: "Unavailable"}},
	}
	svc, clock := newTestService(client)
	ctx := context.Background()

	_, err := svc.GetHealthEvents(ctx, "scope-a")
	require.NoError(t, err)
	_, err = svc.GetHealthEvents(ctx, "scope-a")
	require.NoError(t, err)
	assert.Equal(t, 1, client.eventCalls)

	// Health TTL is shorter than inventory TTL.
	clock.Advance(11 * time.Minute)
	_, err = svc.GetHealthEvents(ctx, "scope-a")
	require.NoError(t, err)
	assert.Equal(t, 2, client.eventCalls)
}

func TestGetResource_ServedFromSnapshot(t *testing.T) {
	client := &fakeClient{resources: testResources()}
	svc, _ := newTestService(client)
	ctx := context.Background()

	_, err := svc.GetInventory(ctx, "scope-a")
	require.NoError(t, err)

	r, err := svc.GetResource(ctx, "scope-a", "/subscriptions/s/resourceGroups/rg/providers/Microsoft.Compute/disks/d1")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "Microsoft.Compute/disks", r.Type)
}

func TestSnapshot_CaseInsensitiveLookup(t *testing.T) {
	snap := NewSnapshot("s", testResources(), time.Now())

	r, ok := snap.Get("/SUBSCRIPTIONS/S/resourcegroups/RG/providers/microsoft.compute/disks/D1")
	require.True(t, ok)
	assert.Equal(t, "Microsoft.Compute/disks", r.Type)

	_, ok = snap.Get("/subscriptions/s/unknown")
	assert.False(t, ok)
}

func TestSnapshot_PreservesEnumerationOrder(t *testing.T) {
	resources := testResources()
	snap := NewSnapshot("s", resources, time.Now())

	require.Equal(t, len(resources), snap.Len())
	for i := range resources {
		assert.Equal(t, resources[i].ID, snap.Resources[i].ID)
	}
}
