package arm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yairfalse/peili/provider"
	"github.com/yairfalse/peili/types"
)

// testConfig points the SDK pipeline at a local server, with retries off
// so error paths fail fast.
func testConfig(endpoint string) Config {
	return Config{
		Endpoint: endpoint,
		Tokens:   provider.StaticToken("test-token"),
		Retry:    policy.RetryOptions{MaxRetries: -1},
	}
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(testConfig(server.URL))
	require.NoError(t, err)
	return client
}

func TestListResources_FollowsPages(t *testing.T) {
	var server *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/subscriptions/sub-1/resources", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		fmt.Fprintf(w, `{
			"value": [{
				"id": "/subscriptions/sub-1/resourceGroups/rg-a/providers/Microsoft.Compute/disks/d1",
				"name": "d1",
				"type": "Microsoft.Compute/disks",
				"location": "westeurope",
				"sku": {"name": "Standard_LRS"},
				"provisioningState": "Succeeded",
				"properties": {"diskSizeGB": 100, "diskState": "Unattached"}
			}],
			"nextLink": "%s/page2"
		}`, server.URL)
	})
	mux.HandleFunc("/page2", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{
			"value": [{
				"id": "/subscriptions/sub-1/resourceGroups/rg-b/providers/Microsoft.Network/networkInterfaces/n1",
				"name": "n1",
				"type": "Microsoft.Network/networkInterfaces",
				"location": "westeurope",
				"tags": {"Environment": "Prod"}
			}]
		}`)
	})
	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := New(testConfig(server.URL))
	require.NoError(t, err)

	resources, err := client.ListResources(context.Background(), "sub-1")
	require.NoError(t, err)
	require.Len(t, resources, 2)

	disk := resources[0]
	assert.Equal(t, "rg-a", disk.ResourceGroup)
	assert.Equal(t, "sub-1", disk.Scope)
	assert.Equal(t, "Standard_LRS", disk.SKU)
	assert.Equal(t, "Succeeded", disk.ProvisioningState)
	assert.Equal(t, 100.0, disk.Properties.NumberAt("diskSizeGB"))

	nic := resources[1]
	assert.Equal(t, "Prod", nic.TagValue("Environment"))
	assert.NotNil(t, nic.Properties)
}

func TestGetResource_MapsPropertyBag(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{
			"id": "/subscriptions/sub-1/resourceGroups/rg-a/providers/Microsoft.Compute/disks/d1",
			"name": "d1",
			"type": "Microsoft.Compute/disks",
			"location": "westeurope",
			"sku": {"name": "Premium_LRS"},
			"properties": {"diskState": "Unattached", "provisioningState": "Succeeded"}
		}`)
	}))

	r, err := client.GetResource(context.Background(), "/subscriptions/sub-1/resourceGroups/rg-a/providers/Microsoft.Compute/disks/d1")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "rg-a", r.ResourceGroup)
	assert.Equal(t, "sub-1", r.Scope)
	assert.Equal(t, "Premium_LRS", r.SKU)
	assert.Equal(t, "Succeeded", r.ProvisioningState)
	assert.Equal(t, "Unattached", r.Properties.StringAt("diskState"))
}

func TestGetResource_NotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error": {"code": "ResourceNotFound", "message": "no such resource"}}`)
	}))

	r, err := client.GetResource(context.Background(), "/subscriptions/sub-1/resourceGroups/rg/providers/x/y/z")
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestLookupScopeByName(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"value": [
			{"subscriptionId": "11111111-1111-1111-1111-111111111111", "displayName": "Production"},
			{"subscriptionId": "22222222-2222-2222-2222-222222222222", "displayName": "Staging"}
		]}`)
	}))

	id, err := client.LookupScopeByName(context.Background(), "production")
	require.NoError(t, err)
	assert.Equal(t, "11111111-1111-1111-1111-111111111111", id)

	_, err = client.LookupScopeByName(context.Background(), "nonexistent")
	var notFound *types.ScopeNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "nonexistent", notFound.Candidate)
}

func TestListHealthEvents_MapsAvailabilityStatuses(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"value": [
			{
				"id": "/subscriptions/sub-1/resourceGroups/rg-a/providers/Microsoft.Compute/virtualMachines/vm1/providers/Microsoft.ResourceHealth/availabilityStatuses/current",
				"name": "current",
				"properties": {
					"availabilityState": "Unavailable",
					"summary": "The virtual machine is unavailable",
					"reasonType": "Unplanned",
					"occurredTime": "2026-08-01T10:00:00Z"
				}
			},
			{
				"id": "/subscriptions/sub-1/resourceGroups/rg-a/providers/Microsoft.Compute/virtualMachines/vm2/providers/Microsoft.ResourceHealth/availabilityStatuses/current",
				"name": "current",
				"properties": {
					"availabilityState": "Available",
					"summary": "Recovered",
					"occurredTime": "2026-08-01T08:00:00Z",
					"recentlyResolved": {"resolvedTime": "2026-08-01T09:30:00Z"}
				}
			}
		]}`)
	}))

	events, err := client.ListHealthEvents(context.Background(), "sub-1")
	require.NoError(t, err)
	require.Len(t, events, 2)

	down := events[0]
	assert.Equal(t, "/subscriptions/sub-1/resourceGroups/rg-a/providers/Microsoft.Compute/virtualMachines/vm1", down.ResourceID)
	assert.Equal(t, "unavailable", down.Status)
	assert.Equal(t, "Unplanned", down.Cause)
	assert.False(t, down.StartedAt.IsZero())
	assert.Nil(t, down.ResolvedAt)

	recovered := events[1]
	assert.Equal(t, "available", recovered.Status)
	require.NotNil(t, recovered.ResolvedAt)
}

func TestListResources_ServerError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, `{"error": {"code": "BadGateway"}}`)
	}))

	_, err := client.ListResources(context.Background(), "sub-1")
	assert.Error(t, err)
}

func TestResourceGroupFromID(t *testing.T) {
	assert.Equal(t, "rg-a", resourceGroupFromID("/subscriptions/s/resourceGroups/rg-a/providers/p/t/n"))
	assert.Equal(t, "", resourceGroupFromID("/subscriptions/s/providers/p/t/n"))
}
