package analyzer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yairfalse/peili/types"
)

func TestExtract_FindsIDReferences(t *testing.T) {
	e := NewDependencyExtractor()

	r := types.Resource{
		ID: "/subscriptions/s/resourceGroups/rg/providers/Microsoft.Compute/virtualMachines/vm1",
		Properties: types.Properties{
			"networkInterfaceId": types.Str("/subscriptions/s/resourceGroups/rg/providers/Microsoft.Network/networkInterfaces/n1"),
			"osDiskId":           types.Str("/subscriptions/s/resourceGroups/rg/providers/Microsoft.Compute/disks/d1"),
			"vmSize":             types.Str("Standard_D2s_v3"),
			"adminUserId":        types.Str("alice"),
			"instanceId":         types.Num(3),
		},
	}

	edges, err := e.Extract(r)
	require.NoError(t, err)
	require.Len(t, edges, 2)

	// Sorted by property key for deterministic output.
	assert.Equal(t, "networkInterfaceId", edges[0].DependencyKind)
	assert.Equal(t, "osDiskId", edges[1].DependencyKind)
	for _, edge := range edges {
		assert.Equal(t, r.ID, edge.FromResourceID)
		assert.True(t, types.LooksLikeResourceID(edge.ToResourceID))
	}
}

func TestExtract_CaseInsensitiveSuffix(t *testing.T) {
	e := NewDependencyExtractor()

	r := types.Resource{
		ID: "/subscriptions/s/x",
		Properties: types.Properties{
			"sourceResourceID": types.Str("/subscriptions/s/resourceGroups/rg/providers/p/t/other"),
		},
	}

	edges, err := e.Extract(r)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, "sourceResourceID", edges[0].DependencyKind)
}

func TestExtract_NoProperties(t *testing.T) {
	e := NewDependencyExtractor()

	edges, err := e.Extract(types.Resource{ID: "/subscriptions/s/x", Properties: types.Properties{}})
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestAnalyzeSubgraph_OmitsResourcesWithoutEdges(t *testing.T) {
	e := NewDependencyExtractor()

	resources := []types.Resource{
		{
			ID: "/subscriptions/s/a",
			Properties: types.Properties{
				"diskId": types.Str("/subscriptions/s/resourceGroups/rg/providers/p/disks/d"),
			},
		},
		{
			ID:         "/subscriptions/s/b",
			Properties: types.Properties{"size": types.Num(4)},
		},
	}

	results, skipped := e.AnalyzeSubgraph(context.Background(), resources)
	assert.Zero(t, skipped)
	require.Len(t, results, 1)
	assert.Equal(t, "/subscriptions/s/a", results[0].Resource.ID)
}
