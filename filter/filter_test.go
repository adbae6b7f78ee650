package filter

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yairfalse/peili/types"
)

func sampleResources() []types.Resource {
	return []types.Resource{
		{
			ID:            "/subscriptions/s/resourceGroups/rg-app/providers/Microsoft.Compute/virtualMachines/vm1",
			Type:          "Microsoft.Compute/virtualMachines",
			ResourceGroup: "rg-app",
			Location:      "westeurope",
			Tags:          map[string]string{"Environment": "Prod"},
		},
		{
			ID:            "/subscriptions/s/resourceGroups/rg-app/providers/Microsoft.Compute/disks/d1",
			Type:          "Microsoft.Compute/disks",
			ResourceGroup: "rg-app",
			Location:      "northeurope",
			Tags:          map[string]string{"Environment": "Prod"},
		},
		{
			ID:                "/subscriptions/s/resourceGroups/rg-db/providers/Microsoft.Sql/servers/db1",
			Type:              "Microsoft.Sql/servers",
			ResourceGroup:     "rg-db",
			Location:          "westeurope",
			ProvisioningState: "Deleting",
		},
	}
}

func TestApply_NoCriteriaIsNoOp(t *testing.T) {
	p := New(nil)

	result, err := p.Apply(context.Background(), sampleResources(), Criteria{})
	require.NoError(t, err)
	assert.Len(t, result.Resources, 3)
}

func TestApply_PredicatesANDTogether(t *testing.T) {
	p := New(nil)

	result, err := p.Apply(context.Background(), sampleResources(), Criteria{
		ResourceGroup: "RG-APP",
		Location:      "westeurope",
	})
	require.NoError(t, err)
	require.Len(t, result.Resources, 1)
	assert.Equal(t, "Microsoft.Compute/virtualMachines", result.Resources[0].Type)
}

func TestApply_TagPresenceAndValue(t *testing.T) {
	p := New(nil)

	byKey, err := p.Apply(context.Background(), sampleResources(), Criteria{TagKey: "Environment"})
	require.NoError(t, err)
	assert.Len(t, byKey.Resources, 2)

	byValue, err := p.Apply(context.Background(), sampleResources(), Criteria{TagKey: "Environment", TagValue: "Prod"})
	require.NoError(t, err)
	assert.Len(t, byValue.Resources, 2)

	noMatch, err := p.Apply(context.Background(), sampleResources(), Criteria{TagKey: "Environment", TagValue: "Dev"})
	require.NoError(t, err)
	assert.Empty(t, noMatch.Resources)
}

func TestApply_ExcludeDeprovisioning(t *testing.T) {
	p := New(nil)

	result, err := p.Apply(context.Background(), sampleResources(), Criteria{ExcludeDeprovisioning: true})
	require.NoError(t, err)
	assert.Len(t, result.Resources, 2)
}

func TestApply_MaxResultsPreservesOrder(t *testing.T) {
	var resources []types.Resource
	for i := 0; i < 50; i++ {
		resources = append(resources, types.Resource{
			ID:   fmt.Sprintf("/subscriptions/s/resourceGroups/rg/providers/p/t/r%02d", i),
			Type: "p/t",
		})
	}

	p := New(nil)
	result, err := p.Apply(context.Background(), resources, Criteria{MaxResults: 5})
	require.NoError(t, err)

	require.Len(t, result.Resources, 5)
	for i := 0; i < 5; i++ {
		assert.Equal(t, resources[i].ID, result.Resources[i].ID)
	}
}

func TestApply_Idempotent(t *testing.T) {
	p := New(nil)
	criteria := Criteria{ResourceGroup: "rg-app", MaxResults: 10}

	once, err := p.Apply(context.Background(), sampleResources(), criteria)
	require.NoError(t, err)
	twice, err := p.Apply(context.Background(), once.Resources, criteria)
	require.NoError(t, err)

	assert.Equal(t, once.Resources, twice.Resources)
}

func TestApply_InvalidCriteria(t *testing.T) {
	p := New(nil)

	_, err := p.Apply(context.Background(), sampleResources(), Criteria{MaxResults: -1})
	var validation *types.ValidationError
	require.True(t, errors.As(err, &validation))

	_, err = p.Apply(context.Background(), sampleResources(), Criteria{TagValue: "Prod"})
	require.True(t, errors.As(err, &validation))
	assert.Equal(t, "tag_value", validation.Field)
}

// staticCompliance returns fixed missing tags per resource ID.
type staticCompliance struct {
	missing map[string][]string
}

func (s staticCompliance) MissingTags(_ context.Context, r types.Resource) ([]string, error) {
	return s.missing[r.ID], nil
}

func TestApply_ComplianceOverlayWarnsWithoutFiltering(t *testing.T) {
	resources := sampleResources()
	p := New(staticCompliance{missing: map[string][]string{
		resources[2].ID: {"Environment", "Owner"},
	}})

	result, err := p.Apply(context.Background(), resources, Criteria{})
	require.NoError(t, err)

	assert.Len(t, result.Resources, 3)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, resources[2].ID, result.Warnings[0].ResourceID)
	assert.Equal(t, []string{"Environment", "Owner"}, result.Warnings[0].MissingTags)
}
