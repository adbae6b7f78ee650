package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yairfalse/peili/types"
)

func TestTagPolicy_MissingTags(t *testing.T) {
	ctx := context.Background()
	p, err := NewTagPolicy(ctx, []string{"Environment", "Owner", "CostCenter"})
	require.NoError(t, err)

	tests := []struct {
		name string
		tags map[string]string
		want []string
	}{
		{
			name: "all present",
			tags: map[string]string{"Environment": "prod", "Owner": "team-a", "CostCenter": "42"},
			want: []string{},
		},
		{
			name: "some missing",
			tags: map[string]string{"Environment": "prod"},
			want: []string{"Owner", "CostCenter"},
		},
		{
			name: "untagged",
			tags: map[string]string{},
			want: []string{"Environment", "Owner", "CostCenter"},
		},
		{
			name: "empty value still counts as present",
			tags: map[string]string{"Environment": "", "Owner": "x", "CostCenter": "y"},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			missing, err := p.MissingTags(ctx, types.Resource{Tags: tt.tags})
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, missing)
		})
	}
}

func TestTagPolicy_NoRequiredTags(t *testing.T) {
	ctx := context.Background()
	p, err := NewTagPolicy(ctx, nil)
	require.NoError(t, err)

	missing, err := p.MissingTags(ctx, types.Resource{})
	require.NoError(t, err)
	assert.Empty(t, missing)
}
