package cost

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTables_KnownAndUnknownSKUs(t *testing.T) {
	tables := DefaultTables()

	assert.Equal(t, 0.05, tables.DiskGBMonth("Standard_LRS"))
	assert.Equal(t, 0.135, tables.DiskGBMonth("Premium_LRS"))
	// Unknown SKU falls back to the documented default, never errors.
	assert.Equal(t, 0.05, tables.DiskGBMonth("Exotic_ZRS"))

	assert.Equal(t, 2.60, tables.PublicAddressFlat("Basic"))
	assert.Equal(t, 3.65, tables.PublicAddressFlat(""))

	assert.Equal(t, 0.0, tables.LoadBalancerFlat("Basic"))
	assert.Equal(t, 18.25, tables.LoadBalancerFlat("Standard"))
}

func TestNewTables_Overrides(t *testing.T) {
	tables := NewTables(Overrides{
		DiskGBMonth: map[string]float64{"Premium_LRS": 0.20},
	})

	assert.Equal(t, 0.20, tables.DiskGBMonth("premium_lrs"))
	assert.Equal(t, 0.05, tables.DiskGBMonth("Standard_LRS"))
}

func TestEstimateSaving_LowUsage(t *testing.T) {
	low := Utilization{AverageCPUPercent: 10, PeakCPUPercent: 30}

	saving := EstimateSaving("Standard_D4s_v3", low)
	assert.Equal(t, "standard_d2s_v3", saving.SuggestedSKU)
	assert.InDelta(t, 70.08, saving.MonthlySaving, 0.001)
}

func TestEstimateSaving_HighUsageYieldsZero(t *testing.T) {
	busy := Utilization{AverageCPUPercent: 85, PeakCPUPercent: 99}

	saving := EstimateSaving("Standard_D4s_v3", busy)
	assert.Empty(t, saving.SuggestedSKU)
	assert.Zero(t, saving.MonthlySaving)
}

func TestEstimateSaving_NeverNegative(t *testing.T) {
	low := Utilization{ConsistentlyLow: true}

	for _, sku := range []string{"Standard_B2s", "S0", "unknown-sku", "", "Standard_D8s_v3", "P2"} {
		saving := EstimateSaving(sku, low)
		assert.GreaterOrEqual(t, saving.MonthlySaving, 0.0, sku)
	}
}

func TestEstimateSaving_Pure(t *testing.T) {
	u := Utilization{AverageCPUPercent: 12}

	first := EstimateSaving("S2", u)
	second := EstimateSaving("S2", u)
	assert.Equal(t, first, second)
}

func TestSimulatedSource(t *testing.T) {
	src := NewSimulatedSource()

	u, err := src.Utilization(context.Background(), "/subscriptions/s/x")
	require.NoError(t, err)
	assert.Equal(t, 25.0, u.AverageCPUPercent)
	assert.True(t, u.ConsistentlyLow)
}
