// Package cost provides the heuristic cost models: static SKU price tables
// and a utilization-informed savings estimate. All prices are monthly USD.
// Deliberately simple and transparent, no external pricing API.
package cost

import "strings"

// Default unit prices applied when a SKU is unknown. Unknown SKUs are
// never an error.
const (
	defaultDiskGBMonth       = 0.05
	defaultPublicAddressFlat = 3.65
	defaultLoadBalancerFlat  = 18.25

	// SnapshotGBMonth is the flat per-GB snapshot rate.
	SnapshotGBMonth = 0.05
)

// Tables holds the static SKU-indexed price tables.
type Tables struct {
	diskGBMonth       map[string]float64
	publicAddressFlat map[string]float64
	loadBalancerFlat  map[string]float64
}

// Overrides replaces individual table entries, typically from config.
type Overrides struct {
	DiskGBMonth       map[string]float64
	PublicAddressFlat map[string]float64
	LoadBalancerFlat  map[string]float64
}

// DefaultTables returns the built-in price tables.
func DefaultTables() *Tables {
	return &Tables{
		diskGBMonth: map[string]float64{
			"standard_lrs":    0.05,
			"standardssd_lrs": 0.075,
			"premium_lrs":     0.135,
			"ultrassd_lrs":    0.30,
		},
		publicAddressFlat: map[string]float64{
			"basic":    2.60,
			"standard": 3.65,
		},
		loadBalancerFlat: map[string]float64{
			"basic":    0,
			"standard": 18.25,
			"gateway":  23.25,
		},
	}
}

// NewTables returns the default tables with overrides applied.
func NewTables(overrides Overrides) *Tables {
	t := DefaultTables()
	for sku, price := range overrides.DiskGBMonth {
		t.diskGBMonth[normalizeSKU(sku)] = price
	}
	for sku, price := range overrides.PublicAddressFlat {
		t.publicAddressFlat[normalizeSKU(sku)] = price
	}
	for sku, price := range overrides.LoadBalancerFlat {
		t.loadBalancerFlat[normalizeSKU(sku)] = price
	}
	return t
}

// DiskGBMonth returns the per-GB monthly rate for a disk SKU.
func (t *Tables) DiskGBMonth(sku string) float64 {
	return lookup(t.diskGBMonth, sku, defaultDiskGBMonth)
}

// PublicAddressFlat returns the flat monthly fee for a public address tier.
func (t *Tables) PublicAddressFlat(sku string) float64 {
	return lookup(t.publicAddressFlat, sku, defaultPublicAddressFlat)
}

// LoadBalancerFlat returns the flat monthly fee for a load balancer tier.
func (t *Tables) LoadBalancerFlat(sku string) float64 {
	return lookup(t.loadBalancerFlat, sku, defaultLoadBalancerFlat)
}

func lookup(table map[string]float64, sku string, fallback float64) float64 {
	if price, ok := table[normalizeSKU(sku)]; ok {
		return price
	}
	return fallback
}

func normalizeSKU(sku string) string {
	return strings.ToLower(strings.TrimSpace(sku))
}
