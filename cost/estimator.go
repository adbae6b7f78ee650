package cost

import "context"

// Utilization is the signal driving the rightsizing estimate. Where it
// comes from (real telemetry or a simulation) is the source's concern.
type Utilization struct {
	AverageCPUPercent float64 `json:"average_cpu_percent"`
	PeakCPUPercent    float64 `json:"peak_cpu_percent"`
	ConsistentlyLow   bool    `json:"consistently_low"`
}

// UtilizationSource supplies utilization for a resource.
type UtilizationSource interface {
	Utilization(ctx context.Context, resourceID string) (Utilization, error)
}

// SimulatedSource stands in for a metrics backend with a fixed signal.
type SimulatedSource struct {
	Average float64
	Peak    float64
}

// NewSimulatedSource returns the stand-in source used when no telemetry
// backend is wired.
func NewSimulatedSource() SimulatedSource {
	return SimulatedSource{Average: 25, Peak: 60}
}

func (s SimulatedSource) Utilization(_ context.Context, _ string) (Utilization, error) {
	return Utilization{
		AverageCPUPercent: s.Average,
		PeakCPUPercent:    s.Peak,
		ConsistentlyLow:   s.Average < lowUsageThreshold,
	}, nil
}

// lowUsageThreshold is the average CPU percentage below which a workload
// counts as consistently low usage.
const lowUsageThreshold = 30.0

// Monthly prices by compute/database SKU, and the next-smaller step of
// each ladder. A SKU with no smaller step cannot yield a saving.
var (
	skuMonthly = map[string]float64{
		"standard_b2s":    30.37,
		"standard_d2s_v3": 70.08,
		"standard_d4s_v3": 140.16,
		"standard_d8s_v3": 280.32,
		"standard_e4s_v3": 162.06,
		"standard_e8s_v3": 324.12,
		"s0":              14.72,
		"s1":              29.43,
		"s2":              73.58,
		"s3":              147.17,
		"p1":              465.00,
		"p2":              930.00,
	}

	skuLadder = map[string]string{
		"standard_d8s_v3": "standard_d4s_v3",
		"standard_d4s_v3": "standard_d2s_v3",
		"standard_d2s_v3": "standard_b2s",
		"standard_e8s_v3": "standard_e4s_v3",
		"p2":              "p1",
		"p1":              "s3",
		"s3":              "s2",
		"s2":              "s1",
		"s1":              "s0",
	}
)

// Saving is one rightsizing estimate.
type Saving struct {
	CurrentSKU     string  `json:"current_sku"`
	CurrentMonthly float64 `json:"current_monthly"`
	SuggestedSKU   string  `json:"suggested_sku,omitempty"`
	MonthlySaving  float64 `json:"monthly_saving"`
}

// EstimateSaving derives the potential monthly saving for a compute or
// database resource. Pure: the same SKU and utilization always yield the
// same result, and the saving is never negative.
func EstimateSaving(sku string, u Utilization) Saving {
	key := normalizeSKU(sku)
	saving := Saving{
		CurrentSKU:     sku,
		CurrentMonthly: skuMonthly[key],
	}

	if !u.ConsistentlyLow && u.AverageCPUPercent >= lowUsageThreshold {
		return saving
	}

	smaller, ok := skuLadder[key]
	if !ok {
		return saving
	}
	current, haveCurrent := skuMonthly[key]
	smallerPrice, haveSmaller := skuMonthly[smaller]
	if !haveCurrent || !haveSmaller || smallerPrice >= current {
		return saving
	}

	saving.SuggestedSKU = smaller
	saving.MonthlySaving = current - smallerPrice
	return saving
}
