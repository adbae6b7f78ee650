package analyzer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yairfalse/peili/cost"
	"github.com/yairfalse/peili/types"
)

// snapshotRetention is the age past which a snapshot counts as stale.
const snapshotRetention = 30 * 24 * time.Hour

func builtinRules() []Rule {
	return []Rule{
		diskRule(),
		networkInterfaceRule(),
		securityGroupRule(),
		publicAddressRule(),
		loadBalancerRule(),
		snapshotRule(),
	}
}

// diskRule flags a disk when its attachment owner is empty OR its state is
// explicitly "Unattached". Either signal alone is sufficient.
func diskRule() Rule {
	return Rule{
		Category:     "unattached disk",
		ResourceType: "Microsoft.Compute/disks",
		Detect: func(r types.Resource, _ time.Time) (string, map[string]string, bool) {
			state := r.Properties.StringAt("diskState")
			noOwner := r.Properties.EmptyAt("managedBy")
			unattached := strings.EqualFold(state, "Unattached")
			if !noOwner && !unattached {
				return "", nil, false
			}

			reason := "disk has no attachment owner"
			if unattached {
				reason = "disk state is Unattached"
			}
			return reason, map[string]string{
				"disk_state": state,
				"size_gb":    strconv.FormatFloat(r.Properties.NumberAt("diskSizeGB"), 'f', -1, 64),
			}, true
		},
		Estimate: func(r types.Resource, tables *cost.Tables) float64 {
			return r.Properties.NumberAt("diskSizeGB") * tables.DiskGBMonth(r.SKU)
		},
	}
}

// networkInterfaceRule flags an interface with no virtual machine
// association, including an empty structural placeholder.
func networkInterfaceRule() Rule {
	return Rule{
		Category:     "unused network interface",
		ResourceType: "Microsoft.Network/networkInterfaces",
		Detect: func(r types.Resource, _ time.Time) (string, map[string]string, bool) {
			if !r.Properties.EmptyAt("virtualMachine") {
				return "", nil, false
			}
			return "network interface is not attached to any virtual machine", nil, true
		},
		Estimate: func(_ types.Resource, _ *cost.Tables) float64 {
			// Interfaces themselves are free; flagged for hygiene only.
			return 0
		},
	}
}

// securityGroupRule flags a group attached to neither interfaces nor
// subnets.
func securityGroupRule() Rule {
	return Rule{
		Category:     "unused security group",
		ResourceType: "Microsoft.Network/networkSecurityGroups",
		Detect: func(r types.Resource, _ time.Time) (string, map[string]string, bool) {
			if !r.Properties.EmptyAt("networkInterfaces") || !r.Properties.EmptyAt("subnets") {
				return "", nil, false
			}
			return "security group has no attached interfaces or subnets", nil, true
		},
		Estimate: func(_ types.Resource, _ *cost.Tables) float64 {
			return 0
		},
	}
}

// publicAddressRule flags an address with no ip-configuration association.
func publicAddressRule() Rule {
	return Rule{
		Category:     "unused public address",
		ResourceType: "Microsoft.Network/publicIPAddresses",
		Detect: func(r types.Resource, _ time.Time) (string, map[string]string, bool) {
			if !r.Properties.EmptyAt("ipConfiguration") {
				return "", nil, false
			}
			return "public address is not associated with any ip configuration", nil, true
		},
		Estimate: func(r types.Resource, tables *cost.Tables) float64 {
			return tables.PublicAddressFlat(r.SKU)
		},
	}
}

// loadBalancerRule flags a balancer whose backend address pools are all
// empty.
func loadBalancerRule() Rule {
	return Rule{
		Category:     "empty load balancer",
		ResourceType: "Microsoft.Network/loadBalancers",
		Detect: func(r types.Resource, _ time.Time) (string, map[string]string, bool) {
			pools, ok := r.Properties["backendAddressPools"].AsList()
			if ok {
				for _, pool := range pools {
					if !backendPoolEmpty(pool) {
						return "", nil, false
					}
				}
			}
			return "all backend address pools are empty", map[string]string{
				"pool_count": strconv.Itoa(len(pools)),
			}, true
		},
		Estimate: func(r types.Resource, tables *cost.Tables) float64 {
			return tables.LoadBalancerFlat(r.SKU)
		},
	}
}

func backendPoolEmpty(pool types.Value) bool {
	obj, ok := pool.AsMap()
	if !ok {
		return true
	}
	props, ok := obj["properties"].AsMap()
	if !ok {
		return true
	}
	configs, ok := props["backendIPConfigurations"].AsList()
	return !ok || len(configs) == 0
}

// snapshotRule flags a snapshot older than the retention threshold.
func snapshotRule() Rule {
	return Rule{
		Category:     "stale snapshot",
		ResourceType: "Microsoft.Compute/snapshots",
		Detect: func(r types.Resource, now time.Time) (string, map[string]string, bool) {
			created, err := time.Parse(time.RFC3339, r.Properties.StringAt("timeCreated"))
			if err != nil {
				return "", nil, false
			}
			age := now.Sub(created)
			if age <= snapshotRetention {
				return "", nil, false
			}
			days := int(age.Hours() / 24)
			return fmt.Sprintf("snapshot is %d days old", days), map[string]string{
				"age_days": strconv.Itoa(days),
			}, true
		},
		Estimate: func(r types.Resource, _ *cost.Tables) float64 {
			return r.Properties.NumberAt("diskSizeGB") * cost.SnapshotGBMonth
		},
	}
}
