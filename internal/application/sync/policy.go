package sync

import (
	"fmt"

	"github.com/aismartspeaker9-cloud/zenheart-erp/internal/config"
	domain "github.com/aismartspeaker9-cloud/zenheart-erp/internal/domain/order"
)

// SplitPolicyFromConfig maps the configured policy name to a domain policy.
func SplitPolicyFromConfig(cfg config.SyncConfig) (domain.SplitPolicy, error) {
	switch cfg.SplitPolicy {
	case "", "single":
		return domain.SingleGroupPolicy{}, nil
	case "region":
		fallback := cfg.RegionFallback
		if fallback == "" {
			fallback = "other"
		}
		return domain.RegionPolicy{
			Regions:  cfg.RegionMap,
			Fallback: fallback,
		}, nil
	default:
		return nil, fmt.Errorf("unknown split policy %q", cfg.SplitPolicy)
	}
}
