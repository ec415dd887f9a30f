package order

import (
	"fmt"
	"strconv"
	"strings"
)

// ItemGroup is one sub-order's slice of the line-item list, expressed as
// indexes into the input so amounts stay positionally aligned.
type ItemGroup struct {
	Label   string
	Indexes []int
}

// SplitPolicy partitions a raw order's line items into sub-order groups.
// Contract: total disjoint cover of the input, deterministic for the same
// input (no randomness, no wall clock). Suffixes -1..-N follow group order.
type SplitPolicy interface {
	Name() string
	Split(items []LineItem) ([]ItemGroup, error)
}

// SingleGroupPolicy là policy mặc định: 1 sub-order cho mỗi raw order.
type SingleGroupPolicy struct{}

func (SingleGroupPolicy) Name() string { return "single" }

func (SingleGroupPolicy) Split(items []LineItem) ([]ItemGroup, error) {
	idx := make([]int, len(items))
	for i := range items {
		idx[i] = i
	}
	return []ItemGroup{{Indexes: idx}}, nil
}

// RegionPolicy groups items by the region their variant title maps to;
// unmapped titles fall into Fallback. Groups keep first-appearance order.
type RegionPolicy struct {
	Regions  map[string]string
	Fallback string
}

func (RegionPolicy) Name() string { return "region" }

func (p RegionPolicy) Split(items []LineItem) ([]ItemGroup, error) {
	fallback := p.Fallback
	if fallback == "" {
		fallback = "other"
	}
	var groups []ItemGroup
	byRegion := make(map[string]int)
	for i, it := range items {
		region, ok := p.Regions[strings.TrimSpace(it.VariantTitle)]
		if !ok {
			region = fallback
		}
		gi, seen := byRegion[region]
		if !seen {
			gi = len(groups)
			byRegion[region] = gi
			groups = append(groups, ItemGroup{Label: region})
		}
		groups[gi].Indexes = append(groups[gi].Indexes, i)
	}
	return groups, nil
}

// SplitOrder runs the policy (nil means SingleGroupPolicy) and enforces the
// partition contract before anything downstream trusts it.
func SplitOrder(policy SplitPolicy, items []LineItem) ([]ItemGroup, error) {
	if policy == nil {
		policy = SingleGroupPolicy{}
	}
	groups, err := policy.Split(items)
	if err != nil {
		return nil, fmt.Errorf("%w: policy %s: %v", ErrSplitPolicy, policy.Name(), err)
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("%w: policy %s produced no groups", ErrSplitPolicy, policy.Name())
	}
	seen := make(map[int]bool, len(items))
	for _, g := range groups {
		if len(g.Indexes) == 0 {
			return nil, fmt.Errorf("%w: policy %s produced an empty group %q", ErrSplitPolicy, policy.Name(), g.Label)
		}
		for _, idx := range g.Indexes {
			if idx < 0 || idx >= len(items) {
				return nil, fmt.Errorf("%w: policy %s index %d out of range", ErrSplitPolicy, policy.Name(), idx)
			}
			if seen[idx] {
				return nil, fmt.Errorf("%w: policy %s assigned item %d twice", ErrSplitPolicy, policy.Name(), idx)
			}
			seen[idx] = true
		}
	}
	if len(seen) != len(items) {
		return nil, fmt.Errorf("%w: policy %s left %d item(s) unassigned",
			ErrSplitPolicy, policy.Name(), len(items)-len(seen))
	}
	return groups, nil
}

// ParentOrderNo derives the stable parent number from the source order id.
// Re-syncing the same order must always reproduce it.
func ParentOrderNo(sourceOrderID int64) string {
	return strconv.FormatInt(sourceOrderID, 10)
}

// SubOrderNo appends the 1-based positional suffix to the parent number.
func SubOrderNo(parentOrderNo string, position int) string {
	return parentOrderNo + "-" + strconv.Itoa(position)
}
