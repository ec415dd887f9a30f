package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// badPolicy cho phép test từng kiểu vi phạm partition contract.
type badPolicy struct {
	groups []ItemGroup
	err    error
}

func (badPolicy) Name() string { return "bad" }

func (p badPolicy) Split([]LineItem) ([]ItemGroup, error) { return p.groups, p.err }

func TestSingleGroupPolicy(t *testing.T) {
	items := []LineItem{{SKUID: "a"}, {SKUID: "b"}, {SKUID: "c"}}

	groups, err := SplitOrder(nil, items)
	require.NoError(t, err)

	require.Len(t, groups, 1)
	assert.Equal(t, []int{0, 1, 2}, groups[0].Indexes)
}

func TestRegionPolicy_GroupsByVariantTitle(t *testing.T) {
	policy := RegionPolicy{
		Regions:  map[string]string{"北部": "north", "南部": "south"},
		Fallback: "other",
	}
	items := []LineItem{
		{SKUID: "a", VariantTitle: "北部"},
		{SKUID: "b", VariantTitle: "南部"},
		{SKUID: "c", VariantTitle: "北部"},
		{SKUID: "d", VariantTitle: "離島"},
	}

	groups, err := SplitOrder(policy, items)
	require.NoError(t, err)

	require.Len(t, groups, 3)
	// Thứ tự group theo lần xuất hiện đầu tiên
	assert.Equal(t, "north", groups[0].Label)
	assert.Equal(t, []int{0, 2}, groups[0].Indexes)
	assert.Equal(t, "south", groups[1].Label)
	assert.Equal(t, []int{1}, groups[1].Indexes)
	assert.Equal(t, "other", groups[2].Label)
	assert.Equal(t, []int{3}, groups[2].Indexes)
}

func TestRegionPolicy_Deterministic(t *testing.T) {
	policy := RegionPolicy{Regions: map[string]string{"A": "a", "B": "b"}}
	items := []LineItem{
		{SKUID: "x", VariantTitle: "B"},
		{SKUID: "y", VariantTitle: "A"},
	}

	first, err := SplitOrder(policy, items)
	require.NoError(t, err)
	second, err := SplitOrder(policy, items)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSplitOrder_RejectsBadPartitions(t *testing.T) {
	items := []LineItem{{SKUID: "a"}, {SKUID: "b"}}

	tests := []struct {
		name   string
		policy SplitPolicy
	}{
		{"no groups", badPolicy{groups: nil}},
		{"empty group", badPolicy{groups: []ItemGroup{{Label: "empty"}}}},
		{"index out of range", badPolicy{groups: []ItemGroup{{Indexes: []int{0, 5}}}}},
		{"duplicate index", badPolicy{groups: []ItemGroup{{Indexes: []int{0}}, {Indexes: []int{0, 1}}}}},
		{"unassigned item", badPolicy{groups: []ItemGroup{{Indexes: []int{0}}}}},
		{"policy error", badPolicy{err: assert.AnError}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SplitOrder(tt.policy, items)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSplitPolicy)
		})
	}
}

func TestOrderNumbers(t *testing.T) {
	parent := ParentOrderNo(5479558062345)
	assert.Equal(t, "5479558062345", parent)
	assert.Equal(t, "5479558062345-1", SubOrderNo(parent, 1))
	assert.Equal(t, "5479558062345-2", SubOrderNo(parent, 2))
}
