package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestAllocateAmounts_ComputedWhenNotReported(t *testing.T) {
	items := []LineItem{
		{SKUID: "sku-1", Quantity: 2, UnitOriginal: d("19.99"), UnitDiscounted: d("19.99")},
		{SKUID: "sku-2", Quantity: 1, UnitOriginal: d("40.00"), UnitDiscounted: d("40.00")},
	}

	alloc, err := AllocateAmounts(decimal.Zero, decimal.Zero, items)
	require.NoError(t, err)

	assert.True(t, alloc.OrderOriginalTotal.Equal(d("79.98")), "got %s", alloc.OrderOriginalTotal)
	assert.True(t, alloc.OrderDiscountedTotal.Equal(d("79.98")))
	assert.True(t, alloc.OriginalDiscrepancy.IsZero())
	assert.True(t, alloc.DiscountedDiscrepancy.IsZero())
	assert.True(t, alloc.Items[0].OriginalTotal.Equal(d("39.98")))
	assert.True(t, alloc.Items[1].OriginalTotal.Equal(d("40.00")))
}

func TestAllocateAmounts_DiscountedBelowOriginal(t *testing.T) {
	items := []LineItem{
		{SKUID: "sku-1", Quantity: 3, UnitOriginal: d("25.00"), UnitDiscounted: d("20.00")},
		{SKUID: "sku-2", Quantity: 1, UnitOriginal: d("24.98"), UnitDiscounted: d("19.98")},
	}

	alloc, err := AllocateAmounts(d("99.98"), d("79.98"), items)
	require.NoError(t, err)

	assert.True(t, alloc.OrderOriginalTotal.Equal(d("99.98")))
	assert.True(t, alloc.OrderDiscountedTotal.Equal(d("79.98")))
	assert.True(t, alloc.OriginalDiscrepancy.IsZero())
	assert.True(t, alloc.DiscountedDiscrepancy.IsZero())
}

func TestAllocateAmounts_FoldsDiscrepancyIntoLastItem(t *testing.T) {
	// 3 × 33.33 = 99.99, nguồn báo 100.00 → chênh 0.01 dồn vào item cuối
	items := []LineItem{
		{SKUID: "sku-1", Quantity: 1, UnitOriginal: d("33.33"), UnitDiscounted: d("33.33")},
		{SKUID: "sku-2", Quantity: 1, UnitOriginal: d("33.33"), UnitDiscounted: d("33.33")},
		{SKUID: "sku-3", Quantity: 1, UnitOriginal: d("33.33"), UnitDiscounted: d("33.33")},
	}

	alloc, err := AllocateAmounts(d("100.00"), d("100.00"), items)
	require.NoError(t, err)

	assert.True(t, alloc.OriginalDiscrepancy.Equal(d("0.01")))
	assert.True(t, alloc.Items[0].OriginalTotal.Equal(d("33.33")))
	assert.True(t, alloc.Items[1].OriginalTotal.Equal(d("33.33")))
	assert.True(t, alloc.Items[2].OriginalTotal.Equal(d("33.34")))
	assert.True(t, alloc.WithinTolerance())

	// sum(items) khớp đúng order total sau reconciliation
	sum := decimal.Zero
	for _, it := range alloc.Items {
		sum = sum.Add(it.OriginalTotal)
	}
	assert.True(t, sum.Equal(alloc.OrderOriginalTotal))
}

func TestAllocateAmounts_LargeDiscrepancyOutsideTolerance(t *testing.T) {
	items := []LineItem{
		{SKUID: "sku-1", Quantity: 1, UnitOriginal: d("10.00"), UnitDiscounted: d("10.00")},
	}

	alloc, err := AllocateAmounts(d("15.00"), d("15.00"), items)
	require.NoError(t, err)

	// Vẫn dồn vào item cuối, nhưng bị đánh dấu vượt tolerance
	assert.True(t, alloc.Items[0].OriginalTotal.Equal(d("15.00")))
	assert.True(t, alloc.OriginalDiscrepancy.Equal(d("5.00")))
	assert.False(t, alloc.WithinTolerance())
}

func TestAllocateAmounts_InvalidInputs(t *testing.T) {
	tests := []struct {
		name               string
		reportedOriginal   decimal.Decimal
		reportedDiscounted decimal.Decimal
		items              []LineItem
	}{
		{
			name:             "no items",
			reportedOriginal: d("10.00"), reportedDiscounted: d("10.00"),
			items: nil,
		},
		{
			name:             "zero quantity",
			reportedOriginal: decimal.Zero, reportedDiscounted: decimal.Zero,
			items: []LineItem{{SKUID: "sku-1", Quantity: 0, UnitOriginal: d("5.00"), UnitDiscounted: d("5.00")}},
		},
		{
			name:             "negative unit price",
			reportedOriginal: decimal.Zero, reportedDiscounted: decimal.Zero,
			items: []LineItem{{SKUID: "sku-1", Quantity: 1, UnitOriginal: d("-5.00"), UnitDiscounted: d("-5.00")}},
		},
		{
			name:             "discounted unit above original",
			reportedOriginal: decimal.Zero, reportedDiscounted: decimal.Zero,
			items: []LineItem{{SKUID: "sku-1", Quantity: 1, UnitOriginal: d("5.00"), UnitDiscounted: d("6.00")}},
		},
		{
			name:             "negative reported total",
			reportedOriginal: d("-1.00"), reportedDiscounted: decimal.Zero,
			items: []LineItem{{SKUID: "sku-1", Quantity: 1, UnitOriginal: d("5.00"), UnitDiscounted: d("5.00")}},
		},
		{
			name:             "order discounted above original",
			reportedOriginal: d("50.00"), reportedDiscounted: d("60.00"),
			items: []LineItem{{SKUID: "sku-1", Quantity: 1, UnitOriginal: d("50.00"), UnitDiscounted: d("50.00")}},
		},
		{
			name:             "reconciliation drives last item negative",
			reportedOriginal: d("1.00"), reportedDiscounted: decimal.Zero,
			items: []LineItem{
				{SKUID: "sku-1", Quantity: 1, UnitOriginal: d("50.00"), UnitDiscounted: d("0.00")},
				{SKUID: "sku-2", Quantity: 1, UnitOriginal: d("10.00"), UnitDiscounted: d("0.00")},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AllocateAmounts(tt.reportedOriginal, tt.reportedDiscounted, tt.items)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidAmount)
		})
	}
}

func TestAllocation_Tolerance(t *testing.T) {
	alloc := &Allocation{Items: make([]ItemAmount, 3)}
	assert.True(t, alloc.Tolerance().Equal(d("0.01")))

	alloc.Items = make([]ItemAmount, 100)
	assert.True(t, alloc.Tolerance().Equal(d("0.01")))

	alloc.Items = make([]ItemAmount, 101)
	assert.True(t, alloc.Tolerance().Equal(d("0.02")))
}

func TestAllocation_BreakdownFor(t *testing.T) {
	items := []LineItem{
		{SKUID: "sku-1", Quantity: 1, UnitOriginal: d("10.00"), UnitDiscounted: d("8.00")},
		{SKUID: "sku-2", Quantity: 2, UnitOriginal: d("5.00"), UnitDiscounted: d("5.00")},
		{SKUID: "sku-3", Quantity: 1, UnitOriginal: d("20.00"), UnitDiscounted: d("15.00")},
	}
	alloc, err := AllocateAmounts(decimal.Zero, decimal.Zero, items)
	require.NoError(t, err)

	bd := alloc.BreakdownFor([]int{0, 2})

	// Order scope giữ nguyên trên mọi sub-order
	assert.True(t, bd.OrderOriginalTotal.Equal(d("40.00")))
	assert.True(t, bd.OrderDiscountedTotal.Equal(d("33.00")))
	// Sub-order scope chỉ cộng item trong group
	assert.True(t, bd.SubOrderOriginalTotal.Equal(d("30.00")))
	assert.True(t, bd.SubOrderDiscountedTotal.Equal(d("23.00")))
	require.Len(t, bd.Items, 2)
	assert.Equal(t, "sku-1", bd.Items[0].SKUID)
	assert.Equal(t, "sku-3", bd.Items[1].SKUID)
}
