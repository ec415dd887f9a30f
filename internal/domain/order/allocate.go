package order

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// minorUnitExp is the exponent of one minimum currency unit (0.01).
const minorUnitExp = -2

// Allocation holds the reconciled per-item amounts for a whole raw order.
// Item amounts are positionally aligned with the input line items, so a
// split group of indexes maps straight onto its breakdown.
type Allocation struct {
	OrderOriginalTotal   decimal.Decimal
	OrderDiscountedTotal decimal.Decimal
	Items                []ItemAmount

	// Discrepancy absorbed into the last item so that the item sums match
	// the reported order totals exactly. Zero when source and computed agree.
	OriginalDiscrepancy   decimal.Decimal
	DiscountedDiscrepancy decimal.Decimal
}

// AllocateAmounts computes exact per-item totals (unit × qty, fixed point),
// then reconciles them against the source-reported order totals. The reported
// figures stay authoritative; any discrepancy is folded into the last line
// item so that sum(items) == order total with zero tolerance afterwards.
// A zero reported total means "not reported": the computed sum is used.
func AllocateAmounts(reportedOriginal, reportedDiscounted decimal.Decimal, items []LineItem) (*Allocation, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no line items", ErrInvalidAmount)
	}
	if reportedOriginal.IsNegative() || reportedDiscounted.IsNegative() {
		return nil, fmt.Errorf("%w: negative reported order total", ErrInvalidAmount)
	}

	alloc := &Allocation{Items: make([]ItemAmount, 0, len(items))}
	sumOriginal := decimal.Zero
	sumDiscounted := decimal.Zero
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: item %q quantity %d", ErrInvalidAmount, it.SKUID, it.Quantity)
		}
		if it.UnitOriginal.IsNegative() || it.UnitDiscounted.IsNegative() {
			return nil, fmt.Errorf("%w: item %q negative unit price", ErrInvalidAmount, it.SKUID)
		}
		if it.UnitDiscounted.GreaterThan(it.UnitOriginal) {
			return nil, fmt.Errorf("%w: item %q discounted unit %s > original %s",
				ErrInvalidAmount, it.SKUID, it.UnitDiscounted, it.UnitOriginal)
		}
		qty := decimal.NewFromInt(int64(it.Quantity))
		amt := ItemAmount{
			SKUID:           it.SKUID,
			OriginalTotal:   it.UnitOriginal.Mul(qty),
			DiscountedTotal: it.UnitDiscounted.Mul(qty),
		}
		alloc.Items = append(alloc.Items, amt)
		sumOriginal = sumOriginal.Add(amt.OriginalTotal)
		sumDiscounted = sumDiscounted.Add(amt.DiscountedTotal)
	}

	alloc.OrderOriginalTotal = sumOriginal
	if !reportedOriginal.IsZero() {
		alloc.OrderOriginalTotal = reportedOriginal
		alloc.OriginalDiscrepancy = reportedOriginal.Sub(sumOriginal)
	}
	alloc.OrderDiscountedTotal = sumDiscounted
	if !reportedDiscounted.IsZero() {
		alloc.OrderDiscountedTotal = reportedDiscounted
		alloc.DiscountedDiscrepancy = reportedDiscounted.Sub(sumDiscounted)
	}

	last := len(alloc.Items) - 1
	alloc.Items[last].OriginalTotal = alloc.Items[last].OriginalTotal.Add(alloc.OriginalDiscrepancy)
	alloc.Items[last].DiscountedTotal = alloc.Items[last].DiscountedTotal.Add(alloc.DiscountedDiscrepancy)

	if alloc.Items[last].OriginalTotal.IsNegative() || alloc.Items[last].DiscountedTotal.IsNegative() {
		return nil, fmt.Errorf("%w: reconciliation drove item %q negative",
			ErrInvalidAmount, alloc.Items[last].SKUID)
	}
	if alloc.Items[last].DiscountedTotal.GreaterThan(alloc.Items[last].OriginalTotal) {
		return nil, fmt.Errorf("%w: reconciliation drove item %q discounted above original",
			ErrInvalidAmount, alloc.Items[last].SKUID)
	}
	if alloc.OrderDiscountedTotal.GreaterThan(alloc.OrderOriginalTotal) {
		return nil, fmt.Errorf("%w: order discounted total %s > original total %s",
			ErrInvalidAmount, alloc.OrderDiscountedTotal, alloc.OrderOriginalTotal)
	}

	return alloc, nil
}

// Tolerance is the permitted rounding discrepancy before reconciliation is
// considered suspicious: one minimum currency unit per 100 line items,
// minimum one unit. The discrepancy is folded in either way; callers use
// this only to flag the order for inspection.
func (a *Allocation) Tolerance() decimal.Decimal {
	units := (len(a.Items) + 99) / 100
	if units < 1 {
		units = 1
	}
	return decimal.New(int64(units), minorUnitExp)
}

// WithinTolerance reports whether both absorbed discrepancies stay inside
// Tolerance().
func (a *Allocation) WithinTolerance() bool {
	tol := a.Tolerance()
	return !a.OriginalDiscrepancy.Abs().GreaterThan(tol) &&
		!a.DiscountedDiscrepancy.Abs().GreaterThan(tol)
}

// BreakdownFor builds the AmountBreakdown for one split group. Sub-order
// totals are always the sum of the group's item amounts, never re-derived.
func (a *Allocation) BreakdownFor(indexes []int) AmountBreakdown {
	bd := AmountBreakdown{
		OrderOriginalTotal:      a.OrderOriginalTotal,
		OrderDiscountedTotal:    a.OrderDiscountedTotal,
		SubOrderOriginalTotal:   decimal.Zero,
		SubOrderDiscountedTotal: decimal.Zero,
		Items:                   make([]ItemAmount, 0, len(indexes)),
	}
	for _, idx := range indexes {
		amt := a.Items[idx]
		bd.Items = append(bd.Items, amt)
		bd.SubOrderOriginalTotal = bd.SubOrderOriginalTotal.Add(amt.OriginalTotal)
		bd.SubOrderDiscountedTotal = bd.SubOrderDiscountedTotal.Add(amt.DiscountedTotal)
	}
	return bd
}
