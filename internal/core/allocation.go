package core

// AllocationResult is the waterfall of deductions a rule produces for a
// gross income figure. All amounts are derived with integer math so that
// Tithe + Savings + Net == Gross always holds exactly.
type AllocationResult struct {
	Gross Money
	Tithe Money

	Savings   Money
	Core      Money
	Satellite Money

	Net        Money
	Categories []CategoryAllocation
}

// CategoryAllocation is one category's share of the net allocatable income.
type CategoryAllocation struct {
	CategoryID string
	Percent    Percent
	Amount     Money
}

// AllocateIncome computes the allocation waterfall for a gross income and
// a rule. It is a pure function of its inputs.
//
// Deduction order: tithe first, then savings, then category allocations
// against the remaining net. The satellite share is computed as the
// remainder of savings after the core share, and the last category
// allocation absorbs the division remainder, so totals are preserved even
// when percentages do not divide the amounts evenly.
func AllocateIncome(gross Money, rule SplitRule) AllocationResult {
	res := AllocationResult{Gross: gross}

	if rule.TitheEnabled {
		res.Tithe = rule.TithePercent.Of(gross)
	}
	if rule.SavingsEnabled {
		res.Savings = rule.SavingsPercent.Of(gross)
		res.Core = rule.CorePercent.Of(res.Savings)
		res.Satellite = res.Savings.Sub(res.Core)
	}
	res.Net = gross.Sub(res.Tithe).Sub(res.Savings)

	if len(rule.Allocations) == 0 {
		return res
	}

	res.Categories = make([]CategoryAllocation, len(rule.Allocations))
	var allocated Money
	for i, a := range rule.Allocations {
		amount := a.Percent.Of(res.Net)
		if i == len(rule.Allocations)-1 {
			// Whether the last share gets the remainder or its exact
			// percentage depends on the percentages summing to 100;
			// rules are validated on write, so the remainder is only
			// ever truncation dust.
			amount = res.Net.Sub(allocated)
		}
		allocated = allocated.Add(amount)
		res.Categories[i] = CategoryAllocation{
			CategoryID: a.CategoryID,
			Percent:    a.Percent,
			Amount:     amount,
		}
	}
	return res
}
