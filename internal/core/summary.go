package core

import "time"

// MonthSummary is the dashboard overview for one calendar month.
type MonthSummary struct {
	Year     int
	Month    int // 1-12
	Income   Money
	Expenses Money
	Balance  Money
	// SavingsRate is (income-expenses)/income in basis points, and 0
	// (not NaN) when there is no income.
	SavingsRate Percent
	Days        []DayTotal
}

// DayTotal aggregates one day's income and expenses independently.
type DayTotal struct {
	Day      int
	Income   Money
	Expenses Money
}

// BudgetProgress pairs a budget with the month's spending against it.
// Percent runs past 100 when the budget is blown; callers flag it, never
// clamp it.
type BudgetProgress struct {
	Budget  Budget
	Spent   Money
	Percent Percent
	Alerted bool
}

// Summarize derives the monthly overview from transactions already scoped
// to now's calendar month. The daily series runs from the 1st through
// now's day with one entry per elapsed day; days without transactions are
// zero-valued entries, never gaps.
func Summarize(transactions []Transaction, now time.Time) MonthSummary {
	s := MonthSummary{
		Year:  now.Year(),
		Month: int(now.Month()),
		Days:  make([]DayTotal, now.Day()),
	}
	for i := range s.Days {
		s.Days[i].Day = i + 1
	}

	for _, t := range transactions {
		switch t.Type {
		case TypeIncome:
			s.Income = s.Income.Add(t.Amount)
		case TypeExpense:
			s.Expenses = s.Expenses.Add(t.Amount)
		default:
			continue
		}
		day := t.Date.Day()
		if day < 1 || day > len(s.Days) {
			continue
		}
		d := &s.Days[day-1]
		if t.Type == TypeIncome {
			d.Income = d.Income.Add(t.Amount)
		} else {
			d.Expenses = d.Expenses.Add(t.Amount)
		}
	}

	s.Balance = s.Income.Sub(s.Expenses)
	if s.Income.Cents > 0 {
		s.SavingsRate = Percent(s.Balance.Cents * int64(FullPercent) / s.Income.Cents)
	}
	return s
}

// ProgressFor computes spending progress for each budget from the month's
// expense transactions. Alerted is set once spending crosses the budget's
// alert threshold.
func ProgressFor(budgets []Budget, transactions []Transaction) []BudgetProgress {
	spentByCategory := make(map[string]Money)
	for _, t := range transactions {
		if t.Type != TypeExpense || t.CategoryID == "" {
			continue
		}
		spentByCategory[t.CategoryID] = spentByCategory[t.CategoryID].Add(t.Amount)
	}

	out := make([]BudgetProgress, len(budgets))
	for i, b := range budgets {
		spent := spentByCategory[b.CategoryID]
		p := BudgetProgress{Budget: b, Spent: spent}
		if b.Amount.Cents > 0 {
			p.Percent = Percent(spent.Cents * int64(FullPercent) / b.Amount.Cents)
		}
		p.Alerted = b.AlertThreshold > 0 && p.Percent >= b.AlertThreshold
		out[i] = p
	}
	return out
}
