package core

import (
	"testing"
	"time"
)

func tx(typ EntryType, cents int64, day int, category string) Transaction {
	return Transaction{
		Type:       typ,
		Amount:     Money{Cents: cents},
		CategoryID: category,
		Date:       time.Date(2025, 3, day, 10, 0, 0, 0, time.UTC),
	}
}

func TestSummarize(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	txs := []Transaction{
		tx(TypeIncome, 1_000_000_00, 1, ""),
		tx(TypeExpense, 200_000_00, 3, "food"),
		tx(TypeExpense, 100_000_00, 3, "transport"),
		tx(TypeIncome, 500_000_00, 10, ""),
	}

	s := Summarize(txs, now)

	if s.Income.Cents != 1_500_000_00 {
		t.Errorf("income = %d, want %d", s.Income.Cents, 1_500_000_00)
	}
	if s.Expenses.Cents != 300_000_00 {
		t.Errorf("expenses = %d, want %d", s.Expenses.Cents, 300_000_00)
	}
	if s.Balance.Cents != 1_200_000_00 {
		t.Errorf("balance = %d, want %d", s.Balance.Cents, 1_200_000_00)
	}
	// (1.5M - 0.3M) / 1.5M = 80%
	if s.SavingsRate != 8000 {
		t.Errorf("savings rate = %d bp, want 8000", s.SavingsRate)
	}

	if len(s.Days) != 15 {
		t.Fatalf("series length = %d, want 15 (first through today)", len(s.Days))
	}
	for i, d := range s.Days {
		if d.Day != i+1 {
			t.Fatalf("series day %d has Day=%d, series must be gap-free", i, d.Day)
		}
	}
	if s.Days[2].Expenses.Cents != 300_000_00 {
		t.Errorf("day 3 expenses = %d, want %d", s.Days[2].Expenses.Cents, 300_000_00)
	}
	if s.Days[1].Income.Cents != 0 || s.Days[1].Expenses.Cents != 0 {
		t.Errorf("day 2 should be a zero entry")
	}
}

func TestSummarize_EmptyMonth(t *testing.T) {
	now := time.Date(2025, 3, 5, 8, 0, 0, 0, time.UTC)
	s := Summarize(nil, now)

	if s.Income.Cents != 0 || s.Expenses.Cents != 0 || s.Balance.Cents != 0 {
		t.Errorf("empty month totals must be zero, got %+v", s)
	}
	if s.SavingsRate != 0 {
		t.Errorf("savings rate with no income = %d, want 0", s.SavingsRate)
	}
	if len(s.Days) != 5 {
		t.Fatalf("series length = %d, want one zero entry per elapsed day", len(s.Days))
	}
}

func TestProgressFor_DoesNotClamp(t *testing.T) {
	budgets := []Budget{
		{ID: "b1", CategoryID: "food", Amount: Money{Cents: 100_00}, AlertThreshold: 8000},
	}
	txs := []Transaction{
		tx(TypeExpense, 120_00, 2, "food"),
		tx(TypeIncome, 500_00, 2, "food"), // income never counts as spend
	}

	progress := ProgressFor(budgets, txs)
	if len(progress) != 1 {
		t.Fatalf("expected one progress row")
	}
	p := progress[0]
	if p.Spent.Cents != 120_00 {
		t.Errorf("spent = %d, want %d", p.Spent.Cents, 120_00)
	}
	if p.Percent != 12000 {
		t.Errorf("percent = %d bp, want 12000 (120%%, not clamped)", p.Percent)
	}
	if !p.Alerted {
		t.Errorf("overspent budget must be alerted")
	}
}

func TestProgressFor_ZeroBudgetAmount(t *testing.T) {
	budgets := []Budget{{CategoryID: "food", Amount: Money{Cents: 0}}}
	progress := ProgressFor(budgets, []Transaction{tx(TypeExpense, 50_00, 1, "food")})
	if progress[0].Percent != 0 {
		t.Errorf("zero-amount budget percent = %d, want 0", progress[0].Percent)
	}
}
