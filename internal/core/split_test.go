package core

import (
	"errors"
	"testing"
	"time"
)

func TestComputeSplit_TotalMode(t *testing.T) {
	// User enters the full bill of 150000; friends owe 100000 combined.
	res, err := ComputeSplit(SplitModeTotal, Money{Cents: 150000_00}, []SplitInput{
		{Name: "Budi", Amount: Money{Cents: 60000_00}},
		{Name: "Sari", Amount: Money{Cents: 40000_00}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.UserShare.Cents != 50000_00 {
		t.Errorf("user share = %d, want %d", res.UserShare.Cents, 50000_00)
	}
	if res.TotalBill.Cents != 150000_00 {
		t.Errorf("total bill = %d, want %d", res.TotalBill.Cents, 150000_00)
	}
}

func TestComputeSplit_ShareMode(t *testing.T) {
	// User enters their own share of 50000; friends owe 100000 combined.
	res, err := ComputeSplit(SplitModeShare, Money{Cents: 50000_00}, []SplitInput{
		{Name: "Budi", Amount: Money{Cents: 100000_00}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.UserShare.Cents != 50000_00 {
		t.Errorf("user share = %d, want %d", res.UserShare.Cents, 50000_00)
	}
	if res.TotalBill.Cents != 150000_00 {
		t.Errorf("total bill = %d, want %d", res.TotalBill.Cents, 150000_00)
	}
}

func TestComputeSplit_RejectsExcessParticipants(t *testing.T) {
	_, err := ComputeSplit(SplitModeTotal, Money{Cents: 150000_00}, []SplitInput{
		{Name: "Budi", Amount: Money{Cents: 200000_00}},
	})
	if !errors.Is(err, ErrSplitExceedsTotal) {
		t.Fatalf("got %v, want ErrSplitExceedsTotal", err)
	}
}

func TestComputeSplit_ExactCoverageIsZeroShare(t *testing.T) {
	res, err := ComputeSplit(SplitModeTotal, Money{Cents: 100000_00}, []SplitInput{
		{Name: "Budi", Amount: Money{Cents: 100000_00}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.UserShare.Cents != 0 {
		t.Errorf("user share = %d, want 0", res.UserShare.Cents)
	}
}

func TestTransactionValidate_ZeroShareSplit(t *testing.T) {
	tx := Transaction{
		Type:        TypeExpense,
		Amount:      Money{},
		Description: "Dinner covered by friends",
		Date:        time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		IsSplit:     true,
		Split:       &TransactionSplit{TotalAmount: Money{Cents: 100000_00}},
	}
	if err := tx.Validate(); err != nil {
		t.Fatalf("zero user share on a split must validate, got %v", err)
	}

	tx.IsSplit = false
	tx.Split = nil
	if err := tx.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero amount without a split: got %v, want ErrInvalidAmount", err)
	}
}

func TestComputeSplit_RequiresParticipantNames(t *testing.T) {
	_, err := ComputeSplit(SplitModeShare, Money{Cents: 50000_00}, []SplitInput{
		{Name: "  ", Amount: Money{Cents: 10000_00}},
	})
	if !errors.Is(err, ErrEmptyParticipant) {
		t.Fatalf("got %v, want ErrEmptyParticipant", err)
	}
}

func TestComputeSplit_UnknownMode(t *testing.T) {
	_, err := ComputeSplit("equal", Money{Cents: 100}, nil)
	if !errors.Is(err, ErrInvalidSplitMode) {
		t.Fatalf("got %v, want ErrInvalidSplitMode", err)
	}
}
