package core

import (
	"errors"
	"strings"
	"time"
)

// Transaction and category kinds.
const (
	TypeExpense EntryType = "expense"
	TypeIncome  EntryType = "income"
)

// Recurring transaction frequencies.
const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

// Payment method kinds.
const (
	MethodCash         MethodType = "cash"
	MethodEWallet      MethodType = "e_wallet"
	MethodBankTransfer MethodType = "bank_transfer"
	MethodCreditCard   MethodType = "credit_card"
)

type (
	EntryType  string
	Frequency  string
	MethodType string

	// UserProfile is the account record. PasswordHash is populated only by
	// the storage and auth layers and must never be serialized to clients.
	UserProfile struct {
		ID           string
		Email        string
		DisplayName  string
		Currency     string
		Theme        string
		PasswordHash string
		CreatedAt    time.Time
	}

	Category struct {
		ID       string
		UserID   string
		Name     string
		Type     EntryType
		Icon     string
		Color    string
		IsCustom bool
	}

	PaymentMethod struct {
		ID       string
		UserID   string
		Name     string
		Type     MethodType
		IsActive bool
	}

	// Transaction records the user's own portion only. When IsSplit is
	// set, Split carries the full bill and the participant shares.
	Transaction struct {
		ID              string
		UserID          string
		Type            EntryType
		Amount          Money
		CategoryID      string
		PaymentMethodID string
		Description     string
		Date            time.Time
		ReceiptURL      string
		Notes           string
		IsSplit         bool
		Split           *TransactionSplit
		CreatedAt       time.Time
	}

	TransactionSplit struct {
		ID            string
		TransactionID string
		TotalAmount   Money
		Participants  []SplitParticipant
	}

	SplitParticipant struct {
		ID         string
		SplitID    string
		Name       string
		AmountOwed Money
		IsPaid     bool
	}

	Budget struct {
		ID             string
		UserID         string
		CategoryID     string
		Amount         Money
		Period         string
		AlertThreshold Percent
	}

	// RecurringTransaction is a schedule template. The recurring worker
	// materializes real transactions and advances NextOccurrence.
	RecurringTransaction struct {
		ID             string
		UserID         string
		Description    string
		Amount         Money
		Type           EntryType
		CategoryID     string
		Frequency      Frequency
		NextOccurrence time.Time
		IsActive       bool
	}

	// SplitRule is an income allocation rule. At most one rule per user
	// is active at a time; the storage layer enforces that.
	SplitRule struct {
		ID     string
		UserID string
		Name   string
		Active bool

		TitheEnabled  bool
		TithePercent  Percent
		TitheMethodID string

		SavingsEnabled    bool
		SavingsPercent    Percent
		CorePercent       Percent
		SatellitePercent  Percent
		CoreMethodID      string
		SatelliteMethodID string

		Allocations []RuleAllocation
	}

	RuleAllocation struct {
		ID         string
		RuleID     string
		CategoryID string
		Percent    Percent
	}

	FinancialGoal struct {
		ID            string
		UserID        string
		Name          string
		Description   string
		TargetAmount  Money
		CurrentAmount Money
		TargetDate    time.Time
	}

	Notification struct {
		ID        string
		UserID    string
		Title     string
		Message   string
		Type      string
		IsRead    bool
		CreatedAt time.Time
	}
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidPercent    = errors.New("invalid percentage")
	ErrInvalidType       = errors.New("invalid transaction type")
	ErrInvalidFrequency  = errors.New("invalid frequency")
	ErrInvalidMethodType = errors.New("invalid payment method type")
	ErrEmptyDescription  = errors.New("empty description")
	ErrEmptyName         = errors.New("empty name")
	ErrEmptyParticipant  = errors.New("participant name required")
	ErrSplitExceedsTotal = errors.New("participant amounts exceed the total bill")
	ErrInvalidSplitMode  = errors.New("invalid split mode")
	ErrPercentSum        = errors.New("percentages must sum to 100")
	ErrZeroDate          = errors.New("date cannot be zero")
)

func (t EntryType) Validate() error {
	switch t {
	case TypeExpense, TypeIncome:
		return nil
	}
	return ErrInvalidType
}

func (f Frequency) Validate() error {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return nil
	}
	return ErrInvalidFrequency
}

func (m MethodType) Validate() error {
	switch m {
	case MethodCash, MethodEWallet, MethodBankTransfer, MethodCreditCard:
		return nil
	}
	return ErrInvalidMethodType
}

func (t Transaction) Validate() error {
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if t.Date.IsZero() {
		return ErrZeroDate
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if t.IsSplit {
		// A bill fully covered by the other participants leaves the
		// user owing nothing, so zero is a valid share here.
		if t.Amount.IsNegative() {
			return ErrInvalidAmount
		}
	} else if err := t.Amount.Validate(); err != nil {
		return err
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return c.Type.Validate()
}

func (p PaymentMethod) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	return p.Type.Validate()
}

func (b Budget) Validate() error {
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if b.CategoryID == "" {
		return errors.New("budget requires a category")
	}
	return b.AlertThreshold.Validate()
}

func (r RecurringTransaction) Validate() error {
	if len(strings.TrimSpace(r.Description)) == 0 {
		return ErrEmptyDescription
	}
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	if err := r.Type.Validate(); err != nil {
		return err
	}
	if err := r.Frequency.Validate(); err != nil {
		return err
	}
	if r.NextOccurrence.IsZero() {
		return ErrZeroDate
	}
	return nil
}

// Validate checks a rule's shape before it is persisted. Core/satellite
// percentages must cover all of savings, and category allocations must
// cover all of net income; anything else is rejected rather than silently
// producing amounts that do not add up.
func (r SplitRule) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrEmptyName
	}
	if r.TitheEnabled {
		if err := r.TithePercent.Validate(); err != nil {
			return err
		}
	}
	if r.SavingsEnabled {
		if err := r.SavingsPercent.Validate(); err != nil {
			return err
		}
		if r.CorePercent+r.SatellitePercent != FullPercent {
			return ErrPercentSum
		}
	}
	if r.TithePercent+r.SavingsPercent > FullPercent {
		return ErrInvalidPercent
	}
	if len(r.Allocations) > 0 {
		var sum Percent
		for _, a := range r.Allocations {
			if err := a.Percent.Validate(); err != nil {
				return err
			}
			if a.CategoryID == "" {
				return errors.New("allocation requires a category")
			}
			sum += a.Percent
		}
		if sum != FullPercent {
			return ErrPercentSum
		}
	}
	return nil
}

func (g FinancialGoal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if err := g.TargetAmount.Validate(); err != nil {
		return err
	}
	if g.CurrentAmount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}
