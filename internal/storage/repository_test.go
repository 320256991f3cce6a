package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/AlynxNeko/sangu/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedUser(t *testing.T, repo *SQLiteRepository, email string) *core.UserProfile {
	t.Helper()
	user := &core.UserProfile{Email: email, DisplayName: "Test User", PasswordHash: "x"}
	if err := repo.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return user
}

func seedCategory(t *testing.T, repo *SQLiteRepository, userID, name string, typ core.EntryType) *core.Category {
	t.Helper()
	c := &core.Category{UserID: userID, Name: name, Type: typ}
	if err := repo.CreateCategory(context.Background(), c); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	return c
}

func TestUsers(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user := seedUser(t, repo, "a@example.com")
	if user.ID == "" {
		t.Fatal("expected generated user ID")
	}

	got, err := repo.GetUserByEmail(ctx, "a@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("ID = %q, want %q", got.ID, user.ID)
	}
	if got.Currency != "IDR" || got.Theme != "light" {
		t.Errorf("defaults not applied: currency=%q theme=%q", got.Currency, got.Theme)
	}

	if _, err := repo.GetUserByEmail(ctx, "missing@example.com"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("missing user = %v, want ErrNotFound", err)
	}

	got.DisplayName = "Renamed"
	got.Theme = "dark"
	if err := repo.UpdateUserProfile(ctx, got); err != nil {
		t.Fatalf("UpdateUserProfile: %v", err)
	}
	updated, err := repo.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if updated.DisplayName != "Renamed" || updated.Theme != "dark" {
		t.Errorf("update not persisted: %+v", updated)
	}
}

func TestCreateTransaction_WithSplitIsAtomic(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	user := seedUser(t, repo, "a@example.com")
	cat := seedCategory(t, repo, user.ID, "Food", core.TypeExpense)

	tx := &core.Transaction{
		UserID:      user.ID,
		Type:        core.TypeExpense,
		Amount:      core.Money{Cents: 50_000_00},
		CategoryID:  cat.ID,
		Description: "Dinner",
		Date:        time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Split: &core.TransactionSplit{
			TotalAmount: core.Money{Cents: 150_000_00},
			Participants: []core.SplitParticipant{
				{Name: "Budi", AmountOwed: core.Money{Cents: 50_000_00}},
				{Name: "Sari", AmountOwed: core.Money{Cents: 50_000_00}},
			},
		},
	}
	if err := repo.CreateTransaction(ctx, tx); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	got, err := repo.GetTransaction(ctx, user.ID, tx.ID)
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if !got.IsSplit || got.Split == nil {
		t.Fatal("expected hydrated split")
	}
	if got.Split.TotalAmount.Cents != 150_000_00 {
		t.Errorf("TotalAmount = %d, want 15000000", got.Split.TotalAmount.Cents)
	}
	if len(got.Split.Participants) != 2 {
		t.Fatalf("participants = %d, want 2", len(got.Split.Participants))
	}

	// Deleting the transaction cascades to split and participants.
	if err := repo.DeleteTransaction(ctx, user.ID, tx.ID); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if _, err := repo.GetTransaction(ctx, user.ID, tx.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("deleted transaction = %v, want ErrNotFound", err)
	}
}

func TestMarkParticipantPaid_ScopedToOwner(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	owner := seedUser(t, repo, "owner@example.com")
	other := seedUser(t, repo, "other@example.com")

	tx := &core.Transaction{
		UserID:      owner.ID,
		Type:        core.TypeExpense,
		Amount:      core.Money{Cents: 1000},
		Description: "Lunch",
		Date:        time.Now(),
		Split: &core.TransactionSplit{
			TotalAmount: core.Money{Cents: 2000},
			Participants: []core.SplitParticipant{
				{Name: "Budi", AmountOwed: core.Money{Cents: 1000}},
			},
		},
	}
	if err := repo.CreateTransaction(ctx, tx); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	participantID := tx.Split.Participants[0].ID

	if _, err := repo.MarkParticipantPaid(ctx, other.ID, participantID, true); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("foreign user = %v, want ErrNotFound", err)
	}

	date, err := repo.MarkParticipantPaid(ctx, owner.ID, participantID, true)
	if err != nil {
		t.Fatalf("MarkParticipantPaid: %v", err)
	}
	if y, m, _ := date.Date(); y != tx.Date.Year() || m != tx.Date.Month() {
		t.Errorf("returned date %v does not match transaction month %v", date, tx.Date)
	}
	got, err := repo.GetTransaction(ctx, owner.ID, tx.ID)
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if !got.Split.Participants[0].IsPaid {
		t.Error("participant not marked paid")
	}
}

func TestListTransactions_DateRange(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	user := seedUser(t, repo, "a@example.com")

	dates := []time.Time{
		time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	}
	for i, d := range dates {
		tx := &core.Transaction{
			UserID:      user.ID,
			Type:        core.TypeExpense,
			Amount:      core.Money{Cents: int64(i+1) * 100},
			Description: "tx",
			Date:        d,
		}
		if err := repo.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("CreateTransaction: %v", err)
		}
	}

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	got, err := repo.ListTransactions(ctx, user.ID, from, to)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("transactions in March = %d, want 2", len(got))
	}
	if !got[0].Date.After(got[1].Date) {
		t.Error("expected newest first ordering")
	}
}

func TestActivateRule_SingleActivePerUser(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	user := seedUser(t, repo, "a@example.com")
	cat := seedCategory(t, repo, user.ID, "Needs", core.TypeExpense)

	mkRule := func(name string) *core.SplitRule {
		rule := &core.SplitRule{
			UserID:       user.ID,
			Name:         name,
			TitheEnabled: true,
			TithePercent: 1000,
			Allocations: []core.RuleAllocation{
				{CategoryID: cat.ID, Percent: core.FullPercent},
			},
		}
		if err := repo.CreateRule(ctx, rule); err != nil {
			t.Fatalf("CreateRule(%s): %v", name, err)
		}
		return rule
	}
	first := mkRule("first")
	second := mkRule("second")

	if _, err := repo.GetActiveRule(ctx, user.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("no active rule yet, got %v", err)
	}

	if err := repo.ActivateRule(ctx, user.ID, first.ID); err != nil {
		t.Fatalf("ActivateRule(first): %v", err)
	}
	if err := repo.ActivateRule(ctx, user.ID, second.ID); err != nil {
		t.Fatalf("ActivateRule(second): %v", err)
	}

	active, err := repo.GetActiveRule(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetActiveRule: %v", err)
	}
	if active.ID != second.ID {
		t.Errorf("active rule = %q, want %q", active.ID, second.ID)
	}
	if len(active.Allocations) != 1 || active.Allocations[0].CategoryID != cat.ID {
		t.Errorf("allocations not hydrated: %+v", active.Allocations)
	}

	rules, err := repo.ListRules(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListRules: %v", err)
	}
	activeCount := 0
	for _, r := range rules {
		if r.Active {
			activeCount++
		}
	}
	if activeCount != 1 {
		t.Errorf("active rules = %d, want 1", activeCount)
	}

	if err := repo.ActivateRule(ctx, user.ID, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("unknown rule = %v, want ErrNotFound", err)
	}
}

func TestUpdateRule_ReplacesAllocations(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	user := seedUser(t, repo, "a@example.com")
	needs := seedCategory(t, repo, user.ID, "Needs", core.TypeExpense)
	wants := seedCategory(t, repo, user.ID, "Wants", core.TypeExpense)

	rule := &core.SplitRule{
		UserID: user.ID,
		Name:   "monthly",
		Allocations: []core.RuleAllocation{
			{CategoryID: needs.ID, Percent: core.FullPercent},
		},
	}
	if err := repo.CreateRule(ctx, rule); err != nil {
		t.Fatalf("CreateRule: %v", err)
	}

	rule.Allocations = []core.RuleAllocation{
		{CategoryID: needs.ID, Percent: 6000},
		{CategoryID: wants.ID, Percent: 4000},
	}
	// Clear inherited IDs so the rewrite generates fresh allocation rows.
	for i := range rule.Allocations {
		rule.Allocations[i].ID = ""
	}
	if err := repo.UpdateRule(ctx, rule); err != nil {
		t.Fatalf("UpdateRule: %v", err)
	}

	got, err := repo.GetRule(ctx, user.ID, rule.ID)
	if err != nil {
		t.Fatalf("GetRule: %v", err)
	}
	if len(got.Allocations) != 2 {
		t.Fatalf("allocations = %d, want 2", len(got.Allocations))
	}
}

func TestRecurring_DueListingAndAdvance(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	user := seedUser(t, repo, "a@example.com")

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	due := &core.RecurringTransaction{
		UserID:         user.ID,
		Description:    "Rent",
		Amount:         core.Money{Cents: 2_000_000_00},
		Type:           core.TypeExpense,
		Frequency:      core.Monthly,
		NextOccurrence: now.AddDate(0, 0, -1),
		IsActive:       true,
	}
	notDue := &core.RecurringTransaction{
		UserID:         user.ID,
		Description:    "Salary",
		Amount:         core.Money{Cents: 10_000_000_00},
		Type:           core.TypeIncome,
		Frequency:      core.Monthly,
		NextOccurrence: now.AddDate(0, 0, 5),
		IsActive:       true,
	}
	inactive := &core.RecurringTransaction{
		UserID:         user.ID,
		Description:    "Old gym",
		Amount:         core.Money{Cents: 100_000_00},
		Type:           core.TypeExpense,
		Frequency:      core.Monthly,
		NextOccurrence: now.AddDate(0, 0, -10),
		IsActive:       false,
	}
	for _, rt := range []*core.RecurringTransaction{due, notDue, inactive} {
		if err := repo.CreateRecurring(ctx, rt); err != nil {
			t.Fatalf("CreateRecurring(%s): %v", rt.Description, err)
		}
	}

	got, err := repo.ListDueRecurring(ctx, now)
	if err != nil {
		t.Fatalf("ListDueRecurring: %v", err)
	}
	if len(got) != 1 || got[0].ID != due.ID {
		t.Fatalf("due = %+v, want only %q", got, due.ID)
	}

	next := now.AddDate(0, 1, 0)
	if err := repo.AdvanceRecurring(ctx, due.ID, next); err != nil {
		t.Fatalf("AdvanceRecurring: %v", err)
	}
	got, err = repo.ListDueRecurring(ctx, now)
	if err != nil {
		t.Fatalf("ListDueRecurring after advance: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("due after advance = %d, want 0", len(got))
	}
}

func TestExportQueue(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	user := seedUser(t, repo, "a@example.com")

	tx := &core.Transaction{
		UserID:      user.ID,
		Type:        core.TypeExpense,
		Amount:      core.Money{Cents: 5000},
		Description: "Coffee",
		Date:        time.Now(),
	}
	if err := repo.CreateTransaction(ctx, tx); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	pending, err := repo.ListPendingExports(ctx, 10)
	if err != nil {
		t.Fatalf("ListPendingExports: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != tx.ID || pending[0].Version != 1 {
		t.Fatalf("pending = %+v, want one entry for %q at version 1", pending, tx.ID)
	}

	if err := repo.MarkSynced(ctx, tx.ID, 1); err != nil {
		t.Fatalf("MarkSynced: %v", err)
	}
	pending, err = repo.ListPendingExports(ctx, 10)
	if err != nil {
		t.Fatalf("ListPendingExports: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("pending after sync = %d, want 0", len(pending))
	}

	// An update bumps the version and re-queues the row.
	tx.Description = "Coffee (edited)"
	if err := repo.UpdateTransaction(ctx, tx); err != nil {
		t.Fatalf("UpdateTransaction: %v", err)
	}
	pending, err = repo.ListPendingExports(ctx, 10)
	if err != nil {
		t.Fatalf("ListPendingExports: %v", err)
	}
	if len(pending) != 1 || pending[0].Version != 2 {
		t.Fatalf("pending after edit = %+v, want version 2", pending)
	}

	// A stale MarkSynced does not clear the newer version.
	if err := repo.MarkSynced(ctx, tx.ID, 1); err != nil {
		t.Fatalf("MarkSynced stale: %v", err)
	}
	pending, err = repo.ListPendingExports(ctx, 10)
	if err != nil {
		t.Fatalf("ListPendingExports: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("stale sync cleared newer version")
	}
}
