package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AlynxNeko/sangu/internal/core"
	"github.com/AlynxNeko/sangu/internal/storage"
)

// BudgetService computes budget progress and raises threshold notifications.
type BudgetService struct {
	storage *storage.SQLiteRepository
}

func NewBudgetService(storage *storage.SQLiteRepository) *BudgetService {
	return &BudgetService{storage: storage}
}

func (s *BudgetService) Create(ctx context.Context, b *core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	return s.storage.CreateBudget(ctx, b)
}

func (s *BudgetService) Update(ctx context.Context, b *core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	return s.storage.UpdateBudget(ctx, b)
}

func (s *BudgetService) Get(ctx context.Context, userID, id string) (*core.Budget, error) {
	return s.storage.GetBudget(ctx, userID, id)
}

func (s *BudgetService) List(ctx context.Context, userID string) ([]core.Budget, error) {
	return s.storage.ListBudgets(ctx, userID)
}

func (s *BudgetService) Delete(ctx context.Context, userID, id string) error {
	return s.storage.DeleteBudget(ctx, userID, id)
}

// Progress returns the month-to-date spending against each of the user's
// budgets.
func (s *BudgetService) Progress(ctx context.Context, userID string, now time.Time) ([]core.BudgetProgress, error) {
	budgets, err := s.storage.ListBudgets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	if len(budgets) == 0 {
		return nil, nil
	}

	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	transactions, err := s.storage.ListTransactions(ctx, userID, from, now.Add(time.Second))
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	return core.ProgressFor(budgets, transactions), nil
}

// CheckThresholds raises a notification for every budget whose alert
// threshold has been crossed this month. A budget already flagged in an
// unread notification is not flagged again.
func (s *BudgetService) CheckThresholds(ctx context.Context, userID string, now time.Time) error {
	progress, err := s.Progress(ctx, userID, now)
	if err != nil {
		return err
	}

	var alerted []core.BudgetProgress
	for _, p := range progress {
		if p.Alerted {
			alerted = append(alerted, p)
		}
	}
	if len(alerted) == 0 {
		return nil
	}

	unread, err := s.storage.ListNotifications(ctx, userID, true)
	if err != nil {
		return fmt.Errorf("list notifications: %w", err)
	}
	seen := make(map[string]bool, len(unread))
	for _, n := range unread {
		seen[n.Title] = true
	}

	for _, p := range alerted {
		title := s.budgetAlertTitle(ctx, userID, p.Budget)
		if seen[title] {
			continue
		}

		n := &core.Notification{
			UserID: userID,
			Title:  title,
			Message: fmt.Sprintf("You have spent %s of your %s budget (%.0f%%).",
				p.Spent.Decimal(), p.Budget.Amount.Decimal(), p.Percent.Float()),
			Type: "budget_alert",
		}
		if err := s.storage.CreateNotification(ctx, n); err != nil {
			slog.ErrorContext(ctx, "Failed to create budget notification",
				"budget_id", p.Budget.ID, "error", err)
			continue
		}

		slog.InfoContext(ctx, "Budget threshold crossed",
			"budget_id", p.Budget.ID,
			"spent_cents", p.Spent.Cents,
			"percent_bp", p.Percent)
	}
	return nil
}

func (s *BudgetService) budgetAlertTitle(ctx context.Context, userID string, b core.Budget) string {
	if cat, err := s.storage.GetCategory(ctx, userID, b.CategoryID); err == nil {
		return fmt.Sprintf("Budget alert: %s", cat.Name)
	}
	return fmt.Sprintf("Budget alert: %s", b.CategoryID)
}
