package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/AlynxNeko/sangu/internal/core"
)

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b *core.Budget) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.Period == "" {
		b.Period = "monthly"
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (id, user_id, category_id, amount_cents, period, alert_threshold)
		VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.UserID, b.CategoryID, b.Amount.Cents, b.Period, b.AlertThreshold,
	)
	if err != nil {
		return fmt.Errorf("create budget: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, userID, id string) (*core.Budget, error) {
	var b core.Budget
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, category_id, amount_cents, period, alert_threshold
		FROM budgets WHERE id = ? AND user_id = ?`, id, userID,
	).Scan(&b.ID, &b.UserID, &b.CategoryID, &b.Amount.Cents, &b.Period, &b.AlertThreshold)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get budget: %w", err)
	}
	return &b, nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, category_id, amount_cents, period, alert_threshold
		FROM budgets WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		var b core.Budget
		if err := rows.Scan(&b.ID, &b.UserID, &b.CategoryID, &b.Amount.Cents, &b.Period, &b.AlertThreshold); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b *core.Budget) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE budgets SET category_id = ?, amount_cents = ?, period = ?, alert_threshold = ?
		WHERE id = ? AND user_id = ?`,
		b.CategoryID, b.Amount.Cents, b.Period, b.AlertThreshold, b.ID, b.UserID,
	)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return requireRow(res)
}
