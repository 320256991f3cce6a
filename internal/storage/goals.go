package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/AlynxNeko/sangu/internal/core"
)

func (r *SQLiteRepository) CreateGoal(ctx context.Context, g *core.FinancialGoal) error {
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO financial_goals (id, user_id, name, description, target_amount_cents, current_amount_cents, target_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.UserID, g.Name, g.Description, g.TargetAmount.Cents, g.CurrentAmount.Cents, goalDate(g),
	)
	if err != nil {
		return fmt.Errorf("create goal: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetGoal(ctx context.Context, userID, id string) (*core.FinancialGoal, error) {
	var (
		g          core.FinancialGoal
		targetDate sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, description, target_amount_cents, current_amount_cents, target_date
		FROM financial_goals WHERE id = ? AND user_id = ?`, id, userID,
	).Scan(&g.ID, &g.UserID, &g.Name, &g.Description, &g.TargetAmount.Cents, &g.CurrentAmount.Cents, &targetDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get goal: %w", err)
	}
	g.TargetDate = targetDate.Time
	return &g, nil
}

func (r *SQLiteRepository) ListGoals(ctx context.Context, userID string) ([]core.FinancialGoal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, description, target_amount_cents, current_amount_cents, target_date
		FROM financial_goals WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []core.FinancialGoal
	for rows.Next() {
		var (
			g          core.FinancialGoal
			targetDate sql.NullTime
		)
		if err := rows.Scan(&g.ID, &g.UserID, &g.Name, &g.Description,
			&g.TargetAmount.Cents, &g.CurrentAmount.Cents, &targetDate); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		g.TargetDate = targetDate.Time
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

func (r *SQLiteRepository) UpdateGoal(ctx context.Context, g *core.FinancialGoal) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE financial_goals
		SET name = ?, description = ?, target_amount_cents = ?, current_amount_cents = ?, target_date = ?
		WHERE id = ? AND user_id = ?`,
		g.Name, g.Description, g.TargetAmount.Cents, g.CurrentAmount.Cents, goalDate(g), g.ID, g.UserID,
	)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM financial_goals WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return requireRow(res)
}

func goalDate(g *core.FinancialGoal) any {
	if g.TargetDate.IsZero() {
		return nil
	}
	return utc(g.TargetDate)
}
