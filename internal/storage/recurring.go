package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/AlynxNeko/sangu/internal/core"
)

func (r *SQLiteRepository) CreateRecurring(ctx context.Context, rt *core.RecurringTransaction) error {
	if rt.ID == "" {
		rt.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO recurring_transactions (id, user_id, description, amount_cents, type,
			category_id, frequency, next_occurrence, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rt.ID, rt.UserID, rt.Description, rt.Amount.Cents, rt.Type,
		nullable(rt.CategoryID), rt.Frequency, utc(rt.NextOccurrence), boolToInt(rt.IsActive),
	)
	if err != nil {
		return fmt.Errorf("create recurring transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetRecurring(ctx context.Context, userID, id string) (*core.RecurringTransaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, description, amount_cents, type, category_id, frequency, next_occurrence, is_active
		FROM recurring_transactions WHERE id = ? AND user_id = ?`, id, userID)
	return scanRecurringRow(row)
}

func (r *SQLiteRepository) ListRecurring(ctx context.Context, userID string) ([]core.RecurringTransaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, description, amount_cents, type, category_id, frequency, next_occurrence, is_active
		FROM recurring_transactions WHERE user_id = ? ORDER BY next_occurrence`, userID)
	if err != nil {
		return nil, fmt.Errorf("list recurring transactions: %w", err)
	}
	defer rows.Close()
	return collectRecurring(rows)
}

// ListDueRecurring returns active schedules across all users whose next
// occurrence is at or before now. The recurring worker drains this.
func (r *SQLiteRepository) ListDueRecurring(ctx context.Context, now time.Time) ([]core.RecurringTransaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, description, amount_cents, type, category_id, frequency, next_occurrence, is_active
		FROM recurring_transactions
		WHERE is_active = 1 AND next_occurrence <= ?
		ORDER BY next_occurrence`, utc(now))
	if err != nil {
		return nil, fmt.Errorf("list due recurring transactions: %w", err)
	}
	defer rows.Close()
	return collectRecurring(rows)
}

func (r *SQLiteRepository) UpdateRecurring(ctx context.Context, rt *core.RecurringTransaction) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE recurring_transactions
		SET description = ?, amount_cents = ?, type = ?, category_id = ?,
			frequency = ?, next_occurrence = ?, is_active = ?
		WHERE id = ? AND user_id = ?`,
		rt.Description, rt.Amount.Cents, rt.Type, nullable(rt.CategoryID),
		rt.Frequency, utc(rt.NextOccurrence), boolToInt(rt.IsActive), rt.ID, rt.UserID,
	)
	if err != nil {
		return fmt.Errorf("update recurring transaction: %w", err)
	}
	return requireRow(res)
}

// AdvanceRecurring moves a schedule's next occurrence forward after the
// worker materialized the due transaction.
func (r *SQLiteRepository) AdvanceRecurring(ctx context.Context, id string, next time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_transactions SET next_occurrence = ? WHERE id = ?`,
		utc(next), id)
	if err != nil {
		return fmt.Errorf("advance recurring transaction: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteRecurring(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM recurring_transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete recurring transaction: %w", err)
	}
	return requireRow(res)
}

func scanRecurringRow(row *sql.Row) (*core.RecurringTransaction, error) {
	var (
		rt         core.RecurringTransaction
		categoryID sql.NullString
	)
	err := row.Scan(&rt.ID, &rt.UserID, &rt.Description, &rt.Amount.Cents, &rt.Type,
		&categoryID, &rt.Frequency, &rt.NextOccurrence, &rt.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan recurring transaction: %w", err)
	}
	rt.CategoryID = categoryID.String
	return &rt, nil
}

func collectRecurring(rows *sql.Rows) ([]core.RecurringTransaction, error) {
	var recurring []core.RecurringTransaction
	for rows.Next() {
		var (
			rt         core.RecurringTransaction
			categoryID sql.NullString
		)
		if err := rows.Scan(&rt.ID, &rt.UserID, &rt.Description, &rt.Amount.Cents, &rt.Type,
			&categoryID, &rt.Frequency, &rt.NextOccurrence, &rt.IsActive); err != nil {
			return nil, fmt.Errorf("scan recurring transaction: %w", err)
		}
		rt.CategoryID = categoryID.String
		recurring = append(recurring, rt)
	}
	return recurring, rows.Err()
}
