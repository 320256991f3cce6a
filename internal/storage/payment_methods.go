package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/AlynxNeko/sangu/internal/core"
)

func (r *SQLiteRepository) CreatePaymentMethod(ctx context.Context, m *core.PaymentMethod) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payment_methods (id, user_id, name, type, is_active)
		VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.UserID, m.Name, m.Type, boolToInt(m.IsActive),
	)
	if err != nil {
		return fmt.Errorf("create payment method: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetPaymentMethod(ctx context.Context, userID, id string) (*core.PaymentMethod, error) {
	var m core.PaymentMethod
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, type, is_active
		FROM payment_methods WHERE id = ? AND user_id = ?`, id, userID,
	).Scan(&m.ID, &m.UserID, &m.Name, &m.Type, &m.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get payment method: %w", err)
	}
	return &m, nil
}

func (r *SQLiteRepository) ListPaymentMethods(ctx context.Context, userID string) ([]core.PaymentMethod, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, type, is_active
		FROM payment_methods WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list payment methods: %w", err)
	}
	defer rows.Close()

	var methods []core.PaymentMethod
	for rows.Next() {
		var m core.PaymentMethod
		if err := rows.Scan(&m.ID, &m.UserID, &m.Name, &m.Type, &m.IsActive); err != nil {
			return nil, fmt.Errorf("scan payment method: %w", err)
		}
		methods = append(methods, m)
	}
	return methods, rows.Err()
}

func (r *SQLiteRepository) UpdatePaymentMethod(ctx context.Context, m *core.PaymentMethod) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE payment_methods SET name = ?, type = ?, is_active = ?
		WHERE id = ? AND user_id = ?`,
		m.Name, m.Type, boolToInt(m.IsActive), m.ID, m.UserID,
	)
	if err != nil {
		return fmt.Errorf("update payment method: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeletePaymentMethod(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM payment_methods WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete payment method: %w", err)
	}
	return requireRow(res)
}
