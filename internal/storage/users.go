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

func (r *SQLiteRepository) CreateUser(ctx context.Context, user *core.UserProfile) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	if user.Currency == "" {
		user.Currency = "IDR"
	}
	if user.Theme == "" {
		user.Theme = "light"
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, display_name, currency, theme, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.DisplayName, user.Currency, user.Theme, user.PasswordHash, utc(user.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (*core.UserProfile, error) {
	return r.scanUser(r.db.QueryRowContext(ctx, `
		SELECT id, email, display_name, currency, theme, password_hash, created_at
		FROM users WHERE email = ?`, email))
}

func (r *SQLiteRepository) GetUserByID(ctx context.Context, id string) (*core.UserProfile, error) {
	return r.scanUser(r.db.QueryRowContext(ctx, `
		SELECT id, email, display_name, currency, theme, password_hash, created_at
		FROM users WHERE id = ?`, id))
}

func (r *SQLiteRepository) UpdateUserProfile(ctx context.Context, user *core.UserProfile) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET display_name = ?, currency = ?, theme = ? WHERE id = ?`,
		user.DisplayName, user.Currency, user.Theme, user.ID,
	)
	if err != nil {
		return fmt.Errorf("update user profile: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) UpdateUserPassword(ctx context.Context, userID, passwordHash string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET password_hash = ? WHERE id = ?`,
		passwordHash, userID,
	)
	if err != nil {
		return fmt.Errorf("update user password: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) scanUser(row *sql.Row) (*core.UserProfile, error) {
	var u core.UserProfile
	err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.Currency, &u.Theme, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// requireRow maps a zero-row update or delete to ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}
