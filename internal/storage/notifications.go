package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/AlynxNeko/sangu/internal/core"
)

func (r *SQLiteRepository) CreateNotification(ctx context.Context, n *core.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if n.Type == "" {
		n.Type = "info"
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, title, message, type, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, n.Title, n.Message, n.Type, boolToInt(n.IsRead), utc(n.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]core.Notification, error) {
	query := `
		SELECT id, user_id, title, message, type, is_read, created_at
		FROM notifications WHERE user_id = ?`
	if unreadOnly {
		query += ` AND is_read = 0`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []core.Notification
	for rows.Next() {
		var n core.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *SQLiteRepository) MarkNotificationRead(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}
