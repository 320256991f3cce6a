package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// PendingExport is the minimal record the export queue needs per transaction.
type PendingExport struct {
	ID        string
	Version   int64
	CreatedAt time.Time
}

// ListPendingExports returns transactions that have not been exported yet,
// oldest first.
func (r *SQLiteRepository) ListPendingExports(ctx context.Context, limit int) ([]PendingExport, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, version, created_at
		FROM transactions
		WHERE synced = 0 AND sync_error = 0
		ORDER BY created_at
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending exports: %w", err)
	}
	defer rows.Close()

	var pending []PendingExport
	for rows.Next() {
		var p PendingExport
		if err := rows.Scan(&p.ID, &p.Version, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending export: %w", err)
		}
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

// GetTransactionVersion returns the current export version of a transaction.
func (r *SQLiteRepository) GetTransactionVersion(ctx context.Context, id string) (int64, error) {
	var version int64
	err := r.db.QueryRowContext(ctx,
		`SELECT version FROM transactions WHERE id = ?`, id).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("get transaction version: %w", err)
	}
	return version, nil
}

// MarkSynced records a successful export. The version guard skips the
// update when the row changed after the message was published; the newer
// version will be picked up by the next export pass.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string, version int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET synced = 1 WHERE id = ? AND version = ?`, id, version)
	if err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}

	slog.InfoContext(ctx, "Transaction marked as synced", "id", id, "version", version)
	return nil
}

// MarkSyncError flags a transaction whose export failed so it is not
// retried in a tight loop.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_error = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark transaction sync error: %w", err)
	}

	slog.WarnContext(ctx, "Transaction marked with sync error", "id", id)
	return nil
}
