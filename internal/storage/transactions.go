package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/AlynxNeko/sangu/internal/core"
)

// CreateTransaction persists a transaction, and when it carries a split,
// the split header and all participant rows inside the same database
// transaction. There is no state where the transaction exists without
// its split.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t *core.Transaction) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	t.IsSplit = t.Split != nil

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, type, amount_cents, category_id, payment_method_id,
			description, date, receipt_url, notes, is_split, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Type, t.Amount.Cents, nullable(t.CategoryID), nullable(t.PaymentMethodID),
		t.Description, utc(t.Date), t.ReceiptURL, t.Notes, boolToInt(t.IsSplit), utc(t.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	if t.Split != nil {
		if t.Split.ID == "" {
			t.Split.ID = uuid.New().String()
		}
		t.Split.TransactionID = t.ID

		_, err = tx.ExecContext(ctx, `
			INSERT INTO transaction_splits (id, transaction_id, total_amount_cents)
			VALUES (?, ?, ?)`,
			t.Split.ID, t.ID, t.Split.TotalAmount.Cents,
		)
		if err != nil {
			return fmt.Errorf("insert transaction split: %w", err)
		}

		for i := range t.Split.Participants {
			p := &t.Split.Participants[i]
			if p.ID == "" {
				p.ID = uuid.New().String()
			}
			p.SplitID = t.Split.ID

			_, err = tx.ExecContext(ctx, `
				INSERT INTO split_participants (id, split_id, name, amount_owed_cents, is_paid)
				VALUES (?, ?, ?, ?, ?)`,
				p.ID, t.Split.ID, p.Name, p.AmountOwed.Cents, boolToInt(p.IsPaid),
			)
			if err != nil {
				return fmt.Errorf("insert split participant: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", t.ID,
		"type", t.Type,
		"amount_cents", t.Amount.Cents,
		"is_split", t.IsSplit)
	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id string) (*core.Transaction, error) {
	var (
		t                   core.Transaction
		categoryID, payment sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, type, amount_cents, category_id, payment_method_id,
			description, date, receipt_url, notes, is_split, created_at
		FROM transactions WHERE id = ? AND user_id = ?`, id, userID,
	).Scan(&t.ID, &t.UserID, &t.Type, &t.Amount.Cents, &categoryID, &payment,
		&t.Description, &t.Date, &t.ReceiptURL, &t.Notes, &t.IsSplit, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	t.CategoryID = categoryID.String
	t.PaymentMethodID = payment.String

	if t.IsSplit {
		split, err := r.getSplit(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		t.Split = split
	}
	return &t, nil
}

// GetTransactionByID loads a transaction without user scoping. Reserved for
// the export worker, which only sees IDs the server itself queued.
func (r *SQLiteRepository) GetTransactionByID(ctx context.Context, id string) (*core.Transaction, error) {
	var userID string
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id FROM transactions WHERE id = ?`, id).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction owner: %w", err)
	}
	return r.GetTransaction(ctx, userID, id)
}

// ListTransactions returns the user's transactions with date in [from, to),
// newest first. Split details are hydrated for each split transaction.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string, from, to time.Time) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, type, amount_cents, category_id, payment_method_id,
			description, date, receipt_url, notes, is_split, created_at
		FROM transactions
		WHERE user_id = ? AND date >= ? AND date < ?
		ORDER BY date DESC, created_at DESC`,
		userID, utc(from), utc(to))
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []core.Transaction
	for rows.Next() {
		var (
			t                   core.Transaction
			categoryID, payment sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount.Cents, &categoryID, &payment,
			&t.Description, &t.Date, &t.ReceiptURL, &t.Notes, &t.IsSplit, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.CategoryID = categoryID.String
		t.PaymentMethodID = payment.String
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	for i := range transactions {
		if !transactions[i].IsSplit {
			continue
		}
		split, err := r.getSplit(ctx, transactions[i].ID)
		if err != nil {
			return nil, err
		}
		transactions[i].Split = split
	}
	return transactions, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t *core.Transaction) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET type = ?, amount_cents = ?, category_id = ?, payment_method_id = ?,
			description = ?, date = ?, receipt_url = ?, notes = ?,
			version = version + 1, synced = 0, sync_error = 0
		WHERE id = ? AND user_id = ?`,
		t.Type, t.Amount.Cents, nullable(t.CategoryID), nullable(t.PaymentMethodID),
		t.Description, utc(t.Date), t.ReceiptURL, t.Notes, t.ID, t.UserID,
	)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return requireRow(res)
}

// MarkParticipantPaid toggles a split participant's paid flag and returns
// the parent transaction's date so callers can invalidate the right month.
// The join through the transaction row keeps one user from touching
// another's splits.
func (r *SQLiteRepository) MarkParticipantPaid(ctx context.Context, userID, participantID string, paid bool) (time.Time, error) {
	var date time.Time
	err := r.db.QueryRowContext(ctx, `
		SELECT t.date FROM transactions t
		JOIN transaction_splits s ON s.transaction_id = t.id
		JOIN split_participants p ON p.split_id = s.id
		WHERE p.id = ? AND t.user_id = ?`,
		participantID, userID,
	).Scan(&date)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, core.ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("find split participant: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE split_participants SET is_paid = ? WHERE id = ?`,
		boolToInt(paid), participantID,
	)
	if err != nil {
		return time.Time{}, fmt.Errorf("mark participant paid: %w", err)
	}
	if err := requireRow(res); err != nil {
		return time.Time{}, err
	}
	return date, nil
}

func (r *SQLiteRepository) getSplit(ctx context.Context, transactionID string) (*core.TransactionSplit, error) {
	var s core.TransactionSplit
	err := r.db.QueryRowContext(ctx, `
		SELECT id, transaction_id, total_amount_cents
		FROM transaction_splits WHERE transaction_id = ?`, transactionID,
	).Scan(&s.ID, &s.TransactionID, &s.TotalAmount.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get split: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, split_id, name, amount_owed_cents, is_paid
		FROM split_participants WHERE split_id = ? ORDER BY name`, s.ID)
	if err != nil {
		return nil, fmt.Errorf("get split participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p core.SplitParticipant
		if err := rows.Scan(&p.ID, &p.SplitID, &p.Name, &p.AmountOwed.Cents, &p.IsPaid); err != nil {
			return nil, fmt.Errorf("scan split participant: %w", err)
		}
		s.Participants = append(s.Participants, p)
	}
	return &s, rows.Err()
}

// nullable maps empty strings to NULL so optional foreign keys stay valid.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
