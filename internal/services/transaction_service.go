// Package services provides business logic and orchestration on top of the
// storage layer.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/AlynxNeko/sangu/internal/amqp"
	"github.com/AlynxNeko/sangu/internal/core"
	"github.com/AlynxNeko/sangu/internal/storage"
)

var ErrSplitMismatch = errors.New("own share plus participant shares must equal the total bill")

// TransactionService orchestrates transaction writes across SQLite and AMQP.
type TransactionService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewTransactionService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *TransactionService {
	return &TransactionService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// Create validates and persists a transaction, then publishes an export
// message. Publish failures are logged, not surfaced: the local write is
// the source of truth and the export queue catches up later.
func (s *TransactionService) Create(ctx context.Context, t *core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if t.Split != nil {
		if err := validateSplit(t.Amount, t.Split); err != nil {
			return err
		}
	}

	if err := s.storage.CreateTransaction(ctx, t); err != nil {
		return fmt.Errorf("save transaction: %w", err)
	}

	s.publishSyncMessage(ctx, t.ID, 1)
	return nil
}

// Update rewrites a transaction and re-queues it for export at its new
// version.
func (s *TransactionService) Update(ctx context.Context, t *core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}

	if err := s.storage.UpdateTransaction(ctx, t); err != nil {
		return err
	}

	version, err := s.storage.GetTransactionVersion(ctx, t.ID)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to read transaction version after update",
			"id", t.ID, "error", err)
		return nil
	}
	s.publishSyncMessage(ctx, t.ID, version)
	return nil
}

func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	return s.storage.DeleteTransaction(ctx, userID, id)
}

func (s *TransactionService) Get(ctx context.Context, userID, id string) (*core.Transaction, error) {
	return s.storage.GetTransaction(ctx, userID, id)
}

func (s *TransactionService) List(ctx context.Context, userID string, from, to time.Time) ([]core.Transaction, error) {
	return s.storage.ListTransactions(ctx, userID, from, to)
}

// MarkParticipantPaid settles a split participant and returns the parent
// transaction's date.
func (s *TransactionService) MarkParticipantPaid(ctx context.Context, userID, participantID string, paid bool) (time.Time, error) {
	return s.storage.MarkParticipantPaid(ctx, userID, participantID, paid)
}

func (s *TransactionService) publishSyncMessage(ctx context.Context, id string, version int64) {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message")
		return
	}
	if err := s.amqpClient.PublishTransactionSync(ctx, id, version); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", id, "version", version, "error", err)
	}
}

// Close closes both storage and AMQP connections.
func (s *TransactionService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close transaction service: %v", errs)
	}
	return nil
}

// validateSplit checks that participant shares are coherent with the total
// bill: the owner's share plus everyone else's must cover it exactly.
func validateSplit(ownShare core.Money, split *core.TransactionSplit) error {
	if err := split.TotalAmount.Validate(); err != nil {
		return err
	}

	var friendsTotal core.Money
	for _, p := range split.Participants {
		if strings.TrimSpace(p.Name) == "" {
			return core.ErrEmptyParticipant
		}
		if p.AmountOwed.IsNegative() {
			return core.ErrInvalidAmount
		}
		friendsTotal = friendsTotal.Add(p.AmountOwed)
	}

	if friendsTotal.Cents > split.TotalAmount.Cents {
		return core.ErrSplitExceedsTotal
	}
	if ownShare.Add(friendsTotal) != split.TotalAmount {
		return ErrSplitMismatch
	}
	return nil
}

// notFound reports whether err is any of the shapes the storage layer uses
// for a missing row.
func notFound(err error) bool {
	return errors.Is(err, core.ErrNotFound) || errors.Is(err, sql.ErrNoRows)
}
