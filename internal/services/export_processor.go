package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AlynxNeko/sangu/internal/amqp"
	"github.com/AlynxNeko/sangu/internal/core"
	"github.com/AlynxNeko/sangu/internal/export"
	"github.com/AlynxNeko/sangu/internal/storage"
)

// ExportProcessor consumes export queue messages and writes transactions to
// the external export target.
type ExportProcessor struct {
	storage *storage.SQLiteRepository
	writer  export.TransactionWriter
}

func NewExportProcessor(storage *storage.SQLiteRepository, writer export.TransactionWriter) *ExportProcessor {
	return &ExportProcessor{
		storage: storage,
		writer:  writer,
	}
}

// Handle processes one export message: fetch the transaction, append it to
// the export target, and mark it synced. A row that changed since the
// message was published is skipped; the newer version has its own message.
func (p *ExportProcessor) Handle(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	version, err := p.storage.GetTransactionVersion(ctx, msg.ID)
	if err != nil {
		// The transaction was deleted after being queued. Drop the message.
		slog.WarnContext(ctx, "Export target transaction no longer exists",
			"id", msg.ID, "error", err)
		return nil
	}
	if version != msg.Version {
		slog.InfoContext(ctx, "Skipping stale export message",
			"id", msg.ID, "message_version", msg.Version, "current_version", version)
		return nil
	}

	transaction, err := p.getTransactionAnyUser(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get transaction %s: %w", msg.ID, err)
	}

	ref, err := p.writer.Append(ctx, transaction)
	if err != nil {
		if markErr := p.storage.MarkSyncError(ctx, msg.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error",
				"id", msg.ID, "error", markErr)
		}
		return fmt.Errorf("append to export target: %w", err)
	}

	if err := p.storage.MarkSynced(ctx, msg.ID, msg.Version); err != nil {
		slog.WarnContext(ctx, "Failed to mark transaction as synced",
			"id", msg.ID, "error", err)
		// The export itself succeeded; don't requeue.
	}

	slog.InfoContext(ctx, "Exported transaction",
		"id", msg.ID,
		"version", msg.Version,
		"ref", ref)
	return nil
}

// RepublishPending re-queues transactions whose publish was lost (server
// crash between commit and publish, AMQP outage). Runs periodically in the
// export worker.
func (p *ExportProcessor) RepublishPending(ctx context.Context, client *amqp.Client, batchSize int) error {
	pending, err := p.storage.ListPendingExports(ctx, batchSize)
	if err != nil {
		return fmt.Errorf("list pending exports: %w", err)
	}

	for _, item := range pending {
		if err := client.PublishTransactionSync(ctx, item.ID, item.Version); err != nil {
			return fmt.Errorf("republish %s: %w", item.ID, err)
		}
	}

	if len(pending) > 0 {
		slog.InfoContext(ctx, "Republished pending exports", "count", len(pending))
	}
	return nil
}

// RunRepublisher polls for unpublished exports at the given interval.
func (p *ExportProcessor) RunRepublisher(ctx context.Context, client *amqp.Client, interval time.Duration, batchSize int) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.RepublishPending(ctx, client, batchSize); err != nil {
				slog.ErrorContext(ctx, "Republish pass failed", "error", err)
			}
		}
	}
}

// getTransactionAnyUser loads a transaction by ID without user scoping. The
// export worker trusts queue messages, which only ever carry IDs the server
// itself published.
func (p *ExportProcessor) getTransactionAnyUser(ctx context.Context, id string) (*core.Transaction, error) {
	return p.storage.GetTransactionByID(ctx, id)
}
