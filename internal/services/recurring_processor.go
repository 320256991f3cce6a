package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AlynxNeko/sangu/internal/core"
	"github.com/AlynxNeko/sangu/internal/storage"
)

// RecurringProcessor materializes real transactions from recurring schedule
// templates.
type RecurringProcessor struct {
	storage            *storage.SQLiteRepository
	transactionService *TransactionService
}

func NewRecurringProcessor(storage *storage.SQLiteRepository, transactionService *TransactionService) *RecurringProcessor {
	return &RecurringProcessor{
		storage:            storage,
		transactionService: transactionService,
	}
}

// ProcessDue creates a transaction for every active schedule whose next
// occurrence is at or before now, then advances the schedule past now.
// Returns the number of transactions created.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if p.storage == nil || p.transactionService == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	due, err := p.storage.ListDueRecurring(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list due recurring transactions: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring transactions",
		"due", len(due),
		"processing_date", now.Format("2006-01-02"))

	processedCount := 0
	for _, rt := range due {
		scheduler, err := GetOccurrenceScheduler(rt.Frequency)
		if err != nil {
			slog.ErrorContext(ctx, "Skipping schedule with unknown frequency",
				"id", rt.ID, "frequency", rt.Frequency)
			continue
		}

		transaction := &core.Transaction{
			UserID:      rt.UserID,
			Type:        rt.Type,
			Amount:      rt.Amount,
			CategoryID:  rt.CategoryID,
			Description: rt.Description,
			Date:        rt.NextOccurrence,
		}
		if err := p.transactionService.Create(ctx, transaction); err != nil {
			slog.ErrorContext(ctx, "Failed to create transaction from recurring template",
				"recurring_id", rt.ID,
				"description", rt.Description,
				"error", err)
			continue
		}

		// Advance past now so a schedule missed for several periods does
		// not fire once per worker tick.
		next := scheduler.Next(rt.NextOccurrence)
		for !next.After(now) {
			next = scheduler.Next(next)
		}
		if err := p.storage.AdvanceRecurring(ctx, rt.ID, next); err != nil {
			slog.ErrorContext(ctx, "Failed to advance recurring schedule",
				"recurring_id", rt.ID,
				"error", err)
			// Transaction was created; the next run will see a stale
			// occurrence and may duplicate, so surface loudly.
			continue
		}

		processedCount++
		slog.InfoContext(ctx, "Created transaction from recurring template",
			"recurring_id", rt.ID,
			"description", rt.Description,
			"amount_cents", rt.Amount.Cents,
			"frequency", rt.Frequency,
			"next_occurrence", next.Format("2006-01-02"))
	}

	slog.InfoContext(ctx, "Recurring transaction processing complete",
		"processed", processedCount,
		"total_due", len(due))
	return processedCount, nil
}

// Run polls for due schedules at the given interval until the context is
// cancelled.
func (p *RecurringProcessor) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Process immediately on startup.
	if _, err := p.ProcessDue(ctx, time.Now()); err != nil {
		slog.ErrorContext(ctx, "Initial recurring processing failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := p.ProcessDue(ctx, time.Now()); err != nil {
				slog.ErrorContext(ctx, "Recurring processing failed", "error", err)
			}
		}
	}
}
