package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/AlynxNeko/sangu/internal/amqp"
	"github.com/AlynxNeko/sangu/internal/config"
	gsheet "github.com/AlynxNeko/sangu/internal/export/google"
	"github.com/AlynxNeko/sangu/internal/log"
	"github.com/AlynxNeko/sangu/internal/services"
	"github.com/AlynxNeko/sangu/internal/storage"
)

const republishInterval = 5 * time.Minute

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	log.Setup()
	slog.Info("Starting sangu-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		slog.Error("AMQP_URL is required for the export worker")
		os.Exit(1)
	}
	if cfg.GoogleSpreadsheetID == "" {
		slog.Error("GOOGLE_SPREADSHEET_ID is required for the export worker")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		slog.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sheetsClient, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
	if err != nil {
		slog.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	slog.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		slog.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	processor := services.NewExportProcessor(repo, sheetsClient)

	// Catch up exports whose publish was lost before consuming new ones.
	if err := processor.RepublishPending(ctx, amqpClient, cfg.ExportBatchSize); err != nil {
		slog.Error("Startup republish failed", "error", err)
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		slog.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeTransactionSync(gctx, func(msg *amqp.TransactionSyncMessage) error {
			return processor.Handle(gctx, msg)
		})
	})
	g.Go(func() error {
		return processor.RunRepublisher(gctx, amqpClient, republishInterval, cfg.ExportBatchSize)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Worker failed", "error", err)
		os.Exit(1)
	}

	slog.Info("Worker shutdown complete")
}
