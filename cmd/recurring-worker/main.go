package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/AlynxNeko/sangu/internal/amqp"
	"github.com/AlynxNeko/sangu/internal/config"
	"github.com/AlynxNeko/sangu/internal/log"
	"github.com/AlynxNeko/sangu/internal/services"
	"github.com/AlynxNeko/sangu/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	log.Setup()
	slog.Info("Starting recurring-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		slog.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Materialized transactions go through the same service as the API so
	// they are validated and queued for export the same way.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			slog.Warn("Failed to initialize AMQP client, continuing without export", "error", err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
		}
	}

	transactions := services.NewTransactionService(repo, amqpClient)
	processor := services.NewRecurringProcessor(repo, transactions)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		slog.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	slog.Info("Recurring processor configured",
		"interval", cfg.RecurringInterval,
		"sqlite_db", cfg.SQLiteDBPath)

	if err := processor.Run(ctx, cfg.RecurringInterval); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Recurring processor failed", "error", err)
		os.Exit(1)
	}

	slog.Info("Recurring-worker shutdown complete")
}
