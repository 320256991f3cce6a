package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/AlynxNeko/sangu/internal/amqp"
	"github.com/AlynxNeko/sangu/internal/auth"
	"github.com/AlynxNeko/sangu/internal/config"
	apphttp "github.com/AlynxNeko/sangu/internal/http"
	"github.com/AlynxNeko/sangu/internal/log"
	"github.com/AlynxNeko/sangu/internal/ocr"
	"github.com/AlynxNeko/sangu/internal/services"
	"github.com/AlynxNeko/sangu/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	log.Setup()
	slog.Info("Starting sangu-server")

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

	// The export broker is optional; without it transactions stay local.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			slog.Warn("Failed to initialize AMQP client, continuing without export", "error", err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
			slog.Info("AMQP client initialized, transactions will sync via sangu-worker")
		}
	} else {
		slog.Info("AMQP disabled, transactions will not be exported")
	}

	transactions := services.NewTransactionService(repo, amqpClient)
	rules := services.NewRuleService(repo)
	budgets := services.NewBudgetService(repo)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	passwords := auth.NewPasswordAuthenticator(repo)
	ocrClient := ocr.NewClient(cfg.OCRWebhookURL, cfg.OCRTimeout)

	srv := apphttp.NewServer(
		apphttp.Options{
			Addr:          ":" + cfg.Port,
			UploadDir:     cfg.UploadDir,
			PublicBaseURL: cfg.PublicBaseURL,
		},
		repo, transactions, rules, budgets, jwtManager, passwords, ocrClient,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		slog.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	slog.Info("Listening", "port", cfg.Port, "upload_dir", cfg.UploadDir)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	slog.Info("Server stopped gracefully")
}
