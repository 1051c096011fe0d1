package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"clockslayer/internal/amqp"
	"clockslayer/internal/config"
	"clockslayer/internal/mail"
	"clockslayer/internal/report"
	"clockslayer/internal/scheduler"
	"clockslayer/internal/services"
	"clockslayer/internal/storage"
)

// Standalone weekly report scheduler: same pipeline wiring as the API server,
// no HTTP. Run this when the report timer should live in its own process.
func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting report-scheduler")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.MailFrom == "" {
		logger.Error("Mail not configured: set MAIL_FROM and MAIL_TO")
		os.Exit(1)
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("Failed to load report timezone", "error", err, "timezone", cfg.ReportTimezone)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sender, err := mail.NewSenderFromEnv(ctx, cfg.MailFrom, cfg.MailTo)
	if err != nil {
		logger.Error("Failed to initialize Gmail sender", "error", err)
		os.Exit(1)
	}

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without report events", "error", err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
		}
	}

	aggregator := report.NewAggregator(repo, loc)
	reportService := services.NewReportService(aggregator, sender, amqpClient, services.ReportServiceOptions{
		WindowDays:      cfg.ReportWindowDays,
		SubjectPrefix:   cfg.MailSubjectPrefix,
		StoreTimeout:    cfg.StoreTimeout,
		DeliveryTimeout: cfg.DeliveryTimeout,
		Location:        loc,
	})

	hour, minute, err := config.ParseClock(cfg.ReportTime)
	if err != nil {
		logger.Error("Failed to parse report time", "error", err, "time", cfg.ReportTime)
		os.Exit(1)
	}
	weekly := scheduler.NewWeekly(cfg.ReportDay, hour, minute, loc, func(ctx context.Context) error {
		_, err := reportService.Run(ctx)
		return err
	})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	if err := weekly.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Scheduler error", "error", err)
		os.Exit(1)
	}
	logger.Info("Scheduler stopped gracefully")
}
