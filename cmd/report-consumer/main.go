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
)

// Drains the report_events queue and logs each report run, giving deployments
// an audit trail of what was mailed and when. Runs alongside the server or the
// standalone scheduler; without a consumer the durable queue only grows.
func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting report-consumer")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP not configured: set AMQP_URL")
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	err = amqpClient.ConsumeReportSent(ctx, func(msg *amqp.ReportSentMessage) error {
		logger.Info("Report delivered",
			"window_start", msg.WindowStart.Format("2006-01-02"),
			"window_end", msg.WindowEnd.Format("2006-01-02"),
			"entry_count", msg.EntryCount,
			"sent_at", msg.SentAt)
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Consumer error", "error", err)
		os.Exit(1)
	}
	logger.Info("Consumer stopped gracefully")
}
