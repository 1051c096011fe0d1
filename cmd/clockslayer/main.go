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
	"golang.org/x/sync/errgroup"

	"clockslayer/internal/amqp"
	"clockslayer/internal/config"
	apphttp "clockslayer/internal/http"
	"clockslayer/internal/mail"
	"clockslayer/internal/report"
	"clockslayer/internal/scheduler"
	"clockslayer/internal/services"
	"clockslayer/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
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

	var sender report.Sender
	if cfg.MailFrom != "" {
		gmailSender, err := mail.NewSenderFromEnv(ctx, cfg.MailFrom, cfg.MailTo)
		if err != nil {
			logger.Error("Failed to initialize Gmail sender", "error", err)
			os.Exit(1)
		}
		sender = gmailSender
		logger.Info("Gmail sender initialized", "from", cfg.MailFrom, "to", cfg.MailTo)
	} else {
		logger.Warn("Mail not configured - reports cannot be delivered")
	}

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without report events", "error", err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
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

	srv := apphttp.NewServer(":"+cfg.Port, repo, reportService)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 60 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

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

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting clockslayer server", "port", cfg.Port, "db", cfg.SQLiteDBPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if sender == nil {
			logger.Warn("Scheduler disabled: no mail sender configured")
			<-gctx.Done()
			return nil
		}
		if err := weekly.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
