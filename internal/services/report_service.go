package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"clockslayer/internal/amqp"
	"clockslayer/internal/core"
	"clockslayer/internal/report"
)

var (
	// ErrReportInProgress means another report run holds the single-flight lock.
	ErrReportInProgress = errors.New("report run already in progress")
	// ErrDeliveryFailed wraps mail transport failures so callers can tell them
	// apart from aggregation failures.
	ErrDeliveryFailed = errors.New("report delivery failed")
	// ErrSenderUnconfigured means no mail channel was wired at startup.
	ErrSenderUnconfigured = errors.New("mail sender not configured")
)

// ReportGenerator produces the rows and totals for a window.
type ReportGenerator interface {
	Generate(ctx context.Context, w report.Window) ([]core.ReportRow, core.ReportSummary, error)
}

// ReportService orchestrates one report run: aggregate, format, mail, announce.
// Runs are single-flight within the process; a second caller gets
// ErrReportInProgress instead of queueing.
type ReportService struct {
	generator  ReportGenerator
	sender     report.Sender
	amqpClient *amqp.Client

	windowDays      int
	subjectPrefix   string
	storeTimeout    time.Duration
	deliveryTimeout time.Duration
	loc             *time.Location

	mu  sync.Mutex
	now func() time.Time
}

type ReportServiceOptions struct {
	WindowDays      int
	SubjectPrefix   string
	StoreTimeout    time.Duration
	DeliveryTimeout time.Duration
	Location        *time.Location
}

func NewReportService(generator ReportGenerator, sender report.Sender, amqpClient *amqp.Client, opts ReportServiceOptions) *ReportService {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	return &ReportService{
		generator:       generator,
		sender:          sender,
		amqpClient:      amqpClient,
		windowDays:      opts.WindowDays,
		subjectPrefix:   opts.SubjectPrefix,
		storeTimeout:    opts.StoreTimeout,
		deliveryTimeout: opts.DeliveryTimeout,
		loc:             loc,
		now:             time.Now,
	}
}

// RunResult describes a completed report run.
type RunResult struct {
	Window     report.Window
	EntryCount int
	TotalHours core.Decimal
	TotalMiles core.Decimal
	Filename   string
	SentAt     time.Time
}

// Run generates the trailing-window report and mails it. The report is sent
// even when the window holds no entries; an empty week is itself news.
func (s *ReportService) Run(ctx context.Context) (RunResult, error) {
	if !s.mu.TryLock() {
		return RunResult{}, ErrReportInProgress
	}
	defer s.mu.Unlock()

	if s.sender == nil {
		return RunResult{}, ErrSenderUnconfigured
	}

	window := report.TrailingWindow(s.now().In(s.loc), s.windowDays)

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	rows, summary, err := s.generator.Generate(storeCtx, window)
	cancel()
	if err != nil {
		return RunResult{}, fmt.Errorf("generate report: %w", err)
	}

	content, err := report.FormatCSV(rows)
	if err != nil {
		return RunResult{}, fmt.Errorf("format report: %w", err)
	}
	att := report.Attachment{Filename: report.Filename(window), Content: content}

	subject := s.subject(window)
	body := s.body(window, summary)

	deliveryCtx, cancel := context.WithTimeout(ctx, s.deliveryTimeout)
	err = s.sender.Send(deliveryCtx, subject, body, att)
	cancel()
	if err != nil {
		return RunResult{}, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	sentAt := s.now()
	s.publishReportSent(ctx, window, summary.EntryCount)

	slog.InfoContext(ctx, "Report run complete",
		"window_start", window.Start,
		"window_end", window.End,
		"entries", summary.EntryCount,
		"total_hours", summary.TotalHours,
		"total_miles", summary.TotalMiles)

	return RunResult{
		Window:     window,
		EntryCount: summary.EntryCount,
		TotalHours: summary.TotalHours,
		TotalMiles: summary.TotalMiles,
		Filename:   att.Filename,
		SentAt:     sentAt,
	}, nil
}

func (s *ReportService) subject(w report.Window) string {
	subject := fmt.Sprintf("Weekly Report %s to %s", w.Start.Format("2006-01-02"), w.End.Format("2006-01-02"))
	if s.subjectPrefix != "" {
		subject = s.subjectPrefix + " " + subject
	}
	return subject
}

func (s *ReportService) body(w report.Window, summary core.ReportSummary) string {
	return fmt.Sprintf(
		"Weekly report for %s through %s.\n\nEntries: %d\nTotal hours: %s\nTotal miles: %s\n\nThe full report is attached as CSV.\n",
		w.Start.Format("2006-01-02"), w.End.Format("2006-01-02"),
		summary.EntryCount, summary.TotalHours, summary.TotalMiles)
}

// publishReportSent is best-effort: the mail already went out, so a broker
// hiccup must not fail the run.
func (s *ReportService) publishReportSent(ctx context.Context, w report.Window, entryCount int) {
	if s.amqpClient == nil {
		return
	}
	msg := amqp.NewReportSentMessage(w.Start, w.End, entryCount)
	if err := s.amqpClient.PublishReportSent(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish report sent message",
			"error", err,
			"window_start", w.Start,
			"window_end", w.End)
	}
}
