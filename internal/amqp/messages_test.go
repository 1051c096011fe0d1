package amqp

import (
	"context"
	"testing"
	"time"
)

func TestReportSentMessageRoundTrip(t *testing.T) {
	start := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)
	msg := NewReportSentMessage(start, end, 4)

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	got, err := ReportSentMessageFromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if !got.WindowStart.Equal(start) || !got.WindowEnd.Equal(end) {
		t.Errorf("window mangled: %v - %v", got.WindowStart, got.WindowEnd)
	}
	if got.EntryCount != 4 {
		t.Errorf("expected entry count 4, got %d", got.EntryCount)
	}
	if got.SentAt.IsZero() {
		t.Error("expected SentAt to be set")
	}
}

func TestReportSentMessageFromJSONRejectsGarbage(t *testing.T) {
	if _, err := ReportSentMessageFromJSON([]byte("not json")); err == nil {
		t.Fatal("expected error")
	}
}

func TestNilClientPublishIsNoop(t *testing.T) {
	var c *Client
	if err := c.PublishReportSent(context.Background(), NewReportSentMessage(time.Now(), time.Now(), 0)); err != nil {
		t.Fatalf("nil client publish: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("nil client close: %v", err)
	}
}
