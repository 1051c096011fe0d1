package report

import (
	"context"
	"time"

	"clockslayer/internal/core"
)

// Ports for the record store and the outbound delivery channel.
type (
	ProjectLister interface {
		ListProjects(ctx context.Context) ([]core.Project, error)
	}

	// TimeEntryLister returns entries ordered by ascending start time.
	// A non-nil from applies a lower bound only; the store never caps the
	// upper end of the range.
	TimeEntryLister interface {
		ListTimeEntries(ctx context.Context, from *time.Time) ([]core.TimeEntry, error)
	}

	// MileageEntryLister returns entries ordered by ascending date, same
	// lower-bound-only contract.
	MileageEntryLister interface {
		ListMileageEntries(ctx context.Context, from *time.Time) ([]core.MileageEntry, error)
	}

	// EntrySource is the read surface the aggregator consumes.
	EntrySource interface {
		ProjectLister
		TimeEntryLister
		MileageEntryLister
	}

	Attachment struct {
		Filename string
		Content  []byte
	}

	// Sender delivers a finished report: a subject, a plain-text body, and
	// exactly one attachment.
	Sender interface {
		Send(ctx context.Context, subject, body string, att Attachment) error
	}
)

// Window is the report's time span. The scheduled pipeline uses a trailing
// window ending at now.
type Window struct {
	Start time.Time
	End   time.Time
}

// TrailingWindow returns the window of the given number of days ending at now.
func TrailingWindow(now time.Time, days int) Window {
	return Window{Start: now.AddDate(0, 0, -days), End: now}
}
