package core

import (
	"errors"
	"strings"
	"time"
)

// DefaultMileageRate is the per-mile reimbursement applied to new projects
// unless the caller supplies one (IRS standard rate).
var DefaultMileageRate = Decimal{Hundredths: 67}

type (
	// Project is a billable client project. The ID is immutable once created.
	Project struct {
		ID          int64   `json:"id"`
		Name        string  `json:"name"`
		HourlyRate  Decimal `json:"hourlyRate"`
		MileageRate Decimal `json:"mileageRate"`
	}

	// TimeEntry is a single block of billable time. Hours is stored
	// independently and is not derived from Start/End.
	TimeEntry struct {
		ID        int64     `json:"id"`
		ProjectID int64     `json:"projectId"`
		Start     time.Time `json:"start"`
		End       time.Time `json:"end"`
		Hours     Decimal   `json:"hours"`
		Notes     string    `json:"notes"`
	}

	// MileageEntry records miles driven for a project on a calendar day.
	// Date carries no time component.
	MileageEntry struct {
		ID        int64     `json:"id"`
		ProjectID int64     `json:"projectId"`
		Date      time.Time `json:"date"`
		Miles     Decimal   `json:"miles"`
		Notes     string    `json:"notes"`
	}

	// ReportRow is one formatted line of the weekly CSV, one per time entry
	// in the report window. Derived, never persisted.
	ReportRow struct {
		Date    string  `json:"date"`
		Project string  `json:"project"`
		TimeIn  string  `json:"timeIn"`
		TimeOut string  `json:"timeOut"`
		Hours   Decimal `json:"totalTime"`
		Miles   Decimal `json:"mileage"`
		Notes   string  `json:"notes"`
	}

	// ReportSummary totals a generated report. TotalMiles sums the per-row
	// mileage values, which are broadcast per project+date, so same-day
	// entries double-count miles on purpose.
	ReportSummary struct {
		EntryCount int     `json:"entryCount"`
		TotalHours Decimal `json:"totalHours"`
		TotalMiles Decimal `json:"totalMiles"`
	}
)

// UnknownProject labels report rows whose project reference no longer
// resolves. A dangling reference must never fail a report.
const UnknownProject = "Unknown"

var (
	ErrEmptyName         = errors.New("empty project name")
	ErrNegativeRate      = errors.New("negative rate")
	ErrNegativeMiles     = errors.New("negative miles")
	ErrInvalidProjectRef = errors.New("invalid project reference")
	ErrZeroTimestamp     = errors.New("zero timestamp")
	ErrZeroDate          = errors.New("zero date")
)

func (p Project) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if len(p.Name) > 200 {
		return errors.New("project name too long (max 200 characters)")
	}
	if p.HourlyRate.IsNegative() || p.MileageRate.IsNegative() {
		return ErrNegativeRate
	}
	return nil
}

func (e TimeEntry) Validate() error {
	if e.ProjectID <= 0 {
		return ErrInvalidProjectRef
	}
	if e.Start.IsZero() || e.End.IsZero() {
		return ErrZeroTimestamp
	}
	// End before Start is tolerated: the stored Hours value is authoritative.
	if e.Hours.IsNegative() {
		return errors.New("negative hours")
	}
	return nil
}

func (m MileageEntry) Validate() error {
	if m.ProjectID <= 0 {
		return ErrInvalidProjectRef
	}
	if m.Date.IsZero() {
		return ErrZeroDate
	}
	if m.Miles.IsNegative() {
		return ErrNegativeMiles
	}
	return nil
}

// DateOnly truncates t to its calendar date in t's location.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
