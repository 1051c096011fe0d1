package report

import (
	"context"
	"fmt"
	"time"

	"clockslayer/internal/core"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "3:04 PM"
)

// Aggregator turns the record store's contents over a window into ordered
// report rows and summary totals. Pure read and compute; it never writes.
type Aggregator struct {
	source EntrySource
	loc    *time.Location
}

// NewAggregator builds an aggregator that derives calendar dates and clock
// labels in loc. A nil loc means UTC.
func NewAggregator(source EntrySource, loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{source: source, loc: loc}
}

// Generate produces one row per time entry starting at or after w.Start,
// ascending by start time. Mileage is summed per (project, calendar date) and
// the sum is attached to every time-entry row for that pair, so two same-day
// entries each carry the full day's miles and the summary double-counts them.
// That mirrors how the reports have always read and is intentional.
//
// Any store failure fails the whole aggregation; no partial rows come back.
func (a *Aggregator) Generate(ctx context.Context, w Window) ([]core.ReportRow, core.ReportSummary, error) {
	from := w.Start
	timeEntries, err := a.source.ListTimeEntries(ctx, &from)
	if err != nil {
		return nil, core.ReportSummary{}, fmt.Errorf("list time entries: %w", err)
	}

	fromDate := core.DateOnly(w.Start.In(a.loc))
	mileageEntries, err := a.source.ListMileageEntries(ctx, &fromDate)
	if err != nil {
		return nil, core.ReportSummary{}, fmt.Errorf("list mileage entries: %w", err)
	}

	projects, err := a.source.ListProjects(ctx)
	if err != nil {
		return nil, core.ReportSummary{}, fmt.Errorf("list projects: %w", err)
	}

	names := make(map[int64]string, len(projects))
	for _, p := range projects {
		names[p.ID] = p.Name
	}

	// One pass over mileage: sum by (project, date).
	miles := make(map[mileageKey]core.Decimal, len(mileageEntries))
	for _, m := range mileageEntries {
		k := mileageKey{projectID: m.ProjectID, date: m.Date.Format(dateLayout)}
		miles[k] = miles[k].Add(m.Miles)
	}

	rows := make([]core.ReportRow, 0, len(timeEntries))
	var summary core.ReportSummary
	for _, e := range timeEntries {
		start := e.Start.In(a.loc)
		date := start.Format(dateLayout)

		name, ok := names[e.ProjectID]
		if !ok {
			name = core.UnknownProject
		}

		row := core.ReportRow{
			Date:    date,
			Project: name,
			TimeIn:  start.Format(clockLayout),
			TimeOut: e.End.In(a.loc).Format(clockLayout),
			Hours:   e.Hours,
			Miles:   miles[mileageKey{projectID: e.ProjectID, date: date}],
			Notes:   e.Notes,
		}
		rows = append(rows, row)

		summary.EntryCount++
		summary.TotalHours = summary.TotalHours.Add(row.Hours)
		summary.TotalMiles = summary.TotalMiles.Add(row.Miles)
	}

	return rows, summary, nil
}

type mileageKey struct {
	projectID int64
	date      string
}
