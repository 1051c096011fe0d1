package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Weekly fires a run function once a week at a fixed local wall-clock time.
// It sleeps until the next fire time instead of polling, so a restart never
// replays a missed week; the next scheduled slot simply fires as usual.
type Weekly struct {
	day    time.Weekday
	hour   int
	minute int
	loc    *time.Location
	run    func(ctx context.Context) error

	now func() time.Time
}

func NewWeekly(day time.Weekday, hour, minute int, loc *time.Location, run func(ctx context.Context) error) *Weekly {
	if loc == nil {
		loc = time.UTC
	}
	return &Weekly{
		day:    day,
		hour:   hour,
		minute: minute,
		loc:    loc,
		run:    run,
		now:    time.Now,
	}
}

// NextFire returns the first instant strictly after now that lands on the
// given weekday at hour:minute in loc. A now exactly on the slot schedules
// the following week.
func NextFire(now time.Time, day time.Weekday, hour, minute int, loc *time.Location) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	daysAhead := (int(day) - int(local.Weekday()) + 7) % 7
	next = next.AddDate(0, 0, daysAhead)
	if !next.After(local) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}

// Start blocks until ctx is cancelled, firing run at each weekly slot.
// Run failures are logged and the schedule continues; a bad week must not
// stop future reports.
func (w *Weekly) Start(ctx context.Context) error {
	slog.InfoContext(ctx, "Weekly scheduler started",
		"day", w.day.String(),
		"time", time.Date(0, 1, 1, w.hour, w.minute, 0, 0, time.UTC).Format("15:04"),
		"timezone", w.loc.String())

	for {
		next := NextFire(w.now(), w.day, w.hour, w.minute, w.loc)
		wait := next.Sub(w.now())
		slog.InfoContext(ctx, "Next scheduled run", "at", next, "in", wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			slog.InfoContext(ctx, "Weekly scheduler stopped", "reason", ctx.Err())
			return ctx.Err()
		case <-timer.C:
		}

		if err := w.run(ctx); err != nil {
			slog.ErrorContext(ctx, "Scheduled run failed", "error", err)
		}
	}
}
