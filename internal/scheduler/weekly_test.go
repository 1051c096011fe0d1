package scheduler

import (
	"testing"
	"time"
)

func TestNextFire(t *testing.T) {
	chicago, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	tests := []struct {
		name   string
		now    time.Time
		day    time.Weekday
		hour   int
		minute int
		loc    *time.Location
		want   time.Time
	}{
		{
			name: "later same week",
			// Wednesday
			now:  time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC),
			day:  time.Sunday, hour: 18, minute: 0, loc: time.UTC,
			want: time.Date(2026, 3, 8, 18, 0, 0, 0, time.UTC),
		},
		{
			name: "same day before slot",
			now:  time.Date(2026, 3, 8, 17, 59, 0, 0, time.UTC),
			day:  time.Sunday, hour: 18, minute: 0, loc: time.UTC,
			want: time.Date(2026, 3, 8, 18, 0, 0, 0, time.UTC),
		},
		{
			name: "exactly on slot rolls a week",
			now:  time.Date(2026, 3, 8, 18, 0, 0, 0, time.UTC),
			day:  time.Sunday, hour: 18, minute: 0, loc: time.UTC,
			want: time.Date(2026, 3, 15, 18, 0, 0, 0, time.UTC),
		},
		{
			name: "same day after slot rolls a week",
			now:  time.Date(2026, 3, 8, 18, 0, 1, 0, time.UTC),
			day:  time.Sunday, hour: 18, minute: 0, loc: time.UTC,
			want: time.Date(2026, 3, 15, 18, 0, 0, 0, time.UTC),
		},
		{
			name: "slot computed in local zone",
			// Sunday 23:30 UTC is still Sunday 17:30 in Chicago, ahead of 18:00.
			now:  time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC),
			day:  time.Sunday, hour: 18, minute: 0, loc: chicago,
			want: time.Date(2026, 3, 1, 18, 0, 0, 0, chicago),
		},
		{
			name: "spring forward week keeps wall clock",
			// DST starts 2026-03-08 in Chicago; the Sunday slot stays 18:00 local.
			now:  time.Date(2026, 3, 7, 12, 0, 0, 0, chicago),
			day:  time.Sunday, hour: 18, minute: 0, loc: chicago,
			want: time.Date(2026, 3, 8, 18, 0, 0, 0, chicago),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextFire(tt.now, tt.day, tt.hour, tt.minute, tt.loc)
			if !got.Equal(tt.want) {
				t.Errorf("NextFire(%v) = %v, want %v", tt.now, got, tt.want)
			}
			if got.In(tt.loc).Weekday() != tt.day {
				t.Errorf("fire day = %v, want %v", got.In(tt.loc).Weekday(), tt.day)
			}
			if !got.After(tt.now) {
				t.Errorf("fire time %v not after now %v", got, tt.now)
			}
		})
	}
}

func TestNextFireAlwaysWithinAWeek(t *testing.T) {
	now := time.Date(2026, 3, 4, 10, 30, 0, 0, time.UTC)
	for day := time.Sunday; day <= time.Saturday; day++ {
		next := NextFire(now, day, 9, 15, time.UTC)
		if gap := next.Sub(now); gap <= 0 || gap > 7*24*time.Hour {
			t.Errorf("day %v: gap %v out of range", day, gap)
		}
	}
}
