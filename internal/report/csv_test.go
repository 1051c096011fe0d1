package report

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"clockslayer/internal/core"
)

func TestFormatCSVHeaderOnly(t *testing.T) {
	out, err := FormatCSV(nil)
	if err != nil {
		t.Fatalf("FormatCSV: %v", err)
	}
	want := "Date,Project,Time In,Time Out,Total Time (hours),Mileage (miles),Project Notes\n"
	if string(out) != want {
		t.Errorf("expected %q, got %q", want, out)
	}
}

func TestFormatCSVQuotesSpecialCharacters(t *testing.T) {
	rows := []core.ReportRow{
		{
			Date:    "2026-03-02",
			Project: `Deck, "big" one`,
			TimeIn:  "9:00 AM",
			TimeOut: "6:00 PM",
			Hours:   core.Decimal{Hundredths: 900},
			Miles:   core.Decimal{Hundredths: 1250},
			Notes:   "picked up lumber, nails",
		},
	}
	out, err := FormatCSV(rows)
	if err != nil {
		t.Fatalf("FormatCSV: %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header + 1 record, got %d", len(records))
	}
	got := records[1]
	if got[1] != `Deck, "big" one` {
		t.Errorf("project field mangled: %q", got[1])
	}
	if got[4] != "9.00" || got[5] != "12.50" {
		t.Errorf("unexpected numeric fields: hours=%q miles=%q", got[4], got[5])
	}
	if got[6] != "picked up lumber, nails" {
		t.Errorf("notes field mangled: %q", got[6])
	}
}

func TestFilename(t *testing.T) {
	w := Window{
		Start: time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 8, 18, 0, 0, 0, time.UTC),
	}
	if got := Filename(w); got != "clock-slayer-2026-03-01_to_2026-03-08.csv" {
		t.Errorf("unexpected filename: %q", got)
	}
}
