package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"clockslayer/internal/core"
)

var csvHeader = []string{"Date", "Project", "Time In", "Time Out", "Total Time (hours)", "Mileage (miles)", "Project Notes"}

// WriteCSV streams the report as CSV to w: the fixed header row followed by
// one record per row. Fields with commas or quotes come out quoted per the
// usual CSV rules.
func WriteCSV(w io.Writer, rows []core.ReportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		record := []string{r.Date, r.Project, r.TimeIn, r.TimeOut, r.Hours.String(), r.Miles.String(), r.Notes}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// FormatCSV renders the report to an in-memory byte slice, ready to attach.
func FormatCSV(rows []core.ReportRow) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Filename names the attachment after the window it covers.
func Filename(w Window) string {
	return fmt.Sprintf("clock-slayer-%s_to_%s.csv", w.Start.Format(dateLayout), w.End.Format(dateLayout))
}
