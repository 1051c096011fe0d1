package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"clockslayer/internal/services"
)

// handleTestEmail runs the report pipeline synchronously and reports the
// outcome to the caller, unlike the scheduler which swallows failures.
func (s *Server) handleTestEmail(w http.ResponseWriter, r *http.Request) {
	if s.reports == nil {
		writeError(w, http.StatusBadGateway, services.ErrSenderUnconfigured.Error())
		return
	}

	result, err := s.reports.Run(r.Context())
	switch {
	case errors.Is(err, services.ErrReportInProgress):
		writeError(w, http.StatusConflict, "report run already in progress")
		return
	case err != nil:
		slog.ErrorContext(r.Context(), "Manual report run failed", "error", err)
		writeError(w, http.StatusBadGateway, "report run failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "sent",
		"windowStart": result.Window.Start.Format(time.RFC3339),
		"windowEnd":   result.Window.End.Format(time.RFC3339),
		"entryCount":  result.EntryCount,
		"totalHours":  result.TotalHours,
		"totalMiles":  result.TotalMiles,
		"filename":    result.Filename,
	})
}
