package http

import (
	"errors"
	"net/http"
	"time"

	"clockslayer/internal/core"
	"clockslayer/internal/storage"
)

func (s *Server) handleListTimeEntries(w http.ResponseWriter, r *http.Request) {
	from, err := parseFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entries, err := s.store.ListTimeEntries(r.Context(), from)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list time entries failed")
		return
	}
	if entries == nil {
		entries = []core.TimeEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleGetTimeEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entry, err := s.store.GetTimeEntry(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "time entry not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "get time entry failed")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleCreateTimeEntry(w http.ResponseWriter, r *http.Request) {
	var entry core.TimeEntry
	if err := decodeBody(r, &entry); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := entry.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	created, err := s.store.CreateTimeEntry(r.Context(), entry)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "create time entry failed")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateTimeEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var entry core.TimeEntry
	if err := decodeBody(r, &entry); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entry.ID = id
	if err := entry.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := s.store.UpdateTimeEntry(r.Context(), entry)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "time entry not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "update time entry failed")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTimeEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	err = s.store.DeleteTimeEntry(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "time entry not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "delete time entry failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// mileageEntryJSON carries mileage entries over the wire with a bare
// YYYY-MM-DD date instead of a full timestamp.
type mileageEntryJSON struct {
	ID        int64        `json:"id"`
	ProjectID int64        `json:"projectId"`
	Date      string       `json:"date"`
	Miles     core.Decimal `json:"miles"`
	Notes     string       `json:"notes"`
}

func toMileageJSON(e core.MileageEntry) mileageEntryJSON {
	return mileageEntryJSON{
		ID:        e.ID,
		ProjectID: e.ProjectID,
		Date:      e.Date.Format(dateLayout),
		Miles:     e.Miles,
		Notes:     e.Notes,
	}
}

func (m mileageEntryJSON) toEntry() (core.MileageEntry, error) {
	date, err := time.Parse(dateLayout, m.Date)
	if err != nil {
		return core.MileageEntry{}, err
	}
	return core.MileageEntry{
		ID:        m.ID,
		ProjectID: m.ProjectID,
		Date:      date,
		Miles:     m.Miles,
		Notes:     m.Notes,
	}, nil
}

func (s *Server) handleListMileageEntries(w http.ResponseWriter, r *http.Request) {
	from, err := parseFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entries, err := s.store.ListMileageEntries(r.Context(), from)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list mileage entries failed")
		return
	}
	out := make([]mileageEntryJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, toMileageJSON(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetMileageEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entry, err := s.store.GetMileageEntry(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "mileage entry not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "get mileage entry failed")
		return
	}
	writeJSON(w, http.StatusOK, toMileageJSON(entry))
}

func (s *Server) handleCreateMileageEntry(w http.ResponseWriter, r *http.Request) {
	var payload mileageEntryJSON
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entry, err := payload.toEntry()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}
	if err := entry.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	created, err := s.store.CreateMileageEntry(r.Context(), entry)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "create mileage entry failed")
		return
	}
	writeJSON(w, http.StatusCreated, toMileageJSON(created))
}

func (s *Server) handleUpdateMileageEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var payload mileageEntryJSON
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entry, err := payload.toEntry()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}
	entry.ID = id
	if err := entry.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := s.store.UpdateMileageEntry(r.Context(), entry)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "mileage entry not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "update mileage entry failed")
		return
	}
	writeJSON(w, http.StatusOK, toMileageJSON(updated))
}

func (s *Server) handleDeleteMileageEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	err = s.store.DeleteMileageEntry(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "mileage entry not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "delete mileage entry failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
