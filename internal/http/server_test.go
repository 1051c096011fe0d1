package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"clockslayer/internal/core"
	"clockslayer/internal/report"
	"clockslayer/internal/services"
	"clockslayer/internal/storage"
)

// fakeStore keeps everything in maps; IDs are assigned sequentially.
type fakeStore struct {
	projects map[int64]core.Project
	times    map[int64]core.TimeEntry
	mileage  map[int64]core.MileageEntry
	nextID   int64

	failAll bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		projects: make(map[int64]core.Project),
		times:    make(map[int64]core.TimeEntry),
		mileage:  make(map[int64]core.MileageEntry),
		nextID:   1,
	}
}

var errStoreDown = errors.New("store down")

func (f *fakeStore) id() int64 {
	id := f.nextID
	f.nextID++
	return id
}

func (f *fakeStore) ListProjects(context.Context) ([]core.Project, error) {
	if f.failAll {
		return nil, errStoreDown
	}
	var out []core.Project
	for _, p := range f.projects {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeStore) GetProject(_ context.Context, id int64) (core.Project, error) {
	if f.failAll {
		return core.Project{}, errStoreDown
	}
	p, ok := f.projects[id]
	if !ok {
		return core.Project{}, storage.ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) CreateProject(_ context.Context, p core.Project) (core.Project, error) {
	if f.failAll {
		return core.Project{}, errStoreDown
	}
	p.ID = f.id()
	f.projects[p.ID] = p
	return p, nil
}

func (f *fakeStore) UpdateProject(_ context.Context, p core.Project) (core.Project, error) {
	if _, ok := f.projects[p.ID]; !ok {
		return core.Project{}, storage.ErrNotFound
	}
	f.projects[p.ID] = p
	return p, nil
}

func (f *fakeStore) DeleteProject(_ context.Context, id int64) error {
	if _, ok := f.projects[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.projects, id)
	return nil
}

func (f *fakeStore) ListTimeEntries(_ context.Context, from *time.Time) ([]core.TimeEntry, error) {
	if f.failAll {
		return nil, errStoreDown
	}
	var out []core.TimeEntry
	for _, e := range f.times {
		if from != nil && e.Start.Before(*from) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeStore) GetTimeEntry(_ context.Context, id int64) (core.TimeEntry, error) {
	e, ok := f.times[id]
	if !ok {
		return core.TimeEntry{}, storage.ErrNotFound
	}
	return e, nil
}

func (f *fakeStore) CreateTimeEntry(_ context.Context, e core.TimeEntry) (core.TimeEntry, error) {
	e.ID = f.id()
	f.times[e.ID] = e
	return e, nil
}

func (f *fakeStore) UpdateTimeEntry(_ context.Context, e core.TimeEntry) (core.TimeEntry, error) {
	if _, ok := f.times[e.ID]; !ok {
		return core.TimeEntry{}, storage.ErrNotFound
	}
	f.times[e.ID] = e
	return e, nil
}

func (f *fakeStore) DeleteTimeEntry(_ context.Context, id int64) error {
	if _, ok := f.times[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.times, id)
	return nil
}

func (f *fakeStore) ListMileageEntries(_ context.Context, from *time.Time) ([]core.MileageEntry, error) {
	var out []core.MileageEntry
	for _, e := range f.mileage {
		if from != nil && e.Date.Before(*from) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeStore) GetMileageEntry(_ context.Context, id int64) (core.MileageEntry, error) {
	e, ok := f.mileage[id]
	if !ok {
		return core.MileageEntry{}, storage.ErrNotFound
	}
	return e, nil
}

func (f *fakeStore) CreateMileageEntry(_ context.Context, e core.MileageEntry) (core.MileageEntry, error) {
	e.ID = f.id()
	f.mileage[e.ID] = e
	return e, nil
}

func (f *fakeStore) UpdateMileageEntry(_ context.Context, e core.MileageEntry) (core.MileageEntry, error) {
	if _, ok := f.mileage[e.ID]; !ok {
		return core.MileageEntry{}, storage.ErrNotFound
	}
	f.mileage[e.ID] = e
	return e, nil
}

func (f *fakeStore) DeleteMileageEntry(_ context.Context, id int64) error {
	if _, ok := f.mileage[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.mileage, id)
	return nil
}

type fakeRunner struct {
	result services.RunResult
	err    error
}

func (f *fakeRunner) Run(context.Context) (services.RunResult, error) {
	return f.result, f.err
}

func newTestServer(store Store, runner ReportRunner) *Server {
	s := NewServer(":0", store, runner)
	return s
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(newFakeStore(), nil)
	defer s.rateLimiter.stopCleanup()

	rec := doRequest(t, s, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("unexpected status: %q", body["status"])
	}
}

func TestProjectLifecycle(t *testing.T) {
	s := newTestServer(newFakeStore(), nil)
	defer s.rateLimiter.stopCleanup()

	rec := doRequest(t, s, http.MethodPost, "/api/projects", `{"name":"Deck Build","hourlyRate":75}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body)
	}
	var created core.Project
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	if created.ID == 0 || created.Name != "Deck Build" {
		t.Fatalf("unexpected project: %+v", created)
	}
	// Omitted mileage rate falls back to the default.
	if created.MileageRate != core.DefaultMileageRate {
		t.Errorf("expected default mileage rate, got %v", created.MileageRate)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/projects/1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", rec.Code)
	}

	rec = doRequest(t, s, http.MethodPut, "/api/projects/1", `{"name":"Deck Rebuild","hourlyRate":80,"mileageRate":0.67}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", rec.Code, rec.Body)
	}

	rec = doRequest(t, s, http.MethodDelete, "/api/projects/1", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rec.Code)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/projects/1", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", rec.Code)
	}
}

func TestProjectBadRequests(t *testing.T) {
	s := newTestServer(newFakeStore(), nil)
	defer s.rateLimiter.stopCleanup()

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"name":`},
		{"empty name", `{"name":"","hourlyRate":75}`},
		{"negative rate", `{"name":"x","hourlyRate":-1}`},
		{"unknown field", `{"name":"x","hourly":75}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, s, http.MethodPost, "/api/projects", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body)
			}
			var envelope map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
				t.Fatalf("decode envelope: %v", err)
			}
			if envelope["error"] == "" {
				t.Error("expected error envelope")
			}
		})
	}
}

func TestProjectStoreFailure(t *testing.T) {
	store := newFakeStore()
	store.failAll = true
	s := newTestServer(store, nil)
	defer s.rateLimiter.stopCleanup()

	rec := doRequest(t, s, http.MethodGet, "/api/projects", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestTimeEntryCreateAndFilter(t *testing.T) {
	store := newFakeStore()
	s := newTestServer(store, nil)
	defer s.rateLimiter.stopCleanup()

	body := `{"projectId":1,"start":"2026-03-02T09:00:00Z","end":"2026-03-02T18:00:00Z","hours":9,"notes":"framing"}`
	rec := doRequest(t, s, http.MethodPost, "/api/time-entries", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body)
	}

	old := `{"projectId":1,"start":"2026-01-02T09:00:00Z","end":"2026-01-02T12:00:00Z","hours":3,"notes":""}`
	rec = doRequest(t, s, http.MethodPost, "/api/time-entries", old)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create old: expected 201, got %d", rec.Code)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/time-entries?from=2026-03-01", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	var entries []core.TimeEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 filtered entry, got %d", len(entries))
	}

	rec = doRequest(t, s, http.MethodGet, "/api/time-entries?from=bogus", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad filter: expected 400, got %d", rec.Code)
	}
}

func TestTimeEntryRejectsBadProjectRef(t *testing.T) {
	s := newTestServer(newFakeStore(), nil)
	defer s.rateLimiter.stopCleanup()

	body := `{"projectId":0,"start":"2026-03-02T09:00:00Z","end":"2026-03-02T18:00:00Z","hours":9}`
	rec := doRequest(t, s, http.MethodPost, "/api/time-entries", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body)
	}
}

func TestMileageEntryUsesBareDates(t *testing.T) {
	s := newTestServer(newFakeStore(), nil)
	defer s.rateLimiter.stopCleanup()

	body := `{"projectId":1,"date":"2026-03-02","miles":12.5,"notes":"lumber run"}`
	rec := doRequest(t, s, http.MethodPost, "/api/mileage-entries", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body)
	}
	var created mileageEntryJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	if created.Date != "2026-03-02" {
		t.Errorf("expected bare date, got %q", created.Date)
	}
	if created.Miles.String() != "12.50" {
		t.Errorf("unexpected miles: %v", created.Miles)
	}

	rec = doRequest(t, s, http.MethodPost, "/api/mileage-entries", `{"projectId":1,"date":"03/02/2026","miles":1}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad date: expected 400, got %d", rec.Code)
	}
}

func TestTestEmailEndpoint(t *testing.T) {
	start := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	runner := &fakeRunner{
		result: services.RunResult{
			Window:     report.Window{Start: start, End: start.AddDate(0, 0, 7)},
			EntryCount: 3,
			TotalHours: core.Decimal{Hundredths: 2100},
			TotalMiles: core.Decimal{Hundredths: 4000},
			Filename:   "clock-slayer-2026-03-01_to_2026-03-08.csv",
		},
	}
	s := newTestServer(newFakeStore(), runner)
	defer s.rateLimiter.stopCleanup()

	rec := doRequest(t, s, http.MethodPost, "/api/test-email", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Body.String(), `"entryCount":3`) {
		t.Errorf("unexpected body: %s", rec.Body)
	}
}

func TestTestEmailErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		runner ReportRunner
		want   int
	}{
		{"in progress", &fakeRunner{err: services.ErrReportInProgress}, http.StatusConflict},
		{"delivery failed", &fakeRunner{err: services.ErrDeliveryFailed}, http.StatusBadGateway},
		{"store failed", &fakeRunner{err: errors.New("generate report: db locked")}, http.StatusBadGateway},
		{"not configured", nil, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(newFakeStore(), tt.runner)
			defer s.rateLimiter.stopCleanup()

			rec := doRequest(t, s, http.MethodPost, "/api/test-email", "")
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body)
			}
		})
	}
}

func TestRateLimiterBlocksFloods(t *testing.T) {
	rl := newRateLimiter()
	defer rl.stopCleanup()

	for i := 0; i < 60; i++ {
		if !rl.allow("10.0.0.1") {
			t.Fatalf("request %d unexpectedly blocked", i)
		}
	}
	if rl.allow("10.0.0.1") {
		t.Error("request 61 should be blocked")
	}
	if !rl.allow("10.0.0.2") {
		t.Error("other clients should be unaffected")
	}
}
