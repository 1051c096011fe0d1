package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"clockslayer/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a record lookup matches no row.
var ErrNotFound = errors.New("record not found")

// Timestamps are persisted as RFC 3339 text, calendar dates as YYYY-MM-DD.
const dateLayout = "2006-01-02"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Projects

func (r *SQLiteRepository) ListProjects(ctx context.Context) ([]core.Project, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, hourly_rate_hundredths, mileage_rate_hundredths
		 FROM projects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []core.Project
	for rows.Next() {
		var p core.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.HourlyRate.Hundredths, &p.MileageRate.Hundredths); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return projects, nil
}

func (r *SQLiteRepository) GetProject(ctx context.Context, id int64) (core.Project, error) {
	var p core.Project
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, hourly_rate_hundredths, mileage_rate_hundredths
		 FROM projects WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.HourlyRate.Hundredths, &p.MileageRate.Hundredths)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Project{}, ErrNotFound
	}
	if err != nil {
		return core.Project{}, fmt.Errorf("get project %d: %w", id, err)
	}
	return p, nil
}

func (r *SQLiteRepository) CreateProject(ctx context.Context, p core.Project) (core.Project, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO projects (name, hourly_rate_hundredths, mileage_rate_hundredths)
		 VALUES (?, ?, ?)`,
		p.Name, p.HourlyRate.Hundredths, p.MileageRate.Hundredths)
	if err != nil {
		return core.Project{}, fmt.Errorf("create project: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Project{}, fmt.Errorf("project insert id: %w", err)
	}
	p.ID = id

	slog.InfoContext(ctx, "Project created", "id", p.ID, "name", p.Name)
	return p, nil
}

func (r *SQLiteRepository) UpdateProject(ctx context.Context, p core.Project) (core.Project, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE projects SET name = ?, hourly_rate_hundredths = ?, mileage_rate_hundredths = ?
		 WHERE id = ?`,
		p.Name, p.HourlyRate.Hundredths, p.MileageRate.Hundredths, p.ID)
	if err != nil {
		return core.Project{}, fmt.Errorf("update project %d: %w", p.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Project{}, ErrNotFound
	}
	return p, nil
}

func (r *SQLiteRepository) DeleteProject(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete project %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	slog.InfoContext(ctx, "Project deleted", "id", id)
	return nil
}

// Time entries

// ListTimeEntries returns entries ordered by ascending start time. A non-nil
// from applies a lower bound only (start >= from); no upper bound is ever
// applied, matching the report pipeline's query shape.
func (r *SQLiteRepository) ListTimeEntries(ctx context.Context, from *time.Time) ([]core.TimeEntry, error) {
	query := `SELECT id, project_id, start_time, end_time, hours_hundredths, notes
		  FROM time_entries`
	args := []any{}
	if from != nil {
		query += ` WHERE start_time >= ?`
		args = append(args, from.UTC().Format(time.RFC3339))
	}
	query += ` ORDER BY start_time ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list time entries: %w", err)
	}
	defer rows.Close()

	var entries []core.TimeEntry
	for rows.Next() {
		e, err := scanTimeEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate time entries: %w", err)
	}
	return entries, nil
}

func (r *SQLiteRepository) GetTimeEntry(ctx context.Context, id int64) (core.TimeEntry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, project_id, start_time, end_time, hours_hundredths, notes
		 FROM time_entries WHERE id = ?`, id)
	e, err := scanTimeEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.TimeEntry{}, ErrNotFound
	}
	if err != nil {
		return core.TimeEntry{}, fmt.Errorf("get time entry %d: %w", id, err)
	}
	return e, nil
}

func (r *SQLiteRepository) CreateTimeEntry(ctx context.Context, e core.TimeEntry) (core.TimeEntry, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO time_entries (project_id, start_time, end_time, hours_hundredths, notes)
		 VALUES (?, ?, ?, ?, ?)`,
		e.ProjectID, e.Start.UTC().Format(time.RFC3339), e.End.UTC().Format(time.RFC3339),
		e.Hours.Hundredths, e.Notes)
	if err != nil {
		return core.TimeEntry{}, fmt.Errorf("create time entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.TimeEntry{}, fmt.Errorf("time entry insert id: %w", err)
	}
	e.ID = id

	slog.InfoContext(ctx, "Time entry created",
		"id", e.ID, "project_id", e.ProjectID, "hours", e.Hours.String())
	return e, nil
}

func (r *SQLiteRepository) UpdateTimeEntry(ctx context.Context, e core.TimeEntry) (core.TimeEntry, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE time_entries
		 SET project_id = ?, start_time = ?, end_time = ?, hours_hundredths = ?, notes = ?
		 WHERE id = ?`,
		e.ProjectID, e.Start.UTC().Format(time.RFC3339), e.End.UTC().Format(time.RFC3339),
		e.Hours.Hundredths, e.Notes, e.ID)
	if err != nil {
		return core.TimeEntry{}, fmt.Errorf("update time entry %d: %w", e.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.TimeEntry{}, ErrNotFound
	}
	return e, nil
}

func (r *SQLiteRepository) DeleteTimeEntry(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM time_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete time entry %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Mileage entries

// ListMileageEntries returns entries ordered by ascending date, lower-bound
// filter only, same caveat as ListTimeEntries.
func (r *SQLiteRepository) ListMileageEntries(ctx context.Context, from *time.Time) ([]core.MileageEntry, error) {
	query := `SELECT id, project_id, entry_date, miles_hundredths, notes
		  FROM mileage_entries`
	args := []any{}
	if from != nil {
		query += ` WHERE entry_date >= ?`
		args = append(args, from.Format(dateLayout))
	}
	query += ` ORDER BY entry_date ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list mileage entries: %w", err)
	}
	defer rows.Close()

	var entries []core.MileageEntry
	for rows.Next() {
		e, err := scanMileageEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mileage entries: %w", err)
	}
	return entries, nil
}

func (r *SQLiteRepository) GetMileageEntry(ctx context.Context, id int64) (core.MileageEntry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, project_id, entry_date, miles_hundredths, notes
		 FROM mileage_entries WHERE id = ?`, id)
	e, err := scanMileageEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.MileageEntry{}, ErrNotFound
	}
	if err != nil {
		return core.MileageEntry{}, fmt.Errorf("get mileage entry %d: %w", id, err)
	}
	return e, nil
}

func (r *SQLiteRepository) CreateMileageEntry(ctx context.Context, e core.MileageEntry) (core.MileageEntry, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO mileage_entries (project_id, entry_date, miles_hundredths, notes)
		 VALUES (?, ?, ?, ?)`,
		e.ProjectID, e.Date.Format(dateLayout), e.Miles.Hundredths, e.Notes)
	if err != nil {
		return core.MileageEntry{}, fmt.Errorf("create mileage entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.MileageEntry{}, fmt.Errorf("mileage entry insert id: %w", err)
	}
	e.ID = id

	slog.InfoContext(ctx, "Mileage entry created",
		"id", e.ID, "project_id", e.ProjectID, "miles", e.Miles.String())
	return e, nil
}

func (r *SQLiteRepository) UpdateMileageEntry(ctx context.Context, e core.MileageEntry) (core.MileageEntry, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE mileage_entries
		 SET project_id = ?, entry_date = ?, miles_hundredths = ?, notes = ?
		 WHERE id = ?`,
		e.ProjectID, e.Date.Format(dateLayout), e.Miles.Hundredths, e.Notes, e.ID)
	if err != nil {
		return core.MileageEntry{}, fmt.Errorf("update mileage entry %d: %w", e.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.MileageEntry{}, ErrNotFound
	}
	return e, nil
}

func (r *SQLiteRepository) DeleteMileageEntry(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM mileage_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete mileage entry %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTimeEntry(row rowScanner) (core.TimeEntry, error) {
	var (
		e          core.TimeEntry
		start, end string
	)
	if err := row.Scan(&e.ID, &e.ProjectID, &start, &end, &e.Hours.Hundredths, &e.Notes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.TimeEntry{}, err
		}
		return core.TimeEntry{}, fmt.Errorf("scan time entry: %w", err)
	}
	var err error
	if e.Start, err = time.Parse(time.RFC3339, start); err != nil {
		return core.TimeEntry{}, fmt.Errorf("parse start time %q: %w", start, err)
	}
	if e.End, err = time.Parse(time.RFC3339, end); err != nil {
		return core.TimeEntry{}, fmt.Errorf("parse end time %q: %w", end, err)
	}
	return e, nil
}

func scanMileageEntry(row rowScanner) (core.MileageEntry, error) {
	var (
		e    core.MileageEntry
		date string
	)
	if err := row.Scan(&e.ID, &e.ProjectID, &date, &e.Miles.Hundredths, &e.Notes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.MileageEntry{}, err
		}
		return core.MileageEntry{}, fmt.Errorf("scan mileage entry: %w", err)
	}
	var err error
	if e.Date, err = time.Parse(dateLayout, date); err != nil {
		return core.MileageEntry{}, fmt.Errorf("parse entry date %q: %w", date, err)
	}
	return e, nil
}
