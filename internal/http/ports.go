package http

import (
	"context"
	"time"

	"clockslayer/internal/core"
	"clockslayer/internal/services"
)

// Store is the persistence surface the handlers need.
type Store interface {
	ListProjects(ctx context.Context) ([]core.Project, error)
	GetProject(ctx context.Context, id int64) (core.Project, error)
	CreateProject(ctx context.Context, p core.Project) (core.Project, error)
	UpdateProject(ctx context.Context, p core.Project) (core.Project, error)
	DeleteProject(ctx context.Context, id int64) error

	ListTimeEntries(ctx context.Context, from *time.Time) ([]core.TimeEntry, error)
	GetTimeEntry(ctx context.Context, id int64) (core.TimeEntry, error)
	CreateTimeEntry(ctx context.Context, e core.TimeEntry) (core.TimeEntry, error)
	UpdateTimeEntry(ctx context.Context, e core.TimeEntry) (core.TimeEntry, error)
	DeleteTimeEntry(ctx context.Context, id int64) error

	ListMileageEntries(ctx context.Context, from *time.Time) ([]core.MileageEntry, error)
	GetMileageEntry(ctx context.Context, id int64) (core.MileageEntry, error)
	CreateMileageEntry(ctx context.Context, e core.MileageEntry) (core.MileageEntry, error)
	UpdateMileageEntry(ctx context.Context, e core.MileageEntry) (core.MileageEntry, error)
	DeleteMileageEntry(ctx context.Context, id int64) error
}

// ReportRunner triggers one report run; the manual endpoint waits on it.
type ReportRunner interface {
	Run(ctx context.Context) (services.RunResult, error)
}
