package techvisit

import (
	"context"
	"time"

	domain "saepe/internal/domain/techvisit"
)

// Store persists technical visits. Imported rows are replaced wholesale; form rows are insert-only.
type Store interface {
	ReplaceImported(ctx context.Context, rows []domain.TechnicalVisit, onRowError RowErrorFunc) (int, error)
	Create(ctx context.Context, value domain.TechnicalVisit) error
	List(ctx context.Context, filter ListFilter) ([]domain.TechnicalVisit, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
	Summary(ctx context.Context) (Summary, error)
	CountByTechnician(ctx context.Context) ([]TechnicianCount, error)
	DistinctTechnicians(ctx context.Context) ([]string, error)
}

// RowErrorFunc receives the zero-based index of a row that failed to insert.
type RowErrorFunc func(index int, err error)

// ListFilter carries filtering parameters for List and Count.
type ListFilter struct {
	SchoolKey   string
	PendingOnly bool
	Limit       int
	Offset      int
}

// Summary aggregates the whole table for the main dashboard.
type Summary struct {
	Total       int
	Pending     int
	LatestVisit time.Time // zero when no visit has a date
}

// TechnicianCount is the number of visits recorded for one technician.
type TechnicianCount struct {
	Technician string
	Visits     int
}
