package indicator

import (
	"context"

	domain "saepe/internal/domain/indicator"
)

// Store persists school indicators. The table is only ever replaced wholesale by an import.
type Store interface {
	ReplaceAll(ctx context.Context, rows []domain.Indicator, onRowError RowErrorFunc) (int, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Indicator, error)
	GetBySchoolName(ctx context.Context, name string) (domain.Indicator, error)
	DistinctSchoolNames(ctx context.Context) ([]string, error)
	CountSchools(ctx context.Context) (int, error)
}

// RowErrorFunc receives the zero-based index of a row that failed to insert.
type RowErrorFunc func(index int, err error)

// ListFilter carries filtering parameters for List operations.
// An empty SchoolName matches every row; otherwise the trimmed name must match exactly.
type ListFilter struct {
	SchoolName string
}
