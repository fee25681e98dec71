package report

import (
	"context"

	domain "saepe/internal/domain/report"
)

// Store persists reports and their occurrence tags. Reports are insert-only.
type Store interface {
	Create(ctx context.Context, value domain.Report) error
	List(ctx context.Context, filter ListFilter) ([]domain.Report, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Limit    int
	SchoolID string
}
