package visit

import (
	"context"

	domain "saepe/internal/domain/visit"
)

// Store persists legacy visits. There is no update or delete path.
type Store interface {
	Create(ctx context.Context, value domain.Visit) error
	List(ctx context.Context, filter ListFilter) ([]domain.Visit, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Limit    int
	Status   string
	SchoolID string
}
