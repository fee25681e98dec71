package school

import (
	"context"

	domain "saepe/internal/domain/school"
)

// Store persists registered schools.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.School, error)
	Save(ctx context.Context, value domain.School) error
	List(ctx context.Context) ([]domain.School, error)
}
