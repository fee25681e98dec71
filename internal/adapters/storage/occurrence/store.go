package occurrence

import (
	"context"

	domain "saepe/internal/domain/occurrence"
)

// Store persists the occurrence reference list.
type Store interface {
	Save(ctx context.Context, value domain.Occurrence) error
	List(ctx context.Context) ([]domain.Occurrence, error)
	ExistsByDescription(ctx context.Context, description string) (bool, error)
}
