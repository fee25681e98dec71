package account

import (
	"context"

	domain "saepe/internal/domain/account"
)

// Store persists staff logins.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Account, error)
	GetByEmail(ctx context.Context, email string) (domain.Account, error)
	GetByUsername(ctx context.Context, username string) (domain.Account, error)
	Save(ctx context.Context, a domain.Account) error
	Count(ctx context.Context) (int, error)
	CountByRole(ctx context.Context, role string) (int, error)
}
