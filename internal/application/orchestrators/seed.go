package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"saepe/internal/domain/account"
	"saepe/internal/domain/occurrence"
)

// AccountStoreForSeed defines the store interface needed by SeedAdmin.
type AccountStoreForSeed interface {
	Save(ctx context.Context, a account.Account) error
	CountByRole(ctx context.Context, role string) (int, error)
}

// SeedAdminDeps holds dependencies for SeedAdmin.
type SeedAdminDeps struct {
	AccountStore AccountStoreForSeed
	GenerateID   func() string
	Now          func() time.Time
}

// SeedAdminInput carries the credentials of the first administrator.
type SeedAdminInput struct {
	Username string
	Email    string
	Password string
}

// ExecuteSeedAdmin creates the configured administrator when no admin exists yet.
// PRE: Database is migrated
// POST: returns true only when an account was created; a username or email
// already held by a self-registered account skips the seed with a warning
func ExecuteSeedAdmin(ctx context.Context, input SeedAdminInput, deps SeedAdminDeps) (bool, error) {
	admins, err := deps.AccountStore.CountByRole(ctx, account.RoleAdmin)
	if err != nil {
		return false, fmt.Errorf("count admins: %w", err)
	}
	if admins > 0 {
		return false, nil
	}

	acct := account.Account{
		ID:        deps.GenerateID(),
		Username:  strings.TrimSpace(input.Username),
		Email:     strings.ToLower(strings.TrimSpace(input.Email)),
		Role:      account.RoleAdmin,
		CreatedAt: deps.Now(),
	}
	if err := acct.Validate(); err != nil {
		return false, fmt.Errorf("admin seed: %w", err)
	}
	if err := acct.SetPassword(input.Password); err != nil {
		return false, fmt.Errorf("admin seed: %w", err)
	}
	err = deps.AccountStore.Save(ctx, acct)
	if errors.Is(err, account.ErrUsernameInUse) || errors.Is(err, account.ErrEmailInUse) {
		slog.Warn("auth_event", "event", "admin_seed_skipped", "username", acct.Username, "error", err)
		return false, nil
	}
	if err != nil {
		return false, err
	}

	slog.Info("auth_event", "event", "admin_seeded", "username", acct.Username)
	return true, nil
}

// OccurrenceStoreForSeed defines the store interface needed by SeedOccurrences.
type OccurrenceStoreForSeed interface {
	Save(ctx context.Context, o occurrence.Occurrence) error
	ExistsByDescription(ctx context.Context, description string) (bool, error)
}

// SeedOccurrencesDeps holds dependencies for SeedOccurrences.
type SeedOccurrencesDeps struct {
	OccurrenceStore OccurrenceStoreForSeed
	GenerateID      func() string
}

// ExecuteSeedOccurrences inserts any missing default occurrence.
// POST: every entry of occurrence.DefaultOccurrences exists exactly once
// INVARIANT: safe to run on every start-up
func ExecuteSeedOccurrences(ctx context.Context, deps SeedOccurrencesDeps) (int, error) {
	added := 0
	for _, desc := range occurrence.DefaultOccurrences {
		exists, err := deps.OccurrenceStore.ExistsByDescription(ctx, desc)
		if err != nil {
			return added, err
		}
		if exists {
			continue
		}
		o := occurrence.Occurrence{ID: deps.GenerateID(), Description: desc}
		if err := o.Validate(); err != nil {
			return added, err
		}
		if err := deps.OccurrenceStore.Save(ctx, o); err != nil {
			return added, err
		}
		added++
	}
	if added > 0 {
		slog.Info("seed_event", "event", "occurrences_seeded", "count", added)
	}
	return added, nil
}
