package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"saepe/internal/adapters/storage"
	domain "saepe/internal/domain/account"
)

const timeLayout = "2006-01-02T15:04:05.999999999Z07:00"

const selectColumns = `SELECT id, username, email, password_hash, role, created_at,
	failed_logins, locked_until FROM account`

// upsertQuery never rewrites created_at.
const upsertQuery = `INSERT INTO account (id, username, email, password_hash, role, created_at,
	failed_logins, locked_until)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		username = excluded.username,
		email = excluded.email,
		password_hash = excluded.password_hash,
		role = excluded.role,
		failed_logins = excluded.failed_logins,
		locked_until = excluded.locked_until`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new account store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an Account by its ID.
// POST: a miss wraps both domain.ErrNotFound and sql.ErrNoRows
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Account, error) {
	return s.lookup(ctx, "id = ?", id)
}

// GetByEmail matches email case-insensitively; registration lower-cases it
// but seeded admins may not be.
func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	return s.lookup(ctx, "email = ? COLLATE NOCASE", strings.TrimSpace(email))
}

// GetByUsername retrieves an Account by its exact username.
func (s *SQLiteStore) GetByUsername(ctx context.Context, username string) (domain.Account, error) {
	return s.lookup(ctx, "username = ?", strings.TrimSpace(username))
}

func (s *SQLiteStore) lookup(ctx context.Context, where string, arg string) (domain.Account, error) {
	a, err := scanAccount(s.db.QueryRowContext(ctx, selectColumns+" WHERE "+where, arg).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Account{}, fmt.Errorf("%w (%q): %w", domain.ErrNotFound, arg, err)
	}
	return a, err
}

// Save inserts the account or updates it in place.
// PRE: a has been validated
// POST: a username or email owned by another account yields
// domain.ErrUsernameInUse or domain.ErrEmailInUse
func (s *SQLiteStore) Save(ctx context.Context, a domain.Account) error {
	var lockedUntil sql.NullString
	if !a.LockedUntil.IsZero() {
		lockedUntil = sql.NullString{String: a.LockedUntil.UTC().Format(timeLayout), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, upsertQuery,
		a.ID, a.Username, a.Email, a.PasswordHash, a.Role,
		a.CreatedAt.UTC().Format(timeLayout), a.FailedLogins, lockedUntil,
	)
	return uniqueViolation(err)
}

// uniqueViolation maps SQLite unique-index failures to domain errors.
func uniqueViolation(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed: account.username"):
		return fmt.Errorf("save account: %w", domain.ErrUsernameInUse)
	case strings.Contains(msg, "UNIQUE constraint failed: account.email"):
		return fmt.Errorf("save account: %w", domain.ErrEmailInUse)
	}
	return err
}

// Count returns how many accounts exist. Seeding uses it to detect an empty install.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM account").Scan(&n)
	return n, err
}

// CountByRole returns how many accounts hold role.
func (s *SQLiteStore) CountByRole(ctx context.Context, role string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM account WHERE role = ?", role).Scan(&n)
	return n, err
}

func scanAccount(scan func(dest ...any) error) (domain.Account, error) {
	var (
		a           domain.Account
		createdAt   string
		lockedUntil sql.NullString
	)
	if err := scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.Role, &createdAt, &a.FailedLogins, &lockedUntil); err != nil {
		return domain.Account{}, err
	}
	var err error
	if a.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return domain.Account{}, fmt.Errorf("account %s created_at: %w", a.ID, err)
	}
	if lockedUntil.Valid && lockedUntil.String != "" {
		if a.LockedUntil, err = time.Parse(time.RFC3339Nano, lockedUntil.String); err != nil {
			return domain.Account{}, fmt.Errorf("account %s locked_until: %w", a.ID, err)
		}
	}
	return a, nil
}
