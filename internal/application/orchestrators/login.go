package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"saepe/internal/domain/account"
)

// AccountStoreForLogin defines the store interface needed by Login.
type AccountStoreForLogin interface {
	GetByUsername(ctx context.Context, username string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
}

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	Username string
	Password string
}

// LoginResult carries the result of a successful login.
type LoginResult struct {
	AccountID string
	Username  string
	Email     string
	Role      string
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	AccountStore AccountStoreForLogin
}

// Login failures. Handlers translate them for the form.
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountLocked      = errors.New("account locked after repeated failed logins")
)

// ExecuteLogin checks the credentials and returns the account to open a session for.
// POST: a wrong password counts towards the lockout; success clears the count
// INVARIANT: an unknown username and a wrong password yield the same error
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (LoginResult, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}

	acct, err := deps.AccountStore.GetByUsername(ctx, username)
	switch {
	case errors.Is(err, account.ErrNotFound):
		slog.Info("auth_event", "event", "login_failed", "username", username, "reason", "not_found")
		return LoginResult{}, ErrInvalidCredentials
	case err != nil:
		return LoginResult{}, fmt.Errorf("look up account: %w", err)
	case acct.IsLocked():
		slog.Info("auth_event", "event", "login_blocked", "username", username, "reason", "locked", "locked_until", acct.LockedUntil)
		return LoginResult{}, ErrAccountLocked
	}

	if err := acct.CheckPassword(input.Password); err != nil {
		acct.RecordFailedLogin()
		saveAttempt(ctx, deps.AccountStore, acct)
		slog.Info("auth_event", "event", "login_failed", "username", username, "reason", "wrong_password", "failed_logins", acct.FailedLogins)
		return LoginResult{}, ErrInvalidCredentials
	}
	if acct.FailedLogins > 0 || !acct.LockedUntil.IsZero() {
		acct.ResetFailedLogins()
		saveAttempt(ctx, deps.AccountStore, acct)
	}

	slog.Info("auth_event", "event", "login_success", "username", username, "role", acct.Role)
	return LoginResult{AccountID: acct.ID, Username: acct.Username, Email: acct.Email, Role: acct.Role}, nil
}

// saveAttempt persists the failed-login counter. A store error must not
// change the login outcome, so it is only logged.
func saveAttempt(ctx context.Context, store AccountStoreForLogin, acct account.Account) {
	if err := store.Save(ctx, acct); err != nil {
		slog.Warn("auth_event", "event", "attempt_not_saved", "username", acct.Username, "error", err)
	}
}
