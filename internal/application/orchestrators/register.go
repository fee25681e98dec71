package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	emailAdapter "saepe/internal/adapters/email"
	"saepe/internal/domain/account"
)

// AccountStoreForRegister defines the store interface needed by Register.
type AccountStoreForRegister interface {
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	GetByUsername(ctx context.Context, username string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
}

// RegisterInput carries the self-registration form.
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	PasswordConfirm string
}

// RegisterDeps holds dependencies for Register.
type RegisterDeps struct {
	AccountStore AccountStoreForRegister
	Mailer       emailAdapter.Sender // optional: nil skips the welcome email
	GenerateID   func() string
	Now          func() time.Time
}

var (
	ErrEmailAlreadyExists = account.ErrEmailInUse
	ErrUsernameTaken      = account.ErrUsernameInUse
	ErrPasswordMismatch   = errors.New("the two password fields didn't match")
)

// ExecuteRegister creates a staff account from the registration form.
// PRE: none; every field is checked here
// POST: on success the account is saved with a bcrypt hash and a welcome email is attempted
// INVARIANT: nothing is saved when any check fails; email and username stay unique
func ExecuteRegister(ctx context.Context, input RegisterInput, deps RegisterDeps) (account.Account, error) {
	acct := account.Account{
		ID:        deps.GenerateID(),
		Username:  strings.TrimSpace(input.Username),
		Email:     strings.ToLower(strings.TrimSpace(input.Email)),
		Role:      account.RoleStaff,
		CreatedAt: deps.Now(),
	}
	if err := acct.Validate(); err != nil {
		return account.Account{}, err
	}
	if err := account.CheckPasswordPolicy(input.Password); err != nil {
		return account.Account{}, err
	}
	if input.Password != input.PasswordConfirm {
		return account.Account{}, ErrPasswordMismatch
	}

	if err := ensureFree(deps.AccountStore.GetByUsername(ctx, acct.Username)); err != nil {
		return account.Account{}, rejectRegistration(acct, "username", err, ErrUsernameTaken)
	}
	if err := ensureFree(deps.AccountStore.GetByEmail(ctx, acct.Email)); err != nil {
		return account.Account{}, rejectRegistration(acct, "email", err, ErrEmailAlreadyExists)
	}

	if err := acct.SetPassword(input.Password); err != nil {
		return account.Account{}, err
	}
	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		// a concurrent registration can still win the unique index
		if errors.Is(err, ErrUsernameTaken) || errors.Is(err, ErrEmailAlreadyExists) {
			slog.Info("auth_event", "event", "register_rejected", "username", acct.Username, "reason", "unique_index")
			return account.Account{}, err
		}
		return account.Account{}, fmt.Errorf("save account: %w", err)
	}

	slog.Info("auth_event", "event", "account_registered", "account_id", acct.ID, "username", acct.Username)

	if deps.Mailer != nil {
		// Delivery failure never undoes the registration.
		if _, err := deps.Mailer.Send(ctx, welcomeEmail(acct)); err != nil {
			slog.Warn("auth_event", "event", "welcome_email_failed", "account_id", acct.ID, "error", err)
		}
	}
	return acct, nil
}

// errTaken marks a lookup that found an existing account.
var errTaken = errors.New("taken")

// ensureFree turns a lookup result into nil when nothing was found.
func ensureFree(_ account.Account, err error) error {
	switch {
	case err == nil:
		return errTaken
	case errors.Is(err, account.ErrNotFound):
		return nil
	default:
		return err
	}
}

func rejectRegistration(acct account.Account, field string, err, taken error) error {
	if errors.Is(err, errTaken) {
		slog.Info("auth_event", "event", "register_rejected", "username", acct.Username, "reason", field+"_taken")
		return taken
	}
	return fmt.Errorf("look up %s: %w", field, err)
}

func welcomeEmail(acct account.Account) emailAdapter.Message {
	name := html.EscapeString(acct.Username)
	return emailAdapter.Message{
		To:      []string{acct.Email},
		Subject: "Bem-vindo ao SAEPE",
		HTML: "<p>Olá, " + name + "!</p>" +
			"<p>Sua conta no painel de acompanhamento SAEPE foi criada.</p>",
		Text:           "Olá, " + acct.Username + "!\n\nSua conta no painel de acompanhamento SAEPE foi criada.\n",
		Category:       "welcome",
		IdempotencyKey: "welcome-" + acct.ID,
	}
}
