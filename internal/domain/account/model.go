package account

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

// Field limits.
const (
	MaxEmailLength    = 254
	MaxUsernameLength = 150
	MinPasswordLength = 8
)

// Roles. Self-registered supervisors are staff; admins manage schools and
// see the performance page.
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// Lockout policy
const (
	MaxFailedLogins = 5
	LockoutDuration = 15 * time.Minute
)

// bcryptCost is lowered by the package tests.
var bcryptCost = 12

// Validation errors
var (
	ErrEmptyUsername    = errors.New("username cannot be empty")
	ErrInvalidUsername  = errors.New("username may only contain letters, digits and @ . + - _")
	ErrUsernameTooLong  = errors.New("username cannot exceed 150 characters")
	ErrEmptyEmail       = errors.New("email cannot be empty")
	ErrInvalidEmail     = errors.New("email address is not valid")
	ErrEmailTooLong     = errors.New("email cannot exceed 254 characters")
	ErrInvalidRole      = errors.New("role must be one of: admin, staff")
	ErrEmptyPassword    = errors.New("password cannot be empty")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrWrongPassword    = errors.New("incorrect password")
)

// Lookup and uniqueness errors reported by account stores.
var (
	ErrNotFound      = errors.New("account not found")
	ErrUsernameInUse = errors.New("this username is already taken")
	ErrEmailInUse    = errors.New("an account with this email already exists")
)

// usernamePattern accepts letters and digits from any script plus @ . + - _
var usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}@.+_-]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	return v
}

// Account is a supervisor's login.
type Account struct {
	ID           string
	Username     string `validate:"required,max=150,username"`
	Email        string `validate:"required,max=254,email"`
	PasswordHash string
	Role         string `validate:"oneof=admin staff"`
	CreatedAt    time.Time
	FailedLogins int
	LockedUntil  time.Time
}

// Validate reports the first invalid field as one of the errors above.
func (a *Account) Validate() error {
	err := validate.Struct(a)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fieldError(verrs[0])
	}
	return err
}

func fieldError(fe validator.FieldError) error {
	switch fe.Field() + "." + fe.Tag() {
	case "Username.required":
		return ErrEmptyUsername
	case "Username.max":
		return ErrUsernameTooLong
	case "Username.username":
		return ErrInvalidUsername
	case "Email.required":
		return ErrEmptyEmail
	case "Email.max":
		return ErrEmailTooLong
	case "Email.email":
		return ErrInvalidEmail
	case "Role.oneof":
		return ErrInvalidRole
	}
	return fmt.Errorf("invalid %s (%s)", fe.Field(), fe.Tag())
}

// CheckPasswordPolicy reports whether plaintext may become a password.
func CheckPasswordPolicy(plaintext string) error {
	switch {
	case plaintext == "":
		return ErrEmptyPassword
	case len(plaintext) < MinPasswordLength:
		return ErrPasswordTooShort
	}
	return nil
}

// SetPassword stores the bcrypt hash of plaintext.
// PRE: plaintext satisfies CheckPasswordPolicy
// POST: PasswordHash is untouched on error
func (a *Account) SetPassword(plaintext string) error {
	if err := CheckPasswordPolicy(plaintext); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	a.PasswordHash = string(hash)
	return nil
}

// CheckPassword compares plaintext with the stored hash. An account without
// a hash never matches.
func (a *Account) CheckPassword(plaintext string) error {
	if a.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(plaintext)) != nil {
		return ErrWrongPassword
	}
	return nil
}

// IsLocked reports whether the lockout is still running.
func (a *Account) IsLocked() bool {
	return time.Now().Before(a.LockedUntil)
}

// RecordFailedLogin counts a wrong password. Reaching MaxFailedLogins locks
// the account for LockoutDuration; every further failure restarts the lock.
func (a *Account) RecordFailedLogin() {
	a.FailedLogins++
	if a.FailedLogins >= MaxFailedLogins {
		a.LockedUntil = time.Now().Add(LockoutDuration)
	}
}

// ResetFailedLogins clears the counter and any lock.
func (a *Account) ResetFailedLogins() {
	a.FailedLogins = 0
	a.LockedUntil = time.Time{}
}
