package school

import (
	"errors"
	"strings"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength = 200
	MaxCityLength = 100
)

// Domain errors
var (
	ErrEmptyName   = errors.New("school name cannot be empty")
	ErrEmptyCity   = errors.New("city cannot be empty")
	ErrNameTooLong = errors.New("school name cannot exceed 200 characters")
	ErrCityTooLong = errors.New("city cannot exceed 100 characters")
)

// School is a school registered by an administrator. Visits and reports reference it by ID.
type School struct {
	ID   string
	Name string
	City string
}

// Validate checks if the School has valid data.
// PRE: School struct is populated
// POST: Returns nil if valid, error otherwise
func (s *School) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	if len(s.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if strings.TrimSpace(s.City) == "" {
		return ErrEmptyCity
	}
	if len(s.City) > MaxCityLength {
		return ErrCityTooLong
	}
	return nil
}

// String returns the school's display name.
func (s School) String() string {
	return s.Name
}
