package visit

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Status constants
const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
)

// Domain errors
var (
	ErrEmptySchoolID     = errors.New("school is required")
	ErrEmptyAuthorID     = errors.New("author is required")
	ErrEmptyDate         = errors.New("visit date is required")
	ErrEmptyReceivedBy   = errors.New("received by is required for a completed visit")
	ErrInvalidStatus     = errors.New("status must be 'scheduled' or 'completed'")
	ErrReceivedByTooLong = errors.New("received by cannot exceed 200 characters")
	ErrObjectiveTooLong  = errors.New("objective cannot exceed 200 characters")
	ErrNotesTooLong      = errors.New("notes cannot exceed 5000 characters")
	ErrInvalidVisitTime  = errors.New("visit time must be HH:MM")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Visit is a supervisor's visit to a registered school, either scheduled or completed.
type Visit struct {
	ID         string
	SchoolID   string `validate:"required"`
	AuthorID   string `validate:"required"`
	ReceivedBy string `validate:"max=200,required_if=Status completed"`
	VisitDate  time.Time
	VisitTime  string // HH:MM, optional
	Objective  string `validate:"max=200"`
	Notes      string `validate:"max=5000"`
	Status     string `validate:"oneof=scheduled completed"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Normalize applies the status rules before validation.
// POST: text fields trimmed; ReceivedBy is empty when Status is scheduled
func (v *Visit) Normalize() {
	v.ReceivedBy = strings.TrimSpace(v.ReceivedBy)
	v.Objective = strings.TrimSpace(v.Objective)
	v.VisitTime = strings.TrimSpace(v.VisitTime)
	if v.Status == StatusScheduled {
		v.ReceivedBy = ""
	}
}

// Validate checks if the Visit has valid data.
// PRE: Normalize has been called
// POST: Returns nil if valid, a domain error otherwise
func (v *Visit) Validate() error {
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fieldError(verrs[0])
		}
		return err
	}
	if v.VisitDate.IsZero() {
		return ErrEmptyDate
	}
	if v.VisitTime != "" {
		if _, err := time.Parse("15:04", v.VisitTime); err != nil {
			return ErrInvalidVisitTime
		}
	}
	return nil
}

// IsCompleted returns true when the visit has taken place.
func (v *Visit) IsCompleted() bool {
	return v.Status == StatusCompleted
}

// StatusLabel returns the label shown in listings.
func StatusLabel(status string) string {
	switch status {
	case StatusScheduled:
		return "Agendada"
	case StatusCompleted:
		return "Realizada"
	}
	return status
}

func fieldError(fe validator.FieldError) error {
	switch fe.Field() {
	case "SchoolID":
		return ErrEmptySchoolID
	case "AuthorID":
		return ErrEmptyAuthorID
	case "Status":
		return ErrInvalidStatus
	case "ReceivedBy":
		if fe.Tag() == "max" {
			return ErrReceivedByTooLong
		}
		return ErrEmptyReceivedBy
	case "Objective":
		return ErrObjectiveTooLong
	case "Notes":
		return ErrNotesTooLong
	}
	return fmt.Errorf("invalid %s", strings.ToLower(fe.Field()))
}
