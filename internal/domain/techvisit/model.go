package techvisit

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"saepe/internal/domain/indicator"
)

// Source constants record where a technical visit came from.
const (
	SourceImport = "import"
	SourceForm   = "form"
)

// Domain errors
var (
	ErrEmptySchool       = errors.New("school is required")
	ErrEmptyTechnician   = errors.New("technician is required")
	ErrEmptyStaffContact = errors.New("school staff contact is required")
	ErrEmptyDemand       = errors.New("demand is required")
	ErrInvalidSource     = errors.New("source must be 'import' or 'form'")
	ErrFieldTooLong      = errors.New("field is too long")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// TechnicalVisit is a visit by a district technician (GRE) to a school.
// The school is referenced by name only.
type TechnicalVisit struct {
	ID           string
	School       indicator.SchoolRef
	VisitDate    time.Time // zero when unknown
	Technician   string `validate:"max=255"`
	StaffContact string `validate:"max=255"`
	Demand       string `validate:"max=5000"`
	Forwarding   string `validate:"max=5000"`
	Observation  string `validate:"max=5000"`
	Source       string `validate:"oneof=import form"`
	CreatedAt    time.Time
}

// IsPending returns true when nothing has been forwarded yet (blank forwarding text).
func (v *TechnicalVisit) IsPending() bool {
	return strings.TrimSpace(v.Forwarding) == ""
}

// Validate checks the fields every technical visit must satisfy.
// Imported rows only need a school name; form rows go through ValidateForm.
func (v *TechnicalVisit) Validate() error {
	if v.School.Name == "" {
		return ErrEmptySchool
	}
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			if fe.Field() == "Source" {
				return ErrInvalidSource
			}
			return fmt.Errorf("%w: %s cannot exceed %s characters", ErrFieldTooLong, strings.ToLower(fe.Field()), fe.Param())
		}
		return err
	}
	return nil
}

// ValidateForm applies the required-field rules of the interactive form.
func (v *TechnicalVisit) ValidateForm() error {
	if v.School.Name == "" {
		return ErrEmptySchool
	}
	if strings.TrimSpace(v.Technician) == "" {
		return ErrEmptyTechnician
	}
	if strings.TrimSpace(v.StaffContact) == "" {
		return ErrEmptyStaffContact
	}
	if strings.TrimSpace(v.Demand) == "" {
		return ErrEmptyDemand
	}
	return v.Validate()
}
