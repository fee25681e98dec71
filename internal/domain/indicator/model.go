package indicator

import (
	"errors"
	"strings"
)

// MaxSchoolNameLength caps school names coming from spreadsheets and forms.
const MaxSchoolNameLength = 255

// Domain errors
var (
	ErrEmptySchoolName = errors.New("school name cannot be empty")
)

// SchoolRef names a school by its spreadsheet name. It is a weak reference: indicators and
// technical visits are related only by name equality, never by an enforced key, and neither
// is linked to the registered School table.
type SchoolRef struct {
	Name string // display name, whitespace-normalised
	Key  string // case-folded Name used for name-equality lookups
}

// NewSchoolRef normalises a raw name: trims it and collapses inner whitespace.
// POST: Key is the lower-cased Name; both are empty for a blank input
func NewSchoolRef(raw string) SchoolRef {
	name := strings.Join(strings.Fields(raw), " ")
	return SchoolRef{Name: name, Key: strings.ToLower(name)}
}

// Indicator is one spreadsheet row of standardised-test (SAEPE) and enrollment figures for a school.
// Numeric columns are nil when the spreadsheet cell was empty.
type Indicator struct {
	ID                    string
	School                SchoolRef
	Modality              string
	ProjectedEnrollment23 *int
	WeightPercent         *float64
	Score2022             *float64
	Score2023             *float64
	ProficiencyLP2023     *float64
	ProficiencyMT2023     *float64
	EnrollmentEFAF2024    *int
}

// Validate checks if the Indicator has valid data.
// PRE: Indicator struct is populated
// POST: Returns nil if valid, error otherwise
func (i *Indicator) Validate() error {
	if i.School.Name == "" {
		return ErrEmptySchoolName
	}
	if len(i.School.Name) > MaxSchoolNameLength {
		return errors.New("school name cannot exceed 255 characters")
	}
	return nil
}

// ScoreDelta returns SAEPE 2023 minus SAEPE 2022 when both are present.
func (i *Indicator) ScoreDelta() (float64, bool) {
	if i.Score2022 == nil || i.Score2023 == nil {
		return 0, false
	}
	return *i.Score2023 - *i.Score2022, true
}

// Float returns a pointer to v, for building indicators in code.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v, for building indicators in code.
func Int(v int) *int { return &v }
