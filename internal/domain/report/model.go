package report

import (
	"errors"
	"time"
)

// MaxDetailsLength caps the free-text details field.
const MaxDetailsLength = 5000

// Domain errors
var (
	ErrEmptySchoolID  = errors.New("school is required")
	ErrEmptyAuthorID  = errors.New("author is required")
	ErrDetailsTooLong = errors.New("details cannot exceed 5000 characters")
)

// Report is a visitor's report for a school, tagged with occurrences.
// Reports are immutable once created.
type Report struct {
	ID            string
	SchoolID      string
	AuthorID      string
	OccurrenceIDs []string
	Details       string
	CreatedAt     time.Time
}

// Validate checks if the Report has valid data.
// PRE: Report struct is populated
// POST: Returns nil if valid, error otherwise
func (r *Report) Validate() error {
	if r.SchoolID == "" {
		return ErrEmptySchoolID
	}
	if r.AuthorID == "" {
		return ErrEmptyAuthorID
	}
	if len(r.Details) > MaxDetailsLength {
		return ErrDetailsTooLong
	}
	if r.CreatedAt.IsZero() {
		return errors.New("created_at must be set")
	}
	return nil
}

// DedupeOccurrences removes empty and repeated occurrence IDs, keeping first-seen order.
// POST: OccurrenceIDs contains each non-empty ID at most once
func (r *Report) DedupeOccurrences() {
	seen := make(map[string]bool, len(r.OccurrenceIDs))
	out := r.OccurrenceIDs[:0]
	for _, id := range r.OccurrenceIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	r.OccurrenceIDs = out
}

// Title returns the label used in report listings.
func Title(schoolName string, createdAt time.Time) string {
	return "Relatório para " + schoolName + " em " + createdAt.Format("02/01/2006")
}
