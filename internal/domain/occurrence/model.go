package occurrence

import (
	"errors"
	"strings"
)

// MaxDescriptionLength caps the description column.
const MaxDescriptionLength = 255

// ErrEmptyDescription is returned when an occurrence has no description.
var ErrEmptyDescription = errors.New("occurrence description cannot be empty")

// Occurrence is a predefined issue category that can be ticked on a report.
type Occurrence struct {
	ID          string
	Description string
}

// Validate checks if the Occurrence has valid data.
func (o *Occurrence) Validate() error {
	if strings.TrimSpace(o.Description) == "" {
		return ErrEmptyDescription
	}
	if len(o.Description) > MaxDescriptionLength {
		return errors.New("occurrence description cannot exceed 255 characters")
	}
	return nil
}

// DefaultOccurrences is the reference list seeded on first start.
var DefaultOccurrences = []string{
	"Falta de professores",
	"Infraestrutura danificada",
	"Falta de merenda escolar",
	"Problemas de segurança",
	"Evasão escolar",
	"Falta de material didático",
	"Conflito entre estudantes",
	"Problemas de transporte escolar",
}
