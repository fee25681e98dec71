package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"saepe/internal/domain/indicator"
	"saepe/internal/domain/techvisit"
)

// ErrInvalidVisitDate is returned when the visit date field cannot be parsed.
var ErrInvalidVisitDate = errors.New("visit date must be a valid date")

// TechnicalVisitStoreForCreate defines the store interface needed by CreateTechnicalVisit.
type TechnicalVisitStoreForCreate interface {
	Create(ctx context.Context, v techvisit.TechnicalVisit) error
}

// CreateTechnicalVisitInput carries the technical visit form. VisitDate is "2006-01-02" or empty.
type CreateTechnicalVisitInput struct {
	School       string
	VisitDate    string
	Technician   string
	StaffContact string
	Demand       string
	Forwarding   string
	Observation  string
	AuthorID     string
}

// CreateTechnicalVisitDeps holds dependencies for CreateTechnicalVisit.
type CreateTechnicalVisitDeps struct {
	VisitStore TechnicalVisitStoreForCreate
	GenerateID func() string
	Now        func() time.Time
}

// ExecuteCreateTechnicalVisit records a technical visit entered through the form.
// PRE: AuthorID is the logged-in account
// POST: Visit persisted with Source form; the school name is stored normalised
func ExecuteCreateTechnicalVisit(ctx context.Context, input CreateTechnicalVisitInput, deps CreateTechnicalVisitDeps) (techvisit.TechnicalVisit, error) {
	v := techvisit.TechnicalVisit{
		ID:           deps.GenerateID(),
		School:       indicator.NewSchoolRef(input.School),
		Technician:   strings.TrimSpace(input.Technician),
		StaffContact: strings.TrimSpace(input.StaffContact),
		Demand:       strings.TrimSpace(input.Demand),
		Forwarding:   strings.TrimSpace(input.Forwarding),
		Observation:  strings.TrimSpace(input.Observation),
		Source:       techvisit.SourceForm,
		CreatedAt:    deps.Now(),
	}
	if d := strings.TrimSpace(input.VisitDate); d != "" {
		parsed, err := time.Parse("2006-01-02", d)
		if err != nil {
			return techvisit.TechnicalVisit{}, ErrInvalidVisitDate
		}
		v.VisitDate = parsed
	}
	if err := v.ValidateForm(); err != nil {
		return techvisit.TechnicalVisit{}, err
	}

	if err := deps.VisitStore.Create(ctx, v); err != nil {
		return techvisit.TechnicalVisit{}, err
	}
	slog.Info("visit_event", "event", "technical_visit_created", "visit_id", v.ID, "school", v.School.Name, "pending", v.IsPending(), "author_id", input.AuthorID)
	return v, nil
}
