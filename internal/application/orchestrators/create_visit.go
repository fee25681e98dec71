package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"saepe/internal/domain/school"
	"saepe/internal/domain/visit"
)

// ErrUnknownSchool is returned when a form references a school that does not exist.
var ErrUnknownSchool = errors.New("selected school does not exist")

// SchoolLookup resolves a registered school by ID.
type SchoolLookup interface {
	GetByID(ctx context.Context, id string) (school.School, error)
}

// VisitStoreForCreate defines the store interface needed by CreateVisit.
type VisitStoreForCreate interface {
	Create(ctx context.Context, v visit.Visit) error
}

// CreateVisitInput carries the visit form. VisitDate is the raw "2006-01-02" form value.
type CreateVisitInput struct {
	SchoolID   string
	AuthorID   string
	ReceivedBy string
	VisitDate  string
	VisitTime  string
	Objective  string
	Notes      string
	Status     string
}

// CreateVisitDeps holds dependencies for CreateVisit.
type CreateVisitDeps struct {
	VisitStore  VisitStoreForCreate
	SchoolStore SchoolLookup
	GenerateID  func() string
	Now         func() time.Time
}

// ExecuteCreateVisit records a scheduled or completed visit to a registered school.
// PRE: AuthorID is the logged-in account
// POST: Visit persisted; a scheduled visit never keeps ReceivedBy
func ExecuteCreateVisit(ctx context.Context, input CreateVisitInput, deps CreateVisitDeps) (visit.Visit, error) {
	now := deps.Now()
	v := visit.Visit{
		ID:         deps.GenerateID(),
		SchoolID:   input.SchoolID,
		AuthorID:   input.AuthorID,
		ReceivedBy: input.ReceivedBy,
		VisitTime:  input.VisitTime,
		Objective:  input.Objective,
		Notes:      input.Notes,
		Status:     input.Status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if v.Status == "" {
		v.Status = visit.StatusScheduled
	}
	if input.VisitDate != "" {
		d, err := time.Parse("2006-01-02", input.VisitDate)
		if err != nil {
			return visit.Visit{}, ErrInvalidVisitDate
		}
		v.VisitDate = d
	}

	v.Normalize()
	if err := v.Validate(); err != nil {
		return visit.Visit{}, err
	}
	if _, err := deps.SchoolStore.GetByID(ctx, v.SchoolID); err != nil {
		return visit.Visit{}, ErrUnknownSchool
	}

	if err := deps.VisitStore.Create(ctx, v); err != nil {
		return visit.Visit{}, err
	}
	slog.Info("visit_event", "event", "visit_created", "visit_id", v.ID, "school_id", v.SchoolID, "status", v.Status, "author_id", v.AuthorID)
	return v, nil
}
