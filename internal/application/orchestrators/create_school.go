package orchestrators

import (
	"context"
	"log/slog"
	"strings"

	"saepe/internal/domain/school"
)

// SchoolStoreForCreate defines the store interface needed by CreateSchool.
type SchoolStoreForCreate interface {
	Save(ctx context.Context, s school.School) error
}

// CreateSchoolInput carries input for the create school orchestrator.
type CreateSchoolInput struct {
	Name string
	City string
}

// CreateSchoolDeps holds dependencies for CreateSchool.
type CreateSchoolDeps struct {
	SchoolStore SchoolStoreForCreate
	GenerateID  func() string
}

// ExecuteCreateSchool registers a school that visits and reports can reference.
// PRE: caller is an admin
// POST: School persisted with a generated ID
func ExecuteCreateSchool(ctx context.Context, input CreateSchoolInput, deps CreateSchoolDeps) (school.School, error) {
	s := school.School{
		ID:   deps.GenerateID(),
		Name: strings.TrimSpace(input.Name),
		City: strings.TrimSpace(input.City),
	}
	if err := s.Validate(); err != nil {
		return school.School{}, err
	}
	if err := deps.SchoolStore.Save(ctx, s); err != nil {
		return school.School{}, err
	}
	slog.Info("school_event", "event", "school_created", "school_id", s.ID, "name", s.Name)
	return s, nil
}
