package projections

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	techvisitStore "saepe/internal/adapters/storage/techvisit"
	"saepe/internal/domain/indicator"
	"saepe/internal/domain/techvisit"
)

// ErrSchoolNotFound is returned when no indicator row carries the requested name.
var ErrSchoolNotFound = errors.New("school not found")

// SchoolProfileQuery carries the school name taken from the URL.
type SchoolProfileQuery struct {
	Name string
}

// SchoolProfileDeps holds dependencies for the school profile projection.
type SchoolProfileDeps struct {
	IndicatorStore IndicatorReader
	VisitStore     TechnicalVisitReader
}

// SchoolProfileResult carries a school's indicators and its technical visits.
type SchoolProfileResult struct {
	Indicator indicator.Indicator
	Visits    []techvisit.TechnicalVisit
	Pending   int
}

// QuerySchoolProfile loads one school by exact name with its visits, newest first.
// PRE: none
// POST: ErrSchoolNotFound when the trimmed name matches no indicator row
// INVARIANT: visits are matched through the normalised school key, never a foreign key
func QuerySchoolProfile(ctx context.Context, query SchoolProfileQuery, deps SchoolProfileDeps) (SchoolProfileResult, error) {
	name := strings.TrimSpace(query.Name)
	if name == "" {
		return SchoolProfileResult{}, ErrSchoolNotFound
	}

	ind, err := deps.IndicatorStore.GetBySchoolName(ctx, name)
	if errors.Is(err, sql.ErrNoRows) {
		return SchoolProfileResult{}, ErrSchoolNotFound
	}
	if err != nil {
		return SchoolProfileResult{}, fmt.Errorf("load indicator: %w", err)
	}

	visits, err := deps.VisitStore.List(ctx, techvisitStore.ListFilter{SchoolKey: ind.School.Key})
	if err != nil {
		return SchoolProfileResult{}, fmt.Errorf("load technical visits: %w", err)
	}

	result := SchoolProfileResult{Indicator: ind, Visits: visits}
	for i := range visits {
		if visits[i].IsPending() {
			result.Pending++
		}
	}
	return result, nil
}
