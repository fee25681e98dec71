package projections

import (
	"context"

	"saepe/internal/domain/occurrence"
	"saepe/internal/domain/school"
)

// ChoicesDeps holds dependencies for the form choice projections.
type ChoicesDeps struct {
	IndicatorStore  IndicatorReader
	VisitStore      TechnicalVisitReader
	SchoolStore     SchoolReader
	OccurrenceStore OccurrenceReader
}

// QuerySchoolChoices returns the school names known from the indicator table.
// POST: recomputed on every call, so newly imported schools show up immediately
func QuerySchoolChoices(ctx context.Context, deps ChoicesDeps) ([]string, error) {
	return deps.IndicatorStore.DistinctSchoolNames(ctx)
}

// QueryTechnicianChoices returns the technicians already present in technical visits.
// POST: recomputed on every call
func QueryTechnicianChoices(ctx context.Context, deps ChoicesDeps) ([]string, error) {
	return deps.VisitStore.DistinctTechnicians(ctx)
}

// ReportFormChoices carries the options of the legacy report and agenda forms.
type ReportFormChoices struct {
	Schools     []school.School
	Occurrences []occurrence.Occurrence
}

// QueryReportFormChoices lists registered schools and the occurrence reference list.
func QueryReportFormChoices(ctx context.Context, deps ChoicesDeps) (ReportFormChoices, error) {
	schools, err := deps.SchoolStore.List(ctx)
	if err != nil {
		return ReportFormChoices{}, err
	}
	occurrences, err := deps.OccurrenceStore.List(ctx)
	if err != nil {
		return ReportFormChoices{}, err
	}
	return ReportFormChoices{Schools: schools, Occurrences: occurrences}, nil
}
