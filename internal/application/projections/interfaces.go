package projections

import (
	"context"

	indicatorStore "saepe/internal/adapters/storage/indicator"
	reportStore "saepe/internal/adapters/storage/report"
	techvisitStore "saepe/internal/adapters/storage/techvisit"
	visitStore "saepe/internal/adapters/storage/visit"
	"saepe/internal/domain/account"
	"saepe/internal/domain/indicator"
	"saepe/internal/domain/occurrence"
	"saepe/internal/domain/report"
	"saepe/internal/domain/school"
	"saepe/internal/domain/techvisit"
	"saepe/internal/domain/visit"
)

// IndicatorReader interface for school indicator queries.
type IndicatorReader interface {
	List(ctx context.Context, filter indicatorStore.ListFilter) ([]indicator.Indicator, error)
	GetBySchoolName(ctx context.Context, name string) (indicator.Indicator, error)
	DistinctSchoolNames(ctx context.Context) ([]string, error)
	CountSchools(ctx context.Context) (int, error)
}

// TechnicalVisitReader interface for technical visit queries.
type TechnicalVisitReader interface {
	List(ctx context.Context, filter techvisitStore.ListFilter) ([]techvisit.TechnicalVisit, error)
	Count(ctx context.Context, filter techvisitStore.ListFilter) (int, error)
	Summary(ctx context.Context) (techvisitStore.Summary, error)
	CountByTechnician(ctx context.Context) ([]techvisitStore.TechnicianCount, error)
	DistinctTechnicians(ctx context.Context) ([]string, error)
}

// SchoolReader interface for registered school queries.
type SchoolReader interface {
	GetByID(ctx context.Context, id string) (school.School, error)
	List(ctx context.Context) ([]school.School, error)
}

// VisitReader interface for legacy visit queries.
type VisitReader interface {
	List(ctx context.Context, filter visitStore.ListFilter) ([]visit.Visit, error)
}

// ReportReader interface for legacy report queries.
type ReportReader interface {
	List(ctx context.Context, filter reportStore.ListFilter) ([]report.Report, error)
}

// OccurrenceReader interface for the occurrence reference list.
type OccurrenceReader interface {
	List(ctx context.Context) ([]occurrence.Occurrence, error)
}

// AccountReader resolves report and visit authors.
type AccountReader interface {
	GetByID(ctx context.Context, id string) (account.Account, error)
}
