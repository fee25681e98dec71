package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"saepe/internal/domain/occurrence"
	"saepe/internal/domain/report"
)

// ErrUnknownOccurrence is returned when a report is tagged with an occurrence that does not exist.
var ErrUnknownOccurrence = errors.New("selected occurrence does not exist")

// OccurrenceLister lists the occurrence reference data.
type OccurrenceLister interface {
	List(ctx context.Context) ([]occurrence.Occurrence, error)
}

// ReportStoreForCreate defines the store interface needed by CreateReport.
type ReportStoreForCreate interface {
	Create(ctx context.Context, r report.Report) error
}

// CreateReportInput carries the legacy report form.
type CreateReportInput struct {
	SchoolID      string
	AuthorID      string
	OccurrenceIDs []string
	Details       string
}

// CreateReportDeps holds dependencies for CreateReport.
type CreateReportDeps struct {
	ReportStore     ReportStoreForCreate
	SchoolStore     SchoolLookup
	OccurrenceStore OccurrenceLister
	GenerateID      func() string
	Now             func() time.Time
}

// ExecuteCreateReport saves a report with its occurrence tags.
// PRE: AuthorID is the logged-in account
// POST: Report persisted with de-duplicated, known occurrence IDs
func ExecuteCreateReport(ctx context.Context, input CreateReportInput, deps CreateReportDeps) (report.Report, error) {
	r := report.Report{
		ID:            deps.GenerateID(),
		SchoolID:      input.SchoolID,
		AuthorID:      input.AuthorID,
		OccurrenceIDs: append([]string(nil), input.OccurrenceIDs...),
		Details:       strings.TrimSpace(input.Details),
		CreatedAt:     deps.Now(),
	}
	r.DedupeOccurrences()
	if err := r.Validate(); err != nil {
		return report.Report{}, err
	}
	if _, err := deps.SchoolStore.GetByID(ctx, r.SchoolID); err != nil {
		return report.Report{}, ErrUnknownSchool
	}

	if len(r.OccurrenceIDs) > 0 {
		known, err := deps.OccurrenceStore.List(ctx)
		if err != nil {
			return report.Report{}, err
		}
		ids := make(map[string]bool, len(known))
		for _, o := range known {
			ids[o.ID] = true
		}
		for _, id := range r.OccurrenceIDs {
			if !ids[id] {
				return report.Report{}, ErrUnknownOccurrence
			}
		}
	}

	if err := deps.ReportStore.Create(ctx, r); err != nil {
		return report.Report{}, err
	}
	slog.Info("report_event", "event", "report_created", "report_id", r.ID, "school_id", r.SchoolID, "occurrences", len(r.OccurrenceIDs), "author_id", r.AuthorID)
	return r, nil
}
