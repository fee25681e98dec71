package projections

import (
	"context"
	"log/slog"

	reportStore "saepe/internal/adapters/storage/report"
	techvisitStore "saepe/internal/adapters/storage/techvisit"
	visitStore "saepe/internal/adapters/storage/visit"
	"saepe/internal/application/listutil"
	"saepe/internal/domain/indicator"
	"saepe/internal/domain/report"
	"saepe/internal/domain/techvisit"
	"saepe/internal/domain/visit"
)

// TechnicalVisitListQuery carries the list filters and page.
type TechnicalVisitListQuery struct {
	School      string // any spelling; matched through the school key
	PendingOnly bool
	Page        listutil.PageParams
}

// TechnicalVisitListDeps holds dependencies for the technical visit list.
type TechnicalVisitListDeps struct {
	VisitStore TechnicalVisitReader
}

// TechnicalVisitListResult carries one page of technical visits.
type TechnicalVisitListResult struct {
	Visits   []techvisit.TechnicalVisit
	PageInfo listutil.PageInfo
}

// QueryTechnicalVisitList pages through technical visits, newest first.
// PRE: Page has been parsed with listutil.ParsePageParams
// POST: PageInfo.Total counts every matching visit
func QueryTechnicalVisitList(ctx context.Context, query TechnicalVisitListQuery, deps TechnicalVisitListDeps) (TechnicalVisitListResult, error) {
	filter := techvisitStore.ListFilter{PendingOnly: query.PendingOnly}
	if query.School != "" {
		filter.SchoolKey = indicator.NewSchoolRef(query.School).Key
	}

	total, err := deps.VisitStore.Count(ctx, filter)
	if err != nil {
		return TechnicalVisitListResult{}, err
	}
	info := listutil.NewPageInfo(query.Page.Page, query.Page.PerPage, total)
	filter.Limit = info.PerPage
	filter.Offset = info.Offset

	visits, err := deps.VisitStore.List(ctx, filter)
	if err != nil {
		return TechnicalVisitListResult{}, err
	}
	return TechnicalVisitListResult{Visits: visits, PageInfo: info}, nil
}

// VisitRow is a legacy visit joined with its school and author names.
type VisitRow struct {
	visit.Visit
	SchoolName  string
	AuthorName  string
	StatusLabel string
}

// VisitListQuery carries the agenda filters.
type VisitListQuery struct {
	Status string
	Limit  int
}

// VisitListDeps holds dependencies for the agenda list.
type VisitListDeps struct {
	VisitStore   VisitReader
	SchoolStore  SchoolReader
	AccountStore AccountReader
}

// QueryVisitList lists legacy visits, latest date first.
// POST: unresolvable school or author IDs render as empty names
func QueryVisitList(ctx context.Context, query VisitListQuery, deps VisitListDeps) ([]VisitRow, error) {
	visits, err := deps.VisitStore.List(ctx, visitStore.ListFilter{Status: query.Status, Limit: query.Limit})
	if err != nil {
		return nil, err
	}
	names := newNameCache(deps.SchoolStore, deps.AccountStore)
	rows := make([]VisitRow, 0, len(visits))
	for _, v := range visits {
		rows = append(rows, VisitRow{
			Visit:       v,
			SchoolName:  names.school(ctx, v.SchoolID),
			AuthorName:  names.author(ctx, v.AuthorID),
			StatusLabel: visit.StatusLabel(v.Status),
		})
	}
	return rows, nil
}

// ReportRow is a legacy report with display names resolved.
type ReportRow struct {
	report.Report
	Title       string
	SchoolName  string
	AuthorName  string
	Occurrences []string
}

// ReportListQuery carries the report list filters.
type ReportListQuery struct {
	SchoolID string
	Limit    int
}

// ReportListDeps holds dependencies for the report list.
type ReportListDeps struct {
	ReportStore     ReportReader
	SchoolStore     SchoolReader
	OccurrenceStore OccurrenceReader
	AccountStore    AccountReader
}

// QueryReportList lists legacy reports, newest first, with occurrence descriptions.
func QueryReportList(ctx context.Context, query ReportListQuery, deps ReportListDeps) ([]ReportRow, error) {
	reports, err := deps.ReportStore.List(ctx, reportStore.ListFilter{SchoolID: query.SchoolID, Limit: query.Limit})
	if err != nil {
		return nil, err
	}
	occurrences, err := deps.OccurrenceStore.List(ctx)
	if err != nil {
		return nil, err
	}
	descriptions := make(map[string]string, len(occurrences))
	for _, o := range occurrences {
		descriptions[o.ID] = o.Description
	}

	names := newNameCache(deps.SchoolStore, deps.AccountStore)
	rows := make([]ReportRow, 0, len(reports))
	for _, r := range reports {
		row := ReportRow{
			Report:     r,
			SchoolName: names.school(ctx, r.SchoolID),
			AuthorName: names.author(ctx, r.AuthorID),
		}
		row.Title = report.Title(row.SchoolName, r.CreatedAt)
		for _, id := range r.OccurrenceIDs {
			if d, ok := descriptions[id]; ok {
				row.Occurrences = append(row.Occurrences, d)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// nameCache resolves school and author names once per list.
type nameCache struct {
	schools  SchoolReader
	accounts AccountReader
	seen     map[string]string
}

func newNameCache(schools SchoolReader, accounts AccountReader) *nameCache {
	return &nameCache{schools: schools, accounts: accounts, seen: make(map[string]string)}
}

func (c *nameCache) school(ctx context.Context, id string) string {
	key := "s:" + id
	if name, ok := c.seen[key]; ok {
		return name
	}
	s, err := c.schools.GetByID(ctx, id)
	if err != nil {
		slog.Warn("report_event", "event", "school_lookup_failed", "school_id", id, "error", err)
	}
	c.seen[key] = s.Name
	return s.Name
}

func (c *nameCache) author(ctx context.Context, id string) string {
	key := "a:" + id
	if name, ok := c.seen[key]; ok {
		return name
	}
	var name string
	if c.accounts != nil {
		if a, err := c.accounts.GetByID(ctx, id); err == nil {
			name = a.Username
		}
	}
	c.seen[key] = name
	return name
}
