package projections

import (
	"context"
	"errors"
	"strings"

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

var errStore = errors.New("database is locked")

// mockIndicatorReader implements IndicatorReader over a slice.
type mockIndicatorReader struct {
	rows    []indicator.Indicator
	listErr error
	getErr  error
}

// List implements IndicatorReader with the exact-name filter semantics of the SQLite store.
func (m *mockIndicatorReader) List(_ context.Context, f indicatorStore.ListFilter) ([]indicator.Indicator, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	name := strings.TrimSpace(f.SchoolName)
	var out []indicator.Indicator
	for _, r := range m.rows {
		if name == "" || r.School.Name == name {
			out = append(out, r)
		}
	}
	return out, nil
}

// GetBySchoolName implements IndicatorReader.
func (m *mockIndicatorReader) GetBySchoolName(_ context.Context, name string) (indicator.Indicator, error) {
	if m.getErr != nil {
		return indicator.Indicator{}, m.getErr
	}
	for _, r := range m.rows {
		if r.School.Name == name {
			return r, nil
		}
	}
	return indicator.Indicator{}, notFound()
}

// DistinctSchoolNames implements IndicatorReader.
func (m *mockIndicatorReader) DistinctSchoolNames(_ context.Context) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, r := range m.rows {
		if !seen[r.School.Name] {
			seen[r.School.Name] = true
			out = append(out, r.School.Name)
		}
	}
	return out, nil
}

// CountSchools implements IndicatorReader.
func (m *mockIndicatorReader) CountSchools(_ context.Context) (int, error) {
	if m.listErr != nil {
		return 0, m.listErr
	}
	seen := map[string]bool{}
	for _, r := range m.rows {
		seen[r.School.Key] = true
	}
	return len(seen), nil
}

// mockTechVisitReader implements TechnicalVisitReader.
type mockTechVisitReader struct {
	rows       []techvisit.TechnicalVisit
	counts     []techvisitStore.TechnicianCount
	err        error
	lastFilter techvisitStore.ListFilter
}

// List implements TechnicalVisitReader; rows are assumed to be in display order.
func (m *mockTechVisitReader) List(_ context.Context, f techvisitStore.ListFilter) ([]techvisit.TechnicalVisit, error) {
	m.lastFilter = f
	if m.err != nil {
		return nil, m.err
	}
	matched := m.match(f)
	if f.Offset > len(matched) {
		return nil, nil
	}
	matched = matched[f.Offset:]
	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}
	return matched, nil
}

// Count implements TechnicalVisitReader.
func (m *mockTechVisitReader) Count(_ context.Context, f techvisitStore.ListFilter) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	return len(m.match(f)), nil
}

// Summary implements TechnicalVisitReader.
func (m *mockTechVisitReader) Summary(_ context.Context) (techvisitStore.Summary, error) {
	if m.err != nil {
		return techvisitStore.Summary{}, m.err
	}
	var s techvisitStore.Summary
	for i := range m.rows {
		s.Total++
		if m.rows[i].IsPending() {
			s.Pending++
		}
		if m.rows[i].VisitDate.After(s.LatestVisit) {
			s.LatestVisit = m.rows[i].VisitDate
		}
	}
	return s, nil
}

// CountByTechnician implements TechnicalVisitReader.
func (m *mockTechVisitReader) CountByTechnician(_ context.Context) ([]techvisitStore.TechnicianCount, error) {
	return m.counts, m.err
}

// DistinctTechnicians implements TechnicalVisitReader.
func (m *mockTechVisitReader) DistinctTechnicians(_ context.Context) ([]string, error) {
	var out []string
	for _, c := range m.counts {
		out = append(out, c.Technician)
	}
	return out, m.err
}

func (m *mockTechVisitReader) match(f techvisitStore.ListFilter) []techvisit.TechnicalVisit {
	var out []techvisit.TechnicalVisit
	for _, r := range m.rows {
		if f.SchoolKey != "" && r.School.Key != f.SchoolKey {
			continue
		}
		if f.PendingOnly && !r.IsPending() {
			continue
		}
		out = append(out, r)
	}
	return out
}

// mockSchoolReader implements SchoolReader.
type mockSchoolReader struct {
	schools []school.School
}

// GetByID implements SchoolReader.
func (m *mockSchoolReader) GetByID(_ context.Context, id string) (school.School, error) {
	for _, s := range m.schools {
		if s.ID == id {
			return s, nil
		}
	}
	return school.School{}, notFound()
}

// List implements SchoolReader.
func (m *mockSchoolReader) List(_ context.Context) ([]school.School, error) {
	return m.schools, nil
}

// mockAccountReader implements AccountReader.
type mockAccountReader struct {
	accounts []account.Account
}

// GetByID implements AccountReader.
func (m *mockAccountReader) GetByID(_ context.Context, id string) (account.Account, error) {
	for _, a := range m.accounts {
		if a.ID == id {
			return a, nil
		}
	}
	return account.Account{}, notFound()
}

// mockVisitReader implements VisitReader.
type mockVisitReader struct {
	visits []visit.Visit
}

// List implements VisitReader.
func (m *mockVisitReader) List(_ context.Context, f visitStore.ListFilter) ([]visit.Visit, error) {
	var out []visit.Visit
	for _, v := range m.visits {
		if f.Status == "" || v.Status == f.Status {
			out = append(out, v)
		}
	}
	return out, nil
}

// mockReportReader implements ReportReader.
type mockReportReader struct {
	reports []report.Report
}

// List implements ReportReader.
func (m *mockReportReader) List(_ context.Context, _ reportStore.ListFilter) ([]report.Report, error) {
	return m.reports, nil
}

// mockOccurrenceReader implements OccurrenceReader.
type mockOccurrenceReader struct {
	items []occurrence.Occurrence
}

// List implements OccurrenceReader.
func (m *mockOccurrenceReader) List(_ context.Context) ([]occurrence.Occurrence, error) {
	return m.items, nil
}
