package projections

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"sort"
	"strings"

	indicatorStore "saepe/internal/adapters/storage/indicator"
	techvisitStore "saepe/internal/adapters/storage/techvisit"
	"saepe/internal/domain/indicator"
)

// TopSchoolsInChart is how many schools the all-schools chart shows.
const TopSchoolsInChart = 5

// Single-school chart labels, in dataset order.
var singleSchoolLabels = []string{"SAEPE 2022", "SAEPE 2023", "Prof. LP", "Prof. MT"}

// FailureKind tells the page how to render a failed analysis.
type FailureKind string

const (
	// FailureQuery means a store or aggregation step failed.
	FailureQuery FailureKind = "query"
	// FailureEmpty means the filter matched no indicator rows.
	FailureEmpty FailureKind = "empty"
)

// AnalysisFailure is the typed failure returned by QueryAnalysis.
type AnalysisFailure struct {
	Kind    FailureKind
	Message string // user-facing
	Err     error  // nil for FailureEmpty
}

func (f *AnalysisFailure) Error() string {
	if f.Err != nil {
		return f.Message + ": " + f.Err.Error()
	}
	return f.Message
}

func (f *AnalysisFailure) Unwrap() error { return f.Err }

// AnalysisQuery carries the optional school filter. Empty means every school.
type AnalysisQuery struct {
	School string
}

// AnalysisDeps holds dependencies for the analysis projection.
type AnalysisDeps struct {
	IndicatorStore IndicatorReader
	VisitStore     TechnicalVisitReader
}

// AnalysisResult carries everything the analysis page renders.
type AnalysisResult struct {
	Filter           string                `json:"filter"`
	Rows             []indicator.Indicator `json:"-"`
	PerformanceChart Chart                 `json:"performance_chart"`
	TechnicianChart  Chart                 `json:"technician_chart"`
	ScoreTable       template.HTML         `json:"score_table"`
	ProficiencyTable template.HTML         `json:"proficiency_table"`
}

// IsFiltered reports whether the result covers a single named school.
func (r AnalysisResult) IsFiltered() bool {
	return r.Filter != ""
}

// QueryAnalysis filters the indicator table and builds the analysis charts and tables.
// PRE: none
// POST: returns a result, or an error that is always an *AnalysisFailure
// INVARIANT: a named filter matches the trimmed school name exactly; an empty filter matches all rows
func QueryAnalysis(ctx context.Context, query AnalysisQuery, deps AnalysisDeps) (AnalysisResult, error) {
	filter := strings.TrimSpace(query.School)

	rows, err := deps.IndicatorStore.List(ctx, indicatorStore.ListFilter{SchoolName: filter})
	if err != nil {
		return AnalysisResult{}, queryFailure("indicators", err)
	}
	if len(rows) == 0 {
		msg := "Nenhum indicador importado ainda."
		if filter != "" {
			msg = fmt.Sprintf("Nenhum dado encontrado para a escola %q.", filter)
		}
		return AnalysisResult{}, &AnalysisFailure{Kind: FailureEmpty, Message: msg}
	}

	counts, err := deps.VisitStore.CountByTechnician(ctx)
	if err != nil {
		return AnalysisResult{}, queryFailure("technicians", err)
	}

	result := AnalysisResult{
		Filter:          filter,
		Rows:            rows,
		TechnicianChart: technicianChart(counts),
	}
	if filter != "" {
		result.PerformanceChart = singleSchoolChart(rows[0])
	} else {
		result.PerformanceChart = topSchoolsChart(rows, TopSchoolsInChart)
	}

	if result.ScoreTable, err = renderScoreTable(rows); err != nil {
		return AnalysisResult{}, queryFailure("score table", err)
	}
	if result.ProficiencyTable, err = renderProficiencyTable(rows); err != nil {
		return AnalysisResult{}, queryFailure("proficiency table", err)
	}
	return result, nil
}

func queryFailure(step string, err error) *AnalysisFailure {
	slog.Error("report_event", "event", "analysis_failed", "step", step, "error", err)
	return &AnalysisFailure{
		Kind:    FailureQuery,
		Message: "Ocorreu um erro ao carregar a análise.",
		Err:     fmt.Errorf("%s: %w", step, err),
	}
}

func singleSchoolChart(row indicator.Indicator) Chart {
	return Chart{
		Labels: append([]string(nil), singleSchoolLabels...),
		Datasets: []ChartDataset{
			newDataset(row.School.Name, []*float64{row.Score2022, row.Score2023, row.ProficiencyLP2023, row.ProficiencyMT2023}, colorBlue),
		},
	}
}

// topSchoolsChart ranks schools by MT proficiency; rows without that value are left out.
func topSchoolsChart(rows []indicator.Indicator, n int) Chart {
	ranked := make([]indicator.Indicator, 0, len(rows))
	for _, r := range rows {
		if r.ProficiencyMT2023 != nil {
			ranked = append(ranked, r)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return *ranked[i].ProficiencyMT2023 > *ranked[j].ProficiencyMT2023
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}

	chart := Chart{Labels: make([]string, 0, len(ranked))}
	lp := make([]*float64, 0, len(ranked))
	mt := make([]*float64, 0, len(ranked))
	for _, r := range ranked {
		chart.Labels = append(chart.Labels, r.School.Name)
		lp = append(lp, r.ProficiencyLP2023)
		mt = append(mt, r.ProficiencyMT2023)
	}
	chart.Datasets = []ChartDataset{
		newDataset("Proficiência LP 2023", lp, colorBlue),
		newDataset("Proficiência MT 2023", mt, colorOrange),
	}
	return chart
}

func technicianChart(counts []techvisitStore.TechnicianCount) Chart {
	chart := Chart{Labels: make([]string, 0, len(counts))}
	data := make([]*float64, 0, len(counts))
	for _, c := range counts {
		chart.Labels = append(chart.Labels, c.Technician)
		data = append(data, indicator.Float(float64(c.Visits)))
	}
	chart.Datasets = []ChartDataset{newDataset("Visitas técnicas", data, colorGreen)}
	return chart
}
