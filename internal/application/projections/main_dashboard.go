package projections

import (
	"context"
	"log/slog"
	"time"
)

// MainDashboardWarning is shown when the summary could not be computed.
const MainDashboardWarning = "Não foi possível calcular os indicadores do painel."

// MainDashboardDeps holds dependencies for the main dashboard projection.
type MainDashboardDeps struct {
	IndicatorStore IndicatorReader
	VisitStore     TechnicalVisitReader
}

// MainDashboardResult carries the four summary metrics of the landing page.
type MainDashboardResult struct {
	Schools     int
	Visits      int
	Pending     int
	LatestVisit time.Time // zero when no technical visit has a date
	Warning     string
}

// QueryMainDashboard computes the landing page summary.
// PRE: none
// POST: never fails; any store error yields all-zero metrics and a Warning
// INVARIANT: Pending counts visits whose forwarding is NULL, empty or blank
func QueryMainDashboard(ctx context.Context, deps MainDashboardDeps) MainDashboardResult {
	schools, err := deps.IndicatorStore.CountSchools(ctx)
	if err != nil {
		return mainDashboardFallback(err)
	}
	summary, err := deps.VisitStore.Summary(ctx)
	if err != nil {
		return mainDashboardFallback(err)
	}
	return MainDashboardResult{
		Schools:     schools,
		Visits:      summary.Total,
		Pending:     summary.Pending,
		LatestVisit: summary.LatestVisit,
	}
}

func mainDashboardFallback(err error) MainDashboardResult {
	slog.Warn("report_event", "event", "main_dashboard_failed", "error", err)
	return MainDashboardResult{Warning: MainDashboardWarning}
}
