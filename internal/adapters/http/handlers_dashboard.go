package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"saepe/internal/application/projections"
)

// handleMainDashboard handles GET /
func handleMainDashboard(w http.ResponseWriter, r *http.Request) {
	result := projections.QueryMainDashboard(r.Context(), projections.MainDashboardDeps{
		IndicatorStore: stores.IndicatorStore,
		VisitStore:     stores.TechVisitStore,
	})
	renderTemplate(w, r, "main_dashboard.html", result)
}

type analysisPage struct {
	Selected string
	Schools  []string
	Result   projections.AnalysisResult
	Failure  *projections.AnalysisFailure
}

type errorBody struct {
	Error string `json:"error"`
}

// handleAnalysisDashboard handles GET /dashboard-analise?escola=
// HTML callers get the page; other callers get the result as JSON.
func handleAnalysisDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	selected := strings.TrimSpace(r.URL.Query().Get("escola"))

	result, err := projections.QueryAnalysis(ctx, projections.AnalysisQuery{School: selected}, projections.AnalysisDeps{
		IndicatorStore: stores.IndicatorStore,
		VisitStore:     stores.TechVisitStore,
	})
	var failure *projections.AnalysisFailure
	if err != nil && !errors.As(err, &failure) {
		internalError(w, err)
		return
	}

	if !isHTMLRequest(r) {
		switch {
		case failure == nil:
			writeJSON(w, http.StatusOK, result)
		case failure.Kind == projections.FailureEmpty:
			writeJSON(w, http.StatusNotFound, errorBody{Error: failure.Message})
		default:
			writeJSON(w, http.StatusInternalServerError, errorBody{Error: failure.Message})
		}
		return
	}

	schools, err := projections.QuerySchoolChoices(ctx, projections.ChoicesDeps{IndicatorStore: stores.IndicatorStore})
	if err != nil {
		slog.Error("report_event", "event", "school_choices_failed", "error", err)
	}
	renderTemplate(w, r, "analise.html", analysisPage{
		Selected: selected,
		Schools:  schools,
		Result:   result,
		Failure:  failure,
	})
}

// handleSchoolProfile handles GET /escola/{nome}
func handleSchoolProfile(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("nome")
	profile, err := projections.QuerySchoolProfile(r.Context(), projections.SchoolProfileQuery{Name: name}, projections.SchoolProfileDeps{
		IndicatorStore: stores.IndicatorStore,
		VisitStore:     stores.TechVisitStore,
	})
	if errors.Is(err, projections.ErrSchoolNotFound) {
		setFlash(w, r, flashError, fmt.Sprintf("Escola %q não encontrada nos indicadores importados.", strings.TrimSpace(name)))
		http.Redirect(w, r, "/dashboard-analise", http.StatusSeeOther)
		return
	}
	if err != nil {
		slog.Error("report_event", "event", "school_profile_failed", "school", name, "error", err)
		setFlash(w, r, flashError, "Não foi possível carregar o perfil da escola.")
		http.Redirect(w, r, "/dashboard-analise", http.StatusSeeOther)
		return
	}
	renderTemplate(w, r, "escola.html", profile)
}
