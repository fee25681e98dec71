package web

import (
	"net/http"

	"saepe/internal/adapters/http/middleware"
	"saepe/internal/application/orchestrators"
	"saepe/internal/application/projections"
)

type reportsPage struct {
	Choices projections.ReportFormChoices
	Reports []projections.ReportRow
}

// handleReports handles GET /relatorios
func handleReports(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	choices, err := projections.QueryReportFormChoices(ctx, projections.ChoicesDeps{
		SchoolStore:     stores.SchoolStore,
		OccurrenceStore: stores.OccurrenceStore,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	reports, err := projections.QueryReportList(ctx, projections.ReportListQuery{Limit: 50}, projections.ReportListDeps{
		ReportStore:     stores.ReportStore,
		SchoolStore:     stores.SchoolStore,
		OccurrenceStore: stores.OccurrenceStore,
		AccountStore:    stores.AccountStore,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	renderTemplate(w, r, "relatorios.html", reportsPage{Choices: choices, Reports: reports})
}

// handleCreateReport handles POST /relatorios
func handleCreateReport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	sess, _ := middleware.GetSessionFromContext(r.Context())

	_, err := orchestrators.ExecuteCreateReport(r.Context(), orchestrators.CreateReportInput{
		SchoolID:      r.FormValue("escola"),
		AuthorID:      sess.AccountID,
		OccurrenceIDs: r.Form["ocorrencias"],
		Details:       r.FormValue("detalhes"),
	}, orchestrators.CreateReportDeps{
		ReportStore:     stores.ReportStore,
		SchoolStore:     stores.SchoolStore,
		OccurrenceStore: stores.OccurrenceStore,
		GenerateID:      generateID,
		Now:             timeNow,
	})
	if err != nil {
		msg, ok := userMessage(err)
		if !ok {
			internalError(w, err)
			return
		}
		setFlash(w, r, flashError, msg)
		http.Redirect(w, r, "/relatorios", http.StatusSeeOther)
		return
	}

	setFlash(w, r, flashSuccess, "Relatório enviado.")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
