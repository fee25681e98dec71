package web

import (
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"saepe/internal/adapters/http/middleware"
	"saepe/internal/application/listutil"
	"saepe/internal/application/orchestrators"
	"saepe/internal/application/projections"
	"saepe/internal/domain/school"
	"saepe/internal/domain/visit"
)

type technicalVisitsPage struct {
	School      string
	PendingOnly bool
	List        projections.TechnicalVisitListResult
	Schools     []string
	Technicians []string
	PerPage     []int
	Today       string
}

// PageURL links to another page of the same listing, keeping the filters.
func (p technicalVisitsPage) PageURL(page int) template.URL {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(p.List.PageInfo.PerPage))
	if p.School != "" {
		q.Set("escola", p.School)
	}
	if p.PendingOnly {
		q.Set("pendentes", "1")
	}
	return template.URL("/visitas?" + q.Encode())
}

// handleTechnicalVisits handles GET /visitas
func handleTechnicalVisits(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	page := technicalVisitsPage{
		School:      strings.TrimSpace(q.Get("escola")),
		PendingOnly: q.Get("pendentes") == "1",
		PerPage:     listutil.PerPageOptions,
		Today:       timeNow().Format("2006-01-02"),
	}

	list, err := projections.QueryTechnicalVisitList(ctx, projections.TechnicalVisitListQuery{
		School:      page.School,
		PendingOnly: page.PendingOnly,
		Page:        listutil.ParsePageParams(q),
	}, projections.TechnicalVisitListDeps{VisitStore: stores.TechVisitStore})
	if err != nil {
		internalError(w, err)
		return
	}
	page.List = list

	// Choices are recomputed on every request.
	deps := projections.ChoicesDeps{IndicatorStore: stores.IndicatorStore, VisitStore: stores.TechVisitStore}
	if page.Schools, err = projections.QuerySchoolChoices(ctx, deps); err != nil {
		slog.Error("visit_event", "event", "school_choices_failed", "error", err)
	}
	if page.Technicians, err = projections.QueryTechnicianChoices(ctx, deps); err != nil {
		slog.Error("visit_event", "event", "technician_choices_failed", "error", err)
	}

	renderTemplate(w, r, "visitas.html", page)
}

// handleCreateTechnicalVisit handles POST /visitas
func handleCreateTechnicalVisit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	sess, _ := middleware.GetSessionFromContext(r.Context())

	tv, err := orchestrators.ExecuteCreateTechnicalVisit(r.Context(), orchestrators.CreateTechnicalVisitInput{
		School:       r.FormValue("escola"),
		VisitDate:    r.FormValue("data_visita"),
		Technician:   r.FormValue("tecnico"),
		StaffContact: r.FormValue("servidor"),
		Demand:       r.FormValue("demanda"),
		Forwarding:   r.FormValue("encaminhamento"),
		Observation:  r.FormValue("observacao"),
		AuthorID:     sess.AccountID,
	}, orchestrators.CreateTechnicalVisitDeps{
		VisitStore: stores.TechVisitStore,
		GenerateID: generateID,
		Now:        timeNow,
	})
	if err != nil {
		msg, ok := userMessage(err)
		if !ok {
			internalError(w, err)
			return
		}
		setFlash(w, r, flashError, msg)
		http.Redirect(w, r, "/visitas", http.StatusSeeOther)
		return
	}

	setFlash(w, r, flashSuccess, "Visita técnica à "+tv.School.Name+" registrada.")
	http.Redirect(w, r, "/visitas", http.StatusSeeOther)
}

type visitsPage struct {
	Status   string
	Visits   []projections.VisitRow
	Schools  []school.School
	Statuses []statusOption
	Today    string
}

type statusOption struct {
	Value string
	Label string
}

var visitStatuses = []statusOption{
	{visit.StatusScheduled, visit.StatusLabel(visit.StatusScheduled)},
	{visit.StatusCompleted, visit.StatusLabel(visit.StatusCompleted)},
}

// handleVisits handles GET /agenda
func handleVisits(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := r.URL.Query().Get("status")
	if status != visit.StatusScheduled && status != visit.StatusCompleted {
		status = ""
	}

	rows, err := projections.QueryVisitList(ctx, projections.VisitListQuery{Status: status, Limit: 200}, projections.VisitListDeps{
		VisitStore:   stores.VisitStore,
		SchoolStore:  stores.SchoolStore,
		AccountStore: stores.AccountStore,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	schools, err := stores.SchoolStore.List(ctx)
	if err != nil {
		internalError(w, err)
		return
	}

	renderTemplate(w, r, "agenda.html", visitsPage{
		Status:   status,
		Visits:   rows,
		Schools:  schools,
		Statuses: visitStatuses,
		Today:    timeNow().Format("2006-01-02"),
	})
}

// handleCreateVisit handles POST /agenda
func handleCreateVisit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	sess, _ := middleware.GetSessionFromContext(r.Context())

	v, err := orchestrators.ExecuteCreateVisit(r.Context(), orchestrators.CreateVisitInput{
		SchoolID:   r.FormValue("escola"),
		AuthorID:   sess.AccountID,
		ReceivedBy: r.FormValue("recebido_por"),
		VisitDate:  r.FormValue("data_visita"),
		VisitTime:  r.FormValue("hora_visita"),
		Objective:  r.FormValue("objetivo"),
		Notes:      r.FormValue("observacoes"),
		Status:     r.FormValue("status"),
	}, orchestrators.CreateVisitDeps{
		VisitStore:  stores.VisitStore,
		SchoolStore: stores.SchoolStore,
		GenerateID:  generateID,
		Now:         timeNow,
	})
	if err != nil {
		msg, ok := userMessage(err)
		if !ok {
			internalError(w, err)
			return
		}
		setFlash(w, r, flashError, msg)
		http.Redirect(w, r, "/agenda", http.StatusSeeOther)
		return
	}

	setFlash(w, r, flashSuccess, "Visita de "+formatDate(v.VisitDate)+" registrada como "+visit.StatusLabel(v.Status)+".")
	http.Redirect(w, r, "/agenda", http.StatusSeeOther)
}
