package web

import (
	"net/http"
	"time"

	"saepe/internal/adapters/http/perf"
	"saepe/internal/application/orchestrators"
	"saepe/internal/domain/school"
)

// handleAdminSchools handles GET /admin/escolas
func handleAdminSchools(w http.ResponseWriter, r *http.Request) {
	schools, err := stores.SchoolStore.List(r.Context())
	if err != nil {
		internalError(w, err)
		return
	}
	renderTemplate(w, r, "admin_escolas.html", struct{ Schools []school.School }{schools})
}

// handleAdminCreateSchool handles POST /admin/escolas
func handleAdminCreateSchool(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	s, err := orchestrators.ExecuteCreateSchool(r.Context(), orchestrators.CreateSchoolInput{
		Name: r.FormValue("nome"),
		City: r.FormValue("cidade"),
	}, orchestrators.CreateSchoolDeps{
		SchoolStore: stores.SchoolStore,
		GenerateID:  generateID,
	})
	if err != nil {
		msg, ok := userMessage(err)
		if !ok {
			internalError(w, err)
			return
		}
		setFlash(w, r, flashError, msg)
		http.Redirect(w, r, "/admin/escolas", http.StatusSeeOther)
		return
	}
	setFlash(w, r, flashSuccess, "Escola "+s.String()+" cadastrada.")
	http.Redirect(w, r, "/admin/escolas", http.StatusSeeOther)
}

type perfPage struct {
	Window   string
	Snapshot perf.Snapshot
}

// perfWindows are the look-back choices offered on the perf page.
var perfWindows = map[string]time.Duration{
	"15m": 15 * time.Minute,
	"1h":  time.Hour,
	"24h": 24 * time.Hour,
}

// handleAdminPerf handles GET /admin/perf?janela=
func handleAdminPerf(w http.ResponseWriter, r *http.Request) {
	window := r.URL.Query().Get("janela")
	d, ok := perfWindows[window]
	if !ok {
		window, d = "1h", time.Hour
	}
	page := perfPage{Window: window}
	if perfCollector != nil {
		page.Snapshot = perfCollector.Snapshot(timeNow().Add(-d), 10)
	}
	renderTemplate(w, r, "admin_perf.html", page)
}
