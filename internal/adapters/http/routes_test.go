package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saepe/internal/adapters/http/middleware"
	"saepe/internal/adapters/http/perf"
	accountStore "saepe/internal/adapters/storage/account"
	indicatorStore "saepe/internal/adapters/storage/indicator"
	occurrenceStore "saepe/internal/adapters/storage/occurrence"
	reportStore "saepe/internal/adapters/storage/report"
	schoolStore "saepe/internal/adapters/storage/school"
	"saepe/internal/adapters/storage/storagetest"
	techvisitStore "saepe/internal/adapters/storage/techvisit"
	visitStore "saepe/internal/adapters/storage/visit"
	"saepe/internal/application/orchestrators"
	"saepe/internal/domain/indicator"
	"saepe/internal/domain/school"
	visitDomain "saepe/internal/domain/visit"
)

const testPassword = "senha-segura-1"

// newTestApp serves the router behind the Auth middleware only; CSRF is
// covered by middleware tests and would need a token round-trip here.
func newTestApp(t *testing.T) (*httptest.Server, *Stores) {
	t.Helper()
	db := storagetest.OpenDB(t)
	s := &Stores{
		AccountStore:    accountStore.NewSQLiteStore(db),
		SchoolStore:     schoolStore.NewSQLiteStore(db),
		OccurrenceStore: occurrenceStore.NewSQLiteStore(db),
		ReportStore:     reportStore.NewSQLiteStore(db),
		VisitStore:      visitStore.NewSQLiteStore(db),
		IndicatorStore:  indicatorStore.NewSQLiteStore(db),
		TechVisitStore:  techvisitStore.NewSQLiteStore(db),
	}
	configure(s, perf.NewCollector(100), Options{SessionKey: "test-seed"})

	srv := httptest.NewServer(middleware.Auth(sessionStore)(newRouter()))
	t.Cleanup(srv.Close)
	return srv, s
}

type testClient struct {
	t    *testing.T
	base string
	http *http.Client
}

func newClient(t *testing.T, srv *httptest.Server) *testClient {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testClient{
		t:    t,
		base: srv.URL,
		http: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// do returns the status, Location header and body of one request.
func (c *testClient) do(req *http.Request) (int, string, string) {
	c.t.Helper()
	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp.StatusCode, resp.Header.Get("Location"), string(body)
}

func (c *testClient) get(path string) (int, string, string) {
	c.t.Helper()
	req, err := http.NewRequest(http.MethodGet, c.base+path, nil)
	require.NoError(c.t, err)
	return c.do(req)
}

func (c *testClient) getJSON(path string) (int, string) {
	c.t.Helper()
	req, err := http.NewRequest(http.MethodGet, c.base+path, nil)
	require.NoError(c.t, err)
	req.Header.Set("Accept", "application/json")
	status, _, body := c.do(req)
	return status, body
}

func (c *testClient) post(path string, form url.Values) (int, string, string) {
	c.t.Helper()
	req, err := http.NewRequest(http.MethodPost, c.base+path, strings.NewReader(form.Encode()))
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *testClient) register(username, email string) (int, string, string) {
	c.t.Helper()
	return c.post("/registro", url.Values{
		"username":  {username},
		"email":     {email},
		"password1": {testPassword},
		"password2": {testPassword},
	})
}

func (c *testClient) loginAsAdmin(s *Stores) {
	c.t.Helper()
	_, err := orchestrators.ExecuteSeedAdmin(context.Background(), orchestrators.SeedAdminInput{
		Username: "admin", Email: "admin@saepe.local", Password: testPassword,
	}, orchestrators.SeedAdminDeps{AccountStore: s.AccountStore, GenerateID: generateID, Now: time.Now})
	require.NoError(c.t, err)
	status, loc, _ := c.post("/login", url.Values{"username": {"admin"}, "password": {testPassword}})
	require.Equal(c.t, http.StatusSeeOther, status)
	require.Equal(c.t, "/", loc)
}

func seedIndicators(t *testing.T, s *Stores) {
	t.Helper()
	rows := []indicator.Indicator{
		{ID: "i1", School: indicator.NewSchoolRef("Escola A"), Modality: "EF", Score2022: indicator.Float(5.1), Score2023: indicator.Float(5.6), ProficiencyLP2023: indicator.Float(240), ProficiencyMT2023: indicator.Float(250)},
		{ID: "i2", School: indicator.NewSchoolRef("Escola B"), Modality: "EM", ProficiencyLP2023: indicator.Float(260), ProficiencyMT2023: indicator.Float(270)},
		{ID: "i3", School: indicator.NewSchoolRef("Escola A Anexo"), ProficiencyMT2023: indicator.Float(200)},
	}
	n, err := s.IndicatorStore.ReplaceAll(context.Background(), rows, nil)
	require.NoError(t, err)
	require.Equal(t, len(rows), n)
}

// TestRoutes_RequireLogin verifies every page except login and registration redirects anonymous users.
func TestRoutes_RequireLogin(t *testing.T) {
	srv, _ := newTestApp(t)
	c := newClient(t, srv)

	for _, path := range []string{"/", "/dashboard-analise", "/dashboard-analise?escola=Escola%20A", "/visitas", "/agenda", "/relatorios", "/escola/Escola%20A", "/admin/escolas", "/admin/perf"} {
		status, loc, _ := c.get(path)
		assert.Equal(t, http.StatusSeeOther, status, path)
		assert.Equal(t, "/login", loc, path)
	}
	status, _, _ := c.post("/visitas", url.Values{"escola": {"Escola A"}})
	assert.Equal(t, http.StatusSeeOther, status)

	for _, path := range []string{"/login", "/registro"} {
		status, _, body := c.get(path)
		assert.Equal(t, http.StatusOK, status, path)
		assert.Contains(t, body, `name="username"`, path)
	}
}

// TestRegister_SessionPersists registers, then reuses the session cookie on later requests until logout.
func TestRegister_SessionPersists(t *testing.T) {
	srv, s := newTestApp(t)
	c := newClient(t, srv)

	status, loc, _ := c.register("ana", "Ana@GRE.pe.gov.br")
	require.Equal(t, http.StatusSeeOther, status)
	assert.Equal(t, "/", loc)

	status, _, body := c.get("/")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Painel principal")
	assert.Contains(t, body, "Conta criada. Bem-vindo(a), ana!")

	status, _, body = c.get("/")
	require.Equal(t, http.StatusOK, status)
	assert.NotContains(t, body, "Conta criada", "flash is shown once")

	status, _, _ = c.get("/visitas")
	assert.Equal(t, http.StatusOK, status)

	acct, err := s.AccountStore.GetByEmail(context.Background(), "ana@gre.pe.gov.br")
	require.NoError(t, err)
	assert.Equal(t, "ana", acct.Username)

	status, loc, _ = c.post("/logout", nil)
	assert.Equal(t, http.StatusSeeOther, status)
	assert.Equal(t, "/login", loc)
	status, loc, _ = c.get("/")
	assert.Equal(t, http.StatusSeeOther, status)
	assert.Equal(t, "/login", loc)
}

// TestRegister_Rejections verifies rejected registrations render inline errors and save nothing.
func TestRegister_Rejections(t *testing.T) {
	srv, s := newTestApp(t)
	first := newClient(t, srv)
	status, _, _ := first.register("ana", "ana@gre.pe.gov.br")
	require.Equal(t, http.StatusSeeOther, status)

	tests := []struct {
		name string
		form url.Values
		want string
	}{
		{
			name: "duplicate email",
			form: url.Values{"username": {"bruno"}, "email": {"ANA@gre.pe.gov.br"}, "password1": {testPassword}, "password2": {testPassword}},
			want: "Já existe uma conta com este e-mail.",
		},
		{
			name: "short password",
			form: url.Values{"username": {"bruno"}, "email": {"bruno@gre.pe.gov.br"}, "password1": {"curta1"}, "password2": {"curta1"}},
			want: "A senha deve ter pelo menos 8 caracteres.",
		},
		{
			name: "password mismatch",
			form: url.Values{"username": {"bruno"}, "email": {"bruno@gre.pe.gov.br"}, "password1": {testPassword}, "password2": {testPassword + "x"}},
			want: "Os dois campos de senha não conferem.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, srv)
			status, _, body := c.post("/registro", tt.form)
			assert.Equal(t, http.StatusUnprocessableEntity, status)
			assert.Contains(t, body, tt.want)
			assert.Contains(t, body, `value="bruno"`, "username is kept on the form")

			status, loc, _ := c.get("/")
			assert.Equal(t, http.StatusSeeOther, status, "no session after a rejected registration")
			assert.Equal(t, "/login", loc)
		})
	}

	n, err := s.AccountStore.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

// TestLogin verifies the generic failure message and the redirect on success.
func TestLogin(t *testing.T) {
	srv, s := newTestApp(t)
	c := newClient(t, srv)

	status, _, body := c.post("/login", url.Values{"username": {"admin"}, "password": {"errada-123"}})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, body, "Usuário ou senha incorretos.")

	c.loginAsAdmin(s)
	status, loc, _ := c.get("/login")
	assert.Equal(t, http.StatusSeeOther, status, "logged-in users skip the login form")
	assert.Equal(t, "/", loc)
}

// TestSchoolProfile_MissRedirectsWithFlash verifies an unknown school returns to the analysis page with an error.
func TestSchoolProfile_MissRedirectsWithFlash(t *testing.T) {
	srv, s := newTestApp(t)
	c := newClient(t, srv)
	c.loginAsAdmin(s)
	seedIndicators(t, s)

	status, loc, _ := c.get("/escola/Escola%20Inexistente")
	require.Equal(t, http.StatusSeeOther, status)
	assert.Equal(t, "/dashboard-analise", loc)

	status, _, body := c.get(loc)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "não encontrada nos indicadores importados")
	assert.Contains(t, body, "Escola Inexistente")
}

// TestSchoolProfile_Found renders indicators and the visits sharing the school key.
func TestSchoolProfile_Found(t *testing.T) {
	srv, s := newTestApp(t)
	c := newClient(t, srv)
	c.loginAsAdmin(s)
	seedIndicators(t, s)

	status, _, _ := c.post("/visitas", url.Values{
		"escola": {"  escola   a "}, "data_visita": {"2025-03-10"}, "tecnico": {"Rita"},
		"servidor": {"Diretor"}, "demanda": {"Revisar **plano** de aula"},
	})
	require.Equal(t, http.StatusSeeOther, status)

	status, _, body := c.get("/escola/Escola%20A")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "<h1>Escola A</h1>")
	assert.Contains(t, body, "250,00")
	assert.Contains(t, body, "<strong>plano</strong>", "demand is rendered as markdown")
	assert.Contains(t, body, "Pendente")
}

// TestAnalysis_JSON covers the empty, all-schools and exact-name filter states.
func TestAnalysis_JSON(t *testing.T) {
	srv, s := newTestApp(t)
	c := newClient(t, srv)
	c.loginAsAdmin(s)

	status, body := c.getJSON("/dashboard-analise")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, body, `"error"`)

	seedIndicators(t, s)

	var result struct {
		Filter           string `json:"filter"`
		PerformanceChart struct {
			Labels   []string `json:"labels"`
			Datasets []struct {
				Label       string     `json:"label"`
				Data        []*float64 `json:"data"`
				BorderWidth int        `json:"borderWidth"`
			} `json:"datasets"`
		} `json:"performance_chart"`
		ScoreTable string `json:"score_table"`
	}

	status, body = c.getJSON("/dashboard-analise")
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal([]byte(body), &result))
	assert.Equal(t, []string{"Escola B", "Escola A", "Escola A Anexo"}, result.PerformanceChart.Labels)
	assert.Len(t, result.PerformanceChart.Datasets, 2)

	status, body = c.getJSON("/dashboard-analise?escola=%20Escola%20A%20")
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal([]byte(body), &result))
	assert.Equal(t, "Escola A", result.Filter)
	assert.Equal(t, []string{"SAEPE 2022", "SAEPE 2023", "Prof. LP", "Prof. MT"}, result.PerformanceChart.Labels)
	assert.NotContains(t, result.ScoreTable, "Anexo", "filter matches the exact name only")

	status, _ = c.getJSON("/dashboard-analise?escola=Escola")
	assert.Equal(t, http.StatusNotFound, status)
}

// TestAnalysis_HTML renders the filter choices, chart data and linked tables.
func TestAnalysis_HTML(t *testing.T) {
	srv, s := newTestApp(t)
	c := newClient(t, srv)
	c.loginAsAdmin(s)

	status, _, body := c.get("/dashboard-analise")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Nenhum indicador importado ainda.")

	seedIndicators(t, s)
	status, _, body = c.get("/dashboard-analise")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `<option value="Escola B"`)
	assert.Contains(t, body, `href="/escola/Escola%20A"`)
	assert.Contains(t, body, `id="performance-data"`)
	assert.Contains(t, body, `table table-striped`)
}

// TestTechnicalVisits_CreateAndList verifies the create flash and the pending filter.
func TestTechnicalVisits_CreateAndList(t *testing.T) {
	srv, s := newTestApp(t)
	c := newClient(t, srv)
	c.loginAsAdmin(s)

	status, loc, _ := c.post("/visitas", url.Values{
		"escola": {"Escola A"}, "data_visita": {"2025-03-10"}, "tecnico": {"Rita"},
		"servidor": {"Diretor"}, "demanda": {"Formação"}, "encaminhamento": {"Agendada nova reunião"},
	})
	require.Equal(t, http.StatusSeeOther, status)
	assert.Equal(t, "/visitas", loc)

	status, _, body := c.get("/visitas")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Visita técnica à Escola A registrada.")
	assert.Contains(t, body, "Agendada nova reunião")

	status, _, _ = c.post("/visitas", url.Values{"escola": {"Escola B"}, "tecnico": {"Rita"}, "servidor": {"Vice"}, "demanda": {"Merenda"}})
	require.Equal(t, http.StatusSeeOther, status)

	status, _, body = c.get("/visitas?pendentes=1")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Escola B")
	assert.NotContains(t, body, "Agendada nova reunião")

	status, _, _ = c.post("/visitas", url.Values{"escola": {"Escola C"}})
	require.Equal(t, http.StatusSeeOther, status)
	_, _, body = c.get("/visitas")
	assert.Contains(t, body, "Informe o técnico ou analista.")

	summary, err := s.TechVisitStore.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Pending)

	status, _, body = c.get("/")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `<span class="metric-value" id="metric-visits">2</span>`)
	assert.Contains(t, body, `<span class="metric-value" id="metric-pending">1</span>`)
}

// TestAgenda_ScheduledVisitClearsReceivedBy verifies the stored visit drops received_by when scheduled.
func TestAgenda_ScheduledVisitClearsReceivedBy(t *testing.T) {
	srv, s := newTestApp(t)
	c := newClient(t, srv)
	c.loginAsAdmin(s)
	ctx := context.Background()
	require.NoError(t, s.SchoolStore.Save(ctx, school.School{ID: "s1", Name: "Escola A", City: "Recife"}))

	status, loc, _ := c.post("/agenda", url.Values{
		"escola": {"s1"}, "status": {visitDomain.StatusScheduled}, "recebido_por": {"Maria"},
		"data_visita": {"2025-04-02"}, "objetivo": {"Acompanhamento"},
	})
	require.Equal(t, http.StatusSeeOther, status)
	assert.Equal(t, "/agenda", loc)

	visits, err := s.VisitStore.List(ctx, visitStore.ListFilter{})
	require.NoError(t, err)
	require.Len(t, visits, 1)
	assert.Empty(t, visits[0].ReceivedBy)
	assert.Equal(t, visitDomain.StatusScheduled, visits[0].Status)

	status, _, body := c.get("/agenda")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Acompanhamento")
	assert.Contains(t, body, "Agendada")
}

// TestReports_Create posts a report with occurrence tags and lists it.
func TestReports_Create(t *testing.T) {
	srv, s := newTestApp(t)
	c := newClient(t, srv)
	c.loginAsAdmin(s)
	ctx := context.Background()
	require.NoError(t, s.SchoolStore.Save(ctx, school.School{ID: "s1", Name: "Escola A", City: "Recife"}))
	_, err := orchestrators.ExecuteSeedOccurrences(ctx, orchestrators.SeedOccurrencesDeps{OccurrenceStore: s.OccurrenceStore, GenerateID: generateID})
	require.NoError(t, err)
	occurrences, err := s.OccurrenceStore.List(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, occurrences)

	status, loc, _ := c.post("/relatorios", url.Values{
		"escola": {"s1"}, "ocorrencias": {occurrences[0].ID, occurrences[0].ID}, "detalhes": {"Sem internet"},
	})
	require.Equal(t, http.StatusSeeOther, status)
	assert.Equal(t, "/", loc)

	status, _, body := c.get("/relatorios")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Relatório para Escola A")
	assert.Contains(t, body, occurrences[0].Description)

	status, _, _ = c.post("/relatorios", url.Values{"escola": {"nao-existe"}})
	assert.Equal(t, http.StatusSeeOther, status)
	_, _, body = c.get("/relatorios")
	assert.Contains(t, body, "A escola selecionada não existe.")
}

// TestAdmin_Pages verifies admin-only access and school creation.
func TestAdmin_Pages(t *testing.T) {
	srv, s := newTestApp(t)

	admin := newClient(t, srv)
	admin.loginAsAdmin(s)

	staff := newClient(t, srv)
	status, _, _ := staff.register("ana", "ana@gre.pe.gov.br")
	require.Equal(t, http.StatusSeeOther, status)
	status, _, _ = staff.get("/admin/escolas")
	assert.Equal(t, http.StatusForbidden, status)
	status, _, _ = staff.get("/admin/perf")
	assert.Equal(t, http.StatusForbidden, status)

	status, loc, _ := admin.post("/admin/escolas", url.Values{"nome": {"Escola Nova"}, "cidade": {"Olinda"}})
	require.Equal(t, http.StatusSeeOther, status)
	assert.Equal(t, "/admin/escolas", loc)

	status, _, body := admin.get("/admin/escolas")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Escola Escola Nova cadastrada.")
	assert.Contains(t, body, "Olinda")

	status, _, body = admin.get("/admin/perf?janela=15m")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Rotas mais lentas")
}

// TestStatic serves embedded assets without a session.
func TestStatic(t *testing.T) {
	srv, _ := newTestApp(t)
	c := newClient(t, srv)
	status, _, body := c.get("/static/charts.js")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "new Chart")
}

// TestLoadCSRFKey covers configured, missing and malformed keys.
func TestLoadCSRFKey(t *testing.T) {
	key, err := loadCSRFKey(strings.Repeat("ab", 32), true)
	require.NoError(t, err)
	assert.Len(t, key, 32)

	_, err = loadCSRFKey("", true)
	assert.Error(t, err)
	_, err = loadCSRFKey("zz", false)
	assert.Error(t, err)

	key, err = loadCSRFKey("", false)
	require.NoError(t, err)
	assert.Len(t, key, 32)
}
