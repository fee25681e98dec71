package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"saepe/internal/adapters/http/middleware"
	"saepe/internal/application/orchestrators"
	"saepe/internal/application/projections"
	accountDomain "saepe/internal/domain/account"
	reportDomain "saepe/internal/domain/report"
	schoolDomain "saepe/internal/domain/school"
	techvisitDomain "saepe/internal/domain/techvisit"
	visitDomain "saepe/internal/domain/visit"
)

//go:embed templates/*.html static
var assets embed.FS

var staticFS = mustSub(assets, "static")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

// timeNow is a variable for testability.
var timeNow = time.Now

// mdRenderer renders free-text notes. Raw HTML in the input is escaped (WithUnsafe is not set).
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func isHTMLRequest(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return accept == "" || strings.Contains(accept, "text/html") || strings.Contains(accept, "application/xhtml+xml")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("internal_error", "error", err.Error())
	}
}

func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02/01/2006")
}

func renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data any) {
	renderPage(w, r, http.StatusOK, templateName, data)
}

// renderPage executes layout.html with the named page. Pending flash
// messages are consumed here, before anything is written.
func renderPage(w http.ResponseWriter, r *http.Request, status int, templateName string, data any) {
	sess, loggedIn := middleware.GetSessionFromContext(r.Context())
	flashes := popFlashes(w, r)

	funcMap := template.FuncMap{
		"isLoggedIn":      func() bool { return loggedIn },
		"isAdmin":         func() bool { return loggedIn && sess.IsAdmin() },
		"currentUsername": func() string { return sess.Username },
		"csrfToken":       func() string { return csrf.Token(r) },
		"flashes":         func() []flashMessage { return flashes },
		"currentPath":     func() string { return r.URL.Path },
		"renderMarkdown":  renderMarkdown,
		"formatDate":      formatDate,
		"formatDecimal":   projections.FormatDecimal,
		"formatInt":       projections.FormatInt,
		"schoolPath":      projections.SchoolPath,
	}

	tpl, err := template.New("layout.html").Funcs(funcMap).ParseFS(assets, "templates/layout.html", "templates/"+templateName)
	if err != nil {
		internalError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// userMessages translates domain and orchestrator errors into the text shown on forms.
var userMessages = []struct {
	err error
	msg string
}{
	{orchestrators.ErrEmailAlreadyExists, "Já existe uma conta com este e-mail."},
	{orchestrators.ErrUsernameTaken, "Este nome de usuário já está em uso."},
	{orchestrators.ErrPasswordMismatch, "Os dois campos de senha não conferem."},
	{orchestrators.ErrInvalidCredentials, "Usuário ou senha incorretos."},
	{orchestrators.ErrAccountLocked, "Conta bloqueada por excesso de tentativas. Tente novamente em 15 minutos."},
	{orchestrators.ErrUnknownSchool, "A escola selecionada não existe."},
	{orchestrators.ErrUnknownOccurrence, "Uma das ocorrências selecionadas não existe."},
	{orchestrators.ErrInvalidVisitDate, "Informe uma data de visita válida."},
	{accountDomain.ErrPasswordTooShort, "A senha deve ter pelo menos 8 caracteres."},
	{accountDomain.ErrEmptyPassword, "Informe uma senha."},
	{accountDomain.ErrEmptyUsername, "Informe um nome de usuário."},
	{accountDomain.ErrInvalidUsername, "Use apenas letras, números e os caracteres @ . + - _ no nome de usuário."},
	{accountDomain.ErrUsernameTooLong, "O nome de usuário pode ter no máximo 150 caracteres."},
	{accountDomain.ErrEmptyEmail, "Informe um e-mail."},
	{accountDomain.ErrInvalidEmail, "Informe um e-mail válido."},
	{accountDomain.ErrEmailTooLong, "O e-mail pode ter no máximo 254 caracteres."},
	{schoolDomain.ErrEmptyName, "Informe o nome da escola."},
	{schoolDomain.ErrEmptyCity, "Informe a cidade."},
	{schoolDomain.ErrNameTooLong, "O nome da escola pode ter no máximo 200 caracteres."},
	{schoolDomain.ErrCityTooLong, "A cidade pode ter no máximo 100 caracteres."},
	{reportDomain.ErrEmptySchoolID, "Selecione uma escola."},
	{reportDomain.ErrDetailsTooLong, "Os detalhes podem ter no máximo 5000 caracteres."},
	{visitDomain.ErrEmptySchoolID, "Selecione uma escola."},
	{visitDomain.ErrEmptyDate, "Informe a data da visita."},
	{visitDomain.ErrEmptyReceivedBy, "Informe quem recebeu a visita."},
	{visitDomain.ErrInvalidStatus, "Situação inválida."},
	{visitDomain.ErrReceivedByTooLong, "O campo \"Recebido por\" pode ter no máximo 200 caracteres."},
	{visitDomain.ErrObjectiveTooLong, "O objetivo pode ter no máximo 200 caracteres."},
	{visitDomain.ErrNotesTooLong, "As observações podem ter no máximo 5000 caracteres."},
	{visitDomain.ErrInvalidVisitTime, "Informe o horário no formato HH:MM."},
	{techvisitDomain.ErrEmptySchool, "Informe a escola."},
	{techvisitDomain.ErrEmptyTechnician, "Informe o técnico ou analista."},
	{techvisitDomain.ErrEmptyStaffContact, "Informe o servidor da escola."},
	{techvisitDomain.ErrEmptyDemand, "Informe a demanda."},
	{techvisitDomain.ErrFieldTooLong, "Um dos campos excede o tamanho máximo."},
}

// userMessage returns the form message for err, or false when err is unexpected.
func userMessage(err error) (string, bool) {
	for _, m := range userMessages {
		if errors.Is(err, m.err) {
			return m.msg, true
		}
	}
	return "", false
}
