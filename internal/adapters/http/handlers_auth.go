package web

import (
	"log/slog"
	"net/http"
	"strings"

	"saepe/internal/adapters/http/middleware"
	"saepe/internal/application/orchestrators"
)

type loginPage struct {
	Username string
	Error    string
}

type registerPage struct {
	Username string
	Email    string
	Error    string
}

// startSession issues the login cookie for an authenticated account.
func startSession(w http.ResponseWriter, accountID, username, role string) error {
	token, err := sessionStore.Create(accountID, username, role)
	if err != nil {
		return err
	}
	middleware.SetSessionCookie(w, token)
	return nil
}

func alreadyLoggedIn(r *http.Request) bool {
	_, ok := middleware.GetSessionFromContext(r.Context())
	return ok
}

// handleLoginPage handles GET /login
func handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if alreadyLoggedIn(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	renderTemplate(w, r, "login.html", loginPage{})
}

// handleLogin handles POST /login
func handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	username := strings.TrimSpace(r.FormValue("username"))

	result, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{
		Username: username,
		Password: r.FormValue("password"),
	}, orchestrators.LoginDeps{AccountStore: stores.AccountStore})
	if err != nil {
		msg, ok := userMessage(err)
		if !ok {
			internalError(w, err)
			return
		}
		renderPage(w, r, http.StatusUnauthorized, "login.html", loginPage{Username: username, Error: msg})
		return
	}

	if err := startSession(w, result.AccountID, result.Username, result.Role); err != nil {
		internalError(w, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleRegisterPage handles GET /registro
func handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	if alreadyLoggedIn(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	renderTemplate(w, r, "registro.html", registerPage{})
}

// handleRegister handles POST /registro. Entered values (except passwords) are
// kept on the form when registration is rejected.
func handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	page := registerPage{
		Username: strings.TrimSpace(r.FormValue("username")),
		Email:    strings.TrimSpace(r.FormValue("email")),
	}

	acct, err := orchestrators.ExecuteRegister(r.Context(), orchestrators.RegisterInput{
		Username:        page.Username,
		Email:           page.Email,
		Password:        r.FormValue("password1"),
		PasswordConfirm: r.FormValue("password2"),
	}, orchestrators.RegisterDeps{
		AccountStore: stores.AccountStore,
		Mailer:       mailer,
		GenerateID:   generateID,
		Now:          timeNow,
	})
	if err != nil {
		msg, ok := userMessage(err)
		if !ok {
			internalError(w, err)
			return
		}
		page.Error = msg
		renderPage(w, r, http.StatusUnprocessableEntity, "registro.html", page)
		return
	}

	if err := startSession(w, acct.ID, acct.Username, acct.Role); err != nil {
		internalError(w, err)
		return
	}
	setFlash(w, r, flashSuccess, "Conta criada. Bem-vindo(a), "+acct.Username+"!")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleLogout handles GET and POST /logout
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil {
		sessionStore.Delete(cookie.Value)
	}
	if sess, ok := middleware.GetSessionFromContext(r.Context()); ok {
		slog.Info("auth_event", "event", "logout", "account_id", sess.AccountID)
	}
	middleware.ClearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
