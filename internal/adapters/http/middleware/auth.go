package middleware

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"strings"
	"sync"
	"time"

	domainAccount "saepe/internal/domain/account"
)

type sessionKey struct{}

// Session lifetime. A login lasts one working day at most and ends earlier
// when the supervisor stops using it.
const (
	IdleTimeout = 2 * time.Hour
	MaxLifetime = 12 * time.Hour
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "saepe_session"

// SecureCookies marks the session cookie Secure. Set in production.
var SecureCookies bool

// Session is the logged-in supervisor attached to a request.
type Session struct {
	AccountID string
	Username  string
	Role      string
	IssuedAt  time.Time
	LastSeen  time.Time
}

// IsAdmin reports whether the session belongs to an administrator.
func (s Session) IsAdmin() bool {
	return s.Role == domainAccount.RoleAdmin
}

func (s Session) expired(now time.Time) bool {
	return now.Sub(s.IssuedAt) > MaxLifetime || now.Sub(s.LastSeen) > IdleTimeout
}

// SessionStore keeps sessions in memory; a restart logs everyone out.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	now      func() time.Time
}

// NewSessionStore returns an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]Session), now: time.Now}
}

// Create issues a token for the account. Expired sessions are purged on the way.
// POST: Get(token) succeeds until the session idles out or reaches MaxLifetime
func (ss *SessionStore) Create(accountID, username, role string) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}
	ss.mu.Lock()
	defer ss.mu.Unlock()
	now := ss.now()
	for t, s := range ss.sessions {
		if s.expired(now) {
			delete(ss.sessions, t)
		}
	}
	ss.sessions[token] = Session{AccountID: accountID, Username: username, Role: role, IssuedAt: now, LastSeen: now}
	return token, nil
}

// Get resolves token and refreshes its idle timer.
func (ss *SessionStore) Get(token string) (Session, bool) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	s, ok := ss.sessions[token]
	if !ok {
		return Session{}, false
	}
	now := ss.now()
	if s.expired(now) {
		delete(ss.sessions, token)
		return Session{}, false
	}
	s.LastSeen = now
	ss.sessions[token] = s
	return s, true
}

// Delete ends the session for token. Unknown tokens are ignored.
func (ss *SessionStore) Delete(token string) {
	ss.mu.Lock()
	delete(ss.sessions, token)
	ss.mu.Unlock()
}

// Len reports how many sessions are held, expired ones included.
func (ss *SessionStore) Len() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return len(ss.sessions)
}

// Auth resolves the session cookie into the request context. Anonymous
// requests pass through; RequireAuth and RequireRole turn them away.
func Auth(sessions *SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
				if s, ok := sessions.Get(c.Value); ok {
					r = r.WithContext(context.WithValue(r.Context(), sessionKey{}, s))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth sends anonymous browsers to /login. Callers asking only for
// JSON get a 401 instead of an HTML redirect.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetSessionFromContext(r.Context()); !ok {
			denyAnonymous(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole admits sessions holding one of roles; other sessions get 403.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, ok := GetSessionFromContext(r.Context())
			if !ok {
				denyAnonymous(w, r)
				return
			}
			for _, role := range roles {
				if s.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, "Acesso restrito a administradores", http.StatusForbidden)
		})
	}
}

func denyAnonymous(w http.ResponseWriter, r *http.Request) {
	accept := r.Header.Get("Accept")
	if strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html") {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"autenticação necessária"}`))
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// GetSessionFromContext returns the session Auth attached, if any.
func GetSessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}

// SetSessionCookie writes the session token cookie.
func SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, sessionCookie(token, int(MaxLifetime.Seconds())))
}

// ClearSessionCookie expires the session cookie in the browser.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, sessionCookie("", -1))
}

func sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

// newToken returns 32 random bytes, base64url encoded without padding.
func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
