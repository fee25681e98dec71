package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"saepe/internal/domain/account"
)

func withSession(r *http.Request, s Session) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), sessionKey{}, s))
}

// TestSessionStore_Lifecycle covers create, get and delete.
func TestSessionStore_Lifecycle(t *testing.T) {
	ss := NewSessionStore()
	token, err := ss.Create("acc-1", "ana", account.RoleStaff)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(token) != 43 {
		t.Errorf("token length = %d, want 43", len(token))
	}

	sess, ok := ss.Get(token)
	if !ok || sess.AccountID != "acc-1" || sess.Username != "ana" {
		t.Fatalf("Get = %+v, %v", sess, ok)
	}
	if sess.IsAdmin() {
		t.Error("staff session reported as admin")
	}

	ss.Delete(token)
	if _, ok := ss.Get(token); ok {
		t.Error("expected deleted session to be gone")
	}
	ss.Delete("unknown")
}

// TestSessionStore_IdleTimeout verifies activity keeps a session alive and silence ends it.
func TestSessionStore_IdleTimeout(t *testing.T) {
	ss := NewSessionStore()
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	ss.now = func() time.Time { return now }

	token, _ := ss.Create("acc-1", "ana", account.RoleStaff)
	for i := 0; i < 3; i++ {
		now = now.Add(IdleTimeout - time.Minute)
		if _, ok := ss.Get(token); !ok {
			t.Fatalf("session dropped after %d active periods", i+1)
		}
	}

	now = now.Add(IdleTimeout + time.Second)
	if _, ok := ss.Get(token); ok {
		t.Error("expected idle session to be rejected")
	}
	if ss.Len() != 0 {
		t.Errorf("Len = %d, want expired session dropped", ss.Len())
	}
}

// TestSessionStore_MaxLifetime verifies a busy session still ends after MaxLifetime.
func TestSessionStore_MaxLifetime(t *testing.T) {
	ss := NewSessionStore()
	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	now := start
	ss.now = func() time.Time { return now }

	token, _ := ss.Create("acc-1", "ana", account.RoleStaff)
	for now.Sub(start) <= MaxLifetime-time.Hour {
		now = now.Add(time.Hour)
		if _, ok := ss.Get(token); !ok {
			t.Fatalf("session dropped early at %v", now.Sub(start))
		}
	}
	now = start.Add(MaxLifetime + time.Minute)
	if _, ok := ss.Get(token); ok {
		t.Error("expected session past MaxLifetime to be rejected")
	}
}

// TestSessionStore_CreatePurgesExpired verifies stale sessions do not pile up.
func TestSessionStore_CreatePurgesExpired(t *testing.T) {
	ss := NewSessionStore()
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	ss.now = func() time.Time { return now }

	ss.Create("acc-1", "ana", account.RoleStaff)
	ss.Create("acc-2", "bruno", account.RoleStaff)
	now = now.Add(IdleTimeout + time.Minute)
	ss.Create("acc-3", "carla", account.RoleStaff)
	if ss.Len() != 1 {
		t.Errorf("Len = %d, want 1", ss.Len())
	}
}

// TestRequireAuth_Anonymous verifies browsers are redirected and JSON callers get 401.
func TestRequireAuth_Anonymous(t *testing.T) {
	ss := NewSessionStore()
	handler := Auth(ss)(RequireAuth(okHandler(http.StatusOK)))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/visitas", nil))
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want /login", loc)
	}

	req := httptest.NewRequest("GET", "/dashboard-analise", nil)
	req.Header.Set("Accept", "application/json")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("JSON status = %d, want 401", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	token, _ := ss.Create("acc-1", "ana", account.RoleStaff)
	req = httptest.NewRequest("GET", "/visitas", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("authenticated status = %d, want 200", rr.Code)
	}
}

// TestRequireRole_Forbidden verifies staff sessions cannot reach admin pages.
func TestRequireRole_Forbidden(t *testing.T) {
	handler := RequireRole(account.RoleAdmin)(okHandler(http.StatusOK))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, withSession(httptest.NewRequest("GET", "/admin/escolas", nil), Session{AccountID: "a", Role: account.RoleStaff}))
	if rr.Code != http.StatusForbidden {
		t.Errorf("staff status = %d, want 403", rr.Code)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, withSession(httptest.NewRequest("GET", "/admin/escolas", nil), Session{AccountID: "b", Role: account.RoleAdmin}))
	if rr.Code != http.StatusOK {
		t.Errorf("admin status = %d, want 200", rr.Code)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/admin/escolas", nil))
	if rr.Code != http.StatusSeeOther {
		t.Errorf("anonymous status = %d, want 303", rr.Code)
	}
}

// TestSessionCookie verifies set and clear carry the same attributes.
func TestSessionCookie(t *testing.T) {
	rr := httptest.NewRecorder()
	SetSessionCookie(rr, "tok")
	ClearSessionCookie(rr)
	cookies := rr.Result().Cookies()
	if len(cookies) != 2 {
		t.Fatalf("got %d cookies", len(cookies))
	}
	if c := cookies[0]; c.Value != "tok" || !c.HttpOnly || c.MaxAge != int(MaxLifetime.Seconds()) {
		t.Errorf("set cookie = %+v", c)
	}
	if c := cookies[1]; c.Value != "" || c.MaxAge >= 0 {
		t.Errorf("clear cookie = %+v", c)
	}
}
