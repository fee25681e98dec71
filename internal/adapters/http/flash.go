package web

import (
	"crypto/rand"
	"crypto/sha256"
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"
)

const flashCookieName = "saepe_flash"

// Flash kinds, also used as CSS modifiers.
const (
	flashSuccess = "success"
	flashError   = "error"
)

var flashKinds = []string{flashError, flashSuccess}

type flashMessage struct {
	Kind string
	Text string
}

var flashStore *sessions.CookieStore

// newFlashStore builds the signed cookie store for one-shot messages.
// An empty seed yields a random key, so pending flashes do not survive a restart.
func newFlashStore(seed string, secure bool) *sessions.CookieStore {
	var key []byte
	if seed == "" {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			panic(err)
		}
	} else {
		sum := sha256.Sum256([]byte(seed))
		key = sum[:]
	}
	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// setFlash queues a message for the next rendered page.
// PRE: called before the response header is written
func setFlash(w http.ResponseWriter, r *http.Request, kind, text string) {
	session, err := flashStore.Get(r, flashCookieName)
	if err != nil {
		// Undecodable cookie (rotated key); Get still returns a fresh session.
		slog.Debug("flash_cookie_reset", "error", err)
	}
	session.AddFlash(text, kind)
	if err := session.Save(r, w); err != nil {
		slog.Error("flash_save_failed", "error", err)
	}
}

// popFlashes returns and clears pending messages, errors first.
func popFlashes(w http.ResponseWriter, r *http.Request) []flashMessage {
	if _, err := r.Cookie(flashCookieName); err != nil {
		return nil
	}
	session, err := flashStore.Get(r, flashCookieName)
	if err != nil {
		return nil
	}
	var out []flashMessage
	for _, kind := range flashKinds {
		for _, v := range session.Flashes(kind) {
			if text, ok := v.(string); ok {
				out = append(out, flashMessage{Kind: kind, Text: text})
			}
		}
	}
	if len(out) > 0 {
		if err := session.Save(r, w); err != nil {
			slog.Error("flash_save_failed", "error", err)
		}
	}
	return out
}
