// Package middleware holds the HTTP layers wrapped around the router:
// sessions, role checks, CSRF, security headers, rate limiting and timing.
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/csrf"
)

// contentSecurityPolicy allows Chart.js from jsDelivr; everything else is same-origin.
const contentSecurityPolicy = "default-src 'self'; style-src 'self' 'unsafe-inline'; " +
	"script-src 'self' https://cdn.jsdelivr.net; img-src 'self' data:; connect-src 'self'; " +
	"frame-ancestors 'none'; form-action 'self'"

// SecurityHeaders sets the browser hardening headers. HSTS is only sent in production.
func SecurityHeaders(production bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Content-Security-Policy", contentSecurityPolicy)
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Referrer-Policy", "same-origin")
			h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			if production {
				h.Set("Strict-Transport-Security", "max-age=31536000")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CSRF guards every unsafe method with gorilla/csrf. Outside production the
// request is flagged as plain HTTP so the origin check accepts http:// referers.
// PRE: authKey is 32 bytes
func CSRF(authKey []byte, production bool, trustedOrigins []string) func(http.Handler) http.Handler {
	protect := csrf.Protect(authKey,
		csrf.Secure(production),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.TrustedOrigins(trustedOrigins),
		csrf.ErrorHandler(http.HandlerFunc(csrfRejected)),
	)
	return func(next http.Handler) http.Handler {
		protected := protect(next)
		if production {
			return protected
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			protected.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
		})
	}
}

func csrfRejected(w http.ResponseWriter, r *http.Request) {
	slog.Warn("http_event", "event", "csrf_rejected", "method", r.Method, "path", r.URL.Path, "reason", csrf.FailureReason(r))
	http.Error(w, "Sessão do formulário expirou. Recarregue a página e tente novamente.", http.StatusForbidden)
}

// Chain wraps h with middlewares; the last one listed ends up outermost.
func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for _, m := range middlewares {
		h = m(h)
	}
	return h
}
