package web

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"saepe/internal/adapters/email"
	"saepe/internal/adapters/http/middleware"
	"saepe/internal/adapters/http/perf"
	accountStore "saepe/internal/adapters/storage/account"
	indicatorStore "saepe/internal/adapters/storage/indicator"
	occurrenceStore "saepe/internal/adapters/storage/occurrence"
	reportStore "saepe/internal/adapters/storage/report"
	schoolStore "saepe/internal/adapters/storage/school"
	techvisitStore "saepe/internal/adapters/storage/techvisit"
	visitStore "saepe/internal/adapters/storage/visit"
	accountDomain "saepe/internal/domain/account"
)

// Stores holds all storage dependencies.
type Stores struct {
	AccountStore    accountStore.Store
	SchoolStore     schoolStore.Store
	OccurrenceStore occurrenceStore.Store
	ReportStore     reportStore.Store
	VisitStore      visitStore.Store
	IndicatorStore  indicatorStore.Store
	TechVisitStore  techvisitStore.Store
}

// Options carries the settings NewMux needs from the process configuration.
type Options struct {
	Production     bool
	CSRFKey        string // hex, 32 bytes; random per start-up outside production
	SessionKey     string // seeds the flash cookie key; random per start-up when empty
	TrustedOrigins []string
	SlowRequestMs  int
	Mailer         email.Sender // nil disables the welcome email
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global login session store
var sessionStore *middleware.SessionStore

// Global perf collector (set by NewMux)
var perfCollector *perf.Collector

// Global email sender; nil when registration mail is disabled
var mailer email.Sender

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 20

// loadCSRFKey decodes the configured CSRF secret.
// In production the key must be set. In development a random key is generated per start-up.
func loadCSRFKey(keyHex string, production bool) ([]byte, error) {
	if keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			return nil, errors.New("SAEPE_CSRF_KEY must be 64 hex characters (32 bytes)")
		}
		return key, nil
	}
	if production {
		return nil, errors.New("SAEPE_CSRF_KEY is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate CSRF key: %w", err)
	}
	slog.Warn("config_event", "event", "random_csrf_key", "detail", "forms break across restarts; set SAEPE_CSRF_KEY")
	return key, nil
}

// configure sets the package globals shared by every handler.
func configure(s *Stores, collector *perf.Collector, opts Options) {
	stores = s
	perfCollector = collector
	mailer = opts.Mailer
	sessionStore = middleware.NewSessionStore()
	middleware.SecureCookies = opts.Production
	flashStore = newFlashStore(opts.SessionKey, opts.Production)
}

// NewMux wires HTTP handlers for the app.
func NewMux(s *Stores, collector *perf.Collector, opts Options) (http.Handler, error) {
	csrfKey, err := loadCSRFKey(opts.CSRFKey, opts.Production)
	if err != nil {
		return nil, err
	}
	configure(s, collector, opts)

	limiter := middleware.NewRateLimiter(RateLimitPerSecond, time.Second)

	// Outermost last: Timing -> RateLimit -> Auth -> CSRF -> SecurityHeaders -> router
	return middleware.Chain(newRouter(),
		middleware.SecurityHeaders(opts.Production),
		middleware.CSRF(csrfKey, opts.Production, opts.TrustedOrigins),
		middleware.Auth(sessionStore),
		middleware.RateLimit(limiter),
		middleware.Timing(collector, opts.SlowRequestMs),
	), nil
}

// newRouter registers every route. Authentication is enforced per route;
// the session itself is resolved by the Auth middleware.
func newRouter() *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	mux.HandleFunc("GET /login", handleLoginPage)
	mux.HandleFunc("POST /login", handleLogin)
	mux.HandleFunc("GET /registro", handleRegisterPage)
	mux.HandleFunc("POST /registro", handleRegister)
	mux.HandleFunc("GET /logout", handleLogout)
	mux.HandleFunc("POST /logout", handleLogout)

	mux.Handle("GET /{$}", requireAuth(handleMainDashboard))
	mux.Handle("GET /dashboard-analise", requireAuth(handleAnalysisDashboard))
	mux.Handle("GET /escola/{nome}", requireAuth(handleSchoolProfile))
	mux.Handle("GET /visitas", requireAuth(handleTechnicalVisits))
	mux.Handle("POST /visitas", requireAuth(handleCreateTechnicalVisit))
	mux.Handle("GET /agenda", requireAuth(handleVisits))
	mux.Handle("POST /agenda", requireAuth(handleCreateVisit))
	mux.Handle("GET /relatorios", requireAuth(handleReports))
	mux.Handle("POST /relatorios", requireAuth(handleCreateReport))

	mux.Handle("GET /admin/escolas", requireAdmin(handleAdminSchools))
	mux.Handle("POST /admin/escolas", requireAdmin(handleAdminCreateSchool))
	mux.Handle("GET /admin/perf", requireAdmin(handleAdminPerf))

	return mux
}

func requireAuth(h http.HandlerFunc) http.Handler {
	return middleware.RequireAuth(h)
}

func requireAdmin(h http.HandlerFunc) http.Handler {
	return middleware.RequireRole(accountDomain.RoleAdmin)(h)
}
