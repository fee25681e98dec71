package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"saepe/internal/adapters/http/perf"
)

// DefaultSlowRequestMs applies when Timing is given no threshold.
const DefaultSlowRequestMs = 200

var lastRequestID atomic.Uint64

// recorder remembers the status a handler wrote; handlers that never call
// WriteHeader answered 200.
type recorder struct {
	http.ResponseWriter
	status int
}

func (rec *recorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rec *recorder) Unwrap() http.ResponseWriter { return rec.ResponseWriter }

// routeLabel folds the per-school profile pages into one label.
func routeLabel(method, path string) string {
	if strings.HasPrefix(path, "/escola/") {
		path = "/escola/{nome}"
	}
	return method + " " + path
}

// Timing logs each request with its duration and records it in collector
// (which may be nil). Static assets are not timed.
// Requests slower than slowMs log at WARN, others at DEBUG; slowMs <= 0
// selects DefaultSlowRequestMs.
func Timing(collector *perf.Collector, slowMs int) func(http.Handler) http.Handler {
	if slowMs <= 0 {
		slowMs = DefaultSlowRequestMs
	}
	slow := time.Duration(slowMs) * time.Millisecond

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/static/") {
				next.ServeHTTP(w, r)
				return
			}

			id := lastRequestID.Add(1)
			rec := &recorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()

			// Deferred so a panicking handler is still timed.
			defer func() {
				elapsed := time.Since(start)
				event := "request"
				level := slog.LevelDebug
				if elapsed >= slow {
					event, level = "slow_request", slog.LevelWarn
				}
				slog.Log(r.Context(), level, "http_event",
					"event", event,
					"request_id", id,
					"method", r.Method,
					"path", r.URL.Path,
					"status", rec.status,
					"duration_ms", elapsed.Milliseconds(),
				)
				if collector != nil {
					collector.Record(perf.Entry{
						Kind:     perf.KindRequest,
						Label:    routeLabel(r.Method, r.URL.Path),
						Status:   rec.status,
						Failed:   rec.status >= http.StatusInternalServerError,
						Duration: elapsed,
						At:       start,
					})
				}
			}()

			next.ServeHTTP(rec, r)
		})
	}
}
