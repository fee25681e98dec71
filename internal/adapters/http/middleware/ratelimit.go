package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// clientIdleTTL is how long an address is remembered after its last request.
const clientIdleTTL = 10 * time.Minute

// RateLimiter keeps one token bucket per client address.
type RateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*client
	limit     rate.Limit
	burst     int
	now       func() time.Time
	lastSweep time.Time
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows n requests per interval per address, with bursts of n.
// PRE: n > 0, interval > 0
func NewRateLimiter(n int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*client),
		limit:   rate.Every(interval / time.Duration(n)),
		burst:   n,
		now:     time.Now,
	}
}

// Allow reports whether addr may make a request now and spends a token if so.
func (rl *RateLimiter) Allow(addr string) bool {
	rl.mu.Lock()
	now := rl.now()
	if now.Sub(rl.lastSweep) > clientIdleTTL {
		for a, c := range rl.clients {
			if now.Sub(c.lastSeen) > clientIdleTTL {
				delete(rl.clients, a)
			}
		}
		rl.lastSweep = now
	}
	c, ok := rl.clients[addr]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[addr] = c
	}
	c.lastSeen = now
	rl.mu.Unlock()

	return c.limiter.AllowN(now, 1)
}

// retryAfter is the wait, in whole seconds, before one token is back.
func (rl *RateLimiter) retryAfter() int {
	secs := int(time.Duration(float64(time.Second)/float64(rl.limit)).Seconds() + 0.5)
	return max(secs, 1)
}

// RateLimit rejects requests over the per-address budget with 429.
func RateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			addr := clientIP(r)
			if !limiter.Allow(addr) {
				slog.Warn("http_event", "event", "rate_limited", "ip", addr, "path", r.URL.Path)
				w.Header().Set("Retry-After", strconv.Itoa(limiter.retryAfter()))
				http.Error(w, "Muitas requisições. Tente novamente em instantes.", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
