package server

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

// rateLimiter is a fixed-window per-client counter. State is external to the
// analysis core; a full window yields 429 without invoking the analyzer.
type rateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	per     time.Duration
}

type window struct {
	count int
	reset time.Time
}

func newRateLimiter(limit int, per time.Duration) *rateLimiter {
	return &rateLimiter{
		windows: make(map[string]*window),
		limit:   limit,
		per:     per,
	}
}

func (rl *rateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientKey(r)) {
			slog.Warn("rate limit exceeded", "remote_addr", r.RemoteAddr)
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later", "rate_limited")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *rateLimiter) allow(key string) bool {
	now := time.Now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	win, ok := rl.windows[key]
	if !ok || now.After(win.reset) {
		rl.windows[key] = &window{count: 1, reset: now.Add(rl.per)}
		return true
	}
	if win.count >= rl.limit {
		return false
	}
	win.count++
	return true
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
