package guard

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/scorecast/platform/internal/domain"
)

// RateLimiter implements a sliding window rate limiter.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	limit   int
	window  time.Duration
	now     Clock

	lastSweep time.Time
}

// NewRateLimiter creates a rate limiter with the given limit per window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		windows: make(map[string][]time.Time),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

// WithClock replaces the time source.
func (rl *RateLimiter) WithClock(c Clock) *RateLimiter {
	rl.now = c
	return rl
}

// Check returns a Result indicating whether the key is within rate limits.
func (rl *RateLimiter) Check(_ context.Context, key string) Result {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cutoff := now.Add(-rl.window)

	entries := rl.windows[key]
	valid := entries[:0]
	for _, t := range entries {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}

	if len(valid) >= rl.limit {
		rl.windows[key] = valid
		rl.sweep(cutoff)
		return Result{
			Allowed: false,
			Reason:  fmt.Sprintf("rate limit exceeded: %d/%s", rl.limit, rl.window),
			Guard:   "rate_limiter",
		}
	}

	rl.windows[key] = append(valid, now)
	rl.sweep(cutoff)
	return Result{Allowed: true}
}

// Len reports how many keys currently hold entries.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.windows)
}

// sweep drops keys whose newest entry has aged out, at most once per
// window. Caller holds mu.
func (rl *RateLimiter) sweep(cutoff time.Time) {
	if cutoff.Before(rl.lastSweep) {
		return
	}
	rl.lastSweep = cutoff.Add(rl.window)
	for k, entries := range rl.windows {
		if len(entries) == 0 || !entries[len(entries)-1].After(cutoff) {
			delete(rl.windows, k)
		}
	}
}

// Middleware limits requests per client address and answers 429 when the
// window is full. The key is the socket peer; forwarded headers are only
// honoured when a trusted proxy rewrites RemoteAddr upstream.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res := rl.Check(r.Context(), clientKey(r))
		if !res.Allowed {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(rl.window.Seconds())))
			appErr := domain.ErrRateLimited(res.Reason)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(appErr.Status)
			_ = json.NewEncoder(w).Encode(map[string]string{"code": appErr.Code, "message": appErr.Message})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
