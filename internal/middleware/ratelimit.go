package middleware

import (
	"context"
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RealIP returns the client address, trusting X-Forwarded-For and then
// X-Real-IP as set by a reverse proxy in front of list42d.
func RealIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// window counts hits for one key until resetAt.
type window struct {
	hits    int
	resetAt time.Time
}

// RateLimiter counts requests per key in fixed windows.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{windows: make(map[string]*window)}
}

// Allow counts a hit for key. Once more than limit hits land in one window
// it returns false and the time left until the window resets.
func (rl *RateLimiter) Allow(key string, limit int, period time.Duration) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	w, ok := rl.windows[key]
	if !ok || !now.Before(w.resetAt) {
		rl.windows[key] = &window{hits: 1, resetAt: now.Add(period)}
		return true, 0
	}
	w.hits++
	if w.hits > limit {
		return false, w.resetAt.Sub(now)
	}
	return true, 0
}

// Cleanup forgets windows that have ended.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for key, w := range rl.windows {
		if !now.Before(w.resetAt) {
			delete(rl.windows, key)
		}
	}
}

// RunCleanup calls Cleanup every interval until ctx ends.
func (rl *RateLimiter) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.Cleanup()
		case <-ctx.Done():
			return
		}
	}
}

// RateLimit rejects requests over limit per period with 429 and a
// Retry-After header. onLimit, when set, sees every rejected request.
func RateLimit(limiter *RateLimiter, keyFunc func(*http.Request) string, limit int, period time.Duration, onLimit func(*http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, wait := limiter.Allow(keyFunc(r), limit, period)
			if ok {
				next.ServeHTTP(w, r)
				return
			}
			if onLimit != nil {
				onLimit(r)
			}
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]string{"error": "too many requests"})
		})
	}
}

// ByIP keys requests by scope and client address.
func ByIP(scope string) func(*http.Request) string {
	return func(r *http.Request) string {
		return scope + ":" + RealIP(r)
	}
}
