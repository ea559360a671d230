package api

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	"github.com/shuttlebook/shuttlebook-data/internal/api/respond"
)

// --------------------------------------------------------------------------
// Request timing middleware
// --------------------------------------------------------------------------

// TimingMiddleware adds X-Process-Time header to all responses.
func TimingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		elapsed := time.Since(start)
		w.Header().Set("X-Process-Time", fmt.Sprintf("%.2fms", float64(elapsed.Microseconds())/1000.0))
	})
}

// --------------------------------------------------------------------------
// Rate limiting middleware (organizer-scoped token bucket)
// --------------------------------------------------------------------------

// limiterKey picks the bucket for a request. Migration runs are heavyweight
// and scoped to one organizer, so the organizer id from the route is the
// key; one organizer hammering the endpoint must not starve the others.
// Requests carrying no organizer fall back to the client IP.
func limiterKey(r *http.Request) string {
	if org := chi.URLParam(r, "organizerID"); org != "" {
		return "org:" + org
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil || ip == "" {
		ip = r.RemoteAddr
	}
	return "ip:" + ip
}

type keyedLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	rate    rate.Limit
	burst   int
}

func newKeyedLimiter(requestsPerWindow int, window time.Duration) *keyedLimiter {
	burst := requestsPerWindow / 2
	if burst < 1 {
		burst = 1
	}
	return &keyedLimiter{
		buckets: make(map[string]*rate.Limiter),
		rate:    rate.Limit(float64(requestsPerWindow) / window.Seconds()),
		burst:   burst,
	}
}

func (l *keyedLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if limiter, exists := l.buckets[key]; exists {
		return limiter
	}
	limiter := rate.NewLimiter(l.rate, l.burst)
	l.buckets[key] = limiter
	return limiter
}

// RateLimitMiddleware returns middleware that rate-limits per organizer,
// falling back to the client IP outside organizer-scoped routes. Migration
// runs are heavyweight, so the default budget is deliberately low.
func RateLimitMiddleware(requestsPerWindow int, window time.Duration) func(http.Handler) http.Handler {
	limiter := newKeyedLimiter(requestsPerWindow, window)
	retryAfter := strconv.Itoa(int(window.Seconds()))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.get(limiterKey(r)).Allow() {
				w.Header().Set("Retry-After", retryAfter)
				respond.WriteError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests for this organizer")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
