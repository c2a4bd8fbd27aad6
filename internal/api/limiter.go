package api

import (
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"clinicbook/internal/config"
	"clinicbook/internal/service"

	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL       = 10 * time.Minute
	limiterSweepInterval = time.Minute
)

// rateLimiter keeps one token bucket per client address. Buckets idle for
// longer than limiterIdleTTL are dropped on the next sweep.
type rateLimiter struct {
	limiters  sync.Map
	cfg       config.RateLimitConfig
	now       func() time.Time
	lastSweep atomic.Int64
}

type clientLimiter struct {
	lim      *rate.Limiter
	lastSeen atomic.Int64
}

func newRateLimiter(cfg config.RateLimitConfig) *rateLimiter {
	l := &rateLimiter{
		cfg: cfg,
		now: time.Now,
	}
	l.lastSweep.Store(l.now().UnixNano())
	return l
}

func (l *rateLimiter) enabled() bool {
	return l != nil && l.cfg.RPS > 0
}

func (l *rateLimiter) getLimiter(key string) *rate.Limiter {
	now := l.now()
	l.maybeSweep(now)

	if v, ok := l.limiters.Load(key); ok {
		if cl, ok := v.(*clientLimiter); ok {
			cl.lastSeen.Store(now.UnixNano())
			return cl.lim
		}
	}

	burst := l.cfg.Burst
	if burst <= 0 {
		burst = 5
	}

	cl := &clientLimiter{lim: rate.NewLimiter(rate.Limit(l.cfg.RPS), burst)}
	cl.lastSeen.Store(now.UnixNano())
	actual, loaded := l.limiters.LoadOrStore(key, cl)
	if loaded {
		if existing, ok := actual.(*clientLimiter); ok {
			existing.lastSeen.Store(now.UnixNano())
			return existing.lim
		}
	}
	return cl.lim
}

// maybeSweep runs at most one sweep per limiterSweepInterval across all
// callers.
func (l *rateLimiter) maybeSweep(now time.Time) {
	last := l.lastSweep.Load()
	if now.UnixNano()-last < int64(limiterSweepInterval) {
		return
	}
	if !l.lastSweep.CompareAndSwap(last, now.UnixNano()) {
		return
	}
	l.sweep(now, limiterIdleTTL)
}

// sweep drops buckets not used since now-idle.
func (l *rateLimiter) sweep(now time.Time, idle time.Duration) int {
	cutoff := now.Add(-idle).UnixNano()
	removed := 0
	l.limiters.Range(func(key, v any) bool {
		cl, ok := v.(*clientLimiter)
		if !ok || cl.lastSeen.Load() < cutoff {
			l.limiters.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

// Middleware rejects requests over the per-client budget with 429.
func (l *rateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.enabled() {
			next.ServeHTTP(w, r)
			return
		}
		if !l.getLimiter(clientKey(r)).Allow() {
			writeJSON(w, http.StatusTooManyRequests, errorResponse{
				Kind:    kindRateLimited,
				Message: "rate limit exceeded",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return clientKeyUnknown
}

const (
	clientKeyUnknown = "unknown"

	kindRateLimited service.Kind = "RateLimited"
)
