package internal

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// ipLimiter is a per-client token bucket guarding the inbound webhook
// routes.
type ipLimiter struct {
	mu    sync.Mutex
	store map[string]*bucket
	rps   float64
	burst float64
}

type bucket struct {
	tokens float64
	last   time.Time
}

// NewRateLimitHandler wraps next with a per-IP token bucket. A
// non-positive rps disables limiting.
func NewRateLimitHandler(next http.Handler, rps, burst int64) http.Handler {
	if rps <= 0 {
		return next
	}
	limiter := &ipLimiter{
		store: make(map[string]*bucket),
		rps:   float64(rps),
		burst: float64(burst),
	}
	if limiter.burst < 1 {
		limiter.burst = limiter.rps
		if limiter.burst < 1 {
			limiter.burst = 1
		}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.allow(clientIP(r)) {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *ipLimiter) allow(key string) bool {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.store[key]
	if !ok {
		l.store[key] = &bucket{tokens: l.burst - 1, last: now}
		return true
	}

	entry.tokens += now.Sub(entry.last).Seconds() * l.rps
	if entry.tokens > l.burst {
		entry.tokens = l.burst
	}
	entry.last = now

	if entry.tokens < 1 {
		return false
	}
	entry.tokens--
	return true
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	if ip := r.Header.Get("X-Real-Ip"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}
