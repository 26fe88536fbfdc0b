package auth

import (
	"sync"

	"golang.org/x/time/rate"
)

// maxLimiterKeys bounds the per-client map; it is cleared when full.
const maxLimiterKeys = 10000

// Limiter applies a token bucket per client key.
type Limiter struct {
	mu    sync.Mutex
	m     map[string]*rate.Limiter
	rps   rate.Limit
	burst int
}

// NewLimiter allows rps attempts per second per key with the given burst.
// Non-positive values fall back to 5 per second and a burst of 10.
func NewLimiter(rps float64, burst int) *Limiter {
	if rps <= 0 {
		rps = 5
	}
	if burst <= 0 {
		burst = 10
	}
	return &Limiter{rps: rate.Limit(rps), burst: burst}
}

func (l *Limiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok := l.m[key]; ok {
		return lim
	}
	if l.m == nil || len(l.m) >= maxLimiterKeys {
		l.m = make(map[string]*rate.Limiter)
	}
	lim := rate.NewLimiter(l.rps, l.burst)
	l.m[key] = lim
	return lim
}

// Allow reports whether key may make another attempt now.
func (l *Limiter) Allow(key string) bool {
	return l.get(key).Allow()
}
