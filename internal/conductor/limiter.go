package conductor

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter caps LLM calls: a global token bucket plus a per-platform cooldown,
// so one chatty adapter can't starve the others or melt the local GPU.
type Limiter struct {
	global   *rate.Limiter
	cooldown time.Duration

	mu   sync.Mutex
	last map[string]time.Time
}

// NewLimiter allows perMinute calls globally, and at most one call per
// platform within cooldown.
func NewLimiter(perMinute int, cooldown time.Duration) *Limiter {
	if perMinute <= 0 {
		perMinute = 6
	}
	burst := perMinute / 6
	if burst < 2 {
		burst = 2
	}
	return &Limiter{
		global:   rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), burst),
		cooldown: cooldown,
		last:     make(map[string]time.Time),
	}
}

// Allow reports whether a call may proceed now and, if so, reserves it.
func (l *Limiter) Allow(platform string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cooldown > 0 {
		if last, ok := l.last[platform]; ok && now.Sub(last) < l.cooldown {
			return false
		}
	}
	if !l.global.AllowN(now, 1) {
		return false
	}
	l.last[platform] = now
	return true
}
