package auth

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiterIdle is how long an unused per-key limiter survives before the
// sweep removes it.
const limiterIdle = 15 * time.Minute

type keyLimiter struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// LoginLimiter throttles authentication attempts per remote key. Each key
// gets its own token bucket; idle buckets are swept opportunistically on
// Allow so no background goroutine is needed.
type LoginLimiter struct {
	limit rate.Limit
	burst int

	mu        sync.Mutex
	keys      map[string]*keyLimiter
	lastSweep time.Time
}

// NewLoginLimiter allows roughly limit attempts per second with the given
// burst per key.
func NewLoginLimiter(limit rate.Limit, burst int) *LoginLimiter {
	return &LoginLimiter{
		limit:     limit,
		burst:     burst,
		keys:      make(map[string]*keyLimiter),
		lastSweep: time.Now(),
	}
}

// Allow reports whether an attempt for the key may proceed now.
func (l *LoginLimiter) Allow(key string) bool {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > limiterIdle {
		for k, kl := range l.keys {
			if now.Sub(kl.lastSeen) > limiterIdle {
				delete(l.keys, k)
			}
		}
		l.lastSweep = now
	}

	kl, ok := l.keys[key]
	if !ok {
		kl = &keyLimiter{lim: rate.NewLimiter(l.limit, l.burst)}
		l.keys[key] = kl
	}
	kl.lastSeen = now
	return kl.lim.Allow()
}
