package ratelimiter

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config describes one token bucket per key.
type Config struct {
	RPS     float64
	Burst   int
	IdleTTL time.Duration
}

// KeyedLimiter applies a token bucket per client key and evicts idle keys.
// A nil limiter allows everything.
type KeyedLimiter struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration

	mu        sync.Mutex
	byKey     map[string]*entry
	calls     uint64
	rejected  uint64
	lastSweep time.Time
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// New returns nil when the config disables limiting.
func New(cfg Config) *KeyedLimiter {
	if cfg.RPS <= 0 || cfg.Burst <= 0 {
		return nil
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}
	return &KeyedLimiter{
		limit:   rate.Limit(cfg.RPS),
		burst:   cfg.Burst,
		idleTTL: cfg.IdleTTL,
		byKey:   make(map[string]*entry),
	}
}

// Allow consumes cost tokens for key. Costs above the burst are clamped so an
// expensive call is slow rather than impossible.
func (l *KeyedLimiter) Allow(key string, cost int, now time.Time) bool {
	if l == nil {
		return true
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return true
	}
	if cost < 1 {
		cost = 1
	}
	if cost > l.burst {
		cost = l.burst
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.byKey[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.byKey[key] = e
	}
	e.lastSeen = now
	allowed := e.limiter.AllowN(now, cost)
	l.calls++
	if !allowed {
		l.rejected++
	}
	if now.Sub(l.lastSweep) >= l.idleTTL {
		l.sweepLocked(now)
	}
	return allowed
}

func (l *KeyedLimiter) sweepLocked(now time.Time) {
	cutoff := now.Add(-l.idleTTL)
	for k, v := range l.byKey {
		if v.lastSeen.Before(cutoff) {
			delete(l.byKey, k)
		}
	}
	l.lastSweep = now
}

// Stats reports tracked keys and the rejected share of calls.
func (l *KeyedLimiter) Stats() (keys int, calls, rejected uint64) {
	if l == nil {
		return 0, 0, 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byKey), l.calls, l.rejected
}
