// Package ratelimit provides a keyed token-bucket limiter.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Day is the window of the per-day quotas.
const Day = 24 * time.Hour

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedLimiter keeps one token bucket per key. When more than maxKeys keys
// are tracked, the least recently seen one is dropped.
type KeyedLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	maxKeys  int
}

// PerDay creates a limiter allowing quota requests per key per day, all of
// which may be spent at once.
func PerDay(quota, maxKeys int) *KeyedLimiter {
	return New(rate.Limit(float64(quota)/Day.Seconds()), quota, maxKeys)
}

// New creates a limiter refilling at limit tokens per second.
func New(limit rate.Limit, burst, maxKeys int) *KeyedLimiter {
	return &KeyedLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		burst:    burst,
		maxKeys:  maxKeys,
	}
}

// Allow reports whether a request for key may proceed now.
func (l *KeyedLimiter) Allow(key string) bool {
	return l.AllowAt(key, time.Now())
}

// AllowAt reports whether a request for key may proceed at now.
func (l *KeyedLimiter) AllowAt(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[key]
	if !ok {
		if l.maxKeys > 0 && len(l.visitors) >= l.maxKeys {
			l.evictOldest()
		}
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (l *KeyedLimiter) evictOldest() {
	var (
		oldestKey string
		oldest    time.Time
	)
	for k, v := range l.visitors {
		if oldestKey == "" || v.lastSeen.Before(oldest) {
			oldestKey, oldest = k, v.lastSeen
		}
	}
	delete(l.visitors, oldestKey)
}

// Prune drops keys idle since before cutoff and returns how many were removed.
func (l *KeyedLimiter) Prune(cutoff time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for k, v := range l.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(l.visitors, k)
			n++
		}
	}
	return n
}

// Len returns the number of tracked keys.
func (l *KeyedLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}
