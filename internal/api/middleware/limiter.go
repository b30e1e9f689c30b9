package middleware

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiters keeps one token bucket per key. Each bucket holds capacity
// tokens and refills at capacity per window.
type Limiters struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	unlimited bool
	now       func() time.Time
	buckets   map[string]*rate.Limiter
}

// LimiterOption configures Limiters.
type LimiterOption func(*Limiters)

// WithLimiterClock overrides the clock used to refill buckets.
func WithLimiterClock(now func() time.Time) LimiterOption {
	return func(l *Limiters) { l.now = now }
}

// NewLimiters creates a registry. A capacity of zero or less disables
// limiting.
func NewLimiters(capacity int, window time.Duration, opts ...LimiterOption) *Limiters {
	l := &Limiters{
		now:     time.Now,
		buckets: make(map[string]*rate.Limiter),
	}
	if capacity <= 0 || window <= 0 {
		l.unlimited = true
	} else {
		l.limit = rate.Every(window / time.Duration(capacity))
		l.burst = capacity
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow takes one token from key's bucket.
func (l *Limiters) Allow(key string) bool {
	return l.AllowN(key, 1)
}

// AllowN takes n tokens from key's bucket, or none if fewer are available.
func (l *Limiters) AllowN(key string, n int) bool {
	if l.unlimited {
		return true
	}

	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = rate.NewLimiter(l.limit, l.burst)
		l.buckets[key] = b
	}
	l.mu.Unlock()

	return b.AllowN(l.now(), n)
}

// Release forgets key's bucket.
func (l *Limiters) Release(key string) {
	l.mu.Lock()
	delete(l.buckets, key)
	l.mu.Unlock()
}

// Len returns the number of tracked buckets.
func (l *Limiters) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
