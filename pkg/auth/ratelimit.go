package auth

import (
	"strings"
	"sync"
	"time"
)

// LoginLimiter throttles password attempts per login email.
type LoginLimiter interface {
	Allow(email string) error
}

// InProcessLimiter is a fixed-window limiter that tracks attempt counts per
// email in memory.
type InProcessLimiter struct {
	perMinute int
	now       func() time.Time

	mu       sync.Mutex
	counters map[string]*counter
}

type counter struct {
	count    int
	windowAt time.Time
}

// NewInProcessLimiter allows perMinute attempts per email per minute.
// perMinute <= 0 disables limiting.
func NewInProcessLimiter(perMinute int) *InProcessLimiter {
	return &InProcessLimiter{
		perMinute: perMinute,
		now:       time.Now,
		counters:  make(map[string]*counter),
	}
}

// Allow records an attempt for email and returns ErrTooManyRequests once the
// window is exhausted.
func (l *InProcessLimiter) Allow(email string) error {
	if l == nil || l.perMinute <= 0 {
		return nil
	}
	key := strings.ToLower(strings.TrimSpace(email))

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	c, ok := l.counters[key]
	if !ok || now.Sub(c.windowAt) >= time.Minute {
		l.counters[key] = &counter{count: 1, windowAt: now}
		l.sweep(now)
		return nil
	}

	c.count++
	if c.count > l.perMinute {
		return ErrTooManyRequests
	}
	return nil
}

// sweep drops expired windows. Caller holds l.mu.
func (l *InProcessLimiter) sweep(now time.Time) {
	if len(l.counters) < 1024 {
		return
	}
	for k, c := range l.counters {
		if now.Sub(c.windowAt) >= time.Minute {
			delete(l.counters, k)
		}
	}
}
