package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryLimiter keeps counters in process memory. It suits a single replica
// and tests.
type MemoryLimiter struct {
	mu sync.Mutex
	c  *cache.Cache
}

// NewMemoryLimiter creates a limiter that purges expired windows every
// cleanup interval.
func NewMemoryLimiter(cleanup time.Duration) *MemoryLimiter {
	return &MemoryLimiter{c: cache.New(cache.NoExpiration, cleanup)}
}

// CheckAndConsume increments the rule's counter, starting the window on the
// first attempt.
func (l *MemoryLimiter) CheckAndConsume(_ context.Context, rule Rule) (bool, error) {
	key := rule.key()

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.c.Add(key, 1, rule.Window); err == nil {
		return 1 > rule.MaxAttempts, nil
	}
	count, err := l.c.IncrementInt(key, 1)
	if err != nil {
		// Expired between Add and Increment; start a new window.
		l.c.Set(key, 1, rule.Window)
		count = 1
	}
	return count > rule.MaxAttempts, nil
}
