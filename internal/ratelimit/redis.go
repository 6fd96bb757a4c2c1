package ratelimit

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter keeps counters in Redis so every API replica shares them.
type RedisLimiter struct {
	rdb *redis.Client
}

// NewRedisLimiter wraps an existing client.
func NewRedisLimiter(rdb *redis.Client) *RedisLimiter {
	return &RedisLimiter{rdb: rdb}
}

// CheckAndConsume increments the rule's counter and starts the window if the
// key has no TTL yet. Both commands go out in one MULTI/EXEC so a counter is
// never left without an expiry, and a key that somehow lost its TTL gets one
// back on the next attempt.
func (l *RedisLimiter) CheckAndConsume(ctx context.Context, rule Rule) (bool, error) {
	key := rule.key()

	var incr *redis.IntCmd
	_, err := l.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, rule.Window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("rate limit consume: %w", err)
	}
	return incr.Val() > int64(rule.MaxAttempts), nil
}

// Close releases the client's connections.
func (l *RedisLimiter) Close() error {
	return l.rdb.Close()
}
