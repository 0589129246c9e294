package redis_limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// acquireScript increments the counter unless it already reached ARGV[1].
// It returns the new count, or limit+1 when the slot was refused.
var acquireScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
if current >= tonumber(ARGV[1]) then
	return current + 1
end
local newCount = redis.call('INCR', KEYS[1])
redis.call('EXPIRE', KEYS[1], tonumber(ARGV[2]))
return newCount`)

// releaseScript decrements the counter and drops the key at zero.
var releaseScript = redis.NewScript(`
local count = redis.call('DECR', KEYS[1])
if tonumber(count) <= 0 then
	redis.call('DEL', KEYS[1])
	return 0
end
redis.call('EXPIRE', KEYS[1], tonumber(ARGV[1]))
return count`)

// Client is the subset of redis commands the limiter runs.
type Client interface {
	redis.Scripter
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisLimiter is a concurrency limiter shared by every portal instance.
// The TTL bounds how long a slot leaks when a holder dies without releasing it.
type RedisLimiter struct {
	client        Client
	maxConcurrent int
	keyPrefix     string
	ttl           time.Duration
	pollInterval  time.Duration
	logger        logrus.FieldLogger
}

// NewRedisLimiter creates a limiter storing counters under keyPrefix.
func NewRedisLimiter(client Client, maxConcurrent int, keyPrefix string, ttl time.Duration, logger logrus.FieldLogger) *RedisLimiter {
	return &RedisLimiter{
		client:        client,
		maxConcurrent: maxConcurrent,
		keyPrefix:     keyPrefix,
		ttl:           ttl,
		pollInterval:  200 * time.Millisecond,
		logger:        logger,
	}
}

// TryAcquire takes a slot if one is free.
func (rl *RedisLimiter) TryAcquire(ctx context.Context, key string) (bool, error) {
	result, err := acquireScript.Run(ctx, rl.client, []string{rl.keyPrefix + key}, rl.maxConcurrent, int(rl.ttl.Seconds())).Int()
	if err != nil {
		return false, fmt.Errorf("run acquire script: %w", err)
	}
	if result > rl.maxConcurrent {
		rl.logger.WithFields(logrus.Fields{"key": key, "max": rl.maxConcurrent}).Debug("executor slots exhausted")
		return false, nil
	}
	rl.logger.WithFields(logrus.Fields{"key": key, "in_use": result, "max": rl.maxConcurrent}).Debug("executor slot acquired")
	return true, nil
}

// Acquire waits for a slot until ctx is done.
func (rl *RedisLimiter) Acquire(ctx context.Context, key string) error {
	ticker := time.NewTicker(rl.pollInterval)
	defer ticker.Stop()
	for {
		ok, err := rl.TryAcquire(ctx, key)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("concurrency limit %d reached: %w", rl.maxConcurrent, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Release frees a slot.
func (rl *RedisLimiter) Release(ctx context.Context, key string) {
	remaining, err := releaseScript.Run(ctx, rl.client, []string{rl.keyPrefix + key}, int(rl.ttl.Seconds())).Int()
	if err != nil {
		rl.logger.WithError(err).WithField("key", key).Warn("failed to release executor slot")
		return
	}
	rl.logger.WithFields(logrus.Fields{"key": key, "in_use": remaining}).Debug("executor slot released")
}

// GetCurrent returns the number of held slots.
func (rl *RedisLimiter) GetCurrent(ctx context.Context, key string) (int, error) {
	current, err := rl.client.Get(ctx, rl.keyPrefix+key).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get current count: %w", err)
	}
	return current, nil
}

// GetMaxConcurrent returns the configured limit.
func (rl *RedisLimiter) GetMaxConcurrent() int {
	return rl.maxConcurrent
}
