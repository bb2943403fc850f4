package httpx

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	redis "github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "fintrack:ratelimit:"

type redisRateLimiter struct {
	client  *redis.Client
	logger  *slog.Logger
	timeout time.Duration
}

// NewRedisRateLimiter shares rate limit counters between API instances.
// Redis failures fail open.
func NewRedisRateLimiter(ctx context.Context, addr, password string, db int, logger *slog.Logger) (RateLimiter, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return &redisRateLimiter{client: client, logger: logger, timeout: 250 * time.Millisecond}, nil
}

func (rl *redisRateLimiter) Allow(key string, limit int, window time.Duration) rateDecision {
	if limit <= 0 {
		return rateDecision{allowed: true}
	}
	if window <= 0 {
		window = rateWindowDefault
	}
	ctx, cancel := context.WithTimeout(context.Background(), rl.timeout)
	defer cancel()

	redisKey := redisKeyPrefix + key
	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := rl.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.ExpireNX(ctx, redisKey, window)
		ttl = pipe.PTTL(ctx, redisKey)
		return nil
	})
	if err != nil {
		rl.logger.Error("redis rate limiter error", "key", key, "error", err)
		return rateDecision{allowed: true}
	}
	remaining := ttl.Val()
	if remaining <= 0 {
		remaining = window
	}
	count := int(incr.Val())
	return rateDecision{allowed: count <= limit, count: count, windowEnd: time.Now().Add(remaining)}
}

func (rl *redisRateLimiter) Close() {
	_ = rl.client.Close()
}
