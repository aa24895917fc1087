// Package ratelimit 基于 Redis 滑动窗口的请求限流。
// 限流规则在构造时固定，调用方只按 key 询问放行与否。
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
)

// Verdict 单次判定结果
type Verdict struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// RateLimiter 按 key 判定是否放行
type RateLimiter interface {
	Allow(ctx context.Context, key string) (Verdict, error)
}

// RedisRateLimiter redis_rate 实现，多实例共享同一份配额
type RedisRateLimiter struct {
	limiter *redis_rate.Limiter
	limit   redis_rate.Limit
}

// NewRedisRateLimiter 每秒 qps 个请求，突发上限 burst
func NewRedisRateLimiter(rdb *redis.Client, qps, burst int) *RedisRateLimiter {
	return &RedisRateLimiter{
		limiter: redis_rate.NewLimiter(rdb),
		limit: redis_rate.Limit{
			Rate:   qps,
			Period: time.Second,
			Burst:  burst,
		},
	}
}

func (r *RedisRateLimiter) Allow(ctx context.Context, key string) (Verdict, error) {
	res, err := r.limiter.Allow(ctx, key, r.limit)
	if err != nil {
		return Verdict{}, fmt.Errorf("rate limit check failed: %w", err)
	}
	return Verdict{
		Allowed:    res.Allowed > 0,
		Remaining:  res.Remaining,
		RetryAfter: res.RetryAfter,
	}, nil
}
