package redis

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"z-llm-chat-api/internal/infrastructure/ratelimit"
)

// RateLimiter 基于 Redis 的固定窗口限流器，多实例共享计数
type RateLimiter struct {
	client *Client
	limit  int
	period time.Duration
}

// NewRateLimiter 创建 Redis 限流器
func NewRateLimiter(client *Client, limit int, period time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		period: period,
	}
}

func (l *RateLimiter) Allow(ctx context.Context, key string) (ratelimit.Result, error) {
	ctx, span := tracer.Start(ctx, "ratelimiter.Allow")
	defer span.End()
	span.SetAttributes(attribute.String("ratelimit.key", key))

	redisKey := fmt.Sprintf("ratelimit:%s", key)

	pipe := l.client.rdb.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	// 仅在首次计数时设置过期，保证窗口起点固定
	pipe.ExpireNX(ctx, redisKey, l.period)
	ttl := pipe.TTL(ctx, redisKey)

	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return ratelimit.Result{}, fmt.Errorf("failed to execute rate limit pipeline: %w", err)
	}

	count := incr.Val()
	remaining := int64(l.limit) - count
	if remaining < 0 {
		remaining = 0
	}

	resetTime := time.Now().Add(l.period)
	if d := ttl.Val(); d > 0 {
		resetTime = time.Now().Add(d)
	}

	return ratelimit.Result{
		Allowed:   count <= int64(l.limit),
		Limit:     l.limit,
		Remaining: int(remaining),
		ResetTime: resetTime,
	}, nil
}
