// Package ratelimit 提供固定窗口限流实现
package ratelimit

import (
	"context"
	"time"
)

// Result 单次限流判定结果
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetTime time.Time
}

// Limiter 限流器接口，key 通常为用户标识
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}
