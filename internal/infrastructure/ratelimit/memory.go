package ratelimit

import (
	"context"
	"sync"
	"time"
)

// window 单个 key 的计数窗口
type window struct {
	start time.Time
	count int
}

// MemoryLimiter 进程内固定窗口限流器。
// 窗口自该 key 的首个请求开始计时，到期后整体重置。
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	period  time.Duration
	now     func() time.Time
}

// NewMemoryLimiter 创建内存限流器
func NewMemoryLimiter(limit int, period time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		windows: make(map[string]*window),
		limit:   limit,
		period:  period,
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || !now.Before(w.start.Add(l.period)) {
		w = &window{start: now}
		l.windows[key] = w
	}

	// 超限请求不计数，窗口内的配额不被拒绝请求消耗
	if w.count >= l.limit {
		return Result{
			Allowed:   false,
			Limit:     l.limit,
			Remaining: 0,
			ResetTime: w.start.Add(l.period),
		}, nil
	}

	w.count++
	return Result{
		Allowed:   true,
		Limit:     l.limit,
		Remaining: l.limit - w.count,
		ResetTime: w.start.Add(l.period),
	}, nil
}
