package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiter_AllowWithinLimit(t *testing.T) {
	l := NewMemoryLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		res, err := l.Allow(context.Background(), "user-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
		if want := 3 - (i + 1); res.Remaining != want {
			t.Errorf("request %d remaining = %d, want %d", i+1, res.Remaining, want)
		}
	}
}

func TestMemoryLimiter_RejectOverLimit(t *testing.T) {
	l := NewMemoryLimiter(2, time.Minute)

	for i := 0; i < 2; i++ {
		if res, _ := l.Allow(context.Background(), "user-1"); !res.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	res, err := l.Allow(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Allowed {
		t.Error("third request should be rejected")
	}
	if res.Remaining != 0 {
		t.Errorf("remaining = %d, want 0", res.Remaining)
	}
}

func TestMemoryLimiter_WindowReset(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(1, time.Minute)
	l.now = func() time.Time { return now }

	if res, _ := l.Allow(context.Background(), "user-1"); !res.Allowed {
		t.Fatal("first request should be allowed")
	}
	if res, _ := l.Allow(context.Background(), "user-1"); res.Allowed {
		t.Fatal("second request in same window should be rejected")
	}

	// 窗口到期后计数重置
	now = now.Add(time.Minute)
	res, _ := l.Allow(context.Background(), "user-1")
	if !res.Allowed {
		t.Error("request after window reset should be allowed")
	}
	if want := now.Add(time.Minute); !res.ResetTime.Equal(want) {
		t.Errorf("reset time = %v, want %v", res.ResetTime, want)
	}
}

func TestMemoryLimiter_IndependentKeys(t *testing.T) {
	l := NewMemoryLimiter(1, time.Minute)

	if res, _ := l.Allow(context.Background(), "user-1"); !res.Allowed {
		t.Fatal("user-1 first request should be allowed")
	}
	if res, _ := l.Allow(context.Background(), "user-1"); res.Allowed {
		t.Fatal("user-1 second request should be rejected")
	}
	if res, _ := l.Allow(context.Background(), "user-2"); !res.Allowed {
		t.Error("user-2 should have its own window")
	}
}
