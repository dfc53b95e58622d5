package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"z-llm-chat-api/internal/infrastructure/ratelimit"
)

func newRateLimitedRouter(limiter ratelimit.Limiter, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set(ContextUserIDKey, userID)
		}
		c.Next()
	})
	r.Use(RateLimit(limiter))
	r.POST("/chat", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestRateLimit_AllowsWithinLimit(t *testing.T) {
	r := newRateLimitedRouter(ratelimit.NewMemoryLimiter(3, time.Minute), "user-1")

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/chat", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i+1, w.Code)
		}
	}
}

func TestRateLimit_RejectsOverLimit(t *testing.T) {
	r := newRateLimitedRouter(ratelimit.NewMemoryLimiter(10, time.Minute), "user-1")

	var last *httptest.ResponseRecorder
	for i := 0; i < 11; i++ {
		last = httptest.NewRecorder()
		r.ServeHTTP(last, httptest.NewRequest(http.MethodPost, "/chat", nil))
	}

	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("11th request status = %d, want 429", last.Code)
	}
	if got := last.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("remaining header = %q, want 0", got)
	}
	if last.Header().Get("X-RateLimit-Reset") == "" {
		t.Error("reset header should be set")
	}
}

func TestRateLimit_FallsBackToClientIP(t *testing.T) {
	r := newRateLimitedRouter(ratelimit.NewMemoryLimiter(1, time.Minute), "")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/chat", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/chat", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", w.Code)
	}
}
