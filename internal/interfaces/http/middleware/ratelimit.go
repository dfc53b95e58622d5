package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"z-llm-chat-api/internal/infrastructure/ratelimit"
	"z-llm-chat-api/internal/interfaces/http/dto"
	apperrors "z-llm-chat-api/pkg/errors"
	"z-llm-chat-api/pkg/logger"
	"z-llm-chat-api/pkg/metrics"
)

// RateLimit 按用户维度限流，未认证请求按客户端 IP 限流。
// 限流器故障时放行，限流不应成为可用性瓶颈。
func RateLimit(limiter ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := UserIDFromContext(c)
		if key == "" {
			key = "ip:" + c.ClientIP()
		}

		result, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			logger.Warn(c.Request.Context(), "限流器异常，放行请求", "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetTime.Unix(), 10))

		if !result.Allowed {
			metrics.RateLimitRejectedTotal.WithLabelValues(c.FullPath()).Inc()
			dto.AbortWithError(c, apperrors.ErrTooManyRequests)
			return
		}

		c.Next()
	}
}
