package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	"z-llm-chat-api/pkg/logger"
)

// Trace 开启请求级追踪
func Trace(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName)
}

// TraceLogContext 将当前 span 的 trace/span ID 注入日志上下文，
// 需注册在 Trace 之后
func TraceLogContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.SpanContext().IsValid() {
			ctx := logger.WithContext(c.Request.Context(), logger.TraceIDKey, span.SpanContext().TraceID().String())
			ctx = logger.WithContext(ctx, logger.SpanIDKey, span.SpanContext().SpanID().String())
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}
