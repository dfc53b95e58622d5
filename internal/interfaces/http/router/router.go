// Package router 组装 HTTP 路由
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"z-llm-chat-api/internal/config"
	"z-llm-chat-api/internal/infrastructure/ratelimit"
	"z-llm-chat-api/internal/interfaces/http/handler"
	"z-llm-chat-api/internal/interfaces/http/middleware"
	"z-llm-chat-api/pkg/utils"
)

// Setup 构建 gin 引擎并注册全部路由
func Setup(
	cfg *config.Config,
	chatHandler *handler.ChatHandler,
	modelHandler *handler.ModelHandler,
	healthHandler *handler.HealthHandler,
	limiter ratelimit.Limiter,
	jwtManager *utils.JWTManager,
) *gin.Engine {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Trace(cfg.App.Name),
		middleware.TraceLogContext(),
		middleware.Metrics(),
		middleware.CORS(&cfg.Security.CORS),
	)

	r.GET("/health", healthHandler.Health)
	r.GET("/ready", healthHandler.Ready)
	r.GET("/live", healthHandler.Live)

	if cfg.Observability.Metrics.Enabled {
		path := cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(promhttp.Handler()))
	}

	v1 := r.Group("/v1")
	v1.Use(middleware.JWTAuth(jwtManager))
	if cfg.Security.RateLimit.Enabled {
		v1.Use(middleware.RateLimit(limiter))
	}

	v1.POST("/chat/stream", chatHandler.Stream)
	v1.GET("/models", modelHandler.List)

	return r
}
