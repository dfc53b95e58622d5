package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"z-llm-chat-api/internal/config"
	"z-llm-chat-api/internal/infrastructure/persistence/postgres"
	"z-llm-chat-api/internal/infrastructure/persistence/redis"
)

// HealthHandler 健康检查接口
type HealthHandler struct {
	pg      *postgres.Client
	rd      *redis.Client
	appName string
	version string
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(pg *postgres.Client, rd *redis.Client, cfg *config.AppConfig) *HealthHandler {
	return &HealthHandler{
		pg:      pg,
		rd:      rd,
		appName: cfg.Name,
		version: cfg.Version,
	}
}

// Health 处理 GET /health，报告各依赖状态
func (h *HealthHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()
	checks := gin.H{}
	healthy := true

	if err := h.pg.HealthCheck(ctx); err != nil {
		checks["postgres"] = err.Error()
		healthy = false
	} else {
		checks["postgres"] = "ok"
	}

	if err := h.rd.HealthCheck(ctx); err != nil {
		checks["redis"] = err.Error()
		healthy = false
	} else {
		checks["redis"] = "ok"
	}

	status := http.StatusOK
	state := "healthy"
	if !healthy {
		status = http.StatusServiceUnavailable
		state = "degraded"
	}

	c.JSON(status, gin.H{
		"status":    state,
		"app":       h.appName,
		"version":   h.version,
		"checks":    checks,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// Ready 处理 GET /ready，依赖全部可用才就绪
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.pg.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "reason": "postgres"})
		return
	}
	if err := h.rd.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "reason": "redis"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Live 处理 GET /live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}
