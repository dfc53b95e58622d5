// Package wire 负责依赖注入装配
package wire

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/wire"

	"z-llm-chat-api/internal/application/chat"
	"z-llm-chat-api/internal/config"
	"z-llm-chat-api/internal/domain/repository"
	"z-llm-chat-api/internal/infrastructure/llm"
	"z-llm-chat-api/internal/infrastructure/persistence/postgres"
	"z-llm-chat-api/internal/infrastructure/persistence/redis"
	"z-llm-chat-api/internal/infrastructure/ratelimit"
	"z-llm-chat-api/internal/interfaces/http/handler"
	"z-llm-chat-api/internal/interfaces/http/router"
	"z-llm-chat-api/pkg/utils"
)

// App 装配完成的应用
type App struct {
	Engine   *gin.Engine
	Postgres *postgres.Client
	Redis    *redis.Client
}

func newApp(engine *gin.Engine, pg *postgres.Client, rd *redis.Client) *App {
	return &App{
		Engine:   engine,
		Postgres: pg,
		Redis:    rd,
	}
}

func provideAppConfig(cfg *config.Config) *config.AppConfig {
	return &cfg.App
}

func providePostgresConfig(cfg *config.Config) *config.PostgresConfig {
	return &cfg.Database.Postgres
}

func provideRedisConfig(cfg *config.Config) *config.RedisConfig {
	return &cfg.Cache.Redis
}

func provideLLMConfig(cfg *config.Config) *config.LLMConfig {
	return &cfg.LLM
}

func provideJWTManager(cfg *config.Config) *utils.JWTManager {
	return utils.NewJWTManager(cfg.Security.JWT.Secret, cfg.Security.JWT.Issuer)
}

// provideRateLimiter 按配置选择限流实现：
// redis 用于多实例部署共享计数，memory 用于单实例
func provideRateLimiter(cfg *config.Config, client *redis.Client) ratelimit.Limiter {
	limit := cfg.Security.RateLimit.RequestsPerMinute
	if limit <= 0 {
		limit = 10
	}
	if cfg.Security.RateLimit.Store == "redis" {
		return redis.NewRateLimiter(client, limit, time.Minute)
	}
	return ratelimit.NewMemoryLimiter(limit, time.Minute)
}

func provideTransactor(client *postgres.Client) repository.Transactor {
	return postgres.NewTxManager(client)
}

// ProviderSet 全量依赖集合
var ProviderSet = wire.NewSet(
	provideAppConfig,
	providePostgresConfig,
	provideRedisConfig,
	provideLLMConfig,
	provideJWTManager,
	provideRateLimiter,
	provideTransactor,

	postgres.NewClient,
	postgres.NewConversationRepository,
	postgres.NewMessageRepository,
	postgres.NewModelRepository,
	postgres.NewUsageRepository,
	postgres.NewUserRepository,

	redis.NewClient,
	redis.NewCache,

	llm.NewManager,
	wire.Bind(new(chat.ProviderManager), new(*llm.Manager)),
	chat.NewOrchestrator,
	wire.Bind(new(handler.ChatStreamer), new(*chat.Orchestrator)),

	handler.NewChatHandler,
	handler.NewModelHandler,
	handler.NewHealthHandler,
	router.Setup,

	newApp,
)
