package handler

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"

	"z-llm-chat-api/internal/domain/repository"
	"z-llm-chat-api/internal/infrastructure/persistence/redis"
	"z-llm-chat-api/internal/interfaces/http/dto"
	apperrors "z-llm-chat-api/pkg/errors"
	"z-llm-chat-api/pkg/logger"
)

const (
	modelCacheKey = "models:active"
	modelCacheTTL = 5 * time.Minute
)

// ModelHandler 模型目录接口
type ModelHandler struct {
	models repository.ModelRepository
	cache  *redis.Cache
}

// NewModelHandler 创建模型处理器
func NewModelHandler(models repository.ModelRepository, cache *redis.Cache) *ModelHandler {
	return &ModelHandler{
		models: models,
		cache:  cache,
	}
}

// List 处理 GET /v1/models，结果走缓存
func (h *ModelHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	data, err := h.cache.GetOrLoad(ctx, modelCacheKey, modelCacheTTL, func(ctx context.Context) (any, error) {
		return h.loadModels(ctx)
	})
	if err == nil {
		dto.Success(c, json.RawMessage(data))
		return
	}

	// 缓存不可用时直接查库兜底
	logger.Warn(ctx, "模型缓存读取失败，回源数据库", "error", err)
	models, dbErr := h.loadModels(ctx)
	if dbErr != nil {
		dto.Error(c, apperrors.Wrap(dbErr, apperrors.CodeDatabaseError, "failed to list models"))
		return
	}
	dto.Success(c, models)
}

func (h *ModelHandler) loadModels(ctx context.Context) ([]dto.ModelInfo, error) {
	models, err := h.models.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	infos := make([]dto.ModelInfo, 0, len(models))
	for _, m := range models {
		infos = append(infos, dto.ModelInfo{
			ModelID:          m.ModelID,
			Name:             m.Name,
			Provider:         m.Provider,
			InputPricePer1K:  m.InputPricePer1K,
			OutputPricePer1K: m.OutputPricePer1K,
		})
	}
	return infos, nil
}
