package postgres

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"z-llm-chat-api/internal/domain/entity"
	"z-llm-chat-api/internal/domain/repository"
)

// modelRepo 模型仓储 GORM 实现
type modelRepo struct {
	db *gorm.DB
}

// NewModelRepository 创建模型仓储
func NewModelRepository(client *Client) repository.ModelRepository {
	return &modelRepo{db: client.DB()}
}

// GetByModelID 按对外模型标识查询，不存在时返回 nil
func (r *modelRepo) GetByModelID(ctx context.Context, modelID string) (*entity.LLMModel, error) {
	ctx, span := tracer.Start(ctx, "modelRepo.GetByModelID")
	defer span.End()
	span.SetAttributes(attribute.String("model.id", modelID))

	var model entity.LLMModel
	err := getDB(ctx, r.db).Where("model_id = ?", modelID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get model: %w", err)
	}
	return &model, nil
}

// GetFirstActive 返回默认兜底模型，没有可用模型时返回 nil
func (r *modelRepo) GetFirstActive(ctx context.Context) (*entity.LLMModel, error) {
	ctx, span := tracer.Start(ctx, "modelRepo.GetFirstActive")
	defer span.End()

	var model entity.LLMModel
	err := getDB(ctx, r.db).
		Where("is_active = ?", true).
		Order("created_at ASC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get first active model: %w", err)
	}
	return &model, nil
}

func (r *modelRepo) ListActive(ctx context.Context) ([]*entity.LLMModel, error) {
	ctx, span := tracer.Start(ctx, "modelRepo.ListActive")
	defer span.End()

	var models []*entity.LLMModel
	err := getDB(ctx, r.db).
		Where("is_active = ?", true).
		Order("provider ASC, model_id ASC").
		Find(&models).Error
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	return models, nil
}
