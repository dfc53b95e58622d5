// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"z-llm-chat-api/internal/domain/entity"
)

type ModelRepository interface {
	// GetByModelID 按对外 model_id 查找，未找到返回 nil
	GetByModelID(ctx context.Context, modelID string) (*entity.LLMModel, error)
	// GetFirstActive 返回任意一个激活模型，无激活模型返回 nil
	GetFirstActive(ctx context.Context) (*entity.LLMModel, error)
	ListActive(ctx context.Context) ([]*entity.LLMModel, error)
}
