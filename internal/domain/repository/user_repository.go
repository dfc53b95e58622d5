// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"z-llm-chat-api/internal/domain/entity"
)

type UserRepository interface {
	// GetByID 按 ID 查找用户，未找到返回 nil
	GetByID(ctx context.Context, id string) (*entity.User, error)
}
