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

// userRepo 用户仓储 GORM 实现
type userRepo struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓储
func NewUserRepository(client *Client) repository.UserRepository {
	return &userRepo{db: client.DB()}
}

// GetByID 按 ID 查找用户，未找到返回 nil
func (r *userRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	ctx, span := tracer.Start(ctx, "userRepo.GetByID")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", id))

	var user entity.User
	err := getDB(ctx, r.db).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}
