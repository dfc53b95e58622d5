package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"z-llm-chat-api/internal/domain/entity"
	"z-llm-chat-api/internal/domain/repository"
)

// conversationRepo 会话仓储 GORM 实现
type conversationRepo struct {
	db *gorm.DB
}

// NewConversationRepository 创建会话仓储
func NewConversationRepository(client *Client) repository.ConversationRepository {
	return &conversationRepo{db: client.DB()}
}

func (r *conversationRepo) Create(ctx context.Context, conversation *entity.Conversation) error {
	ctx, span := tracer.Start(ctx, "conversationRepo.Create")
	defer span.End()
	span.SetAttributes(attribute.String("conversation.id", conversation.ID))

	if err := getDB(ctx, r.db).Create(conversation).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create conversation: %w", err)
	}
	return nil
}

// GetByIDForUser 查询指定用户名下的会话，不存在或不属于该用户时返回 nil
func (r *conversationRepo) GetByIDForUser(ctx context.Context, id, userID string) (*entity.Conversation, error) {
	ctx, span := tracer.Start(ctx, "conversationRepo.GetByIDForUser")
	defer span.End()
	span.SetAttributes(
		attribute.String("conversation.id", id),
		attribute.String("user.id", userID),
	)

	var conversation entity.Conversation
	err := getDB(ctx, r.db).
		Where("id = ? AND user_id = ?", id, userID).
		First(&conversation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return &conversation, nil
}

func (r *conversationRepo) TouchLastMessage(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "conversationRepo.TouchLastMessage")
	defer span.End()

	err := getDB(ctx, r.db).
		Model(&entity.Conversation{}).
		Where("id = ?", id).
		Update("last_message_at", time.Now()).Error
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to touch conversation: %w", err)
	}
	return nil
}

func (r *conversationRepo) UpdateTitle(ctx context.Context, id, title string) error {
	ctx, span := tracer.Start(ctx, "conversationRepo.UpdateTitle")
	defer span.End()

	err := getDB(ctx, r.db).
		Model(&entity.Conversation{}).
		Where("id = ?", id).
		Update("title", title).Error
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update conversation title: %w", err)
	}
	return nil
}
