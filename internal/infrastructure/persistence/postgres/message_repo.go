package postgres

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"z-llm-chat-api/internal/domain/entity"
	"z-llm-chat-api/internal/domain/repository"
)

// messageRepo 消息仓储 GORM 实现
type messageRepo struct {
	db *gorm.DB
}

// NewMessageRepository 创建消息仓储
func NewMessageRepository(client *Client) repository.MessageRepository {
	return &messageRepo{db: client.DB()}
}

func (r *messageRepo) Create(ctx context.Context, message *entity.Message) error {
	ctx, span := tracer.Start(ctx, "messageRepo.Create")
	defer span.End()
	span.SetAttributes(
		attribute.String("conversation.id", message.ConversationID),
		attribute.String("message.role", string(message.Role)),
	)

	if err := getDB(ctx, r.db).Create(message).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// ListRecent 按时间升序返回会话最近的 limit 条消息
func (r *messageRepo) ListRecent(ctx context.Context, conversationID string, limit int) ([]*entity.Message, error) {
	ctx, span := tracer.Start(ctx, "messageRepo.ListRecent")
	defer span.End()
	span.SetAttributes(
		attribute.String("conversation.id", conversationID),
		attribute.Int("limit", limit),
	)

	// 先倒序取最近 limit 条，再在子查询外恢复升序
	var messages []*entity.Message
	sub := getDB(ctx, r.db).
		Model(&entity.Message{}).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Limit(limit)

	err := getDB(ctx, r.db).
		Table("(?) AS recent", sub).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}
