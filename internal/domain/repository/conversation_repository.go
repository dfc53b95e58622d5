// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"z-llm-chat-api/internal/domain/entity"
)

type ConversationRepository interface {
	Create(ctx context.Context, conversation *entity.Conversation) error
	// GetByIDForUser 按 ID 加载会话，所有权不匹配时返回 nil
	GetByIDForUser(ctx context.Context, id, userID string) (*entity.Conversation, error)
	TouchLastMessage(ctx context.Context, id string) error
	UpdateTitle(ctx context.Context, id, title string) error
}

type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	// ListRecent 按时间升序返回最近 limit 条消息
	ListRecent(ctx context.Context, conversationID string, limit int) ([]*entity.Message, error)
}
