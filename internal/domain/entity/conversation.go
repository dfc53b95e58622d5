// Package entity 定义领域实体
package entity

import "time"

// DefaultConversationTitle 新会话的默认标题，后台标题生成成功后覆盖
const DefaultConversationTitle = "New Chat"

type Conversation struct {
	ID            string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID        string    `json:"user_id" gorm:"type:uuid;index;not null"`
	Title         string    `json:"title" gorm:"type:varchar(255);not null;default:'New Chat'"`
	LastMessageAt time.Time `json:"last_message_at" gorm:"index"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Conversation) TableName() string {
	return "conversations"
}

func NewConversation(userID string) *Conversation {
	now := time.Now()
	return &Conversation{
		UserID:        userID,
		Title:         DefaultConversationTitle,
		LastMessageAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
