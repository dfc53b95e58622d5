// Package entity 定义领域实体
package entity

import "time"

// MessageRole 消息角色
type MessageRole string

const (
	MessageRoleSystem    MessageRole = "system"
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

type Message struct {
	ID             string      `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ConversationID string      `json:"conversation_id" gorm:"type:uuid;index;not null"`
	Role           MessageRole `json:"role" gorm:"type:varchar(16);not null"`
	Content        string      `json:"content" gorm:"type:text;not null"`
	ModelID        string      `json:"model_id,omitempty" gorm:"type:varchar(64)"`
	Provider       string      `json:"provider,omitempty" gorm:"type:varchar(32)"`
	InputTokens    int         `json:"input_tokens" gorm:"not null;default:0"`
	OutputTokens   int         `json:"output_tokens" gorm:"not null;default:0"`
	Cost           float64     `json:"cost" gorm:"type:numeric(12,6);not null;default:0"`
	CreatedAt      time.Time   `json:"created_at" gorm:"autoCreateTime"`
}

func (Message) TableName() string {
	return "messages"
}

func NewUserMessage(conversationID, content string) *Message {
	return &Message{
		ConversationID: conversationID,
		Role:           MessageRoleUser,
		Content:        content,
		CreatedAt:      time.Now(),
	}
}

func NewAssistantMessage(conversationID, content, modelID, provider string) *Message {
	return &Message{
		ConversationID: conversationID,
		Role:           MessageRoleAssistant,
		Content:        content,
		ModelID:        modelID,
		Provider:       provider,
		CreatedAt:      time.Now(),
	}
}
