// Package entity 定义领域实体
package entity

import "time"

type UsageLedgerEntry struct {
	ID             string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID         string    `json:"user_id" gorm:"type:uuid;index;not null"`
	ConversationID string    `json:"conversation_id" gorm:"type:uuid;index;not null"`
	MessageID      string    `json:"message_id,omitempty" gorm:"type:uuid"`
	Provider       string    `json:"provider" gorm:"type:varchar(32);not null"`
	Model          string    `json:"model" gorm:"type:varchar(64);not null"`
	InputTokens    int       `json:"input_tokens" gorm:"not null;default:0"`
	OutputTokens   int       `json:"output_tokens" gorm:"not null;default:0"`
	TotalTokens    int       `json:"total_tokens" gorm:"not null;default:0"`
	Cost           float64   `json:"cost" gorm:"type:numeric(12,6);not null;default:0"`
	DurationMs     int       `json:"duration_ms" gorm:"not null;default:0"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (UsageLedgerEntry) TableName() string {
	return "usage_ledger"
}
