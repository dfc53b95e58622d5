// Package entity 定义领域实体
package entity

import "time"

// LLMModel 模型目录条目，单价按每千 token 计
type LLMModel struct {
	ID               string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ModelID          string    `json:"model_id" gorm:"type:varchar(64);uniqueIndex;not null"`
	Name             string    `json:"name" gorm:"type:varchar(128);not null"`
	Provider         string    `json:"provider" gorm:"type:varchar(32);not null"`
	InputPricePer1K  float64   `json:"input_price_per_1k" gorm:"type:numeric(12,6);not null;default:0"`
	OutputPricePer1K float64   `json:"output_price_per_1k" gorm:"type:numeric(12,6);not null;default:0"`
	IsActive         bool      `json:"is_active" gorm:"not null;default:true;index"`
	CreatedAt        time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (LLMModel) TableName() string {
	return "llm_models"
}
