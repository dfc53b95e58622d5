// Package entity 定义领域实体
package entity

import "time"

type User struct {
	ID               string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Username         string    `json:"username" gorm:"type:varchar(64);uniqueIndex;not null"`
	PreferredModelID string    `json:"preferred_model_id" gorm:"type:varchar(64)"`
	CreatedAt        time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
