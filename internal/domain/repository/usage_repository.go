// Package repository 定义数据访问层接口
package repository

import (
	"context"
	"time"

	"z-llm-chat-api/internal/domain/entity"
)

type UsageRepository interface {
	Create(ctx context.Context, entry *entity.UsageLedgerEntry) error
	GetTokenUsage(ctx context.Context, userID string, startInclusive, endExclusive time.Time) (int64, error)
}
