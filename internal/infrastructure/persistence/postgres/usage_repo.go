package postgres

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"z-llm-chat-api/internal/domain/entity"
	"z-llm-chat-api/internal/domain/repository"
)

// usageRepo 用量流水仓储 GORM 实现
type usageRepo struct {
	db *gorm.DB
}

// NewUsageRepository 创建用量仓储
func NewUsageRepository(client *Client) repository.UsageRepository {
	return &usageRepo{db: client.DB()}
}

func (r *usageRepo) Create(ctx context.Context, entry *entity.UsageLedgerEntry) error {
	ctx, span := tracer.Start(ctx, "usageRepo.Create")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", entry.UserID),
		attribute.String("llm.model", entry.Model),
		attribute.Int("llm.total_tokens", entry.TotalTokens),
	)

	if err := getDB(ctx, r.db).Create(entry).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create usage entry: %w", err)
	}
	return nil
}

// GetTokenUsage 统计用户在 [start, end) 区间内的总 token 数
func (r *usageRepo) GetTokenUsage(ctx context.Context, userID string, startInclusive, endExclusive time.Time) (int64, error) {
	ctx, span := tracer.Start(ctx, "usageRepo.GetTokenUsage")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	var total int64
	err := getDB(ctx, r.db).
		Model(&entity.UsageLedgerEntry{}).
		Where("user_id = ? AND created_at >= ? AND created_at < ?", userID, startInclusive, endExclusive).
		Select("COALESCE(SUM(total_tokens), 0)").
		Scan(&total).Error
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to sum token usage: %w", err)
	}
	return total, nil
}
