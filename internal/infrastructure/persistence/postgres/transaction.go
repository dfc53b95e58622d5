package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"z-llm-chat-api/internal/domain/repository"
	"z-llm-chat-api/pkg/logger"
)

// TxManager 事务管理器
type TxManager struct {
	db *gorm.DB
}

// NewTxManager 创建事务管理器
func NewTxManager(client *Client) *TxManager {
	return &TxManager{db: client.DB()}
}

// WithTransaction 在事务中执行回调，事务句柄通过 context 传递给仓储层
func (m *TxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, span := tracer.Start(ctx, "postgres.WithTransaction")
	defer span.End()

	tx := m.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		span.RecordError(tx.Error)
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	txCtx := context.WithValue(ctx, repository.TxKey{}, tx)

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil {
			logger.Error(ctx, "事务回滚失败", rbErr)
		}
		return err
	}

	if err := tx.Commit().Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// getDB 优先使用 context 中的事务句柄，否则使用基础连接
func getDB(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(repository.TxKey{}).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return db.WithContext(ctx)
}
