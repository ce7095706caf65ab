package postgres

import (
	"context"

	"gorm.io/gorm"

	"edu-lesson-ai-api/internal/domain/repository"
)

// TxManager 事务管理器
type TxManager struct {
	client *Client
}

// NewTxManager 创建事务管理器
func NewTxManager(client *Client) *TxManager {
	return &TxManager{client: client}
}

// WithTransaction 在事务中执行操作，已在事务中时直接复用
func (m *TxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if tx := getTxFromContext(ctx); tx != nil {
		return fn(ctx)
	}

	return m.client.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, repository.TxKey{}, tx))
	})
}

// getTxFromContext 从上下文获取事务
func getTxFromContext(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(repository.TxKey{}).(*gorm.DB); ok {
		return tx
	}
	return nil
}

// getDB 事务中返回事务连接，否则返回绑定 ctx 的普通连接
func getDB(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx := getTxFromContext(ctx); tx != nil {
		return tx
	}
	return db.WithContext(ctx)
}
