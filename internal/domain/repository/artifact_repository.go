// Package repository 定义数据访问层接口
package repository

import (
	"context"
	"errors"

	"edu-lesson-ai-api/internal/domain/entity"
)

var (
	// ErrArtifactNotFound 指定 ID 的产物不存在
	ErrArtifactNotFound = errors.New("artifact not found")
	// ErrArtifactNotOwned 产物存在但不属于请求者
	ErrArtifactNotOwned = errors.New("artifact not owned by requester")
)

// ArtifactRepository 产物存储
// kind 决定读写哪张表；ownerID 为 nil 表示不按归属过滤
type ArtifactRepository interface {
	// Create 写入产物，由存储分配 ID 与创建时间
	Create(ctx context.Context, artifact *entity.Artifact) error
	// List 按 created_at DESC, id DESC 返回
	List(ctx context.Context, kind entity.ArtifactKind, ownerID *string) ([]*entity.Artifact, error)
	// GetByID 不存在时返回 nil, nil
	GetByID(ctx context.Context, kind entity.ArtifactKind, id uint64) (*entity.Artifact, error)
	// DeleteByID 硬删除；ownerID 非 nil 时先校验归属
	DeleteByID(ctx context.Context, kind entity.ArtifactKind, id uint64, ownerID *string) error
}
