package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"edu-lesson-ai-api/internal/domain/entity"
	"edu-lesson-ai-api/internal/domain/repository"
)

// ArtifactRepository 产物仓储，按 kind 读写 content_generations / lessons
type ArtifactRepository struct {
	client *Client
	tx     repository.Transactor
	now    func() time.Time
}

// ArtifactRepositoryOption 仓储选项
type ArtifactRepositoryOption func(*ArtifactRepository)

// WithClock 替换存储时钟
func WithClock(now func() time.Time) ArtifactRepositoryOption {
	return func(r *ArtifactRepository) {
		r.now = now
	}
}

func NewArtifactRepository(client *Client, opts ...ArtifactRepositoryOption) *ArtifactRepository {
	r := &ArtifactRepository{
		client: client,
		tx:     NewTxManager(client),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *ArtifactRepository) table(ctx context.Context, kind entity.ArtifactKind) *gorm.DB {
	return getDB(ctx, r.client.db).Table(kind.TableName())
}

func (r *ArtifactRepository) Create(ctx context.Context, artifact *entity.Artifact) error {
	ctx, span := tracer.Start(ctx, "postgres.ArtifactRepository.Create")
	defer span.End()

	if !artifact.Kind.Valid() {
		return fmt.Errorf("invalid artifact kind %q", artifact.Kind)
	}
	span.SetAttributes(attribute.String("artifact.kind", string(artifact.Kind)))

	// 创建时间由存储在写入时确定，精度对齐 timestamptz
	artifact.ID = 0
	artifact.CreatedAt = r.now().UTC().Truncate(time.Microsecond)

	if err := r.table(ctx, artifact.Kind).Create(artifact).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create artifact: %w", err)
	}
	span.SetAttributes(attribute.Int64("artifact.id", int64(artifact.ID)))
	return nil
}

func (r *ArtifactRepository) List(ctx context.Context, kind entity.ArtifactKind, ownerID *string) ([]*entity.Artifact, error) {
	ctx, span := tracer.Start(ctx, "postgres.ArtifactRepository.List")
	defer span.End()

	query := r.table(ctx, kind)
	if ownerID != nil {
		query = query.Where("owner_id = ?", *ownerID)
	}

	var arts []*entity.Artifact
	if err := query.Order("created_at DESC").Order("id DESC").Find(&arts).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	for _, a := range arts {
		hydrate(a, kind)
	}
	return arts, nil
}

func (r *ArtifactRepository) GetByID(ctx context.Context, kind entity.ArtifactKind, id uint64) (*entity.Artifact, error) {
	ctx, span := tracer.Start(ctx, "postgres.ArtifactRepository.GetByID")
	defer span.End()

	var art entity.Artifact
	if err := r.table(ctx, kind).Where("id = ?", id).Take(&art).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get artifact: %w", err)
	}
	hydrate(&art, kind)
	return &art, nil
}

func (r *ArtifactRepository) DeleteByID(ctx context.Context, kind entity.ArtifactKind, id uint64, ownerID *string) error {
	ctx, span := tracer.Start(ctx, "postgres.ArtifactRepository.DeleteByID")
	defer span.End()

	err := r.tx.WithTransaction(ctx, func(ctx context.Context) error {
		existing, err := r.GetByID(ctx, kind, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return repository.ErrArtifactNotFound
		}
		if ownerID != nil && !existing.OwnedBy(*ownerID) {
			return repository.ErrArtifactNotOwned
		}

		result := r.table(ctx, kind).Where("id = ?", id).Delete(&entity.Artifact{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete artifact: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return repository.ErrArtifactNotFound
		}
		return nil
	})
	if err != nil && !errors.Is(err, repository.ErrArtifactNotFound) && !errors.Is(err, repository.ErrArtifactNotOwned) {
		span.RecordError(err)
	}
	return err
}

// hydrate 补齐不落库的字段
func hydrate(a *entity.Artifact, kind entity.ArtifactKind) {
	a.Kind = kind
	a.CreatedAt = a.CreatedAt.UTC()
	if a.LearningObjectives == nil {
		a.LearningObjectives = entity.StringList{}
	}
}
