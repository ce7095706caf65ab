package postgres

import (
	"context"
	"fmt"

	"edu-lesson-ai-api/internal/domain/entity"
)

// AutoMigrate 为每种产物建表
func AutoMigrate(ctx context.Context, client *Client) error {
	for _, kind := range []entity.ArtifactKind{entity.ArtifactKindContent, entity.ArtifactKindLesson} {
		if err := client.db.WithContext(ctx).Table(kind.TableName()).AutoMigrate(&entity.Artifact{}); err != nil {
			return fmt.Errorf("failed to migrate %s: %w", kind.TableName(), err)
		}
	}
	return nil
}
