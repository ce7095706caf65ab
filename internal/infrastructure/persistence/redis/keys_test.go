package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"edu-lesson-ai-api/internal/domain/entity"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "artifact:lesson:42", ArtifactKey(entity.ArtifactKindLesson, 42))
	assert.Equal(t, "artifact:content:7", ArtifactKey(entity.ArtifactKindContent, 7))
	assert.Equal(t, "ratelimit:generate:user-1", BuildRateLimitKey("user-1", "generate"))
}
