package generation

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edu-lesson-ai-api/internal/domain/entity"
	workflowprompt "edu-lesson-ai-api/internal/workflow/prompt"
)

func sampleRequest() *entity.GenerationRequest {
	return &entity.GenerationRequest{
		Subject:            "Physics",
		Topic:              "Newton's Third Law",
		Curriculum:         "AP",
		LearnerLevel:       entity.LearnerLevelIntermediate,
		LearningObjectives: []string{"Understand force pairs", "Identify action and reaction"},
	}
}

func TestPromptBuilder_Deterministic(t *testing.T) {
	b := NewPromptBuilder(workflowprompt.NewRegistry())
	ctx := context.Background()

	p1, err := b.Build(ctx, workflowprompt.PromptContentV1, sampleRequest())
	require.NoError(t, err)
	p2, err := NewPromptBuilder(workflowprompt.NewRegistry()).Build(ctx, workflowprompt.PromptContentV1, sampleRequest())
	require.NoError(t, err)

	assert.Equal(t, p1.Text(), p2.Text())
}

func TestPromptBuilder_Content(t *testing.T) {
	p, err := NewPromptBuilder(workflowprompt.NewRegistry()).Build(context.Background(), workflowprompt.PromptContentV1, sampleRequest())
	require.NoError(t, err)
	require.Len(t, p.Messages, 2)
	assert.Equal(t, schema.System, p.Messages[0].Role)
	assert.Equal(t, schema.User, p.Messages[1].Role)

	text := p.Text()
	assert.Contains(t, text, "Excluded to prevent factual or curriculum deviation.")
	assert.Contains(t, text, `"practiceQuestion"`)
	assert.Contains(t, text, "NO solution")
	assert.Contains(t, text, "Subject: Physics")
	assert.Contains(t, text, "Topic: Newton's Third Law")
	assert.Contains(t, text, "Learner Level: Intermediate")
	assert.Contains(t, text, "1. Understand force pairs\n2. Identify action and reaction")
	assert.NotContains(t, text, "Additional Context")
	assert.NotContains(t, text, "animationCode")
}

func TestPromptBuilder_LessonWithContext(t *testing.T) {
	req := sampleRequest()
	req.AdditionalContext = "Use sports examples"

	p, err := NewPromptBuilder(workflowprompt.NewRegistry()).Build(context.Background(), workflowprompt.PromptLessonV1, req)
	require.NoError(t, err)

	text := p.Text()
	assert.Contains(t, text, "Additional Context: Use sports examples")
	assert.Contains(t, text, `"animationCode"`)
	assert.Contains(t, text, `"quiz"`)
}

func TestPromptBuilder_UnknownPrompt(t *testing.T) {
	_, err := NewPromptBuilder(workflowprompt.NewRegistry()).Build(context.Background(), "missing_v9", sampleRequest())
	assert.Error(t, err)
}
