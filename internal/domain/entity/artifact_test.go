package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtifactContent_JSONShape(t *testing.T) {
	content := EmptyContent()
	content.TopicOverview = "o"
	b, err := json.Marshal(content)
	require.NoError(t, err)
	assert.NotContains(t, string(b), `"animationCode"`)
	assert.NotContains(t, string(b), `"quiz"`)
	assert.Contains(t, string(b), `"keyTakeaways":[]`)

	lesson := EmptyLessonContent()
	b, err = json.Marshal(lesson)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"animationCode":""`)
	assert.Contains(t, string(b), `"quiz":[]`)
}

func TestArtifactContent_RoundTripKeepsShape(t *testing.T) {
	lesson := EmptyLessonContent()
	lesson.AnimationCode = "<html></html>"
	lesson.Quiz = []QuizQuestion{{Question: "q", Options: []string{"a", "b"}, CorrectAnswer: "a"}}

	for _, c := range []ArtifactContent{EmptyContent(), lesson} {
		b, err := json.Marshal(c)
		require.NoError(t, err)
		var got ArtifactContent
		require.NoError(t, json.Unmarshal(b, &got))
		assert.Equal(t, c, got)
		assert.Equal(t, c.IsLesson(), got.IsLesson())
	}
}

func TestArtifact_ContentSerializedThroughJSONType(t *testing.T) {
	req := &GenerationRequest{Subject: "s", Topic: "t", Curriculum: "c", LearnerLevel: LearnerLevelBeginner}
	a := NewArtifact(ArtifactKindContent, req, EmptyContent(), nil)
	b, err := json.Marshal(a)
	require.NoError(t, err)
	assert.NotContains(t, string(b), `"quiz"`)

	var back Artifact
	require.NoError(t, json.Unmarshal(b, &back))
	assert.False(t, back.Payload().IsLesson())
	assert.NotNil(t, back.Payload().Quiz)
}
