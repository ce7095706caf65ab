package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuizQuestion_IsCorrect(t *testing.T) {
	q := QuizQuestion{
		Question:      "Capital of France?",
		Options:       []string{"Paris", "Lyon"},
		CorrectAnswer: "Paris ",
	}

	assert.True(t, q.IsCorrect("paris"))
	assert.True(t, q.IsCorrect("  PARIS"))
	assert.False(t, q.IsCorrect("Lyon"))
	assert.False(t, q.IsCorrect(""))

	// 正确答案为空时任何选择都不算对
	assert.False(t, QuizQuestion{CorrectAnswer: "  "}.IsCorrect(" "))
}

func TestGradeQuiz(t *testing.T) {
	questions := []QuizQuestion{
		{Question: "q1", Options: []string{"a", "b"}, CorrectAnswer: "a"},
		{Question: "q2", Options: []string{"c", "d"}, CorrectAnswer: "D"},
		{Question: "q3", Options: []string{"e", "f"}, CorrectAnswer: "e", Explanation: "because"},
	}

	res := GradeQuiz(questions, []string{"A", "c"})

	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 1, res.Correct)
	assert.Equal(t, 33, res.Score)
	assert.Len(t, res.Results, 3)
	assert.True(t, res.Results[0].Correct)
	assert.False(t, res.Results[1].Correct)
	assert.Equal(t, "", res.Results[2].Selected)
	assert.Equal(t, "because", res.Results[2].Explanation)
}

func TestGradeQuiz_Empty(t *testing.T) {
	res := GradeQuiz(nil, []string{"x"})
	assert.Equal(t, 0, res.Total)
	assert.Equal(t, 0, res.Score)
	assert.NotNil(t, res.Results)
}

func TestGradeQuiz_AllCorrectRoundsTo100(t *testing.T) {
	questions := []QuizQuestion{
		{CorrectAnswer: "x"}, {CorrectAnswer: "y"},
	}
	res := GradeQuiz(questions, []string{"x", "Y "})
	assert.Equal(t, 100, res.Score)
}
