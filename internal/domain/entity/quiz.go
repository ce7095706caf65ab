package entity

import (
	"math"
	"strings"
)

// QuizQuestion 测验题
type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

// NormalizeAnswer 比较答案前的统一处理：去首尾空白并忽略大小写
func NormalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// IsCorrect 判断所选选项是否为正确答案
func (q QuizQuestion) IsCorrect(selected string) bool {
	want := NormalizeAnswer(q.CorrectAnswer)
	return want != "" && want == NormalizeAnswer(selected)
}

// QuestionResult 单题批改结果
type QuestionResult struct {
	Index         int    `json:"index"`
	Selected      string `json:"selected"`
	CorrectAnswer string `json:"correctAnswer"`
	Correct       bool   `json:"correct"`
	Explanation   string `json:"explanation"`
}

// QuizResult 整份测验批改结果
type QuizResult struct {
	Correct int              `json:"correct"`
	Total   int              `json:"total"`
	Score   int              `json:"score"`
	Results []QuestionResult `json:"results"`
}

// GradeQuiz 按题目顺序批改，answers[i] 为第 i 题所选选项，缺失视为未作答
func GradeQuiz(questions []QuizQuestion, answers []string) QuizResult {
	res := QuizResult{
		Total:   len(questions),
		Results: make([]QuestionResult, 0, len(questions)),
	}
	for i, q := range questions {
		var selected string
		if i < len(answers) {
			selected = answers[i]
		}
		ok := selected != "" && q.IsCorrect(selected)
		if ok {
			res.Correct++
		}
		res.Results = append(res.Results, QuestionResult{
			Index:         i,
			Selected:      selected,
			CorrectAnswer: q.CorrectAnswer,
			Correct:       ok,
			Explanation:   q.Explanation,
		})
	}
	if res.Total > 0 {
		res.Score = int(math.Round(float64(res.Correct) / float64(res.Total) * 100))
	}
	return res
}
