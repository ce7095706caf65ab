package generation

import (
	"strings"

	"github.com/spf13/cast"
	"github.com/tidwall/gjson"

	"edu-lesson-ai-api/internal/domain/entity"
)

const minQuizOptions = 2

// toQuiz 丢弃无法确定正确答案的题目，保证 correctAnswer 一定等于某个选项
func toQuiz(r gjson.Result) (quiz []entity.QuizQuestion, dropped int, ok bool) {
	quiz = []entity.QuizQuestion{}
	if !r.IsArray() {
		return quiz, 0, false
	}
	for _, item := range r.Array() {
		q, valid := toQuizQuestion(item)
		if !valid {
			dropped++
			continue
		}
		quiz = append(quiz, q)
	}
	return quiz, dropped, true
}

func toQuizQuestion(item gjson.Result) (entity.QuizQuestion, bool) {
	if !item.IsObject() {
		return entity.QuizQuestion{}, false
	}

	question, _, ok := toText(firstOf(item, "question", "prompt", "text"))
	if !ok || question == "" {
		return entity.QuizQuestion{}, false
	}

	options := quizOptions(firstOf(item, "options", "choices", "answers"))
	if len(options) < minQuizOptions {
		return entity.QuizQuestion{}, false
	}

	answer, ok := resolveAnswer(firstOf(item, "correctAnswer", "correct_answer", "answer", "correct"), options)
	if !ok {
		return entity.QuizQuestion{}, false
	}

	explanation, _, _ := toText(firstOf(item, "explanation", "rationale"))
	return entity.QuizQuestion{
		Question:      question,
		Options:       options,
		CorrectAnswer: answer,
		Explanation:   explanation,
	}, true
}

// quizOptions 接受字符串数组，或 {"A": "...", "B": "..."} 形式的对象（保持原顺序）
func quizOptions(r gjson.Result) []string {
	var values []gjson.Result
	switch {
	case r.IsArray():
		values = r.Array()
	case r.IsObject():
		r.ForEach(func(_, v gjson.Result) bool {
			values = append(values, v)
			return true
		})
	}
	options := make([]string, 0, len(values))
	for _, v := range values {
		if !isScalar(v) {
			continue
		}
		if s := strings.TrimSpace(cast.ToString(v.Value())); s != "" {
			options = append(options, s)
		}
	}
	return options
}

// resolveAnswer 依次按选项文本、字母（A/B/…）、从 0 开始的下标匹配
func resolveAnswer(r gjson.Result, options []string) (string, bool) {
	switch r.Type {
	case gjson.Number:
		return optionAt(options, int(r.Int()))
	case gjson.String:
	default:
		return "", false
	}

	s := strings.TrimSpace(r.String())
	if s == "" {
		return "", false
	}
	if opt, ok := matchOption(s, options); ok {
		return opt, true
	}

	marker := strings.Trim(s, "()[]. ")
	if len(marker) == 1 {
		if c := strings.ToUpper(marker)[0]; c >= 'A' && c <= 'Z' {
			return optionAt(options, int(c-'A'))
		}
	}

	// "B) Paris"、"B. Paris"
	if len(s) > 2 && (s[1] == ')' || s[1] == '.') {
		if opt, ok := matchOption(s[2:], options); ok {
			return opt, true
		}
	}

	if idx, err := cast.ToIntE(s); err == nil {
		return optionAt(options, idx)
	}
	return "", false
}

func matchOption(s string, options []string) (string, bool) {
	want := entity.NormalizeAnswer(s)
	for _, opt := range options {
		if entity.NormalizeAnswer(opt) == want {
			return opt, true
		}
	}
	return "", false
}

func optionAt(options []string, idx int) (string, bool) {
	if idx < 0 || idx >= len(options) {
		return "", false
	}
	return options[idx], true
}
