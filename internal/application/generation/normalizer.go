package generation

import (
	"math"
	"strings"

	"github.com/spf13/cast"
	"github.com/tidwall/gjson"

	"edu-lesson-ai-api/internal/domain/entity"
	wfnode "edu-lesson-ai-api/internal/workflow/node"
)

// Report 规范化过程中被补默认值或做了类型转换的字段
type Report struct {
	InvalidJSON bool
	Defaulted   []string
	Coerced     []string
	DroppedQuiz int
}

func (r *Report) defaulted(field string) { r.Defaulted = append(r.Defaulted, field) }
func (r *Report) coerced(field string) { r.Coerced = append(r.Coerced, field) }

// 分数等字段可能被包进一层子对象
var nestedContainers = []string{"audit", "safetyScores", "scores", "safetyAudit", "safety", "content"}

var (
	keysTopicOverview   = []string{"topicOverview", "overview", "topic_overview"}
	keysCoreExplanation = []string{"coreExplanation", "explanation", "core_explanation"}
	keysExample         = []string{"curriculumBasedExample", "example", "curriculum_based_example", "curriculumExample"}
	keysPractice        = []string{"practiceQuestion", "practice_question", "practice"}
	keysTakeaways       = []string{"keyTakeaways", "key_takeaways", "takeaways"}
	keysTraceability    = []string{"objectiveTraceability", "objective_traceability", "traceability"}
	keysReviewNotes     = []string{"instructorReviewNotes", "instructor_review_notes", "reviewNotes", "notes"}
	keysAnimation       = []string{"animationCode", "animation_code", "animation"}
	keysQuiz            = []string{"quiz", "quizzes", "questions"}

	scoreKeys = []struct {
		field string
		keys  []string
		dst   func(c *entity.ArtifactContent) *int
	}{
		{"factualCorrectness", []string{"factualCorrectness", "factual_correctness", "factual"},
			func(c *entity.ArtifactContent) *int { return &c.FactualCorrectness }},
		{"curriculumAlignment", []string{"curriculumAlignment", "curriculum_alignment", "alignment"},
			func(c *entity.ArtifactContent) *int { return &c.CurriculumAlignment }},
		{"levelAppropriateness", []string{"levelAppropriateness", "level_appropriateness"},
			func(c *entity.ArtifactContent) *int { return &c.LevelAppropriateness }},
		{"biasSafety", []string{"biasSafety", "bias_safety", "bias"},
			func(c *entity.ArtifactContent) *int { return &c.BiasSafety }},
	}
)

type textField struct {
	field string
	keys  []string
	dst   *string
}

// Normalize 把模型返回的任意文本转为字段完整的内容；不返回错误
func Normalize(raw string, shape OutputShape) (entity.ArtifactContent, Report) {
	var rep Report
	out := entity.EmptyContent()
	if shape == ShapeLesson {
		out = entity.EmptyLessonContent()
	}

	text := wfnode.ExtractJSONObject(raw)
	root := gjson.Parse(text)
	if !gjson.Valid(text) || !root.IsObject() {
		rep.InvalidJSON = true
		root = gjson.Parse("{}")
	}

	textFields := []textField{
		{"topicOverview", keysTopicOverview, &out.TopicOverview},
		{"coreExplanation", keysCoreExplanation, &out.CoreExplanation},
		{"curriculumBasedExample", keysExample, &out.CurriculumBasedExample},
		{"practiceQuestion", keysPractice, &out.PracticeQuestion},
		{"instructorReviewNotes", keysReviewNotes, &out.InstructorReviewNotes},
	}
	if shape == ShapeLesson {
		textFields = append(textFields, textField{"animationCode", keysAnimation, &out.AnimationCode})
	}
	for _, f := range textFields {
		s, coerced, ok := toText(find(root, f.keys))
		if !ok {
			rep.defaulted(f.field)
			continue
		}
		if coerced {
			rep.coerced(f.field)
		}
		*f.dst = s
	}

	if list, coerced, ok := toList(find(root, keysTakeaways)); ok {
		out.KeyTakeaways = list
		if coerced {
			rep.coerced("keyTakeaways")
		}
	} else {
		rep.defaulted("keyTakeaways")
	}

	if m, coerced, ok := toTraceability(find(root, keysTraceability)); ok {
		out.ObjectiveTraceability = m
		if coerced {
			rep.coerced("objectiveTraceability")
		}
	} else {
		rep.defaulted("objectiveTraceability")
	}

	for _, sk := range scoreKeys {
		score, coerced, ok := toScore(find(root, sk.keys))
		if !ok {
			rep.defaulted(sk.field)
			continue
		}
		if coerced {
			rep.coerced(sk.field)
		}
		*sk.dst(&out) = score
	}

	if shape == ShapeLesson {
		quiz, dropped, ok := toQuiz(find(root, keysQuiz))
		if !ok {
			rep.defaulted("quiz")
		}
		out.Quiz = quiz
		rep.DroppedQuiz = dropped
	}

	return out, rep
}

// find 先在顶层按候选键查找，再到常见的嵌套容器里找
func find(root gjson.Result, keys []string) gjson.Result {
	if r, ok := firstPresent(root, keys); ok {
		return r
	}
	for _, c := range nestedContainers {
		sub := root.Get(c)
		if !sub.IsObject() {
			continue
		}
		if r, ok := firstPresent(sub, keys); ok {
			return r
		}
	}
	return gjson.Result{}
}

func firstPresent(obj gjson.Result, keys []string) (gjson.Result, bool) {
	for _, k := range keys {
		r := obj.Get(gjsonEscape(k))
		if r.Exists() && r.Type != gjson.Null {
			return r, true
		}
	}
	return gjson.Result{}, false
}

var gjsonEscaper = strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`, "|", `\|`, "#", `\#`, "@", `\@`)

func gjsonEscape(k string) string {
	return gjsonEscaper.Replace(k)
}

func isScalar(r gjson.Result) bool {
	switch r.Type {
	case gjson.String, gjson.Number, gjson.True, gjson.False:
		return true
	default:
		return false
	}
}

// toText 标量转文本；标量数组按行拼接
func toText(r gjson.Result) (s string, coerced bool, ok bool) {
	switch {
	case r.Type == gjson.String:
		return strings.TrimSpace(r.String()), false, true
	case isScalar(r):
		return cast.ToString(r.Value()), true, true
	case r.IsArray():
		var lines []string
		for _, item := range r.Array() {
			if !isScalar(item) {
				continue
			}
			if line := strings.TrimSpace(cast.ToString(item.Value())); line != "" {
				lines = append(lines, line)
			}
		}
		if len(lines) == 0 {
			return "", false, false
		}
		return strings.Join(lines, "\n"), true, true
	default:
		return "", false, false
	}
}

// toList 数组取标量元素；字符串按行拆分并去掉列表符号
func toList(r gjson.Result) (list []string, coerced bool, ok bool) {
	switch {
	case r.IsArray():
		list = make([]string, 0)
		for _, item := range r.Array() {
			if !isScalar(item) {
				coerced = true
				continue
			}
			if item.Type != gjson.String {
				coerced = true
			}
			if s := strings.TrimSpace(cast.ToString(item.Value())); s != "" {
				list = append(list, s)
			}
		}
		return list, coerced, true
	case r.Type == gjson.String:
		list = make([]string, 0)
		for _, line := range strings.Split(r.String(), "\n") {
			line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*•"))
			if line != "" {
				list = append(list, line)
			}
		}
		return list, true, true
	default:
		return nil, false, false
	}
}

// toTraceability 接受对象，或 [{objective, coverage}] 形式的数组
func toTraceability(r gjson.Result) (m map[string]string, coerced bool, ok bool) {
	switch {
	case r.IsObject():
		m = make(map[string]string)
		r.ForEach(func(key, value gjson.Result) bool {
			s, c, ok := toText(value)
			if !ok {
				coerced = true
				return true
			}
			if c {
				coerced = true
			}
			m[key.String()] = s
			return true
		})
		return m, coerced, true
	case r.IsArray():
		m = make(map[string]string)
		for _, item := range r.Array() {
			if !item.IsObject() {
				continue
			}
			objective, _, ok := toText(item.Get("objective"))
			if !ok || objective == "" {
				continue
			}
			coverage, _, _ := toText(firstOf(item, "coverage", "description", "covered"))
			m[objective] = coverage
		}
		return m, true, true
	default:
		return nil, false, false
	}
}

func firstOf(obj gjson.Result, keys ...string) gjson.Result {
	r, _ := firstPresent(obj, keys)
	return r
}

// toScore 接受数字、数字字符串、"95%"、"9/10"；四舍五入并限制在 0-100
func toScore(r gjson.Result) (score int, coerced bool, ok bool) {
	var f float64
	switch r.Type {
	case gjson.Number:
		f = r.Float()
		coerced = f != math.Trunc(f)
	case gjson.String:
		v, parsed := parseScoreText(r.String())
		if !parsed {
			return 0, false, false
		}
		f, coerced = v, true
	default:
		return 0, false, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false, false
	}
	if f < 0 || f > 100 {
		coerced = true
	}
	// 先在浮点域截断，超出 int 范围的值不会溢出
	return int(math.Round(clampScore(f))), coerced, true
}

func parseScoreText(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if strings.HasSuffix(s, "%") {
		v, err := cast.ToFloat64E(strings.TrimSpace(strings.TrimSuffix(s, "%")))
		return v, err == nil
	}
	if num, den, found := strings.Cut(s, "/"); found {
		n, err1 := cast.ToFloat64E(strings.TrimSpace(num))
		d, err2 := cast.ToFloat64E(strings.TrimSpace(den))
		if err1 != nil || err2 != nil || d <= 0 {
			return 0, false
		}
		return n / d * 100, true
	}
	v, err := cast.ToFloat64E(s)
	return v, err == nil
}

func clampScore(f float64) float64 {
	return math.Min(100, math.Max(0, f))
}
