package generation

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"edu-lesson-ai-api/internal/domain/entity"
	apperrors "edu-lesson-ai-api/pkg/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// 旧版课程客户端使用的字段名
var fieldAliases = map[string][]string{
	"learnerLevel":       {"level"},
	"learningObjectives": {"objectives"},
}

// Validator 生成请求校验，按固定字段顺序只报告第一个错误
type Validator struct {
	levels        []entity.LearnerLevel
	levelTag      string
	minObjectives int
}

func NewValidator(levels []entity.LearnerLevel, minObjectives int) *Validator {
	names := make([]string, 0, len(levels))
	for _, l := range levels {
		names = append(names, string(l))
	}
	if minObjectives < 1 {
		minObjectives = 1
	}
	return &Validator{
		levels:        levels,
		levelTag:      "required,oneof=" + strings.Join(names, " "),
		minObjectives: minObjectives,
	}
}

// Validate raw 为解码后的 JSON 请求体
func (v *Validator) Validate(raw any) (*entity.GenerationRequest, error) {
	body, ok := raw.(map[string]any)
	if !ok {
		return nil, apperrors.Validation("body", "request body must be a JSON object")
	}

	req := &entity.GenerationRequest{}
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{"subject", &req.Subject},
		{"topic", &req.Topic},
		{"curriculum", &req.Curriculum},
	} {
		s, err := requiredString(body, f.name)
		if err != nil {
			return nil, err
		}
		*f.dst = s
	}

	level, err := optionalString(body, "learnerLevel")
	if err != nil {
		return nil, err
	}
	if validate.Var(level, v.levelTag) != nil {
		return nil, apperrors.Validation("learnerLevel", "learnerLevel must be one of: "+v.levelList())
	}
	req.LearnerLevel = entity.LearnerLevel(level)

	objectives, err := v.objectives(body)
	if err != nil {
		return nil, err
	}
	req.LearningObjectives = objectives

	if req.AdditionalContext, err = optionalString(body, "additionalContext"); err != nil {
		return nil, err
	}
	return req, nil
}

func (v *Validator) objectives(body map[string]any) ([]string, error) {
	const field = "learningObjectives"

	val, _ := lookup(body, field)
	var items []any
	switch t := val.(type) {
	case nil:
	case []any:
		items = t
	case []string:
		for _, s := range t {
			items = append(items, s)
		}
	default:
		return nil, apperrors.Validation(field, field+" must be an array of strings")
	}

	if validate.Var(items, fmt.Sprintf("min=%d", v.minObjectives)) != nil {
		return nil, apperrors.Validation(field, fmt.Sprintf("%s must contain at least %d item(s)", field, v.minObjectives))
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, apperrors.Validation(field, field+" must be an array of strings")
		}
		out = append(out, strings.TrimSpace(s))
	}
	if validate.Var(out, "dive,required") != nil {
		return nil, apperrors.Validation(field, field+" must not contain empty items")
	}
	return out, nil
}

func (v *Validator) levelList() string {
	names := make([]string, 0, len(v.levels))
	for _, l := range v.levels {
		names = append(names, string(l))
	}
	return strings.Join(names, ", ")
}

func requiredString(body map[string]any, field string) (string, error) {
	s, err := optionalString(body, field)
	if err != nil {
		return "", err
	}
	if validate.Var(s, "required") != nil {
		return "", apperrors.Validation(field, field+" is required")
	}
	return s, nil
}

// optionalString 缺失或 null 视为空串；其他非字符串类型报错
func optionalString(body map[string]any, field string) (string, error) {
	val, _ := lookup(body, field)
	switch t := val.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(t), nil
	default:
		return "", apperrors.Validation(field, field+" must be a string")
	}
}

func lookup(body map[string]any, field string) (any, bool) {
	if val, ok := body[field]; ok && val != nil {
		return val, true
	}
	for _, alias := range fieldAliases[field] {
		if val, ok := body[alias]; ok && val != nil {
			return val, true
		}
	}
	return nil, false
}
