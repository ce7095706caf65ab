// Package generation 生成流水线：校验 → 提示词 → 模型调用 → 规范化 → 持久化
package generation

import (
	"edu-lesson-ai-api/internal/domain/entity"
	workflowprompt "edu-lesson-ai-api/internal/workflow/prompt"
)

// OutputShape 模型输出形态
type OutputShape int

const (
	// ShapeContent 基础内容：概述、讲解、示例、练习题、要点、审计
	ShapeContent OutputShape = iota
	// ShapeLesson 在基础内容上增加动画代码与测验
	ShapeLesson
)

// Variant 一条生成流水线的参数集合
type Variant struct {
	Kind          entity.ArtifactKind
	PromptID      workflowprompt.PromptID
	Levels        []entity.LearnerLevel
	MinObjectives int
	// OwnerScoped 产物归属调用者，读写都需要身份
	OwnerScoped bool
	Shape       OutputShape
}

// ContentVariant 公共内容生成
func ContentVariant() Variant {
	return Variant{
		Kind:     entity.ArtifactKindContent,
		PromptID: workflowprompt.PromptContentV1,
		Levels: []entity.LearnerLevel{
			entity.LearnerLevelBeginner,
			entity.LearnerLevelIntermediate,
			entity.LearnerLevelAdvanced,
		},
		MinObjectives: 1,
		Shape:         ShapeContent,
	}
}

// LessonVariant 按用户归属的互动课程生成
func LessonVariant() Variant {
	return Variant{
		Kind:     entity.ArtifactKindLesson,
		PromptID: workflowprompt.PromptLessonV1,
		Levels: []entity.LearnerLevel{
			entity.LearnerLevelBeginner,
			entity.LearnerLevelIntermediate,
			entity.LearnerLevelAdvanced,
			entity.LearnerLevelExpert,
		},
		MinObjectives: 3,
		OwnerScoped:   true,
		Shape:         ShapeLesson,
	}
}

// WithPromptID 使用配置中指定的模板
func (v Variant) WithPromptID(id workflowprompt.PromptID) Variant {
	if id != "" {
		v.PromptID = id
	}
	return v
}

// Validator 按本变体的等级枚举与目标下限构造校验器
func (v Variant) Validator() *Validator {
	return NewValidator(v.Levels, v.MinObjectives)
}
