// Package entity 定义领域实体
package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// ArtifactKind 产物类型，决定持久化目标表与输出形态
type ArtifactKind string

const (
	ArtifactKindContent ArtifactKind = "content"
	ArtifactKindLesson  ArtifactKind = "lesson"
)

// TableName 每种产物落在各自的表中
func (k ArtifactKind) TableName() string {
	switch k {
	case ArtifactKindLesson:
		return "lessons"
	default:
		return "content_generations"
	}
}

// Valid 是否为已知类型
func (k ArtifactKind) Valid() bool {
	return k == ArtifactKindContent || k == ArtifactKindLesson
}

// StringList 有序文本列表
// PostgreSQL 下为 text[]，其他方言以数组字面量文本存储
type StringList []string

// Value 实现 driver.Valuer
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	return pq.StringArray(l).Value()
}

// Scan 实现 sql.Scanner
func (l *StringList) Scan(src any) error {
	var arr pq.StringArray
	if err := arr.Scan(src); err != nil {
		return fmt.Errorf("scan string list: %w", err)
	}
	if arr == nil {
		arr = pq.StringArray{}
	}
	*l = StringList(arr)
	return nil
}

// GormDBDataType 按方言选择列类型
func (StringList) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

// Artifact 一次生成的持久化结果，写入后不可变
type Artifact struct {
	ID                 uint64       `json:"id" gorm:"primaryKey;autoIncrement"`
	Kind               ArtifactKind `json:"kind" gorm:"-"`
	OwnerID            *string      `json:"ownerId,omitempty" gorm:"type:varchar(255);index"`
	Subject            string       `json:"subject" gorm:"not null"`
	Topic              string       `json:"topic" gorm:"not null"`
	Curriculum         string       `json:"curriculum" gorm:"not null"`
	LearnerLevel       LearnerLevel `json:"learnerLevel" gorm:"type:varchar(32);not null"`
	LearningObjectives StringList   `json:"learningObjectives" gorm:"not null"`
	AdditionalContext  string       `json:"additionalContext" gorm:"not null;default:''"`

	Content datatypes.JSONType[ArtifactContent] `json:"content" gorm:"not null"`

	CreatedAt time.Time `json:"createdAt" gorm:"index;not null;autoCreateTime:false"`
}

// NewArtifact 由已校验的请求与规范化内容组装待写入的产物
func NewArtifact(kind ArtifactKind, req *GenerationRequest, content ArtifactContent, ownerID *string) *Artifact {
	objectives := make(StringList, len(req.LearningObjectives))
	copy(objectives, req.LearningObjectives)
	return &Artifact{
		Kind:               kind,
		OwnerID:            ownerID,
		Subject:            req.Subject,
		Topic:              req.Topic,
		Curriculum:         req.Curriculum,
		LearnerLevel:       req.LearnerLevel,
		LearningObjectives: objectives,
		AdditionalContext:  req.AdditionalContext,
		Content:            datatypes.NewJSONType(content),
	}
}

// Payload 返回规范化内容
func (a *Artifact) Payload() ArtifactContent {
	return a.Content.Data()
}

// OwnedBy 判断是否归属指定用户
func (a *Artifact) OwnedBy(userID string) bool {
	return a.OwnerID != nil && *a.OwnerID == userID
}

// ArtifactContent 规范化后的模型输出，所有字段始终存在
type ArtifactContent struct {
	TopicOverview          string            `json:"topicOverview"`
	CoreExplanation        string            `json:"coreExplanation"`
	CurriculumBasedExample string            `json:"curriculumBasedExample"`
	PracticeQuestion       string            `json:"practiceQuestion"`
	KeyTakeaways           []string          `json:"keyTakeaways"`
	ObjectiveTraceability  map[string]string `json:"objectiveTraceability"`
	InstructorReviewNotes  string            `json:"instructorReviewNotes"`

	FactualCorrectness   int `json:"factualCorrectness"`
	CurriculumAlignment  int `json:"curriculumAlignment"`
	LevelAppropriateness int `json:"levelAppropriateness"`
	BiasSafety           int `json:"biasSafety"`

	// 课程形态特有，content 形态序列化时省略
	AnimationCode string         `json:"animationCode"`
	Quiz          []QuizQuestion `json:"quiz"`

	lesson bool
}

// EmptyContent 所有字段均为空默认值的内容
func EmptyContent() ArtifactContent {
	return ArtifactContent{
		KeyTakeaways:          []string{},
		ObjectiveTraceability: map[string]string{},
		Quiz:                  []QuizQuestion{},
	}
}

// EmptyLessonContent 课程形态的空内容，animationCode 与 quiz 始终输出
func EmptyLessonContent() ArtifactContent {
	c := EmptyContent()
	c.lesson = true
	return c
}

// IsLesson 是否为课程形态
func (c ArtifactContent) IsLesson() bool {
	return c.lesson
}

type contentFields ArtifactContent

// contentOnly 外层同名字段遮蔽内嵌字段，nil 时整个键被省略
type contentOnly struct {
	contentFields
	AnimationCode *string         `json:"animationCode,omitempty"`
	Quiz          *[]QuizQuestion `json:"quiz,omitempty"`
}

// MarshalJSON content 形态不输出课程字段
func (c ArtifactContent) MarshalJSON() ([]byte, error) {
	if c.lesson {
		return json.Marshal(contentFields(c))
	}
	return json.Marshal(contentOnly{contentFields: contentFields(c)})
}

// UnmarshalJSON 依据课程字段是否出现还原形态
func (c *ArtifactContent) UnmarshalJSON(data []byte) error {
	var fields contentFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	var keys struct {
		AnimationCode json.RawMessage `json:"animationCode"`
		Quiz          json.RawMessage `json:"quiz"`
	}
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	*c = ArtifactContent(fields)
	c.lesson = keys.AnimationCode != nil || keys.Quiz != nil
	if c.Quiz == nil {
		c.Quiz = []QuizQuestion{}
	}
	return nil
}
