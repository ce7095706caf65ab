package entity

// LearnerLevel 学习者水平
type LearnerLevel string

const (
	LearnerLevelBeginner     LearnerLevel = "Beginner"
	LearnerLevelIntermediate LearnerLevel = "Intermediate"
	LearnerLevelAdvanced     LearnerLevel = "Advanced"
	LearnerLevelExpert       LearnerLevel = "Expert"
)

// GenerationRequest 经过校验的生成请求，仅在请求期内存在
type GenerationRequest struct {
	Subject            string
	Topic              string
	Curriculum         string
	LearnerLevel       LearnerLevel
	LearningObjectives []string
	AdditionalContext  string
}
