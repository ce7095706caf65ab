package dto

// GradeQuizRequest answers[i] 为第 i 题所选选项文本
type GradeQuizRequest struct {
	Answers []string `json:"answers" binding:"required"`
}
