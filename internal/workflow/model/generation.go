package model

import (
	"github.com/cloudwego/eino/schema"
)

// GenerateInput 一次外部模型调用的输入
type GenerateInput struct {
	// Workflow 用于指标与追踪标签，如 content / lesson
	Workflow string
	Provider string
	// Model 为空时使用提供商默认模型
	Model       string
	Messages    []*schema.Message
	Temperature *float32
	MaxTokens   *int
}

// GenerateOutput 模型原始输出
type GenerateOutput struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
}
