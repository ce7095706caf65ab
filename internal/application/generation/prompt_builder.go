package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"edu-lesson-ai-api/internal/domain/entity"
	workflowprompt "edu-lesson-ai-api/internal/workflow/prompt"
)

// Prompt 渲染后的 system + user 消息
type Prompt struct {
	Messages []*schema.Message
}

// Text 拼接为单个提示词文本
func (p *Prompt) Text() string {
	parts := make([]string, 0, len(p.Messages))
	for _, m := range p.Messages {
		parts = append(parts, m.Content)
	}
	return strings.Join(parts, "\n\n")
}

// PromptBuilder 纯函数式渲染，同一请求输出逐字节一致
type PromptBuilder struct {
	registry *workflowprompt.Registry
}

func NewPromptBuilder(registry *workflowprompt.Registry) *PromptBuilder {
	return &PromptBuilder{registry: registry}
}

func (b *PromptBuilder) Build(ctx context.Context, id workflowprompt.PromptID, req *entity.GenerationRequest) (*Prompt, error) {
	if req == nil {
		return nil, fmt.Errorf("request is nil")
	}
	tpl, err := b.registry.ChatTemplate(id)
	if err != nil {
		return nil, err
	}
	msgs, err := tpl.Format(ctx, promptVars(req))
	if err != nil {
		return nil, fmt.Errorf("format prompt %s: %w", id, err)
	}
	return &Prompt{Messages: msgs}, nil
}

func promptVars(req *entity.GenerationRequest) map[string]any {
	return map[string]any{
		"subject":           req.Subject,
		"topic":             req.Topic,
		"curriculum":        req.Curriculum,
		"learnerLevel":      string(req.LearnerLevel),
		"objectives":        numberedList(req.LearningObjectives),
		"additionalContext": strings.TrimSpace(req.AdditionalContext),
	}
}

func numberedList(items []string) string {
	var sb strings.Builder
	for i, item := range items {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%d. %s", i+1, item)
	}
	return sb.String()
}
