package llm

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cloudwego/eino/schema"

	"edu-lesson-ai-api/internal/config"
)

const defaultAnthropicMaxTokens = 4096

// NewAnthropicChatModel 基于 anthropic-sdk-go Messages API 的 ChatModel
// Anthropic 没有 json_object 模式，JSON 约束完全依赖提示词
func NewAnthropicChatModel(cfg config.ProviderConfig) *SDKChatModel {
	// 生成接口不重试，SDK 默认的两次重试需关闭
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	client := anthropic.NewClient(opts...)

	return &SDKChatModel{
		typ:      "Anthropic",
		defaults: cfg,
		complete: func(ctx context.Context, req *completionRequest) (*completion, error) {
			msg, err := client.Messages.New(ctx, buildMessageParams(req))
			if err != nil {
				return nil, httpStatusError("anthropic", err)
			}
			return &completion{
				content:          messageText(msg),
				promptTokens:     int(msg.Usage.InputTokens),
				completionTokens: int(msg.Usage.OutputTokens),
			}, nil
		},
	}
}

func buildMessageParams(req *completionRequest) anthropic.MessageNewParams {
	maxTokens := req.maxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.model),
		MaxTokens: int64(maxTokens),
		Messages:  convertAnthropicMessages(req.turns),
	}
	if req.system != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.system}}
	}
	if req.temperature != nil {
		params.Temperature = anthropic.Float(float64(*req.temperature))
	}
	return params
}

func convertAnthropicMessages(turns []*schema.Message) []anthropic.MessageParam {
	result := make([]anthropic.MessageParam, 0, len(turns))
	for _, msg := range turns {
		switch msg.Role {
		case schema.Assistant:
			result = append(result, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			result = append(result, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	return result
}

func messageText(msg *anthropic.Message) string {
	if msg == nil {
		return ""
	}
	var sb strings.Builder
	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			sb.WriteString(b.Text)
		}
	}
	return sb.String()
}
