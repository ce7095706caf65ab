package llm

import (
	"context"

	"github.com/cloudwego/eino/schema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"

	"edu-lesson-ai-api/internal/config"
)

// NewOpenAISDKChatModel 基于 openai-go Responses API 的 ChatModel
func NewOpenAISDKChatModel(cfg config.ProviderConfig) *SDKChatModel {
	// 生成接口不重试，SDK 默认的两次重试需关闭
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	client := openai.NewClient(opts...)

	return &SDKChatModel{
		typ:      "OpenAISDK",
		defaults: cfg,
		complete: func(ctx context.Context, req *completionRequest) (*completion, error) {
			result, err := client.Responses.New(ctx, buildResponseParams(req))
			if err != nil {
				return nil, httpStatusError("openai", err)
			}
			return &completion{
				content:          result.OutputText(),
				promptTokens:     int(result.Usage.InputTokens),
				completionTokens: int(result.Usage.OutputTokens),
			}, nil
		},
	}
}

func buildResponseParams(req *completionRequest) responses.ResponseNewParams {
	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(req.model),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: convertResponseInput(req),
		},
	}
	if req.maxTokens > 0 {
		params.MaxOutputTokens = openai.Int(int64(req.maxTokens))
	}
	if req.temperature != nil {
		params.Temperature = openai.Float(float64(*req.temperature))
	}
	if req.jsonObject {
		params.Text = responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
			},
		}
	}
	return params
}

func convertResponseInput(req *completionRequest) responses.ResponseInputParam {
	result := make(responses.ResponseInputParam, 0, len(req.turns)+1)
	if req.system != "" {
		result = append(result, responses.ResponseInputItemParamOfMessage(req.system, responses.EasyInputMessageRoleSystem))
	}
	for _, msg := range req.turns {
		switch msg.Role {
		case schema.Assistant:
			result = append(result, responses.ResponseInputItemParamOfMessage(msg.Content, responses.EasyInputMessageRoleAssistant))
		default:
			result = append(result, responses.ResponseInputItemParamOfMessage(msg.Content, responses.EasyInputMessageRoleUser))
		}
	}
	return result
}
