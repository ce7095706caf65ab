package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"edu-lesson-ai-api/internal/config"
	workflowport "edu-lesson-ai-api/internal/workflow/port"
)

// completion SDK 适配器的一次调用结果
type completion struct {
	content          string
	promptTokens     int
	completionTokens int
}

// completeFunc SDK 调用：system 为合并后的系统提示，turns 为其余消息
type completeFunc func(ctx context.Context, req *completionRequest) (*completion, error)

type completionRequest struct {
	system      string
	turns       []*schema.Message
	model       string
	maxTokens   int
	temperature *float32
	jsonObject  bool
}

// SDKChatModel 把非 eino-ext 的 SDK 包装为 model.BaseChatModel，并自行触发 eino 回调
type SDKChatModel struct {
	typ      string
	defaults config.ProviderConfig
	complete completeFunc
}

func (m *SDKChatModel) GetType() string { return m.typ }

func (m *SDKChatModel) IsCallbacksEnabled() bool { return true }

func (m *SDKChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (outMsg *schema.Message, err error) {
	ctx = callbacks.EnsureRunInfo(ctx, m.typ, components.ComponentOfChatModel)

	req := m.buildRequest(input, opts...)
	cbConfig := &model.Config{Model: req.model, MaxTokens: req.maxTokens}
	if req.temperature != nil {
		cbConfig.Temperature = *req.temperature
	}

	ctx = callbacks.OnStart(ctx, &model.CallbackInput{Messages: input, Config: cbConfig})
	defer func() {
		if err != nil {
			callbacks.OnError(ctx, err)
		}
	}()

	res, err := m.complete(ctx, req)
	if err != nil {
		return nil, err
	}

	usage := &schema.TokenUsage{
		PromptTokens:     res.promptTokens,
		CompletionTokens: res.completionTokens,
		TotalTokens:      res.promptTokens + res.completionTokens,
	}
	outMsg = &schema.Message{
		Role:         schema.Assistant,
		Content:      res.content,
		ResponseMeta: &schema.ResponseMeta{Usage: usage},
	}

	callbacks.OnEnd(ctx, &model.CallbackOutput{
		Message: outMsg,
		Config:  cbConfig,
		TokenUsage: &model.TokenUsage{
			PromptTokens:     usage.PromptTokens,
			CompletionTokens: usage.CompletionTokens,
			TotalTokens:      usage.TotalTokens,
		},
	})
	return outMsg, nil
}

// Stream 生成接口只使用同步调用，这里以单帧流返回
func (m *SDKChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (m *SDKChatModel) buildRequest(input []*schema.Message, opts ...model.Option) *completionRequest {
	temperature := float32(m.defaults.Temperature)
	common := model.GetCommonOptions(&model.Options{
		Model:       &m.defaults.Model,
		MaxTokens:   &m.defaults.MaxTokens,
		Temperature: &temperature,
	}, opts...)
	rf := model.GetImplSpecificOptions(&workflowport.ResponseFormatOptions{}, opts...)

	req := &completionRequest{jsonObject: rf.JSONObject}
	if common.Model != nil {
		req.model = *common.Model
	}
	if common.MaxTokens != nil {
		req.maxTokens = *common.MaxTokens
	}
	req.temperature = common.Temperature

	var system []string
	for _, msg := range input {
		if msg == nil {
			continue
		}
		if msg.Role == schema.System {
			system = append(system, msg.Content)
			continue
		}
		req.turns = append(req.turns, msg)
	}
	req.system = strings.Join(system, "\n\n")
	return req
}

// httpStatusError 统一非 2xx 错误文案
func httpStatusError(provider string, err error) error {
	return fmt.Errorf("%s request failed: %w", provider, err)
}
