package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edu-lesson-ai-api/internal/config"
	workflowport "edu-lesson-ai-api/internal/workflow/port"
)

func TestSDKChatModel_BuildRequest(t *testing.T) {
	m := &SDKChatModel{defaults: config.ProviderConfig{Model: "default-model", MaxTokens: 100, Temperature: 0.5}}

	req := m.buildRequest([]*schema.Message{
		schema.SystemMessage("rule a"),
		schema.SystemMessage("rule b"),
		schema.UserMessage("hello"),
	}, model.WithModel("override"), workflowport.WithJSONObjectResponse(true))

	assert.Equal(t, "rule a\n\nrule b", req.system)
	require.Len(t, req.turns, 1)
	assert.Equal(t, "hello", req.turns[0].Content)
	assert.Equal(t, "override", req.model)
	assert.Equal(t, 100, req.maxTokens)
	require.NotNil(t, req.temperature)
	assert.InDelta(t, 0.5, *req.temperature, 1e-6)
	assert.True(t, req.jsonObject)
}

func TestSDKChatModel_GenerateUsage(t *testing.T) {
	var got *completionRequest
	m := &SDKChatModel{
		typ:      "Fake",
		defaults: config.ProviderConfig{Model: "m"},
		complete: func(_ context.Context, req *completionRequest) (*completion, error) {
			got = req
			return &completion{content: `{"ok":true}`, promptTokens: 3, completionTokens: 4}, nil
		},
	}

	msg, err := m.Generate(context.Background(), []*schema.Message{schema.UserMessage("q")})
	require.NoError(t, err)
	assert.Equal(t, schema.Assistant, msg.Role)
	assert.Equal(t, `{"ok":true}`, msg.Content)
	require.NotNil(t, msg.ResponseMeta)
	assert.Equal(t, 7, msg.ResponseMeta.Usage.TotalTokens)
	assert.False(t, got.jsonObject)
}

func TestSDKChatModel_GenerateError(t *testing.T) {
	m := &SDKChatModel{
		typ: "Fake",
		complete: func(context.Context, *completionRequest) (*completion, error) {
			return nil, httpStatusError("fake", errors.New("boom"))
		},
	}

	_, err := m.Generate(context.Background(), []*schema.Message{schema.UserMessage("q")})
	assert.ErrorContains(t, err, "fake request failed: boom")
}

func TestSDKChatModel_StreamSingleFrame(t *testing.T) {
	m := &SDKChatModel{
		typ: "Fake",
		complete: func(context.Context, *completionRequest) (*completion, error) {
			return &completion{content: "done"}, nil
		},
	}

	sr, err := m.Stream(context.Background(), []*schema.Message{schema.UserMessage("q")})
	require.NoError(t, err)
	defer sr.Close()

	msg, err := sr.Recv()
	require.NoError(t, err)
	assert.Equal(t, "done", msg.Content)
}

func TestConvertAnthropicMessages(t *testing.T) {
	msgs := convertAnthropicMessages([]*schema.Message{
		schema.UserMessage("u"),
		schema.AssistantMessage("a", nil),
	})
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", string(msgs[0].Role))
	assert.Equal(t, "assistant", string(msgs[1].Role))
}

func TestBuildMessageParams_DefaultMaxTokens(t *testing.T) {
	params := buildMessageParams(&completionRequest{model: "claude", system: "sys"})
	assert.Equal(t, int64(defaultAnthropicMaxTokens), params.MaxTokens)
	require.Len(t, params.System, 1)
	assert.Equal(t, "sys", params.System[0].Text)
}

func TestBuildResponseParams_JSONMode(t *testing.T) {
	params := buildResponseParams(&completionRequest{model: "gpt", system: "sys", jsonObject: true})
	assert.NotNil(t, params.Text.Format.OfJSONObject)
	assert.Len(t, params.Input.OfInputItemList, 1)

	params = buildResponseParams(&completionRequest{model: "gpt"})
	assert.Nil(t, params.Text.Format.OfJSONObject)
}

func TestEinoFactory_UnknownProvider(t *testing.T) {
	f := NewEinoFactory(&config.LLMConfig{DefaultProvider: "missing"})
	_, err := f.Get(context.Background(), "")
	assert.ErrorContains(t, err, "provider missing not found")
}

func TestEinoFactory_CachesSDKModels(t *testing.T) {
	f := NewEinoFactory(&config.LLMConfig{Providers: map[string]config.ProviderConfig{
		"claude": {Type: config.ProviderTypeAnthropic, APIKey: "k", Model: "claude-test"},
	}})

	a, err := f.Get(context.Background(), "claude")
	require.NoError(t, err)
	b, err := f.Get(context.Background(), "claude")
	require.NoError(t, err)
	assert.Same(t, a, b)
}
