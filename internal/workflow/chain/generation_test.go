package chain

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wfmodel "edu-lesson-ai-api/internal/workflow/model"
	workflowport "edu-lesson-ai-api/internal/workflow/port"
)

// fakeChatModel 按顺序返回预设结果，并记录每次调用是否要求 JSON 输出
type fakeChatModel struct {
	mu       sync.Mutex
	results  []fakeResult
	jsonMode []bool
	block    bool
}

type fakeResult struct {
	content string
	err     error
}

func (m *fakeChatModel) Generate(ctx context.Context, _ []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	if m.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	rf := model.GetImplSpecificOptions(&workflowport.ResponseFormatOptions{}, opts...)
	m.jsonMode = append(m.jsonMode, rf.JSONObject)

	r := m.results[0]
	m.results = m.results[1:]
	if r.err != nil {
		return nil, r.err
	}
	return &schema.Message{
		Role:    schema.Assistant,
		Content: r.content,
		ResponseMeta: &schema.ResponseMeta{
			Usage: &schema.TokenUsage{PromptTokens: 11, CompletionTokens: 22, TotalTokens: 33},
		},
	}, nil
}

func (m *fakeChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

type fakeFactory struct {
	model model.BaseChatModel
	err   error
	names []string
}

func (f *fakeFactory) Get(_ context.Context, name string) (model.BaseChatModel, error) {
	f.names = append(f.names, name)
	return f.model, f.err
}

func testInput() *wfmodel.GenerateInput {
	return &wfmodel.GenerateInput{
		Workflow: "content",
		Provider: "openai",
		Model:    "gpt-test",
		Messages: []*schema.Message{schema.SystemMessage("sys"), schema.UserMessage("user")},
	}
}

func TestGenerationChain_Success(t *testing.T) {
	fm := &fakeChatModel{results: []fakeResult{{content: `{"topicOverview":"x"}`}}}
	ff := &fakeFactory{model: fm}
	c := NewGenerationChain(ff, time.Second)

	out, err := c.Invoke(context.Background(), testInput())
	require.NoError(t, err)
	assert.Equal(t, `{"topicOverview":"x"}`, out.Content)
	assert.Equal(t, "gpt-test", out.Model)
	assert.Equal(t, 11, out.PromptTokens)
	assert.Equal(t, 22, out.CompletionTokens)
	assert.Equal(t, []bool{true}, fm.jsonMode)
	assert.Equal(t, []string{"openai"}, ff.names)
}

func TestGenerationChain_FallbackWhenResponseFormatUnsupported(t *testing.T) {
	fm := &fakeChatModel{results: []fakeResult{
		{err: errors.New("400 invalid_request_error: response_format is not supported")},
		{content: `{"a":1}`},
	}}
	c := NewGenerationChain(&fakeFactory{model: fm}, time.Second)

	out, err := c.Invoke(context.Background(), testInput())
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, out.Content)
	// 第二次调用不再要求 JSON 输出
	assert.Equal(t, []bool{true, false}, fm.jsonMode)
}

func TestGenerationChain_NoRetryOnTransportError(t *testing.T) {
	fm := &fakeChatModel{results: []fakeResult{
		{err: errors.New("dial tcp: connection refused")},
		{content: `{"a":1}`},
	}}
	c := NewGenerationChain(&fakeFactory{model: fm}, time.Second)

	_, err := c.Invoke(context.Background(), testInput())
	require.Error(t, err)
	assert.ErrorContains(t, err, "connection refused")
	assert.Len(t, fm.jsonMode, 1)
}

func TestGenerationChain_EmptyCompletion(t *testing.T) {
	fm := &fakeChatModel{results: []fakeResult{{content: "   "}}}
	c := NewGenerationChain(&fakeFactory{model: fm}, time.Second)

	_, err := c.Invoke(context.Background(), testInput())
	require.Error(t, err)
	assert.ErrorContains(t, err, ErrEmptyCompletion.Error())
}

func TestGenerationChain_Timeout(t *testing.T) {
	c := NewGenerationChain(&fakeFactory{model: &fakeChatModel{block: true}}, 20*time.Millisecond)

	start := time.Now()
	_, err := c.Invoke(context.Background(), testInput())
	require.Error(t, err)
	assert.ErrorContains(t, err, context.DeadlineExceeded.Error())
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestGenerationChain_FactoryError(t *testing.T) {
	c := NewGenerationChain(&fakeFactory{err: errors.New("provider missing")}, time.Second)

	_, err := c.Invoke(context.Background(), testInput())
	assert.ErrorContains(t, err, "provider missing")
}

func TestGenerationChain_RejectsEmptyPrompt(t *testing.T) {
	c := NewGenerationChain(&fakeFactory{model: &fakeChatModel{}}, time.Second)

	in := testInput()
	in.Messages = nil
	_, err := c.Invoke(context.Background(), in)
	assert.Error(t, err)

	_, err = c.Invoke(context.Background(), nil)
	assert.Error(t, err)
}
