package chain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	openaiopts "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	llmctx "edu-lesson-ai-api/internal/domain/service"
	wfmodel "edu-lesson-ai-api/internal/workflow/model"
	wfnode "edu-lesson-ai-api/internal/workflow/node"
	workflowport "edu-lesson-ai-api/internal/workflow/port"
	"edu-lesson-ai-api/pkg/logger"
)

// ErrEmptyCompletion 模型返回成功但没有可用内容
var ErrEmptyCompletion = errors.New("empty llm completion")

// GenerationChain 单次同步的 JSON 生成调用：init -> llm -> finalize
// 不做重试；超时由 timeout 约束
type GenerationChain struct {
	factory workflowport.ChatModelFactory
	timeout time.Duration

	chainOnce sync.Once
	chain     compose.Runnable[*wfmodel.GenerateInput, *wfmodel.GenerateOutput]
	chainErr  error
}

func NewGenerationChain(factory workflowport.ChatModelFactory, timeout time.Duration) *GenerationChain {
	return &GenerationChain{factory: factory, timeout: timeout}
}

func (c *GenerationChain) Invoke(ctx context.Context, in *wfmodel.GenerateInput) (*wfmodel.GenerateOutput, error) {
	if c == nil || c.factory == nil {
		return nil, fmt.Errorf("llm factory not configured")
	}
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}

	chain, err := c.getChain()
	if err != nil {
		return nil, err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return chain.Invoke(ctx, in)
}

type generationChainState struct {
	In     *wfmodel.GenerateInput
	OutMsg *schema.Message
}

func (c *GenerationChain) getChain() (compose.Runnable[*wfmodel.GenerateInput, *wfmodel.GenerateOutput], error) {
	c.chainOnce.Do(func() {
		c.chain, c.chainErr = c.buildChain(context.Background())
	})
	return c.chain, c.chainErr
}

func (c *GenerationChain) buildChain(ctx context.Context) (compose.Runnable[*wfmodel.GenerateInput, *wfmodel.GenerateOutput], error) {
	chain := compose.NewChain[*wfmodel.GenerateInput, *wfmodel.GenerateOutput]()

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, in *wfmodel.GenerateInput) (*generationChainState, error) {
			if in == nil {
				return nil, fmt.Errorf("input is nil")
			}
			if len(in.Messages) == 0 {
				return nil, fmt.Errorf("prompt has no messages")
			}
			return &generationChainState{In: in}, nil
		}),
		compose.WithNodeName("generation.init"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *generationChainState) (*generationChainState, error) {
			provider := strings.TrimSpace(st.In.Provider)
			ctx = llmctx.WithWorkflowProvider(ctx, st.In.Workflow, provider)

			chatModel, err := c.factory.Get(ctx, provider)
			if err != nil {
				return nil, err
			}

			outMsg, err := chatModel.Generate(ctx, st.In.Messages, buildModelOptions(st.In, true)...)
			if err != nil && wfnode.IsResponseFormatUnsupportedError(err) {
				logger.Warn(ctx, "llm json_object not supported, fallback to prompt-only",
					"provider", provider,
					"model", strings.TrimSpace(st.In.Model),
					"error", err.Error(),
				)
				outMsg, err = chatModel.Generate(ctx, st.In.Messages, buildModelOptions(st.In, false)...)
			}
			if err != nil {
				return nil, err
			}
			st.OutMsg = outMsg
			return st, nil
		}),
		compose.WithNodeName("generation.llm"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, st *generationChainState) (*wfmodel.GenerateOutput, error) {
			if st == nil || st.OutMsg == nil || strings.TrimSpace(st.OutMsg.Content) == "" {
				return nil, ErrEmptyCompletion
			}
			out := &wfmodel.GenerateOutput{
				Content: st.OutMsg.Content,
				Model:   strings.TrimSpace(st.In.Model),
			}
			if meta := st.OutMsg.ResponseMeta; meta != nil && meta.Usage != nil {
				out.PromptTokens = meta.Usage.PromptTokens
				out.CompletionTokens = meta.Usage.CompletionTokens
			}
			return out, nil
		}),
		compose.WithNodeName("generation.finalize"),
	)

	return chain.Compile(ctx)
}

func buildModelOptions(in *wfmodel.GenerateInput, jsonMode bool) []model.Option {
	opts := make([]model.Option, 0, 5)

	if in.Temperature != nil {
		opts = append(opts, model.WithTemperature(*in.Temperature))
	}
	if in.MaxTokens != nil {
		opts = append(opts, model.WithMaxTokens(*in.MaxTokens))
	}
	if m := strings.TrimSpace(in.Model); m != "" {
		opts = append(opts, model.WithModel(m))
	}

	opts = append(opts, workflowport.WithJSONObjectResponse(jsonMode))
	if jsonMode {
		opts = append(opts, openaiopts.WithExtraFields(map[string]any{
			"response_format": map[string]any{"type": "json_object"},
		}))
	}
	return opts
}

// Generate 只返回补全文本
func (c *GenerationChain) Generate(ctx context.Context, in *wfmodel.GenerateInput) (string, error) {
	out, err := c.Invoke(ctx, in)
	if err != nil {
		return "", err
	}
	return out.Content, nil
}
