package eino

import (
	"context"
	"time"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	cbtemplate "github.com/cloudwego/eino/utils/callbacks"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	llmctx "edu-lesson-ai-api/internal/domain/service"
	"edu-lesson-ai-api/pkg/metrics"
)

// startTimeKey 在 Context 中记录调用开始时间，OnEnd/OnError 据此计算耗时
type startTimeKey struct{}

// modelNameKey OnError 拿不到输出配置，用 OnStart 时的模型名
type modelNameKey struct{}

// newChatModelCallbackHandler 记录每次模型调用的次数、耗时、Token 消耗与追踪 Span
func newChatModelCallbackHandler() *cbtemplate.ModelCallbackHandler {
	return &cbtemplate.ModelCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, input *model.CallbackInput) context.Context {
			ctx = context.WithValue(ctx, startTimeKey{}, time.Now())

			modelName := modelNameFromInput(input)
			ctx = context.WithValue(ctx, modelNameKey{}, modelName)

			attrs := []attribute.KeyValue{
				attribute.String("eino.workflow", llmctx.WorkflowFromContext(ctx)),
				attribute.String("llm.provider", llmctx.ProviderFromContext(ctx)),
				attribute.String("llm.model", modelName),
			}
			if info != nil {
				attrs = append(attrs,
					attribute.String("eino.node_name", info.Name),
					attribute.String("eino.type", info.Type),
				)
			}

			ctx, _ = otel.Tracer("eino").Start(ctx, "llm.generate", trace.WithAttributes(attrs...))
			return ctx
		},

		OnEnd: func(ctx context.Context, _ *einocb.RunInfo, output *model.CallbackOutput) context.Context {
			provider := llmctx.ProviderFromContext(ctx)
			modelName := modelNameFromOutput(output)
			if modelName == "" {
				modelName = modelNameFromContext(ctx)
			}

			metrics.LLMCallTotal.WithLabelValues(provider, modelName, "success").Inc()
			if d := elapsedSeconds(ctx); d > 0 {
				metrics.LLMCallDuration.WithLabelValues(provider, modelName).Observe(d)
			}

			span := trace.SpanFromContext(ctx)
			if output != nil && output.TokenUsage != nil {
				metrics.LLMTokensUsed.WithLabelValues(provider, modelName, "prompt").Add(float64(output.TokenUsage.PromptTokens))
				metrics.LLMTokensUsed.WithLabelValues(provider, modelName, "completion").Add(float64(output.TokenUsage.CompletionTokens))
				span.SetAttributes(
					attribute.Int("llm.prompt_tokens", output.TokenUsage.PromptTokens),
					attribute.Int("llm.completion_tokens", output.TokenUsage.CompletionTokens),
				)
			}
			span.End()
			return ctx
		},

		OnError: func(ctx context.Context, _ *einocb.RunInfo, err error) context.Context {
			provider := llmctx.ProviderFromContext(ctx)
			modelName := modelNameFromContext(ctx)

			metrics.LLMCallTotal.WithLabelValues(provider, modelName, "error").Inc()
			if d := elapsedSeconds(ctx); d > 0 {
				metrics.LLMCallDuration.WithLabelValues(provider, modelName).Observe(d)
			}

			span := trace.SpanFromContext(ctx)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.End()
			return ctx
		},
	}
}

func elapsedSeconds(ctx context.Context) float64 {
	start, ok := ctx.Value(startTimeKey{}).(time.Time)
	if !ok || start.IsZero() {
		return 0
	}
	return time.Since(start).Seconds()
}

func modelNameFromInput(in *model.CallbackInput) string {
	if in == nil || in.Config == nil {
		return ""
	}
	return in.Config.Model
}

func modelNameFromOutput(out *model.CallbackOutput) string {
	if out == nil || out.Config == nil {
		return ""
	}
	return out.Config.Model
}

func modelNameFromContext(ctx context.Context) string {
	name, _ := ctx.Value(modelNameKey{}).(string)
	return name
}
