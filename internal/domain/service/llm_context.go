// Package service 存放跨层共享的领域服务辅助
package service

import (
	"context"
	"strings"
)

type llmCtxKey string

const (
	llmCtxKeyWorkflow llmCtxKey = "llm_workflow"
	llmCtxKeyProvider llmCtxKey = "llm_provider"
)

const unknown = "unknown"

// WithWorkflowProvider 在 ctx 上标记当前 LLM 调用所属流程与提供商，供回调打标签
func WithWorkflowProvider(ctx context.Context, workflow, provider string) context.Context {
	if w := strings.TrimSpace(workflow); w != "" {
		ctx = context.WithValue(ctx, llmCtxKeyWorkflow, w)
	}
	if p := strings.TrimSpace(provider); p != "" {
		ctx = context.WithValue(ctx, llmCtxKeyProvider, p)
	}
	return ctx
}

func WorkflowFromContext(ctx context.Context) string {
	return stringValue(ctx, llmCtxKeyWorkflow)
}

func ProviderFromContext(ctx context.Context) string {
	return stringValue(ctx, llmCtxKeyProvider)
}

func stringValue(ctx context.Context, key llmCtxKey) string {
	if ctx == nil {
		return unknown
	}
	s, ok := ctx.Value(key).(string)
	if !ok || s == "" {
		return unknown
	}
	return s
}
