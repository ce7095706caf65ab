package port

import (
	"context"

	"github.com/cloudwego/eino/components/model"
)

// ChatModelFactory 定义工作流层对 LLM ChatModel 的最小依赖（port）。
type ChatModelFactory interface {
	Get(ctx context.Context, name string) (model.BaseChatModel, error)
}

// ResponseFormatOptions 非 eino-ext 的 ChatModel 适配器读取的输出格式选项
type ResponseFormatOptions struct {
	JSONObject bool
}

// WithJSONObjectResponse 要求模型输出 JSON 对象
func WithJSONObjectResponse(enabled bool) model.Option {
	return model.WrapImplSpecificOptFn(func(o *ResponseFormatOptions) {
		o.JSONObject = enabled
	})
}
