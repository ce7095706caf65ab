// Package middleware 提供 HTTP 中间件
package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"edu-lesson-ai-api/pkg/logger"
)

// Trace OpenTelemetry 追踪中间件
func Trace(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName)
}

// TraceContext 把 trace_id / span_id 写入日志上下文与响应头，并给 Span 标记请求 ID
func TraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if sc := span.SpanContext(); sc.IsValid() {
			traceID := sc.TraceID().String()
			spanID := sc.SpanID().String()

			c.Set("trace_id", traceID)
			c.Set("span_id", spanID)

			ctx := logger.WithContext(c.Request.Context(), logger.TraceIDKey, traceID)
			ctx = logger.WithContext(ctx, logger.SpanIDKey, spanID)
			c.Request = c.Request.WithContext(ctx)

			if rid := c.GetString("request_id"); rid != "" {
				span.SetAttributes(attribute.String("http.request_id", rid))
			}
			c.Header("X-Trace-ID", traceID)
		}

		c.Next()
	}
}
