// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "edu-lesson-ai-api/pkg/errors"
)

// ErrorResponse 错误响应结构
type ErrorResponse struct {
	Code    apperrors.ErrorCode `json:"code"`
	Message string              `json:"message"`
	Field   string              `json:"field,omitempty"`
	TraceID string              `json:"trace_id,omitempty"`
}

// Success 返回 200，响应体即数据本身
func Success[T any](c *gin.Context, data T) {
	c.JSON(http.StatusOK, data)
}

// Created 返回 201
func Created[T any](c *gin.Context, data T) {
	c.JSON(http.StatusCreated, data)
}

// NoContent 返回无内容响应 (204)
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error 按 AppError 输出错误响应；服务端错误只返回固定文案
func Error(c *gin.Context, err *apperrors.AppError) {
	c.AbortWithStatusJSON(err.HTTPStatus, ErrorResponse{
		Code:    err.Code,
		Message: err.Message,
		Field:   err.Field,
		TraceID: c.GetString("trace_id"),
	})
}
