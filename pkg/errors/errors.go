// Package errors 提供统一的错误定义
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode 错误码类型
type ErrorCode string

// 预定义错误码
const (
	// 通用错误 (1xxx)
	CodeInvalidParam    ErrorCode = "1001"
	CodeUnauthorized    ErrorCode = "1002"
	CodeForbidden       ErrorCode = "1003"
	CodeTooManyRequests ErrorCode = "1006"
	CodeInternalError   ErrorCode = "1007"

	// 认证错误 (2xxx)
	CodeTokenExpired ErrorCode = "2001"
	CodeTokenInvalid ErrorCode = "2002"

	// 资源错误 (3xxx)
	CodeArtifactNotFound ErrorCode = "3005"

	// 业务错误 (4xxx)
	CodeGenerationFailed ErrorCode = "4001"

	// 外部服务错误 (5xxx)
	CodeDatabaseError ErrorCode = "5001"
)

// AppError 应用错误
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Field      string    `json:"field,omitempty"`
	HTTPStatus int       `json:"-"`
	Err        error     `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Err
}

// IsServerError 5xx 错误的细节只写日志，不返回给调用方
func (e *AppError) IsServerError() bool {
	return e.HTTPStatus >= http.StatusInternalServerError
}

// New 创建新的应用错误
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

// Wrap 包装错误
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Err:        err,
	}
}

// codeToHTTPStatus 错误码转 HTTP 状态码
func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case CodeInvalidParam:
		return http.StatusBadRequest
	case CodeUnauthorized, CodeTokenExpired, CodeTokenInvalid:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeArtifactNotFound:
		return http.StatusNotFound
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Validation 构造字段校验错误（400，携带首个出错字段）
func Validation(field, message string) *AppError {
	e := New(CodeInvalidParam, message)
	e.Field = field
	return e
}

// Authentication 未认证（401）
func Authentication(message string) *AppError {
	return New(CodeUnauthorized, message)
}

// Authorization 已认证但无权访问目标记录（403）
func Authorization(message string) *AppError {
	return New(CodeForbidden, message)
}

// NotFound 记录不存在（404）
func NotFound(message string) *AppError {
	return New(CodeArtifactNotFound, message)
}

// Generation 外部模型调用失败（500）
func Generation(err error) *AppError {
	return Wrap(err, CodeGenerationFailed, "content generation failed")
}

// Storage 持久化失败（500）
func Storage(err error) *AppError {
	return Wrap(err, CodeDatabaseError, "storage operation failed")
}

// 预定义错误
var (
	ErrTooManyRequests = New(CodeTooManyRequests, "too many requests")
	ErrInternalError   = New(CodeInternalError, "internal server error")

	ErrTokenExpired = New(CodeTokenExpired, "token expired")
	ErrTokenInvalid = New(CodeTokenInvalid, "token invalid")
)

// IsAppError 检查是否为 AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError 将错误转换为 AppError；非 AppError 视为内部错误
func AsAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, CodeInternalError, "internal server error")
}
