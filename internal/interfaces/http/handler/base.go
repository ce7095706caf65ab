package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"edu-lesson-ai-api/internal/interfaces/http/dto"
	apperrors "edu-lesson-ai-api/pkg/errors"
	"edu-lesson-ai-api/pkg/logger"
)

// principal 认证中间件写入的用户 ID；匿名时为空
func principal(c *gin.Context) string {
	return c.GetString("user_id")
}

// parseID 非数字 ID 按不存在处理；合法 ID 写入日志上下文
func parseID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	ctx := logger.WithContext(c.Request.Context(), logger.ArtifactIDKey, id)
	c.Request = c.Request.WithContext(ctx)
	return id, true
}

// respondError 把任意错误转为统一错误响应；非 AppError 一律视为 500
// 5xx 与未识别的错误写日志，细节不返回给调用方
func respondError(c *gin.Context, err error) {
	appErr := apperrors.AsAppError(err)
	if !apperrors.IsAppError(err) || appErr.IsServerError() {
		logger.Error(c.Request.Context(), "request failed", err,
			"path", c.FullPath(),
			"code", appErr.Code,
		)
	}
	dto.Error(c, appErr)
}
