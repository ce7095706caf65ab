// Package middleware 提供 HTTP 中间件
package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"edu-lesson-ai-api/internal/interfaces/http/dto"
	apperrors "edu-lesson-ai-api/pkg/errors"
	"edu-lesson-ai-api/pkg/logger"
	"edu-lesson-ai-api/pkg/utils"
)

// AuthConfig 认证配置
type AuthConfig struct {
	// Secret JWT 密钥
	Secret string
	// Issuer JWT 签发者
	Issuer string
}

// Auth 身份识别中间件
// 没有 Authorization 头按匿名放行，由业务层决定是否需要身份；
// 携带了但无效或过期的 Token 直接返回 401
func Auth(cfg AuthConfig) gin.HandlerFunc {
	jwtManager := utils.NewJWTManager(cfg.Secret, cfg.Issuer)

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		// 解析 Bearer Token
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			dto.Error(c, apperrors.ErrTokenInvalid)
			return
		}

		claims, err := jwtManager.ParseToken(strings.TrimSpace(parts[1]))
		if err != nil {
			if errors.Is(err, utils.ErrExpiredToken) {
				dto.Error(c, apperrors.ErrTokenExpired)
				return
			}
			dto.Error(c, apperrors.ErrTokenInvalid)
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		ctx := logger.WithContext(c.Request.Context(), logger.UserIDKey, claims.UserID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
