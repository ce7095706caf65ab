// Package middleware 提供 HTTP 中间件
package middleware

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"edu-lesson-ai-api/internal/config"
)

// CORS 跨域中间件；允许任意来源时不允许携带凭证
func CORS(cfg config.CORSConfig) gin.HandlerFunc {
	methods := cfg.AllowedMethods
	if len(methods) == 0 {
		methods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	}
	headers := cfg.AllowedHeaders
	if len(headers) == 0 {
		headers = []string{"Origin", "Content-Type", "Authorization", RequestIDHeader}
	}

	c := cors.Config{
		AllowMethods:  methods,
		AllowHeaders:  headers,
		ExposeHeaders: []string{RequestIDHeader, "X-Trace-ID"},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || slices.Contains(cfg.AllowedOrigins, "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.AllowedOrigins
		c.AllowCredentials = true
	}
	return cors.New(c)
}
