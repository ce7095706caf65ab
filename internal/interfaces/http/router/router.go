// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"edu-lesson-ai-api/internal/config"
	"edu-lesson-ai-api/internal/interfaces/http/handler"
	"edu-lesson-ai-api/internal/interfaces/http/middleware"
)

// Handlers 路由依赖的处理器
type Handlers struct {
	Health  *handler.HealthHandler
	Content *handler.ArtifactHandler
	Lesson  *handler.ArtifactHandler
}

// Router HTTP 路由器
type Router struct {
	engine   *gin.Engine
	cfg      *config.Config
	handlers Handlers
	limiter  middleware.RateLimiter
}

// New 创建新的路由器；limiter 为 nil 时不限流
func New(cfg *config.Config, handlers Handlers, limiter middleware.RateLimiter) *Router {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := &Router{
		engine:   gin.New(),
		cfg:      cfg,
		handlers: handlers,
		limiter:  limiter,
	}

	r.setupMiddleware()
	r.setupRoutes()

	return r
}

// Engine 返回 Gin Engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// setupMiddleware 配置中间件
func (r *Router) setupMiddleware() {
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.CORS(r.cfg.Security.CORS))

	if r.cfg.Observability.Tracing.Enabled {
		r.engine.Use(middleware.Trace(r.cfg.App.Name))
		r.engine.Use(middleware.TraceContext())
	}

	if r.cfg.Observability.Metrics.Enabled {
		r.engine.Use(middleware.Metrics(r.cfg.Observability.Metrics.Path))
	}
}

// setupRoutes 配置路由
func (r *Router) setupRoutes() {
	if h := r.handlers.Health; h != nil {
		r.engine.GET("/health", h.Health)
		r.engine.GET("/ready", h.Ready)
		r.engine.GET("/live", h.Live)
	}

	if r.cfg.Observability.Metrics.Enabled {
		r.engine.GET(r.cfg.Observability.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	v1 := r.engine.Group("/v1")
	v1.Use(middleware.Auth(middleware.AuthConfig{
		Secret: r.cfg.Security.JWT.Secret,
		Issuer: r.cfg.Security.JWT.Issuer,
	}))

	var limit gin.HandlerFunc = middleware.RateLimit(nil)
	if r.cfg.Security.RateLimit.Enabled {
		limit = middleware.RateLimit(r.limiter)
	}
	RegisterV1Routes(v1, r.handlers.Content, r.handlers.Lesson, limit)
}
