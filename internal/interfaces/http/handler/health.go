// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthChecker 依赖的健康检查
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler 健康检查处理器
type HealthHandler struct {
	version string
	db      HealthChecker
	// redis 未启用时为 nil，不影响就绪态
	redis HealthChecker
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(version string, db HealthChecker, redis HealthChecker) *HealthHandler {
	return &HealthHandler{
		version: version,
		db:      db,
		redis:   redis,
	}
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

type readinessCheck struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
}

type readinessResponse struct {
	Status string                     `json:"status"`
	Checks map[string]*readinessCheck `json:"checks,omitempty"`
}

// Health 健康检查接口
// @Summary 健康检查
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: h.version,
	})
}

// Ready 就绪检查接口
// @Summary 就绪检查
// @Description 数据库必需，Redis 可选
// @Tags System
// @Produce json
// @Success 200 {object} readinessResponse
// @Router /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]*readinessCheck{
		"database": runCheck(ctx, h.db),
		"redis":    {Status: "disabled"},
	}
	ready := checks["database"].Status == "ok"

	if h.redis != nil {
		checks["redis"] = runCheck(ctx, h.redis)
		if checks["redis"].Status != "ok" {
			checks["redis"].Status = "degraded"
		}
	}

	resp := readinessResponse{
		Status: "ok",
		Checks: checks,
	}
	if !ready {
		resp.Status = "not_ready"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Live 存活检查接口
// @Summary 存活检查
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /live [get]
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "ok",
	})
}

func runCheck(ctx context.Context, checker HealthChecker) *readinessCheck {
	if checker == nil {
		return &readinessCheck{Status: "missing", Error: "client not configured"}
	}
	start := time.Now()
	err := checker.HealthCheck(ctx)
	check := &readinessCheck{Status: "ok", LatencyMs: time.Since(start).Milliseconds()}
	if err != nil {
		check.Status = "error"
		check.Error = err.Error()
	}
	return check
}
