// Package middleware 提供 HTTP 中间件
package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	redisstore "edu-lesson-ai-api/internal/infrastructure/persistence/redis"
	"edu-lesson-ai-api/internal/interfaces/http/dto"
	apperrors "edu-lesson-ai-api/pkg/errors"
	"edu-lesson-ai-api/pkg/logger"
)

// RateLimiter 限流器接口
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimit 限流中间件；key 为 用户 ID（匿名时为客户端 IP）+ 路由
func RateLimit(limiter RateLimiter) gin.HandlerFunc {
	if limiter == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		subject := c.GetString("user_id")
		if subject == "" {
			subject = "ip:" + c.ClientIP()
		}
		key := redisstore.BuildRateLimitKey(subject, c.FullPath())

		allowed, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			// 限流器故障时放行，避免影响业务
			logger.Warn(c.Request.Context(), "rate limiter unavailable", "error", err.Error())
			c.Next()
			return
		}
		if !allowed {
			dto.Error(c, apperrors.ErrTooManyRequests)
			return
		}

		c.Next()
	}
}

// LocalRateLimiter 进程内令牌桶，未启用 Redis 时使用
// 空闲到令牌已补满的桶与新建桶等价，定期清理以免按 IP 无限增长
type LocalRateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*localBucket
	limit     rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type localBucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewLocalRateLimiter 每个 window 内补充 requests 个令牌
func NewLocalRateLimiter(requests int, window time.Duration, burst int) *LocalRateLimiter {
	if requests <= 0 {
		requests = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	if burst <= 0 {
		burst = requests
	}
	interval := window / time.Duration(requests)
	idle := interval * time.Duration(burst)
	if idle < window {
		idle = window
	}
	return &LocalRateLimiter{
		limiters: make(map[string]*localBucket),
		limit:    rate.Every(interval),
		burst:    burst,
		idleTTL:  idle,
		now:      time.Now,
	}
}

func (l *LocalRateLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.idleTTL {
		l.sweep(now)
	}

	b, ok := l.limiters[key]
	if !ok {
		b = &localBucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = b
	}
	b.lastSeen = now
	return b.lim.AllowN(now, 1), nil
}

// sweep 删除空闲超过 idleTTL 的桶；调用方持有锁
func (l *LocalRateLimiter) sweep(now time.Time) {
	for key, b := range l.limiters {
		if now.Sub(b.lastSeen) >= l.idleTTL {
			delete(l.limiters, key)
		}
	}
	l.lastSweep = now
}
