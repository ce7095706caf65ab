// Package app 手工装配应用依赖
package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"edu-lesson-ai-api/internal/application/generation"
	"edu-lesson-ai-api/internal/config"
	"edu-lesson-ai-api/internal/infrastructure/llm"
	"edu-lesson-ai-api/internal/infrastructure/messaging"
	"edu-lesson-ai-api/internal/infrastructure/persistence/postgres"
	redisstore "edu-lesson-ai-api/internal/infrastructure/persistence/redis"
	"edu-lesson-ai-api/internal/interfaces/http/handler"
	"edu-lesson-ai-api/internal/interfaces/http/middleware"
	"edu-lesson-ai-api/internal/interfaces/http/router"
	"edu-lesson-ai-api/internal/workflow/chain"
	workflowprompt "edu-lesson-ai-api/internal/workflow/prompt"
	"edu-lesson-ai-api/pkg/logger"
)

// App 装配完成的应用
type App struct {
	router *router.Router
}

// Engine 返回 Gin Engine
func (a *App) Engine() *gin.Engine {
	return a.router.Engine()
}

// New 按配置创建全部依赖；返回的 cleanup 按创建的逆序释放资源
func New(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*App, func(), error) {
		cleanup()
		return nil, nil, err
	}

	pg, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, func() {
		if err := pg.Close(); err != nil {
			logger.Error(ctx, "failed to close database", err)
		}
	})

	// SQLite 仅用于本地开发，启动时直接建表
	if cfg.Database.Driver == "sqlite" {
		if err := postgres.AutoMigrate(ctx, pg); err != nil {
			return fail(err)
		}
	}

	repo := postgres.NewArtifactRepository(pg)

	var (
		rc      *redisstore.Client
		opts    []generation.Option
		limiter middleware.RateLimiter
		redisHC handler.HealthChecker
	)

	if cfg.Cache.Redis.Enabled {
		rc, err = redisstore.NewClient(&cfg.Cache.Redis)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, func() {
			if err := rc.Close(); err != nil {
				logger.Error(ctx, "failed to close redis", err)
			}
		})
		redisHC = rc
		opts = append(opts, generation.WithCache(redisstore.NewArtifactCache(rc, cfg.Cache.ArtifactTTL)))
	}

	if cfg.Messaging.RedisStream.Enabled {
		if rc == nil {
			return fail(fmt.Errorf("messaging.redis_stream requires cache.redis.enabled"))
		}
		stream := cfg.Messaging.RedisStream
		opts = append(opts, generation.WithEvents(messaging.NewProducer(rc.Redis(), stream.Stream, stream.MaxLen)))
	}

	rl := cfg.Security.RateLimit
	if rl.Enabled {
		if rc != nil {
			limiter = redisstore.NewRateLimiter(rc, rl.RequestsPerWindow, rl.Window)
		} else {
			limiter = middleware.NewLocalRateLimiter(rl.RequestsPerWindow, rl.Window, rl.Burst)
		}
	}

	providerName, provider, err := cfg.ResolveProvider()
	if err != nil {
		return fail(err)
	}
	opts = append(opts, generation.WithModel(providerName, provider.Model))

	factory := llm.NewEinoFactory(&cfg.LLM)
	client := chain.NewGenerationChain(factory, cfg.Generation.Timeout)

	registry := workflowprompt.NewRegistry()
	contentVariant := generation.ContentVariant()
	lessonVariant := generation.LessonVariant()
	if id := workflowprompt.PromptID(cfg.Generation.ContentPromptID); id != "" {
		if !registry.Has(id) {
			return fail(fmt.Errorf("unknown content prompt %q", id))
		}
		contentVariant = contentVariant.WithPromptID(id)
	}
	if id := workflowprompt.PromptID(cfg.Generation.LessonPromptID); id != "" {
		if !registry.Has(id) {
			return fail(fmt.Errorf("unknown lesson prompt %q", id))
		}
		lessonVariant = lessonVariant.WithPromptID(id)
	}

	svc := generation.NewService(repo, client, generation.NewPromptBuilder(registry), opts...)

	handlers := router.Handlers{
		Health:  handler.NewHealthHandler(cfg.App.Version, pg, redisHC),
		Content: handler.NewArtifactHandler(svc, contentVariant),
		Lesson:  handler.NewArtifactHandler(svc, lessonVariant),
	}

	logger.Info(ctx, "application wired",
		"db_driver", cfg.Database.Driver,
		"redis", rc != nil,
		"events", cfg.Messaging.RedisStream.Enabled,
		"provider", providerName,
		"model", provider.Model,
	)

	return &App{router: router.New(cfg, handlers, limiter)}, cleanup, nil
}
