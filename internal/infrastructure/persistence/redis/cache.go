package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"edu-lesson-ai-api/internal/domain/entity"
	"edu-lesson-ai-api/pkg/logger"
	"edu-lesson-ai-api/pkg/metrics"
)

var cacheTracer = otel.Tracer("redis.cache")

// ArtifactCache 产物读缓存（Read-Through）
// 产物写入后不可变，只需在删除时失效
type ArtifactCache struct {
	client *Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewArtifactCache 创建产物缓存
func NewArtifactCache(client *Client, ttl time.Duration) *ArtifactCache {
	return &ArtifactCache{client: client, ttl: ttl}
}

// ArtifactKey 构建缓存键
func ArtifactKey(kind entity.ArtifactKind, id uint64) string {
	return fmt.Sprintf("artifact:%s:%d", kind, id)
}

// GetOrLoad 命中则直接返回；未命中时使用 singleflight 合并并发加载
// loader 返回 nil 表示记录不存在，此时不写缓存
func (c *ArtifactCache) GetOrLoad(ctx context.Context, kind entity.ArtifactKind, id uint64, loader func(ctx context.Context) (*entity.Artifact, error)) (*entity.Artifact, error) {
	key := ArtifactKey(kind, id)
	ctx, span := cacheTracer.Start(ctx, "cache.GetOrLoad",
		trace.WithAttributes(attribute.String("cache.key", key)))
	defer span.End()

	if art, ok := c.get(ctx, key, kind); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		metrics.CacheRequestsTotal.WithLabelValues("hit").Inc()
		return art, nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))
	metrics.CacheRequestsTotal.WithLabelValues("miss").Inc()

	result, err, shared := c.group.Do(key, func() (interface{}, error) {
		// 再次检查缓存（可能已被其他请求填充）
		if art, ok := c.get(ctx, key, kind); ok {
			return art, nil
		}

		art, err := loader(ctx)
		if err != nil || art == nil {
			return art, err
		}

		if data, err := json.Marshal(art); err == nil {
			if err := c.client.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
				// 缓存写入失败不影响返回结果
				span.RecordError(err)
			}
		}
		return art, nil
	})
	span.SetAttributes(attribute.Bool("cache.shared", shared))

	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	art, _ := result.(*entity.Artifact)
	return art, nil
}

// get 缓存读失败（含反序列化失败）按未命中处理
func (c *ArtifactCache) get(ctx context.Context, key string, kind entity.ArtifactKind) (*entity.Artifact, bool) {
	data, err := c.client.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !IsNil(err) {
			metrics.CacheRequestsTotal.WithLabelValues("error").Inc()
			logger.Debug(ctx, "artifact cache read failed", "key", key, "error", err.Error())
		}
		return nil, false
	}
	var art entity.Artifact
	if err := json.Unmarshal(data, &art); err != nil {
		logger.Debug(ctx, "artifact cache entry undecodable", "key", key, "error", err.Error())
		return nil, false
	}
	art.Kind = kind
	return &art, true
}

// Invalidate 删除产物缓存
func (c *ArtifactCache) Invalidate(ctx context.Context, kind entity.ArtifactKind, id uint64) error {
	key := ArtifactKey(kind, id)
	ctx, span := cacheTracer.Start(ctx, "cache.Invalidate",
		trace.WithAttributes(attribute.String("cache.key", key)))
	defer span.End()

	if err := c.client.rdb.Del(ctx, key).Err(); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}
