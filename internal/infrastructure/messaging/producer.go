package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"edu-lesson-ai-api/internal/domain/entity"
	"edu-lesson-ai-api/pkg/logger"
	"edu-lesson-ai-api/pkg/metrics"
)

var tracer = otel.Tracer("messaging")

// Producer 消息生产者
type Producer struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewProducer 创建消息生产者
func NewProducer(client *redis.Client, stream string, maxLen int64) *Producer {
	if maxLen <= 0 {
		maxLen = 100000
	}
	return &Producer{
		client: client,
		stream: stream,
		maxLen: maxLen,
	}
}

// Publish 发布消息
func (p *Producer) Publish(ctx context.Context, msg *Message) (string, error) {
	ctx, span := tracer.Start(ctx, "producer.Publish",
		trace.WithAttributes(
			attribute.String("stream", p.stream),
			attribute.String("message.id", msg.ID),
			attribute.String("message.type", msg.Type),
		))
	defer span.End()

	data, err := json.Marshal(msg)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	result, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"type": msg.Type,
			"data": string(data),
		},
	}).Result()
	if err != nil {
		span.RecordError(err)
		metrics.RedisStreamPublished.WithLabelValues(p.stream, "error").Inc()
		return "", fmt.Errorf("failed to publish message: %w", err)
	}

	metrics.RedisStreamPublished.WithLabelValues(p.stream, "success").Inc()
	span.SetAttributes(attribute.String("stream.message_id", result))
	return result, nil
}

// ArtifactCreated 发布产物创建事件
func (p *Producer) ArtifactCreated(ctx context.Context, a *entity.Artifact) error {
	return p.publishArtifact(ctx, TypeArtifactCreated, a, a.CreatedAt)
}

// ArtifactDeleted 发布产物删除事件
func (p *Producer) ArtifactDeleted(ctx context.Context, a *entity.Artifact) error {
	return p.publishArtifact(ctx, TypeArtifactDeleted, a, time.Now().UTC())
}

func (p *Producer) publishArtifact(ctx context.Context, msgType string, a *entity.Artifact, at time.Time) error {
	evt := ArtifactEvent{
		Kind:         string(a.Kind),
		ArtifactID:   a.ID,
		Subject:      a.Subject,
		Topic:        a.Topic,
		Curriculum:   a.Curriculum,
		LearnerLevel: string(a.LearnerLevel),
		OccurredAt:   at,
	}
	if a.OwnerID != nil {
		evt.OwnerID = *a.OwnerID
	}

	msg, err := NewMessage(uuid.NewString(), msgType, evt)
	if err != nil {
		return err
	}
	if rid, ok := ctx.Value(logger.RequestIDKey).(string); ok {
		msg.SetMetadata("request_id", rid)
	}

	_, err = p.Publish(ctx, msg)
	return err
}
