package generation

import (
	"context"
	"errors"
	"time"

	"edu-lesson-ai-api/internal/domain/entity"
	"edu-lesson-ai-api/internal/domain/repository"
	wfmodel "edu-lesson-ai-api/internal/workflow/model"
	apperrors "edu-lesson-ai-api/pkg/errors"
	"edu-lesson-ai-api/pkg/logger"
	"edu-lesson-ai-api/pkg/metrics"
	"edu-lesson-ai-api/pkg/tracer"
)

// GenerationClient 外部模型调用；测试中替换为确定性桩
type GenerationClient interface {
	Generate(ctx context.Context, in *wfmodel.GenerateInput) (string, error)
}

// ArtifactCache 按 ID 读取的旁路缓存
type ArtifactCache interface {
	GetOrLoad(ctx context.Context, kind entity.ArtifactKind, id uint64, loader func(ctx context.Context) (*entity.Artifact, error)) (*entity.Artifact, error)
	Invalidate(ctx context.Context, kind entity.ArtifactKind, id uint64) error
}

// EventPublisher 产物生命周期事件
type EventPublisher interface {
	ArtifactCreated(ctx context.Context, a *entity.Artifact) error
	ArtifactDeleted(ctx context.Context, a *entity.Artifact) error
}

// Service 统一的生成流水线，content 与 lesson 通过 Variant 区分
type Service struct {
	repo     repository.ArtifactRepository
	client   GenerationClient
	prompts  *PromptBuilder
	cache    ArtifactCache
	events   EventPublisher
	provider string
	model    string
}

type Option func(*Service)

func WithCache(c ArtifactCache) Option {
	return func(s *Service) { s.cache = c }
}

func WithEvents(p EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

// WithModel 指定提供商与模型；为空时由工厂使用默认值
func WithModel(provider, model string) Option {
	return func(s *Service) {
		s.provider = provider
		s.model = model
	}
}

func NewService(repo repository.ArtifactRepository, client GenerationClient, prompts *PromptBuilder, opts ...Option) *Service {
	s := &Service{repo: repo, client: client, prompts: prompts}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate 校验 → 构造提示词 → 调用模型 → 规范化 → 写入
// principal 为空表示匿名调用
func (s *Service) Generate(ctx context.Context, v Variant, principal string, raw any) (*entity.Artifact, error) {
	if err := requirePrincipal(v, principal); err != nil {
		return nil, err
	}

	req, err := v.Validator().Validate(raw)
	if err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "generation.generate")
	defer span.End()

	start := time.Now()
	kind := string(v.Kind)

	prompt, err := s.prompts.Build(ctx, v.PromptID, req)
	if err != nil {
		tracer.RecordError(span, err)
		s.observe(kind, "prompt_error", start)
		logger.Error(ctx, "failed to build prompt", err, "kind", kind, "prompt_id", v.PromptID)
		return nil, apperrors.Generation(err)
	}

	completion, err := s.client.Generate(ctx, &wfmodel.GenerateInput{
		Workflow: kind,
		Provider: s.provider,
		Model:    s.model,
		Messages: prompt.Messages,
	})
	if err != nil {
		tracer.RecordError(span, err)
		s.observe(kind, "llm_error", start)
		logger.Error(ctx, "content generation failed", err, "kind", kind, "provider", s.provider)
		return nil, apperrors.Generation(err)
	}

	content, report := Normalize(completion, v.Shape)
	s.recordReport(ctx, kind, report)

	var owner *string
	if v.OwnerScoped {
		owner = &principal
	}
	artifact := entity.NewArtifact(v.Kind, req, content, owner)
	if err := s.repo.Create(ctx, artifact); err != nil {
		tracer.RecordError(span, err)
		s.observe(kind, "storage_error", start)
		logger.Error(ctx, "failed to persist artifact", err, "kind", kind)
		return nil, apperrors.Storage(err)
	}

	if s.events != nil {
		if err := s.events.ArtifactCreated(ctx, artifact); err != nil {
			logger.Warn(ctx, "failed to publish artifact created event", "kind", kind, "id", artifact.ID, "error", err.Error())
		}
	}

	s.observe(kind, "success", start)
	logger.Info(ctx, "artifact generated",
		"kind", kind,
		"id", artifact.ID,
		"defaulted", len(report.Defaulted),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return artifact, nil
}

// List 按创建时间倒序；归属型变体只返回调用者自己的产物
func (s *Service) List(ctx context.Context, v Variant, principal string) ([]*entity.Artifact, error) {
	if err := requirePrincipal(v, principal); err != nil {
		return nil, err
	}
	var owner *string
	if v.OwnerScoped {
		owner = &principal
	}
	items, err := s.repo.List(ctx, v.Kind, owner)
	if err != nil {
		logger.Error(ctx, "failed to list artifacts", err, "kind", v.Kind)
		return nil, apperrors.Storage(err)
	}
	return items, nil
}

// Get 不存在返回 404；归属型变体中属于他人返回 403
func (s *Service) Get(ctx context.Context, v Variant, principal string, id uint64) (*entity.Artifact, error) {
	if err := requirePrincipal(v, principal); err != nil {
		return nil, err
	}

	loader := func(ctx context.Context) (*entity.Artifact, error) {
		return s.repo.GetByID(ctx, v.Kind, id)
	}
	var (
		artifact *entity.Artifact
		err      error
	)
	if s.cache != nil {
		artifact, err = s.cache.GetOrLoad(ctx, v.Kind, id, loader)
	} else {
		artifact, err = loader(ctx)
	}
	if err != nil {
		logger.Error(ctx, "failed to get artifact", err, "kind", v.Kind, "id", id)
		return nil, apperrors.Storage(err)
	}
	if artifact == nil {
		return nil, apperrors.NotFound("artifact not found")
	}
	if v.OwnerScoped && !artifact.OwnedBy(principal) {
		return nil, apperrors.Authorization("artifact belongs to another user")
	}
	return artifact, nil
}

// Delete 硬删除；归属校验与删除在同一事务内完成
func (s *Service) Delete(ctx context.Context, v Variant, principal string, id uint64) error {
	if err := requirePrincipal(v, principal); err != nil {
		return err
	}
	var owner *string
	if v.OwnerScoped {
		owner = &principal
	}

	err := s.repo.DeleteByID(ctx, v.Kind, id, owner)
	switch {
	case errors.Is(err, repository.ErrArtifactNotFound):
		return apperrors.NotFound("artifact not found")
	case errors.Is(err, repository.ErrArtifactNotOwned):
		return apperrors.Authorization("artifact belongs to another user")
	case err != nil:
		logger.Error(ctx, "failed to delete artifact", err, "kind", v.Kind, "id", id)
		return apperrors.Storage(err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, v.Kind, id); err != nil {
			logger.Warn(ctx, "failed to invalidate artifact cache", "kind", v.Kind, "id", id, "error", err.Error())
		}
	}
	if s.events != nil {
		deleted := &entity.Artifact{ID: id, Kind: v.Kind, OwnerID: owner}
		if err := s.events.ArtifactDeleted(ctx, deleted); err != nil {
			logger.Warn(ctx, "failed to publish artifact deleted event", "kind", v.Kind, "id", id, "error", err.Error())
		}
	}
	logger.Info(ctx, "artifact deleted", "kind", v.Kind, "id", id)
	return nil
}

// GradeQuiz answers[i] 为第 i 题所选选项文本
func (s *Service) GradeQuiz(ctx context.Context, v Variant, principal string, id uint64, answers []string) (*entity.QuizResult, error) {
	artifact, err := s.Get(ctx, v, principal, id)
	if err != nil {
		return nil, err
	}
	quiz := artifact.Payload().Quiz
	if len(answers) > len(quiz) {
		return nil, apperrors.Validation("answers", "more answers than quiz questions")
	}
	res := entity.GradeQuiz(quiz, answers)
	metrics.QuizGradedTotal.Inc()
	return &res, nil
}

func requirePrincipal(v Variant, principal string) error {
	if v.OwnerScoped && principal == "" {
		return apperrors.Authentication("authentication required")
	}
	return nil
}

func (s *Service) observe(kind, status string, start time.Time) {
	metrics.GenerationTotal.WithLabelValues(kind, status).Inc()
	metrics.GenerationDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

func (s *Service) recordReport(ctx context.Context, kind string, rep Report) {
	for _, field := range rep.Defaulted {
		metrics.NormalizationDefaultedTotal.WithLabelValues(kind, field).Inc()
	}
	if rep.DroppedQuiz > 0 {
		metrics.NormalizationDroppedQuizTotal.WithLabelValues(kind).Add(float64(rep.DroppedQuiz))
	}
	if rep.InvalidJSON || len(rep.Defaulted) > 0 || rep.DroppedQuiz > 0 {
		logger.Warn(ctx, "model output normalized with defaults",
			"kind", kind,
			"invalid_json", rep.InvalidJSON,
			"defaulted", rep.Defaulted,
			"coerced", rep.Coerced,
			"dropped_quiz", rep.DroppedQuiz,
		)
	}
}
