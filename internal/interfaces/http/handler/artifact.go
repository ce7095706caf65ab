package handler

import (
	"github.com/gin-gonic/gin"

	"edu-lesson-ai-api/internal/application/generation"
	"edu-lesson-ai-api/internal/interfaces/http/dto"
	apperrors "edu-lesson-ai-api/pkg/errors"
)

// ArtifactHandler 一个变体（content 或 lesson）的生成与查询接口
type ArtifactHandler struct {
	svc     *generation.Service
	variant generation.Variant
}

// NewArtifactHandler 创建产物处理器
func NewArtifactHandler(svc *generation.Service, variant generation.Variant) *ArtifactHandler {
	return &ArtifactHandler{svc: svc, variant: variant}
}

// Generate 生成产物
// @Summary 生成内容
// @Tags Artifacts
// @Accept json
// @Produce json
// @Success 201 {object} entity.Artifact
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/contents/generate [post]
// @Router /v1/lessons/generate [post]
func (h *ArtifactHandler) Generate(c *gin.Context) {
	var body any
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, apperrors.Validation("body", "request body must be valid JSON"))
		return
	}

	artifact, err := h.svc.Generate(c.Request.Context(), h.variant, principal(c), body)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Created(c, artifact)
}

// List 按创建时间倒序列出
// @Summary 产物列表
// @Tags Artifacts
// @Produce json
// @Success 200 {array} entity.Artifact
// @Router /v1/contents [get]
// @Router /v1/lessons [get]
func (h *ArtifactHandler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context(), h.variant, principal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, items)
}

// Get 获取单个产物
// @Summary 产物详情
// @Tags Artifacts
// @Produce json
// @Param id path int true "产物 ID"
// @Success 200 {object} entity.Artifact
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/contents/{id} [get]
// @Router /v1/lessons/{id} [get]
func (h *ArtifactHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.notFoundUnlessAnonymous(c)
		return
	}
	artifact, err := h.svc.Get(c.Request.Context(), h.variant, principal(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, artifact)
}

// Delete 删除课程（仅本人）
// @Summary 删除课程
// @Tags Artifacts
// @Param id path int true "产物 ID"
// @Success 204
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/lessons/{id} [delete]
func (h *ArtifactHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.notFoundUnlessAnonymous(c)
		return
	}
	if err := h.svc.Delete(c.Request.Context(), h.variant, principal(c), id); err != nil {
		respondError(c, err)
		return
	}
	dto.NoContent(c)
}

// GradeQuiz 批改课程测验
// @Summary 批改测验
// @Tags Artifacts
// @Accept json
// @Produce json
// @Param id path int true "产物 ID"
// @Param body body dto.GradeQuizRequest true "所选答案"
// @Success 200 {object} entity.QuizResult
// @Router /v1/lessons/{id}/quiz/grade [post]
func (h *ArtifactHandler) GradeQuiz(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.notFoundUnlessAnonymous(c)
		return
	}
	var req dto.GradeQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Validation("answers", "answers must be an array of strings"))
		return
	}
	res, err := h.svc.GradeQuiz(c.Request.Context(), h.variant, principal(c), id, req.Answers)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, res)
}

// notFoundUnlessAnonymous 归属型接口先要求身份，再报告不存在
func (h *ArtifactHandler) notFoundUnlessAnonymous(c *gin.Context) {
	if h.variant.OwnerScoped && principal(c) == "" {
		respondError(c, apperrors.Authentication("authentication required"))
		return
	}
	respondError(c, apperrors.NotFound("artifact not found"))
}
