package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"edu-lesson-ai-api/internal/application/generation"
	"edu-lesson-ai-api/internal/config"
	"edu-lesson-ai-api/internal/domain/entity"
	"edu-lesson-ai-api/internal/infrastructure/persistence/postgres"
	"edu-lesson-ai-api/internal/interfaces/http/handler"
	"edu-lesson-ai-api/internal/interfaces/http/middleware"
	wfmodel "edu-lesson-ai-api/internal/workflow/model"
	workflowprompt "edu-lesson-ai-api/internal/workflow/prompt"
	"edu-lesson-ai-api/pkg/utils"
)

const (
	testSecret = "router-test-secret"
	testIssuer = "edu-lesson-ai-api"
)

type stubClient struct {
	response string
	err      error
}

func (c *stubClient) Generate(context.Context, *wfmodel.GenerateInput) (string, error) {
	return c.response, c.err
}

const stubLesson = `{
  "topicOverview": "Forces come in pairs.",
  "coreExplanation": "Equal and opposite.",
  "curriculumBasedExample": "Rocket exhaust.",
  "practiceQuestion": "Name the reaction force.",
  "keyTakeaways": ["pairs"],
  "objectiveTraceability": {"Understand force pairs": "explanation"},
  "animationCode": "<html></html>",
  "quiz": [{"question": "Capital of France?", "options": ["Paris", "Rome"], "correctAnswer": "Paris ", "explanation": "Paris."}],
  "factualCorrectness": 95, "curriculumAlignment": 90, "levelAppropriateness": 85, "biasSafety": 100
}`

func newTestRouter(t *testing.T, client generation.GenerationClient, limiter middleware.RateLimiter) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	dbClient := postgres.NewClientFromDB(db)
	require.NoError(t, postgres.AutoMigrate(context.Background(), dbClient))

	svc := generation.NewService(
		postgres.NewArtifactRepository(dbClient),
		client,
		generation.NewPromptBuilder(workflowprompt.NewRegistry()),
	)

	cfg := &config.Config{}
	cfg.App.Name = "edu-lesson-ai-api"
	cfg.Security.JWT.Secret = testSecret
	cfg.Security.JWT.Issuer = testIssuer
	cfg.Security.RateLimit.Enabled = limiter != nil

	r := New(cfg, Handlers{
		Health:  handler.NewHealthHandler("test", dbClient, nil),
		Content: handler.NewArtifactHandler(svc, generation.ContentVariant()),
		Lesson:  handler.NewArtifactHandler(svc, generation.LessonVariant()),
	}, limiter)
	return r.Engine()
}

func token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := utils.NewJWTManager(testSecret, testIssuer).GenerateToken(userID, "user", time.Hour)
	require.NoError(t, err)
	return tok
}

func do(t *testing.T, engine *gin.Engine, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, userID))
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func physicsRequest() map[string]any {
	return map[string]any{
		"subject":            "Physics",
		"topic":              "Newton's Third Law",
		"curriculum":         "AP",
		"learnerLevel":       "Intermediate",
		"learningObjectives": []string{"Understand force pairs"},
	}
}

func lessonRequest() map[string]any {
	body := physicsRequest()
	body["learningObjectives"] = []string{"Understand force pairs", "Identify pairs", "Apply to rockets"}
	return body
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestContentRoutes(t *testing.T) {
	engine := newTestRouter(t, &stubClient{response: stubLesson}, nil)

	w := do(t, engine, http.MethodPost, "/v1/contents/generate", "", physicsRequest())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[entity.Artifact](t, w)
	assert.Positive(t, created.ID)
	assert.Equal(t, 95, created.Payload().FactualCorrectness)
	// content 形态不携带测验
	assert.Empty(t, created.Payload().Quiz)

	w = do(t, engine, http.MethodGet, "/v1/contents", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]entity.Artifact](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	w = do(t, engine, http.MethodGet, fmt.Sprintf("/v1/contents/%d", created.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, engine, http.MethodGet, "/v1/contents/999", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, engine, http.MethodGet, "/v1/contents/abc", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGenerateValidationError(t *testing.T) {
	engine := newTestRouter(t, &stubClient{response: stubLesson}, nil)

	body := physicsRequest()
	body["topic"] = ""
	w := do(t, engine, http.MethodPost, "/v1/contents/generate", "", body)
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode[map[string]any](t, w)
	assert.Equal(t, "topic", resp["field"])
	assert.NotEmpty(t, resp["message"])

	w = do(t, engine, http.MethodPost, "/v1/contents/generate", "", "[1,2]")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "body", decode[map[string]any](t, w)["field"])

	w = do(t, engine, http.MethodPost, "/v1/contents/generate", "", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateFailureHidesDetail(t *testing.T) {
	engine := newTestRouter(t, &stubClient{err: fmt.Errorf("dial tcp 10.0.0.1: secret-host")}, nil)

	w := do(t, engine, http.MethodPost, "/v1/contents/generate", "", physicsRequest())
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "secret-host")
	assert.Equal(t, "content generation failed", decode[map[string]any](t, w)["message"])
}

func TestLessonRoutes(t *testing.T) {
	engine := newTestRouter(t, &stubClient{response: stubLesson}, nil)

	w := do(t, engine, http.MethodPost, "/v1/lessons/generate", "", lessonRequest())
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, engine, http.MethodGet, "/v1/lessons", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, engine, http.MethodPost, "/v1/lessons/generate", "alice", lessonRequest())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	lesson := decode[entity.Artifact](t, w)
	require.NotNil(t, lesson.OwnerID)
	assert.Equal(t, "alice", *lesson.OwnerID)
	require.Len(t, lesson.Payload().Quiz, 1)
	assert.Equal(t, "Paris", lesson.Payload().Quiz[0].CorrectAnswer)

	path := fmt.Sprintf("/v1/lessons/%d", lesson.ID)

	w = do(t, engine, http.MethodGet, "/v1/lessons", "bob", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]entity.Artifact](t, w))

	w = do(t, engine, http.MethodGet, path, "bob", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, engine, http.MethodPost, path+"/quiz/grade", "alice", map[string]any{"answers": []string{" paris"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode[entity.QuizResult](t, w)
	assert.Equal(t, 1, result.Correct)
	assert.Equal(t, 100, result.Score)

	w = do(t, engine, http.MethodDelete, path, "bob", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, engine, http.MethodDelete, path, "alice", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	w = do(t, engine, http.MethodDelete, path, "alice", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, engine, http.MethodDelete, "/v1/lessons/abc", "alice", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, engine, http.MethodDelete, "/v1/lessons/abc", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestInvalidTokenRejected(t *testing.T) {
	engine := newTestRouter(t, &stubClient{response: stubLesson}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/contents", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "2002", decode[map[string]any](t, w)["code"])
}

func TestExpiredTokenRejected(t *testing.T) {
	engine := newTestRouter(t, &stubClient{response: stubLesson}, nil)

	tok, err := utils.NewJWTManager(testSecret, testIssuer).GenerateToken("teacher-1", "user", -time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/lessons", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, "2001", body["code"])
	assert.Equal(t, "token expired", body["message"])
}

func TestGenerateRateLimited(t *testing.T) {
	engine := newTestRouter(t, &stubClient{response: stubLesson}, middleware.NewLocalRateLimiter(1, time.Hour, 1))

	w := do(t, engine, http.MethodPost, "/v1/contents/generate", "", physicsRequest())
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, engine, http.MethodPost, "/v1/contents/generate", "", physicsRequest())
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// 读取接口不限流
	w = do(t, engine, http.MethodGet, "/v1/contents", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthEndpoints(t *testing.T) {
	engine := newTestRouter(t, &stubClient{}, nil)

	for _, path := range []string{"/health", "/live", "/ready"} {
		w := do(t, engine, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
	w := do(t, engine, http.MethodGet, "/health", "", nil)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}
