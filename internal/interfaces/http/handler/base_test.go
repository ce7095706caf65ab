package handler

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	apperrors "edu-lesson-ai-api/pkg/errors"
	"edu-lesson-ai-api/pkg/logger"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logger.InitWithWriter(&buf, "debug", "json")
	t.Cleanup(func() { logger.Init("info", "json") })
	return &buf
}

func newTestContext(path string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, path, nil)
	return c, w
}

func TestRespondError_UnknownErrorIsLoggedAndHidden(t *testing.T) {
	logs := captureLogs(t)
	c, w := newTestContext("/v1/contents")

	respondError(c, errors.New("pq: connection reset by peer"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection reset")
	assert.Contains(t, w.Body.String(), "internal server error")
	assert.Contains(t, logs.String(), "request failed")
	assert.Contains(t, logs.String(), "connection reset by peer")
}

func TestRespondError_ServerAppErrorIsLogged(t *testing.T) {
	logs := captureLogs(t)
	c, w := newTestContext("/v1/contents")

	respondError(c, apperrors.Storage(errors.New("disk full")))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, logs.String(), "disk full")
}

func TestRespondError_ClientErrorNotLogged(t *testing.T) {
	logs := captureLogs(t)
	c, w := newTestContext("/v1/contents")

	respondError(c, apperrors.Validation("topic", "topic is required"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, logs.String())
}

func TestParseID(t *testing.T) {
	for _, tc := range []struct {
		raw string
		id  uint64
		ok  bool
	}{
		{"42", 42, true},
		{"0", 0, false},
		{"abc", 0, false},
		{"-1", 0, false},
	} {
		c, _ := newTestContext("/v1/lessons/" + tc.raw)
		c.Params = gin.Params{{Key: "id", Value: tc.raw}}
		id, ok := parseID(c)
		assert.Equal(t, tc.ok, ok, tc.raw)
		assert.Equal(t, tc.id, id, tc.raw)
		if ok {
			assert.Equal(t, tc.id, c.Request.Context().Value(logger.ArtifactIDKey))
		}
	}
}
