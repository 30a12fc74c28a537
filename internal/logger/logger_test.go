package logger

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func setupRouter(log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger(log))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	return r
}

func TestRequestLogger_LevelFollowsStatus(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := setupRouter(zap.New(core))

	for _, path := range []string{"/ok", "/missing", "/boom"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, "/boom", entries[2].ContextMap()["path"])
}

func TestRequestLogger_PropagatesRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := setupRouter(zap.New(core))

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "req-123", logs.All()[0].ContextMap()["request_id"])
}

func TestRequestLogger_GeneratesRequestID(t *testing.T) {
	r := setupRouter(zap.NewNop())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))

	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestRequestLogger_ReplacesUnsafeRequestID(t *testing.T) {
	tests := []struct {
		name string
		id   string
	}{
		{"too long", strings.Repeat("a", maxRequestIDLen+1)},
		{"markup", "<script>alert(1)</script>"},
		{"spaces", "req 123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.InfoLevel)
			r := setupRouter(zap.New(core))

			req := httptest.NewRequest(http.MethodGet, "/ok", nil)
			req.Header.Set(RequestIDHeader, tt.id)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			echoed := w.Header().Get(RequestIDHeader)
			assert.NotEqual(t, tt.id, echoed)
			_, err := uuid.Parse(echoed)
			assert.NoError(t, err)
			require.Equal(t, 1, logs.Len())
			assert.Equal(t, echoed, logs.All()[0].ContextMap()["request_id"])
		})
	}
}

func TestRequestLogger_KeepsMaxLengthRequestID(t *testing.T) {
	r := setupRouter(zap.NewNop())
	id := strings.Repeat("b", maxRequestIDLen)

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(RequestIDHeader, id)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, id, w.Header().Get(RequestIDHeader))
}

func TestNew(t *testing.T) {
	log, err := New("production")
	require.NoError(t, err)
	assert.NotNil(t, log)

	log, err = New("development")
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
}
