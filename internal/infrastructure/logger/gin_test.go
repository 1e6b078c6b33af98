package logger

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func findEntry(entries []observer.LoggedEntry, msg string) *observer.LoggedEntry {
	for i := range entries {
		if entries[i].Message == msg {
			return &entries[i]
		}
	}
	return nil
}

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("logs request with request id and status level", func(t *testing.T) {
		core, recorded := observer.New(zapcore.InfoLevel)

		router := gin.New()
		router.Use(func(c *gin.Context) {
			c.Set("request_id", "req-123")
			c.Next()
		})
		router.Use(GinMiddleware(zap.New(core)))
		router.GET("/api/products/:id", func(c *gin.Context) {
			assert.Equal(t, "req-123", GetRequestID(c.Request.Context()))
			c.JSON(http.StatusNotFound, gin.H{"error": "Donation not found"})
		})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/products/abc?x=1", nil)
		router.ServeHTTP(w, req)

		entry := findEntry(recorded.All(), "HTTP Request")
		require.NotNil(t, entry)
		assert.Equal(t, zapcore.WarnLevel, entry.Level)

		fields := entry.ContextMap()
		assert.Equal(t, "req-123", fields["request_id"])
		assert.Equal(t, int64(http.StatusNotFound), fields["status"])
		assert.Equal(t, "x=1", fields["query"])
	})

	t.Run("handlers receive the request logger", func(t *testing.T) {
		core, recorded := observer.New(zapcore.InfoLevel)

		router := gin.New()
		router.Use(GinMiddleware(zap.New(core)))
		router.GET("/ping", func(c *gin.Context) {
			GetGinLogger(c).Info("inside handler")
			c.Status(http.StatusOK)
		})

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))

		entry := findEntry(recorded.All(), "inside handler")
		require.NotNil(t, entry)
		assert.Equal(t, "/ping", entry.ContextMap()["path"])
	})
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, recorded := observer.New(zapcore.ErrorLevel)

	router := gin.New()
	router.Use(Recovery(zap.New(core)))
	router.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "An unexpected error occurred", body["error"])
	assert.Equal(t, "ERR_INTERNAL", body["code"])

	entry := findEntry(recorded.All(), "Panic recovered")
	require.NotNil(t, entry)
	assert.NotEmpty(t, entry.ContextMap()["stacktrace"])
}

func TestGetGinLogger_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.NotNil(t, GetGinLogger(c))
}
