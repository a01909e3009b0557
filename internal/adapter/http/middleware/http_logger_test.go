package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingPassesBodyThroughAndSkipsIt(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var logs bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&logs, nil))

	var seen string
	r := gin.New()
	r.Use(Logging(base))
	r.PUT("/v1/sessions/:id/customer", func(c *gin.Context) {
		raw, _ := io.ReadAll(c.Request.Body)
		seen = string(raw)
		c.Status(http.StatusNoContent)
	})

	body := `{"email":"dana@example.com","phone":"052-1234567"}`
	req := httptest.NewRequest(http.MethodPut, "/v1/sessions/s-1/customer", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, body, seen)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	require.Contains(t, logs.String(), `"route":"/v1/sessions/:id/customer"`)
	assert.NotContains(t, logs.String(), "dana@example.com")
}

func TestLoggingKeepsCallerRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Logging(slog.New(slog.NewTextHandler(io.Discard, nil))))

	req := httptest.NewRequest(http.MethodGet, "/nowhere", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
}
