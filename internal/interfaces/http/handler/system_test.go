package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthResponse(t *testing.T, h *SystemHandler) (int, bool, HealthResponse) {
	t.Helper()
	engine := gin.New()
	engine.GET("/health", h.Health)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	var body struct {
		Success bool           `json:"success"`
		Data    HealthResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body.Success, body.Data
}

func TestSystemHandler_Health(t *testing.T) {
	ok := HealthCheck{Name: "database", Ping: func(context.Context) error { return nil }}
	down := HealthCheck{Name: "redis", Ping: func(context.Context) error { return errors.New("connection refused") }}

	t.Run("all dependencies up", func(t *testing.T) {
		status, success, resp := healthResponse(t, NewSystemHandler("api", "1.0.0", ok))
		assert.Equal(t, http.StatusOK, status)
		assert.True(t, success)
		assert.Equal(t, "healthy", resp.Status)
		assert.Equal(t, map[string]string{"database": "ok"}, resp.Dependencies)
	})

	t.Run("one dependency down", func(t *testing.T) {
		status, success, resp := healthResponse(t, NewSystemHandler("api", "1.0.0", ok, down))
		assert.Equal(t, http.StatusServiceUnavailable, status)
		assert.False(t, success)
		assert.Equal(t, "unhealthy", resp.Status)
		assert.Equal(t, "ok", resp.Dependencies["database"])
		assert.Equal(t, "error", resp.Dependencies["redis"])
	})

	t.Run("probe honours the deadline", func(t *testing.T) {
		slow := HealthCheck{Name: "storage", Ping: func(ctx context.Context) error {
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)
			return nil
		}}
		status, _, _ := healthResponse(t, NewSystemHandler("api", "1.0.0", slow))
		assert.Equal(t, http.StatusOK, status)
	})
}

func TestSystemHandler_GetSystemInfo(t *testing.T) {
	h := NewSystemHandler("Mayavriksh Procurement API", "1.2.3")

	w, resp := serve(t, h.GetSystemInfo)
	require.Equal(t, http.StatusOK, w.Code)

	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var info SystemInfoResponse
	require.NoError(t, json.Unmarshal(raw, &info))
	assert.Equal(t, "Mayavriksh Procurement API", info.Name)
	assert.Equal(t, "1.2.3", info.Version)
	assert.NotEmpty(t, info.GoVersion)
	assert.NotEmpty(t, info.Uptime)
}
