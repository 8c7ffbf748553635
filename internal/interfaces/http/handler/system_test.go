package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemHandler_HealthOK(t *testing.T) {
	h := NewSystemHandler("orderhook", "1.2.3", map[string]HealthCheck{
		"database": func(context.Context) error { return nil },
	})
	c, w := newTestContext(http.MethodGet, "/health")

	h.Health(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "ok", data["status"])
	assert.Equal(t, "orderhook", data["name"])
	assert.Equal(t, "1.2.3", data["version"])
	assert.NotEmpty(t, data["go_version"])
	assert.Equal(t, map[string]any{"database": "ok"}, data["checks"])
}

func TestSystemHandler_HealthDegraded(t *testing.T) {
	h := NewSystemHandler("orderhook", "dev", map[string]HealthCheck{
		"database": func(context.Context) error { return errors.New("dial tcp: refused") },
		"redis":    func(context.Context) error { return nil },
	})
	c, w := newTestContext(http.MethodGet, "/health")

	h.Health(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	resp := decodeResponse(t, w)
	assert.False(t, resp.Success)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "degraded", data["status"])
	checks := data["checks"].(map[string]any)
	require.Len(t, checks, 2)
	assert.Equal(t, "unavailable", checks["database"])
	assert.Equal(t, "ok", checks["redis"])
	assert.NotContains(t, w.Body.String(), "refused")
}

func TestSystemHandler_HealthWithoutChecks(t *testing.T) {
	c, w := newTestContext(http.MethodGet, "/health")

	NewSystemHandler("orderhook", "dev", nil).Health(c)

	assert.Equal(t, http.StatusOK, w.Code)
	_, hasChecks := decodeResponse(t, w).Data.(map[string]any)["checks"]
	assert.False(t, hasChecks)
}
