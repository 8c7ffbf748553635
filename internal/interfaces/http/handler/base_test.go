package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/orderhook/internal/application/webhook"
	"github.com/erp/orderhook/internal/domain/shared"
	"github.com/erp/orderhook/internal/interfaces/http/dto"
	"github.com/erp/orderhook/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

func newTestContext(method, target string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, nil)
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestGetRequestID(t *testing.T) {
	c, _ := newTestContext(http.MethodGet, "/")
	assert.Empty(t, getRequestID(c))

	c.Request.Header.Set("X-Request-ID", "header-id")
	assert.Equal(t, "header-id", getRequestID(c))

	c.Set("request_id", "ctx-id")
	assert.Equal(t, "ctx-id", getRequestID(c))
}

func TestQueryBool(t *testing.T) {
	c, _ := newTestContext(http.MethodGet, "/?include_deleted=true&is_test=nope")

	v, present, err := queryBool(c, "include_deleted")
	require.NoError(t, err)
	assert.True(t, present)
	assert.True(t, v)

	_, present, err = queryBool(c, "missing")
	require.NoError(t, err)
	assert.False(t, present)

	_, _, err = queryBool(c, "is_test")
	assert.Error(t, err)
}

func TestBaseHandlerSuccessWithMeta(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodGet, "/")

	h.SuccessWithMeta(c, []string{"a", "b"}, 42, 2, 20)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(42), resp.Meta.Total)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}

func TestBaseHandlerHandleError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, dto.ErrCodeNotFound},
		{"wrapped not found", fmt.Errorf("load order: %w", shared.ErrNotFound), http.StatusNotFound, dto.ErrCodeNotFound},
		{"invalid transition", shared.NewDomainError("INVALID_STATE_TRANSITION", "order is not deleted"), http.StatusConflict, dto.ErrCodeInvalidStateTransition},
		{"forbidden", shared.NewDomainError("FORBIDDEN", "owner only"), http.StatusForbidden, dto.ErrCodeForbidden},
		{"signature", shared.ErrAuthenticationFailure, http.StatusUnauthorized, dto.ErrCodeSignatureInvalid},
		{"too large", webhook.ErrPayloadTooLarge, http.StatusRequestEntityTooLarge, dto.ErrCodePayloadTooLarge},
		{"invalid input", shared.ErrInvalidInput, http.StatusBadRequest, dto.ErrCodeInvalidInput},
		{"plain error", errors.New("connection refused"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			c, w := newTestContext(http.MethodGet, "/")
			c.Set("request_id", "req-1")

			h.HandleError(c, tt.err)

			assert.Equal(t, tt.expectedStatus, w.Code)
			resp := decodeResponse(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.expectedCode, resp.Error.Code)
			assert.Equal(t, "req-1", resp.Error.RequestID)
		})
	}
}

func TestBaseHandlerHandleError_HidesInternalDetail(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodGet, "/")

	h.HandleError(c, errors.New("pq: password authentication failed"))

	assert.NotContains(t, w.Body.String(), "password")
	assert.Len(t, c.Errors, 1)
}

func TestBaseHandlerHandleError_Nil(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodGet, "/")

	h.HandleError(c, nil)

	assert.Empty(t, w.Body.String())
}
