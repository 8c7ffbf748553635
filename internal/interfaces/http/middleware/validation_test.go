package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/erp/orderhook/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type retryQuery struct {
	MaxItems int    `form:"max_items" binding:"omitempty,min=1,max=500"`
	Status   string `form:"status" binding:"omitempty,oneof=pending processing processed failed exhausted"`
	Shop     string `form:"shop_domain" binding:"omitempty,shop_domain"`
}

type revokeBody struct {
	TokenID string `json:"token_id" binding:"required,uuid"`
}

func newValidationRouter() *gin.Engine {
	SetupValidator()
	router := gin.New()
	router.Use(RequestID())
	router.GET("/query", func(c *gin.Context) {
		var q retryQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})
	router.POST("/body", func(c *gin.Context) {
		var b revokeBody
		if err := c.ShouldBindJSON(&b); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})
	return router
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp
}

func TestHandleValidationError_QueryFields(t *testing.T) {
	router := newValidationRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/query?max_items=900&status=stuck", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, w.Header().Get(RequestIDHeader), resp.Error.RequestID)

	fields := map[string]dto.ValidationDetail{}
	for _, d := range resp.Error.Details {
		fields[d.Field] = d
	}
	require.Contains(t, fields, "max_items")
	assert.Equal(t, "Must be at most 500", fields["max_items"].Message)
	require.Contains(t, fields, "status")
	assert.Equal(t, "oneof", fields["status"].Code)
}

func TestHandleValidationError_JSONBody(t *testing.T) {
	router := newValidationRouter()

	t.Run("missing field", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/body", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		resp := decodeResponse(t, w)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "token_id", resp.Error.Details[0].Field)
		assert.Equal(t, "This field is required", resp.Error.Details[0].Message)
	})

	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/body", strings.NewReader(`{"token_id":`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeBadRequest, decodeResponse(t, w).Error.Code)
	})
}

func TestHandleValidationError_Valid(t *testing.T) {
	w := httptest.NewRecorder()
	newValidationRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/query?max_items=50&status=failed", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleValidationError_ShopDomain(t *testing.T) {
	router := newValidationRouter()

	for _, shop := range []string{"acme.myshopify.com", "Acme.MyShopify.com", "shop-1.example.io"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/query?shop_domain="+shop, nil))
		assert.Equal(t, http.StatusOK, w.Code, shop)
	}

	for _, shop := range []string{"localhost", "-acme.myshopify.com", "acme..com", "acme.myshopify.com/admin"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/query?shop_domain="+shop, nil))
		require.Equal(t, http.StatusBadRequest, w.Code, shop)
		resp := decodeResponse(t, w)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "shop_domain", resp.Error.Details[0].Field)
		assert.Equal(t, "shop_domain", resp.Error.Details[0].Code)
	}
}
