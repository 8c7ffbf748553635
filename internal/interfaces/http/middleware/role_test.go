package middleware

import (
	"net/http"
	"testing"

	"github.com/erp/orderhook/internal/domain/order"
	"github.com/erp/orderhook/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRequireRole(t *testing.T) {
	svc := newTestJWTService()

	router := gin.New()
	router.Use(JWTAuthMiddleware(svc))
	router.GET("/api/v1/system/retry", RequireRole(order.RoleOwner, order.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	tests := []struct {
		role     order.Role
		expected int
	}{
		{order.RoleOwner, http.StatusOK},
		{order.RoleAdmin, http.StatusOK},
		{order.RoleOperator, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			issued := issueToken(t, svc, order.Actor{ID: "user-1", Role: tt.role})
			rec := serveWithToken(router, "/api/v1/system/retry", issued.Token)
			assert.Equal(t, tt.expected, rec.Code)
			if tt.expected == http.StatusForbidden {
				assert.Equal(t, dto.ErrCodeForbidden, errorCode(t, rec))
			}
		})
	}
}

func TestRequireRole_WithoutAuthentication(t *testing.T) {
	router := gin.New()
	router.GET("/test", RequireRole(order.RoleOwner), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	rec := serveWithToken(router, "/test", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, dto.ErrCodeUnauthorized, errorCode(t, rec))
}
