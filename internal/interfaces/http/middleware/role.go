package middleware

import (
	"net/http"

	"github.com/erp/orderhook/internal/domain/order"
	"github.com/erp/orderhook/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RoleConfig holds configuration for role middleware
type RoleConfig struct {
	Logger *zap.Logger
}

// RequireRole creates middleware that admits only actors holding one of roles.
// It must run after the JWT middleware.
func RequireRole(roles ...order.Role) gin.HandlerFunc {
	return RequireRoleWithConfig(RoleConfig{}, roles...)
}

// RequireRoleWithConfig creates role middleware with custom config
func RequireRoleWithConfig(cfg RoleConfig, roles ...order.Role) gin.HandlerFunc {
	allowed := make(map[order.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnauthorized, "Authentication required", c.GetString("request_id")))
			return
		}

		if _, ok := allowed[actor.Role]; !ok {
			if cfg.Logger != nil {
				cfg.Logger.Warn("Role check failed",
					zap.String("actor_id", actor.ID),
					zap.String("role", string(actor.Role)),
					zap.String("path", c.Request.URL.Path),
				)
			}
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeForbidden, "Role "+string(actor.Role)+" may not perform this operation", c.GetString("request_id")))
			return
		}

		c.Next()
	}
}
