package handler

import (
	"context"
	"time"

	"github.com/erp/orderhook/internal/domain/order"
	"github.com/erp/orderhook/internal/infrastructure/auth"
	"github.com/erp/orderhook/internal/infrastructure/logger"
	"github.com/erp/orderhook/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler manages operator token lifetimes
type AuthHandler struct {
	BaseHandler
	revocations auth.RevocationList
	maxTokenTTL time.Duration
}

// NewAuthHandler creates a new AuthHandler. maxTokenTTL bounds how long a
// revocation by ID is remembered, since the token's own expiry is unknown.
func NewAuthHandler(revocations auth.RevocationList, maxTokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		revocations: revocations,
		maxTokenTTL: maxTokenTTL,
	}
}

// RevokeRequest names a token to revoke. An empty body revokes the caller's token.
type RevokeRequest struct {
	TokenID string `json:"token_id" binding:"omitempty,uuid"`
}

// RevokeResponse confirms a revocation
type RevokeResponse struct {
	TokenID   string    `json:"token_id"`
	RevokedAt time.Time `json:"revoked_at"`
	Until     time.Time `json:"until"`
}

// Revoke godoc
// @ID           revokeToken
// @Summary      Revoke an operator token
// @Description  Revoke the calling token, or as owner any token by ID, until it would have expired
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RevokeRequest false "Token to revoke"
// @Success      200 {object} dto.Response{data=RevokeResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Security     BearerAuth
// @Router       /auth/revoke [post]
func (h *AuthHandler) Revoke(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req RevokeRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.HandleValidationError(c, err)
			return
		}
	}

	tokenID, ttl := claims.ID, claims.RemainingTTL()
	if req.TokenID != "" && req.TokenID != claims.ID {
		if claims.Role != order.RoleOwner {
			h.Forbidden(c, "Only owners may revoke other tokens")
			return
		}
		tokenID, ttl = req.TokenID, h.maxTokenTTL
	}
	if tokenID == "" {
		h.BadRequest(c, "Token carries no ID and cannot be revoked")
		return
	}

	if err := h.revoke(c.Request.Context(), tokenID, ttl); err != nil {
		h.HandleError(c, err)
		return
	}

	logger.L(c.Request.Context()).Info("Operator token revoked",
		zap.String("token_id", tokenID),
		zap.Duration("ttl", ttl),
	)
	now := time.Now()
	h.Success(c, RevokeResponse{TokenID: tokenID, RevokedAt: now, Until: now.Add(ttl)})
}

func (h *AuthHandler) revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return h.revocations.Revoke(ctx, tokenID, ttl)
}
