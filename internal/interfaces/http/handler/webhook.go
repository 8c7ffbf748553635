package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	webhookapp "github.com/erp/orderhook/internal/application/webhook"
	"github.com/erp/orderhook/internal/infrastructure/logger"
	"github.com/erp/orderhook/internal/interfaces/http/dto"
	"github.com/erp/orderhook/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// Delivery headers sent by the platform
const (
	HeaderHMAC      = "X-Shopify-Hmac-Sha256"
	HeaderTopic     = "X-Shopify-Topic"
	HeaderShop      = middleware.ShopDomainHeader
	HeaderWebhookID = "X-Shopify-Webhook-Id"
)

// WebhookReceiver records one verified delivery
type WebhookReceiver interface {
	Receive(ctx context.Context, req webhookapp.ReceiveRequest) (*webhookapp.ReceiveResult, error)
}

// WebhookHandler receives order webhooks. Deliveries authenticate by HMAC
// signature and are never behind the JWT middleware.
type WebhookHandler struct {
	BaseHandler
	receiver       WebhookReceiver
	maxPayloadSize int64
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(receiver WebhookReceiver, maxPayloadSize int64) *WebhookHandler {
	if maxPayloadSize <= 0 {
		maxPayloadSize = webhookapp.DefaultMaxPayloadSize
	}
	return &WebhookHandler{
		receiver:       receiver,
		maxPayloadSize: maxPayloadSize,
	}
}

// ReceiveOrderWebhook godoc
// @ID           receiveOrderWebhook
// @Summary      Receive an order webhook
// @Description  Verify, record and acknowledge an order or fulfillment delivery
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        X-Shopify-Hmac-Sha256  header string true "Base64 HMAC-SHA256 of the raw body"
// @Param        X-Shopify-Topic        header string true "Event topic"
// @Param        X-Shopify-Shop-Domain  header string true "Sending shop"
// @Param        X-Shopify-Webhook-Id   header string true "Platform event ID"
// @Success      200 {object} dto.Response{data=webhookapp.ReceiveResult}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      413 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Router       /webhooks/orders [post]
func (h *WebhookHandler) ReceiveOrderWebhook(c *gin.Context) {
	// The signature covers the exact bytes, so the body is read raw
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, h.maxPayloadSize+1))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodePayloadTooLarge, "Webhook payload exceeds the size limit")
			return
		}
		h.BadRequest(c, "Failed to read request body")
		return
	}
	if int64(len(body)) > h.maxPayloadSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodePayloadTooLarge, "Webhook payload exceeds the size limit")
		return
	}

	req := webhookapp.ReceiveRequest{
		ShopDomain:      strings.TrimSpace(c.GetHeader(HeaderShop)),
		Topic:           strings.TrimSpace(c.GetHeader(HeaderTopic)),
		PlatformEventID: strings.TrimSpace(c.GetHeader(HeaderWebhookID)),
		Signature:       strings.TrimSpace(c.GetHeader(HeaderHMAC)),
		Body:            body,
	}
	if missing := missingHeaders(req); len(missing) > 0 {
		details := make([]dto.ValidationDetail, 0, len(missing))
		for _, name := range missing {
			details = append(details, dto.ValidationDetail{Field: name, Message: "This header is required", Code: "required"})
		}
		c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse("Missing webhook headers", getRequestID(c), details))
		return
	}

	ctx := logger.WithShop(c.Request.Context(), req.ShopDomain)
	c.Request = c.Request.WithContext(ctx)

	result, err := h.receiver.Receive(ctx, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// missingHeaders lists absent identity headers. A missing signature is not
// listed: it fails verification like a wrong one.
func missingHeaders(req webhookapp.ReceiveRequest) []string {
	var missing []string
	if req.Topic == "" {
		missing = append(missing, HeaderTopic)
	}
	if req.ShopDomain == "" {
		missing = append(missing, HeaderShop)
	}
	if req.PlatformEventID == "" {
		missing = append(missing, HeaderWebhookID)
	}
	return missing
}
