package handler

import (
	"context"

	webhookapp "github.com/erp/orderhook/internal/application/webhook"
	"github.com/erp/orderhook/internal/domain/shared"
	"github.com/erp/orderhook/internal/domain/webhook"
	"github.com/erp/orderhook/internal/interfaces/http/dto"
	"github.com/erp/orderhook/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RetryRunner runs one retry pass
type RetryRunner interface {
	ProcessBatch(ctx context.Context, maxItems int) (*webhookapp.BatchResult, error)
}

// EventQueue inspects and repairs the webhook event queue
type EventQueue interface {
	Stats(ctx context.Context) (*webhookapp.QueueStats, error)
	ListEvents(ctx context.Context, status webhook.Status, filter shared.Filter) ([]webhookapp.EventResponse, int64, error)
	GetEvent(ctx context.Context, id uuid.UUID) (*webhookapp.EventResponse, error)
	Requeue(ctx context.Context, id uuid.UUID, actorID string) (*webhookapp.EventResponse, error)
}

// WebhookQueueHandler serves the operator endpoints of the retry queue
type WebhookQueueHandler struct {
	BaseHandler
	runner RetryRunner
	queue  EventQueue
}

// NewWebhookQueueHandler creates a new WebhookQueueHandler
func NewWebhookQueueHandler(runner RetryRunner, queue EventQueue) *WebhookQueueHandler {
	return &WebhookQueueHandler{
		runner: runner,
		queue:  queue,
	}
}

// RetryQuery bounds a manual retry pass
type RetryQuery struct {
	MaxItems int `form:"max_items" binding:"omitempty,min=1,max=1000"`
}

// EventListQuery filters the event list
type EventListQuery struct {
	dto.ListRequest
	Status     string `form:"status" binding:"omitempty,oneof=pending processing processed failed exhausted"`
	ShopDomain string `form:"shop_domain" binding:"omitempty,max=255,shop_domain"`
}

// RunRetry godoc
// @ID           runWebhookRetry
// @Summary      Run a retry pass
// @Description  Re-apply due pending and failed events, oldest first
// @Tags         system
// @Produce      json
// @Param        max_items query int false "Upper bound on events processed"
// @Success      200 {object} dto.Response{data=webhookapp.BatchResult}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /system/webhooks/retry [post]
func (h *WebhookQueueHandler) RunRetry(c *gin.Context) {
	var q RetryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.runner.ProcessBatch(c.Request.Context(), q.MaxItems)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// GetStats godoc
// @ID           getWebhookQueueStats
// @Summary      Queue statistics
// @Description  Count events by status
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response{data=webhookapp.QueueStats}
// @Security     BearerAuth
// @Router       /system/webhooks/stats [get]
func (h *WebhookQueueHandler) GetStats(c *gin.Context) {
	stats, err := h.queue.Stats(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// ListEvents godoc
// @ID           listWebhookEvents
// @Summary      List webhook events
// @Description  Page through recorded events, newest first, optionally by status and shop
// @Tags         system
// @Produce      json
// @Param        status      query string false "Event status"
// @Param        shop_domain query string false "Shop domain"
// @Param        page        query int    false "Page number" default(1)
// @Param        page_size   query int    false "Items per page" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]webhookapp.EventResponse}
// @Failure      400 {object} dto.Response
// @Security     BearerAuth
// @Router       /system/webhooks/events [get]
func (h *WebhookQueueHandler) ListEvents(c *gin.Context) {
	var q EventListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	q.Normalize()

	filter := shared.DefaultFilter()
	filter.Page = q.Page
	filter.PageSize = q.PageSize
	filter.OrderBy = "received_at"
	if q.ShopDomain != "" {
		filter.Set("shop_domain", q.ShopDomain)
	}

	events, total, err := h.queue.ListEvents(c.Request.Context(), webhook.Status(q.Status), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, events, total, q.Page, q.PageSize)
}

// GetEvent godoc
// @ID           getWebhookEvent
// @Summary      Get a webhook event
// @Description  Return one event including its raw payload
// @Tags         system
// @Produce      json
// @Param        id path string true "Event ID" format(uuid)
// @Success      200 {object} dto.Response{data=webhookapp.EventResponse}
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /system/webhooks/events/{id} [get]
func (h *WebhookQueueHandler) GetEvent(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.BadRequest(c, "Invalid event ID")
		return
	}

	event, err := h.queue.GetEvent(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, event)
}

// RequeueEvent godoc
// @ID           requeueWebhookEvent
// @Summary      Requeue an exhausted event
// @Description  Reset an exhausted event's attempts so the next retry pass picks it up
// @Tags         system
// @Produce      json
// @Param        id path string true "Event ID" format(uuid)
// @Success      200 {object} dto.Response{data=webhookapp.EventResponse}
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Security     BearerAuth
// @Router       /system/webhooks/events/{id}/requeue [post]
func (h *WebhookQueueHandler) RequeueEvent(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.BadRequest(c, "Invalid event ID")
		return
	}
	actor, ok := getActor(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	event, err := h.queue.Requeue(c.Request.Context(), id, actor.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, event)
}
