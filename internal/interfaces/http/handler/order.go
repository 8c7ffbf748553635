package handler

import (
	"context"

	orderapp "github.com/erp/orderhook/internal/application/order"
	"github.com/erp/orderhook/internal/domain/order"
	"github.com/erp/orderhook/internal/domain/shared"
	"github.com/erp/orderhook/internal/interfaces/http/dto"
	"github.com/erp/orderhook/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OrderLifecycle is the manual order surface
type OrderLifecycle interface {
	Get(ctx context.Context, id uuid.UUID) (*orderapp.OrderResponse, error)
	List(ctx context.Context, shopDomain string, filter shared.Filter) ([]orderapp.OrderListItem, int64, error)
	SoftDelete(ctx context.Context, id uuid.UUID, actor order.Actor) (*orderapp.OrderResponse, error)
	Restore(ctx context.Context, id uuid.UUID, actor order.Actor) (*orderapp.OrderResponse, error)
	MarkTest(ctx context.Context, id uuid.UUID, actor order.Actor) (*orderapp.OrderResponse, error)
	HardDelete(ctx context.Context, id uuid.UUID, actor order.Actor) (*orderapp.HardDeleteResult, error)
}

// OrderHandler handles order projection HTTP requests
type OrderHandler struct {
	BaseHandler
	lifecycle OrderLifecycle
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(lifecycle OrderLifecycle) *OrderHandler {
	return &OrderHandler{lifecycle: lifecycle}
}

// OrderListQuery filters the order list
type OrderListQuery struct {
	dto.ListRequest
	ShopDomain string `form:"shop_domain" binding:"required,max=255,shop_domain"`
	Status     string `form:"status" binding:"omitempty,oneof=ACTIVE CANCELLED"`
	OrderBy    string `form:"order_by" binding:"omitempty,max=32"`
	OrderDir   string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ListOrders godoc
// @ID           listOrders
// @Summary      List a shop's orders
// @Description  Page through projected orders; soft-deleted orders are hidden unless include_deleted is set
// @Tags         orders
// @Produce      json
// @Param        shop_domain     query string true  "Shop domain"
// @Param        status          query string false "ACTIVE or CANCELLED"
// @Param        include_deleted query bool   false "Include soft-deleted orders"
// @Param        is_test         query bool   false "Only test or only real orders"
// @Param        page            query int    false "Page number" default(1)
// @Param        page_size       query int    false "Items per page" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]orderapp.OrderListItem}
// @Failure      400 {object} dto.Response
// @Security     BearerAuth
// @Router       /orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	var q OrderListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	q.Normalize()

	filter := shared.DefaultFilter()
	filter.Page = q.Page
	filter.PageSize = q.PageSize
	if q.OrderBy != "" {
		filter.OrderBy = q.OrderBy
	}
	if q.OrderDir != "" {
		filter.OrderDir = q.OrderDir
	}
	if q.Status != "" {
		filter.Set("status", q.Status)
	}
	for _, key := range []string{"include_deleted", "is_test"} {
		v, present, err := queryBool(c, key)
		if err != nil {
			h.BadRequest(c, "Invalid boolean for "+key)
			return
		}
		if present {
			filter.Set(key, v)
		}
	}

	items, total, err := h.lifecycle.List(c.Request.Context(), q.ShopDomain, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, q.Page, q.PageSize)
}

// GetOrder godoc
// @ID           getOrder
// @Summary      Get an order
// @Description  Return an order with its items, fulfillments, history and stock movements
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=orderapp.OrderResponse}
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	resp, err := h.lifecycle.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

type lifecycleOp func(ctx context.Context, id uuid.UUID, actor order.Actor) (*orderapp.OrderResponse, error)

func (h *OrderHandler) runLifecycle(c *gin.Context, op lifecycleOp) {
	id, ok := parseID(c)
	if !ok {
		h.BadRequest(c, "Invalid order ID")
		return
	}
	actor, ok := getActor(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	resp, err := op(c.Request.Context(), id, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// SoftDeleteOrder godoc
// @ID           softDeleteOrder
// @Summary      Soft delete an order
// @Description  Hide an active or cancelled order; stock is untouched and the order can be restored
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=orderapp.OrderResponse}
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Security     BearerAuth
// @Router       /orders/{id}/soft-delete [post]
func (h *OrderHandler) SoftDeleteOrder(c *gin.Context) {
	h.runLifecycle(c, h.lifecycle.SoftDelete)
}

// RestoreOrder godoc
// @ID           restoreOrder
// @Summary      Restore a soft-deleted order
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=orderapp.OrderResponse}
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Security     BearerAuth
// @Router       /orders/{id}/restore [post]
func (h *OrderHandler) RestoreOrder(c *gin.Context) {
	h.runLifecycle(c, h.lifecycle.Restore)
}

// MarkTestOrder godoc
// @ID           markTestOrder
// @Summary      Mark an order as a test order
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=orderapp.OrderResponse}
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /orders/{id}/mark-test [post]
func (h *OrderHandler) MarkTestOrder(c *gin.Context) {
	h.runLifecycle(c, h.lifecycle.MarkTest)
}

// HardDeleteOrder godoc
// @ID           hardDeleteOrder
// @Summary      Permanently delete an order
// @Description  Owner only. Returns reserved stock and removes the order and its records for good
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=orderapp.HardDeleteResult}
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Security     BearerAuth
// @Router       /orders/{id} [delete]
func (h *OrderHandler) HardDeleteOrder(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.BadRequest(c, "Invalid order ID")
		return
	}
	actor, ok := getActor(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	result, err := h.lifecycle.HardDelete(c.Request.Context(), id, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
